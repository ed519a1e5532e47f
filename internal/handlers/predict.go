package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"mangosense/api/internal/media/sniffer"
	"mangosense/api/internal/middleware"
	"mangosense/api/internal/ml"
	"mangosense/api/internal/models"
	"mangosense/api/internal/service"
)

// Predict accepts a multipart image upload, classifies it and returns the
// full prediction payload. Anonymous uploads are allowed; a logged-in user
// gets the image attributed to their account.
func (h HandlerSet) Predict(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", "No image file provided")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", "Could not read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", "Could not read uploaded file")
		return
	}

	input := service.PredictInput{
		Data:          data,
		Filename:      fileHeader.Filename,
		DeclaredMIME:  sniffer.MimeTypeFromHTTP(http.Header(fileHeader.Header)),
		DetectionType: c.PostForm("detection_type"),
		ClientIP:      c.ClientIP(),
		UserAgent:     c.GetHeader("User-Agent"),
	}
	if user, ok := middleware.CurrentUser(c); ok {
		input.UserID = &user.ID
	}

	result, err := h.predictService.Predict(c.Request.Context(), input)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			respondError(c, http.StatusBadRequest, "Validation failed", validationErr.Messages...)
			return
		}

		var preprocessErr *service.PreprocessError
		if errors.As(err, &preprocessErr) {
			h.log.Error().Err(err).Msg("image preprocessing failed")
			respondError(c, http.StatusInternalServerError, "Failed to process image")
			return
		}

		h.log.Error().Err(err).Msg("inference failed")
		respondError(c, http.StatusInternalServerError, "Prediction failed")
		return
	}

	message := "Image processed successfully"
	if result.LowConfidence() {
		message = "Image processed, but no disease could be identified with sufficient confidence"
	}
	respond(c, http.StatusOK, message, result)
}

type modelInfo struct {
	DetectionType string   `json:"detection_type"`
	Path          string   `json:"path"`
	Labels        []string `json:"labels"`
	NumClasses    int      `json:"num_classes"`
	Loaded        bool     `json:"loaded"`
}

// ModelStatus reports which classifiers are loaded and what they can detect.
func (h HandlerSet) ModelStatus(c *gin.Context) {
	infos := make([]modelInfo, 0, 2)
	for _, dt := range []models.DetectionType{models.DetectionTypeLeaf, models.DetectionTypeFruit} {
		model, err := h.registry.Get(dt)
		if err != nil {
			infos = append(infos, modelInfo{DetectionType: string(dt)})
			continue
		}
		labels := model.Labels()
		infos = append(infos, modelInfo{
			DetectionType: string(dt),
			Path:          model.Path(),
			Labels:        labels,
			NumClasses:    len(labels),
			Loaded:        true,
		})
	}

	dbStatus := "ok"
	if err := h.db.Ping(c.Request.Context()); err != nil {
		dbStatus = "unreachable"
	}

	respond(c, http.StatusOK, "Model status retrieved", gin.H{
		"models":               infos,
		"confidence_threshold": h.cfg.ML.ConfidenceThreshold,
		"treatments_available": ml.TreatmentCount(),
		"database":             dbStatus,
	})
}
