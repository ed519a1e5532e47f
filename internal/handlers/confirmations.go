package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mangosense/api/internal/middleware"
	"mangosense/api/internal/models"
	"mangosense/api/internal/repository"
)

type confirmationPayload struct {
	ID               int64     `json:"id"`
	ImageID          int64     `json:"image_id"`
	UserID           *string   `json:"user_id"`
	IsCorrect        bool      `json:"is_correct"`
	PredictedDisease string    `json:"predicted_disease"`
	Feedback         string    `json:"feedback"`
	ConfidenceScore  *float64  `json:"confidence_score"`
	LocationConsent  bool      `json:"location_consent"`
	Latitude         *float64  `json:"latitude,omitempty"`
	Longitude        *float64  `json:"longitude,omitempty"`
	LocationAccuracy *float64  `json:"location_accuracy,omitempty"`
	LocationAddress  string    `json:"location_address,omitempty"`
	ConfirmedAt      time.Time `json:"confirmed_at"`
}

func toConfirmationPayload(c models.Confirmation) confirmationPayload {
	return confirmationPayload{
		ID:               c.ID,
		ImageID:          c.ImageID,
		UserID:           c.UserID,
		IsCorrect:        c.IsCorrect,
		PredictedDisease: c.PredictedDisease,
		Feedback:         c.Feedback,
		ConfidenceScore:  c.ConfidenceScore,
		LocationConsent:  c.LocationConsent,
		Latitude:         c.Latitude,
		Longitude:        c.Longitude,
		LocationAccuracy: c.LocationAccuracy,
		LocationAddress:  c.LocationAddress,
		ConfirmedAt:      c.ConfirmedAt,
	}
}

type createConfirmationRequest struct {
	ImageID          int64    `json:"image_id"`
	IsCorrect        *bool    `json:"is_correct"`
	Feedback         string   `json:"feedback"`
	LocationConsent  bool     `json:"location_consent"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	LocationAccuracy *float64 `json:"location_accuracy"`
	LocationAddress  string   `json:"location_address"`
}

// CreateConfirmation records a user's verdict on a saved prediction. The
// predicted disease and confidence are copied from the image record so the
// verdict stays meaningful even if the image is edited later.
func (h HandlerSet) CreateConfirmation(c *gin.Context) {
	var req createConfirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ImageID <= 0 || req.IsCorrect == nil {
		respondError(c, http.StatusBadRequest, "Validation failed", "image_id and is_correct are required")
		return
	}

	image, err := h.images.GetByID(c.Request.Context(), req.ImageID)
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			respondError(c, http.StatusNotFound, "Image not found")
			return
		}
		h.log.Error().Err(err).Msg("load image for confirmation failed")
		respondError(c, http.StatusInternalServerError, "Failed to record confirmation")
		return
	}

	confirmation := models.Confirmation{
		ImageID:          image.ID,
		IsCorrect:        *req.IsCorrect,
		PredictedDisease: image.PredictedClass,
		Feedback:         req.Feedback,
		ConfidenceScore:  image.ConfidenceScore,
		ClientIP:         c.ClientIP(),
		LocationConsent:  req.LocationConsent,
		LocationAddress:  req.LocationAddress,
	}
	if req.LocationConsent {
		confirmation.Latitude = req.Latitude
		confirmation.Longitude = req.Longitude
		confirmation.LocationAccuracy = req.LocationAccuracy
	}
	if user, ok := middleware.CurrentUser(c); ok {
		confirmation.UserID = &user.ID
	}

	id, err := h.confirmations.Create(c.Request.Context(), confirmation)
	if err != nil {
		if errors.Is(err, repository.ErrConfirmationExists) {
			respondError(c, http.StatusBadRequest, "This image has already been confirmed")
			return
		}
		h.log.Error().Err(err).Msg("create confirmation failed")
		respondError(c, http.StatusInternalServerError, "Failed to record confirmation")
		return
	}

	confirmation.ID = id
	confirmation.ConfirmedAt = time.Now().UTC()
	respond(c, http.StatusCreated, "Confirmation recorded", toConfirmationPayload(confirmation))
}

// ListConfirmations serves the dashboard's confirmation table together
// with the overall verdict split.
func (h HandlerSet) ListConfirmations(c *gin.Context) {
	page, size := pageParams(c)
	filter := repository.ConfirmationFilter{
		Verdict: c.Query("verdict"),
		Disease: c.Query("disease"),
		UserID:  c.Query("user_id"),
		Limit:   size,
		Offset:  (page - 1) * size,
	}

	confirmations, err := h.confirmations.List(c.Request.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("list confirmations failed")
		respondError(c, http.StatusInternalServerError, "Failed to list confirmations")
		return
	}

	total, err := h.confirmations.CountFiltered(c.Request.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("count confirmations failed")
		respondError(c, http.StatusInternalServerError, "Failed to list confirmations")
		return
	}

	counts, err := h.confirmations.CountVerdicts(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("count confirmation verdicts failed")
		respondError(c, http.StatusInternalServerError, "Failed to list confirmations")
		return
	}

	payload := make([]confirmationPayload, 0, len(confirmations))
	for _, confirmation := range confirmations {
		payload = append(payload, toConfirmationPayload(confirmation))
	}

	var accuracy float64
	if counts.Total > 0 {
		accuracy = float64(counts.Confirmed) / float64(counts.Total) * 100
	}

	respond(c, http.StatusOK, "Confirmations retrieved", gin.H{
		"confirmations": payload,
		"summary": gin.H{
			"total":         counts.Total,
			"confirmed":     counts.Confirmed,
			"rejected":      counts.Rejected,
			"accuracy_rate": accuracy,
		},
		"pagination": Pagination{Total: total, Page: page, PageSize: size},
	})
}

// pageParams reads page/page_size with sane bounds.
func pageParams(c *gin.Context) (page, size int) {
	page = queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	size = queryInt(c, "page_size", 50)
	if size < 1 || size > 500 {
		size = 50
	}
	return page, size
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
