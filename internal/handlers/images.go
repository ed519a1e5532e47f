package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mangosense/api/internal/middleware"
	"mangosense/api/internal/models"
	"mangosense/api/internal/repository"
)

type imagePayload struct {
	ID               int64      `json:"id"`
	UserID           *string    `json:"user_id"`
	OriginalFilename string     `json:"original_filename"`
	ContentType      string     `json:"content_type"`
	SizeBytes        int64      `json:"size_bytes"`
	PredictedClass   string     `json:"predicted_class"`
	ConfidenceScore  *float64   `json:"confidence_score"`
	DetectionType    string     `json:"detection_type"`
	Width            int        `json:"width"`
	Height           int        `json:"height"`
	Notes            string     `json:"notes"`
	IsVerified       bool       `json:"is_verified"`
	VerifiedBy       *string    `json:"verified_by"`
	VerifiedAt       *time.Time `json:"verified_at"`
	UploadedAt       time.Time  `json:"uploaded_at"`
	MediaURL         string     `json:"media_url"`
}

func toImagePayload(image models.Image) imagePayload {
	payload := imagePayload{
		ID:               image.ID,
		UserID:           image.UserID,
		OriginalFilename: image.OriginalFilename,
		ContentType:      image.ContentType,
		SizeBytes:        image.SizeBytes,
		PredictedClass:   image.PredictedClass,
		ConfidenceScore:  image.ConfidenceScore,
		DetectionType:    string(image.DetectionType),
		Width:            image.Width,
		Height:           image.Height,
		Notes:            image.Notes,
		IsVerified:       image.IsVerified,
		VerifiedBy:       image.VerifiedBy,
		VerifiedAt:       image.VerifiedAt,
		UploadedAt:       image.UploadedAt,
	}
	if image.ObjectKey != "" {
		payload.MediaURL = fmt.Sprintf("/api/v1/media/%d", image.ID)
	}
	return payload
}

// ListImages serves the dashboard's image table with search and filters.
func (h HandlerSet) ListImages(c *gin.Context) {
	page, size := pageParams(c)
	filter := repository.ImageFilter{
		Search:        c.Query("search"),
		Disease:       c.Query("disease"),
		DetectionType: c.Query("detection_type"),
		Limit:         size,
		Offset:        (page - 1) * size,
	}
	if raw := c.Query("verified"); raw != "" {
		verified := raw == "true" || raw == "1"
		filter.Verified = &verified
	}

	images, err := h.images.List(c.Request.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("list images failed")
		respondError(c, http.StatusInternalServerError, "Failed to list images")
		return
	}

	total, err := h.images.CountFiltered(c.Request.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("count images failed")
		respondError(c, http.StatusInternalServerError, "Failed to list images")
		return
	}

	payload := make([]imagePayload, 0, len(images))
	for _, image := range images {
		payload = append(payload, toImagePayload(image))
	}

	respond(c, http.StatusOK, "Images retrieved", gin.H{
		"images":     payload,
		"pagination": Pagination{Total: total, Page: page, PageSize: size},
	})
}

// GetImage returns one image with its inference audit trail.
func (h HandlerSet) GetImage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	image, err := h.images.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			respondError(c, http.StatusNotFound, "Image not found")
			return
		}
		h.log.Error().Err(err).Msg("get image failed")
		respondError(c, http.StatusInternalServerError, "Failed to load image")
		return
	}

	logs, err := h.predictionLogs.ListByImage(c.Request.Context(), id)
	if err != nil {
		h.log.Warn().Err(err).Int64("image_id", id).Msg("load prediction logs failed")
	}

	type logEntry struct {
		ID        int64     `json:"id"`
		ModelUsed string    `json:"model_used"`
		LatencyMS float64   `json:"latency_ms"`
		CreatedAt time.Time `json:"created_at"`
	}
	history := make([]logEntry, 0, len(logs))
	for _, log := range logs {
		history = append(history, logEntry{
			ID:        log.ID,
			ModelUsed: string(log.ModelUsed),
			LatencyMS: log.LatencyMS,
			CreatedAt: log.CreatedAt,
		})
	}

	respond(c, http.StatusOK, "Image retrieved", gin.H{
		"image":              toImagePayload(image),
		"prediction_history": history,
	})
}

type updateImageRequest struct {
	PredictedClass  *string  `json:"predicted_class"`
	ConfidenceScore *float64 `json:"confidence_score"`
	DetectionType   *string  `json:"detection_type"`
	IsVerified      *bool    `json:"is_verified"`
	Notes           *string  `json:"notes"`
}

func (r updateImageRequest) updates() map[string]any {
	updates := make(map[string]any)
	if r.PredictedClass != nil {
		updates["predicted_class"] = *r.PredictedClass
	}
	if r.ConfidenceScore != nil {
		updates["confidence_score"] = *r.ConfidenceScore
	}
	if r.DetectionType != nil {
		updates["detection_type"] = *r.DetectionType
	}
	if r.IsVerified != nil {
		updates["is_verified"] = *r.IsVerified
	}
	if r.Notes != nil {
		updates["notes"] = *r.Notes
	}
	return updates
}

// UpdateImage applies a partial edit against the updatable-column whitelist.
func (h HandlerSet) UpdateImage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.images.UpdateFields(c.Request.Context(), id, req.updates())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrImageNotFound):
			respondError(c, http.StatusNotFound, "Image not found")
		case errors.Is(err, repository.ErrNoUpdatableFields):
			respondError(c, http.StatusBadRequest, "No updatable fields in request")
		default:
			h.log.Error().Err(err).Msg("update image failed")
			respondError(c, http.StatusInternalServerError, "Failed to update image")
		}
		return
	}

	image, err := h.images.GetByID(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Msg("reload image after update failed")
		respondError(c, http.StatusInternalServerError, "Failed to update image")
		return
	}

	respond(c, http.StatusOK, "Image updated", toImagePayload(image))
}

// DeleteImage removes the record and its stored object. A failed object
// removal is logged but does not resurrect the record.
func (h HandlerSet) DeleteImage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	image, err := h.images.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			respondError(c, http.StatusNotFound, "Image not found")
			return
		}
		h.log.Error().Err(err).Msg("load image for delete failed")
		respondError(c, http.StatusInternalServerError, "Failed to delete image")
		return
	}

	if err := h.images.Delete(c.Request.Context(), id); err != nil {
		h.log.Error().Err(err).Msg("delete image failed")
		respondError(c, http.StatusInternalServerError, "Failed to delete image")
		return
	}

	if image.ObjectKey != "" {
		if err := h.store.Remove(c.Request.Context(), image.ObjectKey); err != nil {
			h.log.Warn().Err(err).Str("object_key", image.ObjectKey).Msg("remove stored object failed")
		}
	}

	respond(c, http.StatusOK, "Image deleted", nil)
}

// VerifyImage marks a prediction as reviewed by the current admin.
func (h HandlerSet) VerifyImage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.images.Verify(c.Request.Context(), id, user.ID); err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			respondError(c, http.StatusNotFound, "Image not found")
			return
		}
		h.log.Error().Err(err).Msg("verify image failed")
		respondError(c, http.StatusInternalServerError, "Failed to verify image")
		return
	}

	respond(c, http.StatusOK, "Image verified", nil)
}

type bulkUpdateRequest struct {
	IDs     []int64            `json:"ids"`
	Updates updateImageRequest `json:"updates"`
}

// BulkUpdateImages applies one edit to a set of images in a single statement.
func (h HandlerSet) BulkUpdateImages(c *gin.Context) {
	var req bulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		respondError(c, http.StatusBadRequest, "Validation failed", "ids must not be empty")
		return
	}

	updated, err := h.images.BulkUpdate(c.Request.Context(), req.IDs, req.Updates.updates())
	if err != nil {
		if errors.Is(err, repository.ErrNoUpdatableFields) {
			respondError(c, http.StatusBadRequest, "No updatable fields in request")
			return
		}
		h.log.Error().Err(err).Msg("bulk update images failed")
		respondError(c, http.StatusInternalServerError, "Failed to update images")
		return
	}

	respond(c, http.StatusOK, "Images updated", gin.H{"updated": updated})
}

// ExportImages dumps the whole image table as a JSON dataset download.
func (h HandlerSet) ExportImages(c *gin.Context) {
	images, err := h.images.ListAll(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("export images failed")
		respondError(c, http.StatusInternalServerError, "Failed to export images")
		return
	}

	payload := make([]imagePayload, 0, len(images))
	for _, image := range images {
		payload = append(payload, toImagePayload(image))
	}

	filename := fmt.Sprintf("images_export_%s.json", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	respond(c, http.StatusOK, "Dataset exported", gin.H{
		"images":      payload,
		"count":       len(payload),
		"exported_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}
