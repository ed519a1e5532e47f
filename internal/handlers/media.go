package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mangosense/api/internal/repository"
)

// ServeMedia streams the original upload bytes for an image record.
func (h HandlerSet) ServeMedia(c *gin.Context) {
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
		h.log.Error().Err(err).Msg("load image for media failed")
		respondError(c, http.StatusInternalServerError, "Failed to load image")
		return
	}

	if image.ObjectKey == "" {
		respondError(c, http.StatusNotFound, "Image has no stored file")
		return
	}

	reader, err := h.store.Get(c.Request.Context(), image.ObjectKey)
	if err != nil {
		h.log.Error().Err(err).Str("object_key", image.ObjectKey).Msg("get stored object failed")
		respondError(c, http.StatusInternalServerError, "Failed to load image file")
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, image.SizeBytes, image.ContentType, reader, map[string]string{
		"Cache-Control": "private, max-age=3600",
	})
}
