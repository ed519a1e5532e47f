package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mangosense/api/internal/models"
	"mangosense/api/internal/repository"
)

type notificationPayload struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	ImageID   *int64    `json:"image_id"`
	UserID    *string   `json:"user_id"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func toNotificationPayload(n models.Notification) notificationPayload {
	return notificationPayload{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		ImageID:   n.ImageID,
		UserID:    n.UserID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

// ListNotifications serves the notification feed. The backfill flag first
// creates notifications for any images that never got one, then lists.
func (h HandlerSet) ListNotifications(c *gin.Context) {
	if c.Query("backfill") == "true" {
		created, err := h.notifications.BackfillFromImages(c.Request.Context())
		if err != nil {
			h.log.Error().Err(err).Msg("notification backfill failed")
			respondError(c, http.StatusInternalServerError, "Failed to backfill notifications")
			return
		}
		if created > 0 {
			h.log.Info().Int64("created", created).Msg("notifications backfilled")
		}
	}

	page, size := pageParams(c)
	limit, offset := size, (page-1)*size

	notifications, err := h.notifications.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("list notifications failed")
		respondError(c, http.StatusInternalServerError, "Failed to list notifications")
		return
	}

	total, err := h.notifications.Count(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("count notifications failed")
		respondError(c, http.StatusInternalServerError, "Failed to list notifications")
		return
	}

	unread, err := h.notifications.CountUnread(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("count unread notifications failed")
		respondError(c, http.StatusInternalServerError, "Failed to list notifications")
		return
	}

	payload := make([]notificationPayload, 0, len(notifications))
	for _, n := range notifications {
		payload = append(payload, toNotificationPayload(n))
	}

	respond(c, http.StatusOK, "Notifications retrieved", gin.H{
		"notifications": payload,
		"unread_count":  unread,
		"pagination":    Pagination{Total: total, Page: page, PageSize: size},
	})
}

func (h HandlerSet) GetNotification(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	notification, err := h.notifications.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			respondError(c, http.StatusNotFound, "Notification not found")
			return
		}
		h.log.Error().Err(err).Msg("get notification failed")
		respondError(c, http.StatusInternalServerError, "Failed to load notification")
		return
	}

	respond(c, http.StatusOK, "Notification retrieved", toNotificationPayload(notification))
}

func (h HandlerSet) DeleteNotification(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.notifications.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			respondError(c, http.StatusNotFound, "Notification not found")
			return
		}
		h.log.Error().Err(err).Msg("delete notification failed")
		respondError(c, http.StatusInternalServerError, "Failed to delete notification")
		return
	}

	respond(c, http.StatusOK, "Notification deleted", nil)
}

type deleteSelectedRequest struct {
	IDs []int64 `json:"ids"`
}

func (h HandlerSet) DeleteSelectedNotifications(c *gin.Context) {
	var req deleteSelectedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		respondError(c, http.StatusBadRequest, "Validation failed", "ids must not be empty")
		return
	}

	deleted, err := h.notifications.DeleteMany(c.Request.Context(), req.IDs)
	if err != nil {
		h.log.Error().Err(err).Msg("delete notifications failed")
		respondError(c, http.StatusInternalServerError, "Failed to delete notifications")
		return
	}

	respond(c, http.StatusOK, "Notifications deleted", gin.H{"deleted": deleted})
}

func (h HandlerSet) MarkNotificationRead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			respondError(c, http.StatusNotFound, "Notification not found")
			return
		}
		h.log.Error().Err(err).Msg("mark notification read failed")
		respondError(c, http.StatusInternalServerError, "Failed to update notification")
		return
	}

	respond(c, http.StatusOK, "Notification marked as read", nil)
}

func (h HandlerSet) MarkAllNotificationsRead(c *gin.Context) {
	updated, err := h.notifications.MarkAllRead(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("mark all notifications read failed")
		respondError(c, http.StatusInternalServerError, "Failed to update notifications")
		return
	}

	respond(c, http.StatusOK, "All notifications marked as read", gin.H{"updated": updated})
}
