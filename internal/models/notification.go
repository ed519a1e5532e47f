package models

import "time"

type NotificationType string

const (
	NotificationTypeImageUpload NotificationType = "image_upload"
	NotificationTypeSystem      NotificationType = "system"
	NotificationTypeAlert       NotificationType = "alert"
)

type Notification struct {
	ID        int64
	Type      NotificationType
	Title     string
	Message   string
	ImageID   *int64
	UserID    *string
	IsRead    bool
	CreatedAt time.Time
}
