package models

import "time"

// Confirmation is a user's verdict on a prediction. At most one exists per
// image; duplicates are rejected at the database level.
type Confirmation struct {
	ID               int64
	ImageID          int64
	UserID           *string
	IsCorrect        bool
	PredictedDisease string
	Feedback         string
	ConfidenceScore  *float64
	ClientIP         string
	LocationConsent  bool
	Latitude         *float64
	Longitude        *float64
	LocationAccuracy *float64
	LocationAddress  string
	ConfirmedAt      time.Time
}
