package models

import "time"

// PredictionLog is the append-only audit record of one inference call.
// Probabilities and Labels always have equal length. ImageID is nullable
// so the log insert can still be attempted when the image insert failed.
type PredictionLog struct {
	ID            int64
	ImageID       *int64
	ModelUsed     DetectionType
	Probabilities []float64
	Labels        []string
	Response      []byte // full response payload, stored as JSONB
	LatencyMS     float64
	ClientIP      string
	UserAgent     string
	CreatedAt     time.Time
}
