package models

import "time"

// DetectionType selects which classifier examined an image. The two label
// sets are disjoint per model and must never be intermixed.
type DetectionType string

const (
	DetectionTypeLeaf  DetectionType = "leaf"
	DetectionTypeFruit DetectionType = "fruit"
)

// Image is one uploaded photo together with the prediction attached to it.
// Prediction fields are written once; only the verification fields are
// mutated afterwards, and deletion is an explicit admin action.
type Image struct {
	ID               int64
	UserID           *string
	Bucket           string
	ObjectKey        string
	OriginalFilename string
	ContentType      string
	SizeBytes        int64
	PredictedClass   string
	ConfidenceScore  *float64 // 0..1
	DetectionType    DetectionType
	Width            int
	Height           int
	ClientIP         string
	Notes            string
	IsVerified       bool
	VerifiedBy       *string
	VerifiedAt       *time.Time
	UploadedAt       time.Time
}
