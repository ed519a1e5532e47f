package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mangosense/api/internal/config"
	"mangosense/api/internal/media/validate"
	"mangosense/api/internal/ml"
	"mangosense/api/internal/models"
)

// UnknownDisease is the reported class when the primary prediction falls
// below the confidence threshold.
const UnknownDisease = "Unknown"

const processedSize = "224x224"

// Classifier is what the pipeline needs from a loaded model.
type Classifier interface {
	Labels() []string
	Path() string
	Predict(ctx context.Context, input []float32) ([]float32, error)
}

// ClassifierSource resolves a detection type to its model. Backed by the
// startup registry in production, by fakes in tests.
type ClassifierSource func(dt models.DetectionType) (Classifier, error)

type imageStore interface {
	Create(ctx context.Context, image models.Image) (int64, error)
}

type predictionLogStore interface {
	Create(ctx context.Context, log models.PredictionLog) (int64, error)
}

type notificationStore interface {
	Create(ctx context.Context, n models.Notification) (int64, error)
}

type objectStore interface {
	Bucket() string
	Put(ctx context.Context, objectKey string, data []byte, contentType string) error
}

type PredictInput struct {
	Data          []byte
	Filename      string
	DeclaredMIME  string
	DetectionType string
	UserID        *string
	ClientIP      string
	UserAgent     string
}

type PrimaryPrediction struct {
	Disease         string  `json:"disease"`
	Confidence      string  `json:"confidence"`
	ConfidenceScore float64 `json:"confidence_score"`
	ConfidenceLevel string  `json:"confidence_level"`
	Treatment       string  `json:"treatment"`
	DetectionType   string  `json:"detection_type"`
}

type TopPrediction struct {
	Rank                int     `json:"rank"`
	Disease             string  `json:"disease"`
	Confidence          float64 `json:"confidence"`
	ConfidenceFormatted string  `json:"confidence_formatted"`
	Treatment           string  `json:"treatment"`
	DetectionType       string  `json:"detection_type"`
}

type PredictionOverview struct {
	MostLikely           string `json:"most_likely"`
	ConfidenceLevel      string `json:"confidence_level"`
	TotalDiseasesChecked int    `json:"total_diseases_checked"`
}

type DebugInfo struct {
	ModelLoaded   bool   `json:"model_loaded"`
	ImageSize     string `json:"image_size"`
	ProcessedSize string `json:"processed_size"`
}

// PredictResult is the full prediction payload. Fields are fixed here so
// the wire shape cannot drift between call sites.
type PredictResult struct {
	PrimaryPrediction PrimaryPrediction  `json:"primary_prediction"`
	Top3Predictions   []TopPrediction    `json:"top_3_predictions"`
	PredictionSummary PredictionOverview `json:"prediction_summary"`
	SavedImageID      *int64             `json:"saved_image_id"`
	ModelUsed         string             `json:"model_used"`
	ModelPath         string             `json:"model_path"`
	DebugInfo         DebugInfo          `json:"debug_info"`
}

// LowConfidence reports whether the result is the "Unknown" outcome.
func (r *PredictResult) LowConfidence() bool {
	return r.PrimaryPrediction.Disease == UnknownDisease
}

type PredictService struct {
	classifiers   ClassifierSource
	images        imageStore
	logs          predictionLogStore
	notifications notificationStore
	store         objectStore
	cfg           *config.AppConfig
	log           zerolog.Logger
}

func NewPredictService(
	classifiers ClassifierSource,
	images imageStore,
	logs predictionLogStore,
	notifications notificationStore,
	store objectStore,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *PredictService {
	return &PredictService{
		classifiers:   classifiers,
		images:        images,
		logs:          logs,
		notifications: notifications,
		store:         store,
		cfg:           cfg,
		log:           log,
	}
}

// Predict runs the whole pipeline: validate, preprocess, infer, summarize,
// gate on confidence, persist. Persistence failures never fail the request;
// the caller still gets the classification with SavedImageID left nil.
func (s *PredictService) Predict(ctx context.Context, input PredictInput) (*PredictResult, error) {
	start := time.Now()

	if msgs := validate.Upload(input.Data, input.DeclaredMIME, input.Filename, s.cfg.Upload.MaxSizeBytes); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}

	preprocessed, err := ml.Preprocess(input.Data)
	if err != nil {
		return nil, &PreprocessError{Err: err}
	}

	detectionType := normalizeDetectionType(input.DetectionType)

	classifier, err := s.classifiers(detectionType)
	if err != nil {
		return nil, &InferenceError{Err: err}
	}

	inferCtx, cancel := context.WithTimeout(ctx, s.cfg.ML.InferenceTimeout)
	defer cancel()

	probs, err := classifier.Predict(inferCtx, preprocessed.Data)
	if err != nil {
		return nil, &InferenceError{Err: err}
	}

	labels := classifier.Labels()
	summary, err := ml.Summarize(probs, labels)
	if err != nil {
		return nil, &InferenceError{Err: err}
	}

	result := &PredictResult{
		ModelUsed: string(detectionType),
		ModelPath: classifier.Path(),
		DebugInfo: DebugInfo{
			ModelLoaded:   true,
			ImageSize:     fmt.Sprintf("%dx%d", preprocessed.OriginalWidth, preprocessed.OriginalHeight),
			ProcessedSize: processedSize,
		},
	}

	if summary.Primary.Confidence < s.cfg.ML.ConfidenceThreshold {
		result.PrimaryPrediction = PrimaryPrediction{
			Disease:         UnknownDisease,
			Confidence:      ml.FormatPercent(summary.Primary.Confidence),
			ConfidenceScore: round2(summary.Primary.Confidence),
			ConfidenceLevel: summary.ConfidenceLevel,
			Treatment:       ml.UnknownTreatmentText,
			DetectionType:   string(detectionType),
		}
		result.Top3Predictions = []TopPrediction{}
		result.PredictionSummary = PredictionOverview{
			MostLikely:           UnknownDisease,
			ConfidenceLevel:      summary.ConfidenceLevel,
			TotalDiseasesChecked: summary.TotalLabels,
		}
		// Deliberate policy: low-confidence outcomes persist nothing.
		return result, nil
	}

	result.PrimaryPrediction = PrimaryPrediction{
		Disease:         summary.Primary.Disease,
		Confidence:      ml.FormatPercent(summary.Primary.Confidence),
		ConfidenceScore: round2(summary.Primary.Confidence),
		ConfidenceLevel: summary.ConfidenceLevel,
		Treatment:       ml.Treatment(summary.Primary.Disease),
		DetectionType:   string(detectionType),
	}
	result.Top3Predictions = make([]TopPrediction, 0, len(summary.Top))
	for _, p := range summary.Top {
		result.Top3Predictions = append(result.Top3Predictions, TopPrediction{
			Rank:                p.Rank,
			Disease:             p.Disease,
			Confidence:          round2(p.Confidence),
			ConfidenceFormatted: ml.FormatPercent(p.Confidence),
			Treatment:           ml.Treatment(p.Disease),
			DetectionType:       string(detectionType),
		})
	}
	result.PredictionSummary = PredictionOverview{
		MostLikely:           summary.Primary.Disease,
		ConfidenceLevel:      summary.ConfidenceLevel,
		TotalDiseasesChecked: summary.TotalLabels,
	}

	s.persist(ctx, input, preprocessed, detectionType, summary, probs, labels, result, start)

	return result, nil
}

// persist writes the image record and the prediction log. Both inserts are
// attempted even if one fails; every failure is logged and swallowed.
func (s *PredictService) persist(
	ctx context.Context,
	input PredictInput,
	preprocessed *ml.Input,
	detectionType models.DetectionType,
	summary ml.Summary,
	probs []float32,
	labels []string,
	result *PredictResult,
	start time.Time,
) {
	bucket := s.store.Bucket()
	objectKey := buildObjectKey(input.Filename)
	if err := s.store.Put(ctx, objectKey, input.Data, input.DeclaredMIME); err != nil {
		s.log.Error().Err(err).Str("object_key", objectKey).Msg("store image object failed")
		bucket, objectKey = "", ""
	}

	confidence := summary.Primary.Confidence / 100
	image := models.Image{
		UserID:           input.UserID,
		Bucket:           bucket,
		ObjectKey:        objectKey,
		OriginalFilename: input.Filename,
		ContentType:      input.DeclaredMIME,
		SizeBytes:        int64(len(input.Data)),
		PredictedClass:   summary.Primary.Disease,
		ConfidenceScore:  &confidence,
		DetectionType:    detectionType,
		Width:            preprocessed.OriginalWidth,
		Height:           preprocessed.OriginalHeight,
		ClientIP:         input.ClientIP,
		Notes:            fmt.Sprintf("Predicted via mobile app with %s confidence", ml.FormatPercent(summary.Primary.Confidence)),
	}

	var imageID *int64
	if id, err := s.images.Create(ctx, image); err != nil {
		s.log.Error().Err(err).Msg("save image record failed")
	} else {
		imageID = &id
		result.SavedImageID = &id

		if _, err := s.notifications.Create(ctx, models.Notification{
			Type:    models.NotificationTypeImageUpload,
			Title:   fmt.Sprintf("New %s image upload", detectionType),
			Message: fmt.Sprintf("Image uploaded: %s", input.Filename),
			ImageID: &id,
			UserID:  input.UserID,
		}); err != nil {
			s.log.Warn().Err(err).Int64("image_id", id).Msg("create upload notification failed")
		}
	}

	payload, err := json.Marshal(result)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal prediction payload failed")
		payload = nil
	}

	probabilities := make([]float64, len(probs))
	for i, p := range probs {
		probabilities[i] = float64(p)
	}

	predictionLog := models.PredictionLog{
		ImageID:       imageID,
		ModelUsed:     detectionType,
		Probabilities: probabilities,
		Labels:        labels,
		Response:      payload,
		LatencyMS:     float64(time.Since(start)) / float64(time.Millisecond),
		ClientIP:      input.ClientIP,
		UserAgent:     input.UserAgent,
	}
	if _, err := s.logs.Create(ctx, predictionLog); err != nil {
		s.log.Error().Err(err).Msg("save prediction log failed")
	}
}

func normalizeDetectionType(raw string) models.DetectionType {
	if strings.EqualFold(strings.TrimSpace(raw), string(models.DetectionTypeFruit)) {
		return models.DetectionTypeFruit
	}
	return models.DetectionTypeLeaf
}

// buildObjectKey keeps uploads grouped by date and avoids filename
// collisions while staying recognizable.
func buildObjectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = sanitizeFilename(base)

	datePrefix := time.Now().UTC().Format("2006/01/02")
	unique := uuid.NewString()[:8]
	return path.Join(datePrefix, fmt.Sprintf("%s_%s%s", base, unique, ext))
}

func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "image"
	}
	return b.String()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
