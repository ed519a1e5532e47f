package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangosense/api/internal/config"
	"mangosense/api/internal/models"
)

type fakeClassifier struct {
	labels []string
	probs  []float32
	err    error
}

func (f *fakeClassifier) Labels() []string { return f.labels }
func (f *fakeClassifier) Path() string     { return "models/test.onnx" }
func (f *fakeClassifier) Predict(ctx context.Context, input []float32) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.probs, nil
}

type fakeImageStore struct {
	created []models.Image
	err     error
}

func (f *fakeImageStore) Create(ctx context.Context, image models.Image) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.created = append(f.created, image)
	return int64(len(f.created)), nil
}

type fakeLogStore struct {
	created []models.PredictionLog
}

func (f *fakeLogStore) Create(ctx context.Context, log models.PredictionLog) (int64, error) {
	f.created = append(f.created, log)
	return int64(len(f.created)), nil
}

type fakeNotificationStore struct {
	created []models.Notification
}

func (f *fakeNotificationStore) Create(ctx context.Context, n models.Notification) (int64, error) {
	f.created = append(f.created, n)
	return int64(len(f.created)), nil
}

type fakeObjectStore struct {
	puts map[string][]byte
	err  error
}

func (f *fakeObjectStore) Bucket() string { return "test-bucket" }
func (f *fakeObjectStore) Put(ctx context.Context, objectKey string, data []byte, contentType string) error {
	if f.err != nil {
		return f.err
	}
	if f.puts == nil {
		f.puts = make(map[string][]byte)
	}
	f.puts[objectKey] = data
	return nil
}

type predictFixture struct {
	svc           *PredictService
	classifier    *fakeClassifier
	images        *fakeImageStore
	logs          *fakeLogStore
	notifications *fakeNotificationStore
	store         *fakeObjectStore
}

func newPredictFixture(t *testing.T, probs []float32) *predictFixture {
	t.Helper()

	classifier := &fakeClassifier{
		labels: []string{"Anthracnose", "Bacterial Canker", "Healthy", "Sooty Mold"},
		probs:  probs,
	}
	images := &fakeImageStore{}
	logs := &fakeLogStore{}
	notifications := &fakeNotificationStore{}
	store := &fakeObjectStore{}

	cfg := &config.AppConfig{
		ML: config.MLConfig{
			ConfidenceThreshold: 50.0,
			InferenceTimeout:    5 * time.Second,
		},
		Upload: config.UploadConfig{MaxSizeBytes: 10 * 1024 * 1024},
	}

	source := func(dt models.DetectionType) (Classifier, error) {
		return classifier, nil
	}

	return &predictFixture{
		svc:           NewPredictService(source, images, logs, notifications, store, cfg, zerolog.Nop()),
		classifier:    classifier,
		images:        images,
		logs:          logs,
		notifications: notifications,
		store:         store,
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 100, G: 160, B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testInput(t *testing.T) PredictInput {
	return PredictInput{
		Data:          testPNG(t),
		Filename:      "leaf sample.png",
		DeclaredMIME:  "image/png",
		DetectionType: "leaf",
		ClientIP:      "203.0.113.7",
		UserAgent:     "test-agent",
	}
}

func TestPredictHighConfidencePersistsEverything(t *testing.T) {
	f := newPredictFixture(t, []float32{0.05, 0.87, 0.05, 0.03})

	result, err := f.svc.Predict(context.Background(), testInput(t))
	require.NoError(t, err)

	assert.Equal(t, "Bacterial Canker", result.PrimaryPrediction.Disease)
	assert.Equal(t, "87.00%", result.PrimaryPrediction.Confidence)
	assert.Equal(t, "High", result.PrimaryPrediction.ConfidenceLevel)
	assert.NotEmpty(t, result.PrimaryPrediction.Treatment)
	assert.Equal(t, "leaf", result.ModelUsed)
	assert.False(t, result.LowConfidence())

	require.Len(t, result.Top3Predictions, 3)
	assert.Equal(t, "Bacterial Canker", result.Top3Predictions[0].Disease)
	assert.Equal(t, 1, result.Top3Predictions[0].Rank)

	require.NotNil(t, result.SavedImageID)
	require.Len(t, f.images.created, 1)
	saved := f.images.created[0]
	assert.Equal(t, "Bacterial Canker", saved.PredictedClass)
	require.NotNil(t, saved.ConfidenceScore)
	assert.InDelta(t, 0.87, *saved.ConfidenceScore, 0.0001)
	assert.Equal(t, models.DetectionTypeLeaf, saved.DetectionType)
	assert.Equal(t, "test-bucket", saved.Bucket)
	assert.Equal(t, 32, saved.Width)
	assert.Equal(t, 32, saved.Height)

	require.Len(t, f.logs.created, 1)
	log := f.logs.created[0]
	require.NotNil(t, log.ImageID)
	assert.Equal(t, *result.SavedImageID, *log.ImageID)
	assert.Equal(t, f.classifier.labels, log.Labels)
	assert.Len(t, log.Probabilities, len(f.classifier.labels))
	assert.NotEmpty(t, log.Response)

	require.Len(t, f.notifications.created, 1)
	assert.Equal(t, models.NotificationTypeImageUpload, f.notifications.created[0].Type)

	assert.Len(t, f.store.puts, 1)
}

func TestPredictLowConfidenceReturnsUnknownAndPersistsNothing(t *testing.T) {
	f := newPredictFixture(t, []float32{0.30, 0.28, 0.22, 0.20})

	result, err := f.svc.Predict(context.Background(), testInput(t))
	require.NoError(t, err)

	assert.True(t, result.LowConfidence())
	assert.Equal(t, UnknownDisease, result.PrimaryPrediction.Disease)
	assert.Equal(t, "30.00%", result.PrimaryPrediction.Confidence)
	assert.Equal(t, "Very Low", result.PrimaryPrediction.ConfidenceLevel)
	assert.Empty(t, result.Top3Predictions)
	assert.Equal(t, UnknownDisease, result.PredictionSummary.MostLikely)
	assert.Nil(t, result.SavedImageID)

	assert.Empty(t, f.images.created)
	assert.Empty(t, f.logs.created)
	assert.Empty(t, f.notifications.created)
	assert.Empty(t, f.store.puts)
}

func TestPredictImageStoreFailureStillSucceeds(t *testing.T) {
	f := newPredictFixture(t, []float32{0.9, 0.05, 0.03, 0.02})
	f.images.err = errors.New("db down")

	result, err := f.svc.Predict(context.Background(), testInput(t))
	require.NoError(t, err)

	assert.Nil(t, result.SavedImageID)
	assert.Empty(t, f.notifications.created)

	// The audit log is still attempted, unlinked.
	require.Len(t, f.logs.created, 1)
	assert.Nil(t, f.logs.created[0].ImageID)
}

func TestPredictObjectStoreFailureStillPersistsRecord(t *testing.T) {
	f := newPredictFixture(t, []float32{0.9, 0.05, 0.03, 0.02})
	f.store.err = errors.New("minio down")

	result, err := f.svc.Predict(context.Background(), testInput(t))
	require.NoError(t, err)

	require.NotNil(t, result.SavedImageID)
	require.Len(t, f.images.created, 1)
	assert.Empty(t, f.images.created[0].Bucket)
	assert.Empty(t, f.images.created[0].ObjectKey)
}

func TestPredictValidationFailure(t *testing.T) {
	f := newPredictFixture(t, []float32{0.9, 0.05, 0.03, 0.02})

	input := testInput(t)
	input.Filename = "sample.gif"
	input.DeclaredMIME = "image/gif"

	_, err := f.svc.Predict(context.Background(), input)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Messages, 2)
	assert.Empty(t, f.images.created)
	assert.Empty(t, f.logs.created)
}

func TestPredictCorruptImageIsPreprocessError(t *testing.T) {
	f := newPredictFixture(t, []float32{0.9, 0.05, 0.03, 0.02})

	input := testInput(t)
	// Valid PNG magic so validation passes, but truncated payload.
	input.Data = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, 0, 0, 0, 0)

	_, err := f.svc.Predict(context.Background(), input)

	var preprocessErr *PreprocessError
	assert.ErrorAs(t, err, &preprocessErr)
}

func TestPredictInferenceFailure(t *testing.T) {
	f := newPredictFixture(t, nil)
	f.classifier.err = errors.New("session exploded")

	_, err := f.svc.Predict(context.Background(), testInput(t))

	var inferenceErr *InferenceError
	require.ErrorAs(t, err, &inferenceErr)
	assert.Empty(t, f.images.created)
	assert.Empty(t, f.logs.created)
}

func TestPredictFruitDetectionTypeUsesFruitLabels(t *testing.T) {
	f := newPredictFixture(t, []float32{0.05, 0.87, 0.05, 0.03})

	input := testInput(t)
	input.DetectionType = "FRUIT"

	result, err := f.svc.Predict(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "fruit", result.ModelUsed)
	assert.Equal(t, "fruit", result.PrimaryPrediction.DetectionType)
}

func TestPredictUnrecognizedDetectionTypeDefaultsToLeaf(t *testing.T) {
	f := newPredictFixture(t, []float32{0.05, 0.87, 0.05, 0.03})

	input := testInput(t)
	input.DetectionType = "stem"

	result, err := f.svc.Predict(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "leaf", result.ModelUsed)
}

func TestBuildObjectKeySanitizes(t *testing.T) {
	key := buildObjectKey("my leaf photo!.PNG")
	assert.Contains(t, key, "my_leaf_photo")
	assert.Contains(t, key, ".png")
	assert.NotContains(t, key, " ")
	assert.NotContains(t, key, "!")
}
