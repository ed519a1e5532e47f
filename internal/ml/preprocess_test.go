package ml

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestPNG(t *testing.T, width, height int, fill color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPreprocessShapeAndDimensions(t *testing.T) {
	data := encodeTestPNG(t, 640, 480, color.RGBA{R: 120, G: 200, B: 40, A: 255})

	input, err := Preprocess(data)
	require.NoError(t, err)

	assert.Len(t, input.Data, InputSize*InputSize*3)
	assert.Equal(t, 640, input.OriginalWidth)
	assert.Equal(t, 480, input.OriginalHeight)
}

func TestPreprocessKeepsRawPixelRange(t *testing.T) {
	data := encodeTestPNG(t, 64, 64, color.RGBA{R: 120, G: 200, B: 40, A: 255})

	input, err := Preprocess(data)
	require.NoError(t, err)

	// Uniform image, so every pixel carries the fill color unscaled.
	assert.InDelta(t, 120, input.Data[0], 1)
	assert.InDelta(t, 200, input.Data[1], 1)
	assert.InDelta(t, 40, input.Data[2], 1)

	for _, v := range input.Data {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(255))
	}
}

func TestPreprocessRejectsCorruptData(t *testing.T) {
	_, err := Preprocess([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUndecodable)
}

func TestPreprocessRejectsTruncatedPNG(t *testing.T) {
	data := encodeTestPNG(t, 64, 64, color.RGBA{A: 255})
	_, err := Preprocess(data[:20])
	assert.ErrorIs(t, err, ErrUndecodable)
}
