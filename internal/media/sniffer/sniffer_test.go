package sniffer

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectHeadJPEG(t *testing.T) {
	result, err := DetectHead([]byte{0xff, 0xd8, 0xff, 0xe0})
	require.NoError(t, err)
	assert.Equal(t, TypeJPEG, result.Type)
	assert.Equal(t, "image/jpeg", result.MIME)
}

func TestDetectHeadPNG(t *testing.T) {
	result, err := DetectHead([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0})
	require.NoError(t, err)
	assert.Equal(t, TypePNG, result.Type)
	assert.Equal(t, "image/png", result.MIME)
}

func TestDetectHeadWEBP(t *testing.T) {
	head := append([]byte("RIFF"), 0x24, 0x00, 0x00, 0x00)
	head = append(head, []byte("WEBPVP8 ")...)

	result, err := DetectHead(head)
	require.NoError(t, err)
	assert.Equal(t, TypeWEBP, result.Type)
	assert.Equal(t, "image/webp", result.MIME)
}

func TestDetectHeadUnknown(t *testing.T) {
	_, err := DetectHead([]byte("GIF89a"))
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestDetectHeadEmpty(t *testing.T) {
	_, err := DetectHead(nil)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestMimeTypeFromHTTP(t *testing.T) {
	header := http.Header{}
	header.Set("Content-Type", "image/jpeg; charset=binary")
	assert.Equal(t, "image/jpeg", MimeTypeFromHTTP(header))

	header.Set("Content-Type", "image/png")
	assert.Equal(t, "image/png", MimeTypeFromHTTP(header))

	assert.Equal(t, "", MimeTypeFromHTTP(http.Header{}))
}
