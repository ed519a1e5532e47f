package validate

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maxSize = 10 * 1024 * 1024

// minimal JPEG header so content sniffing passes
var jpegHead = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

func TestUploadAcceptsValidJPEG(t *testing.T) {
	errs := Upload(jpegHead, "image/jpeg", "leaf.jpg", maxSize)
	assert.Empty(t, errs)
}

func TestUploadAcceptsJPGAlias(t *testing.T) {
	errs := Upload(jpegHead, "image/jpg", "leaf.jpeg", maxSize)
	assert.Empty(t, errs)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	big := append(bytes.Clone(jpegHead), make([]byte, 15*1024*1024)...)

	errs := Upload(big, "image/jpeg", "leaf.jpg", maxSize)
	require.Len(t, errs, 1)
	assert.Equal(t, "Image size must be less than 10MB", errs[0])
}

func TestUploadRejectsDisallowedMIME(t *testing.T) {
	errs := Upload(jpegHead, "image/gif", "leaf.jpg", maxSize)
	require.Len(t, errs, 1)
	assert.Equal(t, "Only JPEG, PNG, and WebP images are allowed", errs[0])
}

func TestUploadRejectsBadExtension(t *testing.T) {
	errs := Upload(jpegHead, "image/jpeg", "leaf.gif", maxSize)
	require.Len(t, errs, 1)
	assert.Equal(t, "Invalid file extension", errs[0])
}

func TestUploadRejectsNonImageContent(t *testing.T) {
	errs := Upload([]byte("<html>not an image</html>"), "image/jpeg", "leaf.jpg", maxSize)
	require.Len(t, errs, 1)
	assert.Equal(t, "File content is not a supported image format", errs[0])
}

func TestUploadReportsAllViolationsAtOnce(t *testing.T) {
	big := append([]byte("not an image at all"), make([]byte, 15*1024*1024)...)

	errs := Upload(big, "text/plain", "virus.exe", maxSize)
	assert.Len(t, errs, 4)
	assert.Contains(t, errs, "Image size must be less than 10MB")
	assert.Contains(t, errs, "Only JPEG, PNG, and WebP images are allowed")
	assert.Contains(t, errs, "Invalid file extension")
	assert.Contains(t, errs, "File content is not a supported image format")
}

func TestUploadMIMECaseInsensitive(t *testing.T) {
	errs := Upload(jpegHead, "IMAGE/JPEG", "leaf.JPG", maxSize)
	assert.Empty(t, errs)
}
