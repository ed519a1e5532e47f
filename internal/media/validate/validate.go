package validate

import (
	"fmt"
	"path/filepath"
	"strings"

	"mangosense/api/internal/media/sniffer"
)

var allowedMIMEs = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/webp": {},
}

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// Upload checks an uploaded file against every constraint and returns the
// full list of violation messages, never just the first one. An empty slice
// means the file is acceptable. No side effects.
func Upload(data []byte, declaredMIME, filename string, maxSizeBytes int64) []string {
	var errs []string

	if int64(len(data)) > maxSizeBytes {
		errs = append(errs, fmt.Sprintf("Image size must be less than %dMB", maxSizeBytes/(1024*1024)))
	}

	declared := strings.ToLower(strings.TrimSpace(declaredMIME))
	if _, ok := allowedMIMEs[declared]; !ok {
		errs = append(errs, "Only JPEG, PNG, and WebP images are allowed")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		errs = append(errs, "Invalid file extension")
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if _, err := sniffer.DetectHead(head); err != nil {
		errs = append(errs, "File content is not a supported image format")
	}

	return errs
}
