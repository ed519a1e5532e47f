package service

import (
	"fmt"
	"strings"
)

// ValidationError carries every violated upload constraint at once, so the
// client can surface all of them in a single round trip. Maps to HTTP 400.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid image file: " + strings.Join(e.Messages, "; ")
}

// PreprocessError marks a corrupt or undecodable image. Distinct from
// validation: the input passed the declared checks but could not be
// processed. Maps to HTTP 500.
type PreprocessError struct {
	Err error
}

func (e *PreprocessError) Error() string {
	return fmt.Sprintf("preprocess image: %v", e.Err)
}

func (e *PreprocessError) Unwrap() error { return e.Err }

// InferenceError marks a failure in or around the forward pass, including
// timeouts. Maps to HTTP 500.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
