package scanning

import (
	"errors"
	"fmt"
)

var (
	// ErrNoImage is returned when the caller supplied no usable image
	ErrNoImage = &InputError{Message: "no image data provided"}

	// ErrNoCredential is returned when the model provider has no API key configured
	ErrNoCredential = errors.New("api key not configured")

	// ErrEmptyResponse is returned when the model replied without any text content
	ErrEmptyResponse = errors.New("no text content in model response")
)

// InputError reports a request that carried nothing the scanner can use
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// UpstreamError reports a failed call to the model provider.
// StatusCode is 0 when no HTTP response was received.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("calling model API: %v", e.Err)
	}
	return fmt.Sprintf("model API error (status %d): %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// FormatKind distinguishes the two ways a model reply can fail to become JSON
type FormatKind int

const (
	// NoJSON means no {...} span was found in the reply
	NoJSON FormatKind = iota
	// Syntax means a span was found but could not be parsed even after repair
	Syntax
)

// FormatError reports a model reply that could not be coerced into valid JSON
type FormatError struct {
	Kind    FormatKind
	Message string
	// Offset is the byte position of the parse failure, -1 when unknown
	Offset int64
	// Preview holds the start of the raw reply for NoJSON failures
	Preview string
	// Head and Tail are excerpts of the text that failed to parse
	Head string
	Tail string
}

func (e *FormatError) Error() string {
	if e.Kind == NoJSON {
		return "no JSON object found in response"
	}
	if e.Offset >= 0 {
		return fmt.Sprintf("invalid JSON at offset %d: %s", e.Offset, e.Message)
	}
	return fmt.Sprintf("invalid JSON: %s", e.Message)
}
