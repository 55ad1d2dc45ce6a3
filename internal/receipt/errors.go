package receipt

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/zombor/spendy/internal/scanning"
)

// errorBody is the JSON shape of every failed analyze response
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
	Preview string `json:"preview,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// mapError maps pipeline errors to an HTTP status, a response body and a metrics outcome
func mapError(err error) (int, errorBody, string) {
	var (
		inputErr    *scanning.InputError
		upstreamErr *scanning.UpstreamError
		formatErr   *scanning.FormatError
	)

	switch {
	case errors.Is(err, scanning.ErrNoImage):
		return http.StatusBadRequest, errorBody{Error: "No image data provided"}, "input_error"

	case errors.As(err, &inputErr):
		return http.StatusBadRequest, errorBody{
			Error:   "Invalid image data",
			Message: inputErr.Message,
		}, "input_error"

	case errors.Is(err, scanning.ErrNoCredential):
		return http.StatusInternalServerError, errorBody{Error: "API key not configured"}, "configuration_error"

	case errors.As(err, &upstreamErr):
		if upstreamErr.StatusCode == 0 {
			return http.StatusBadGateway, errorBody{
				Error:   "Could not connect to AI service",
				Message: "Could not connect to AI service. Please check your internet connection.",
				Details: upstreamErr.Error(),
			}, "upstream_error"
		}
		return upstreamErr.StatusCode, errorBody{
			Error:   fmt.Sprintf("API Error: %d", upstreamErr.StatusCode),
			Details: upstreamErr.Body,
		}, "upstream_error"

	case errors.As(err, &formatErr) && formatErr.Kind == scanning.NoJSON:
		return http.StatusInternalServerError, errorBody{
			Error:   "Receipt format not recognized",
			Message: "Could not find receipt data in the image. Please ensure the image shows a clear receipt with visible text.",
			Details: formatErr.Message,
			Preview: formatErr.Preview,
		}, "format_error"

	case errors.As(err, &formatErr):
		return http.StatusInternalServerError, errorBody{
			Error:   "Receipt data format error",
			Message: "The receipt was analyzed but the data format is invalid. This is usually temporary - please try scanning again.",
			Details: formatErr.Message,
			Hint:    "If this persists, try taking a clearer photo with better lighting",
		}, "format_error"

	case errors.Is(err, scanning.ErrEmptyResponse):
		return http.StatusInternalServerError, errorBody{
			Error:   "Receipt analysis failed",
			Message: "The AI did not return any text content. This might be a temporary issue. Please try again.",
			Details: "No text content in response",
		}, "empty_response"
	}

	return http.StatusInternalServerError, errorBody{
		Error:   "Failed to process receipt",
		Message: err.Error(),
	}, "internal_error"
}
