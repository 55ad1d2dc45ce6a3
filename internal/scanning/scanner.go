package scanning

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
)

// Image is a decoded receipt photo ready to be sent to a model
type Image struct {
	MediaType string
	Data      []byte
}

// Model describes an image as free text given a prompt
type Model interface {
	// Describe sends the image and prompt to the model and returns its raw text reply
	Describe(ctx context.Context, img Image, prompt string) (string, error)
	// Close releases any resources held by the model client
	Close() error
}

// ModelFunc adapts a plain function to the Model interface
type ModelFunc func(ctx context.Context, img Image, prompt string) (string, error)

// Describe calls f
func (f ModelFunc) Describe(ctx context.Context, img Image, prompt string) (string, error) {
	return f(ctx, img, prompt)
}

// Close is a no-op
func (f ModelFunc) Close() error {
	return nil
}

// ParseDataURI decodes a data:image/<type>;base64,<payload> string.
// The media type is inferred from the prefix: PNG, WEBP, otherwise JPEG.
func ParseDataURI(dataURI string) (Image, error) {
	dataURI = strings.TrimSpace(dataURI)
	if dataURI == "" {
		return Image{}, ErrNoImage
	}

	payload := dataURI
	header := ""
	if idx := strings.Index(dataURI, ","); idx != -1 {
		header = dataURI[:idx]
		payload = dataURI[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, &InputError{Message: fmt.Sprintf("decoding image payload: %v", err)}
	}
	if len(data) == 0 {
		return Image{}, ErrNoImage
	}

	return Image{
		MediaType: mediaTypeFor(header, data),
		Data:      data,
	}, nil
}

// mediaTypeFor picks the media type for the outgoing request.
// HEIC/HEIF and PDF are kept so prepareImage can convert them.
func mediaTypeFor(header string, data []byte) string {
	// Magic bytes win over the declared type
	if isHEICFormat(data) {
		return "image/heic"
	}

	header = strings.ToLower(header)
	switch {
	case strings.HasPrefix(header, "data:image/png"):
		return "image/png"
	case strings.HasPrefix(header, "data:image/webp"):
		return "image/webp"
	case strings.HasPrefix(header, "data:image/heic"), strings.HasPrefix(header, "data:image/heif"):
		return "image/heic"
	case strings.HasPrefix(header, "data:application/pdf"):
		return "application/pdf"
	}
	return "image/jpeg"
}

// Scanner turns a receipt photo into the model's rich receipt schema
type Scanner struct {
	model Model
}

// NewScanner creates a Scanner backed by the given model
func NewScanner(model Model) *Scanner {
	return &Scanner{model: model}
}

// ScanReceipt runs one extraction: decode the image, ask the model, repair and decode its reply
func (s *Scanner) ScanReceipt(ctx context.Context, dataURI string) (*ReceiptData, error) {
	img, err := ParseDataURI(dataURI)
	if err != nil {
		return nil, err
	}

	img, err = prepareImage(img)
	if err != nil {
		return nil, &InputError{Message: err.Error()}
	}

	text, err := s.model.Describe(ctx, img, receiptScanPrompt)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}

	slog.Debug("Model response received", "length", len(text), "preview", truncate(text, 200))

	return parseReceiptJSON(text)
}

// Close closes the underlying model
func (s *Scanner) Close() error {
	return s.model.Close()
}
