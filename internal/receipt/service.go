package receipt

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zombor/spendy/internal/scanning"
)

// Scanner extracts the model's receipt schema from an image data URI
type Scanner interface {
	ScanReceipt(ctx context.Context, imageData string) (*scanning.ReceiptData, error)
}

// Service runs the extraction pipeline: scan, normalize, validate
type Service struct {
	scanner   Scanner
	validator Validator
}

// NewService creates a new Service with the default validation thresholds
func NewService(scanner Scanner) *Service {
	return NewServiceWithValidator(scanner, DefaultValidator)
}

// NewServiceWithValidator creates a new Service with custom validation thresholds
func NewServiceWithValidator(scanner Scanner, validator Validator) *Service {
	return &Service{
		scanner:   scanner,
		validator: validator,
	}
}

// Analyze extracts one receipt from an image data URI.
// The returned receipt carries its validation result; warnings never fail the call.
func (s *Service) Analyze(ctx context.Context, imageData string) (*Receipt, error) {
	data, err := s.scanner.ScanReceipt(ctx, imageData)
	if err != nil {
		slog.Error("Failed to scan receipt", "image_size", len(imageData), "error", err)
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}

	receipt := Normalize(data)
	validation := s.validator.Validate(receipt)
	receipt.Validation = &validation

	if !validation.IsValid {
		slog.Warn("Receipt failed validation", "errors", len(validation.Errors))
	} else if len(validation.Warnings) > 0 {
		slog.Info("Receipt validated with warnings", "warnings", len(validation.Warnings), "items", len(receipt.Items))
	}

	return receipt, nil
}
