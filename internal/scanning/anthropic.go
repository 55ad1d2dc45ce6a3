package scanning

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-5-20250929"
	anthropicMaxTokens    = 4000
)

// Anthropic implements the Model interface using the Anthropic Messages API
type Anthropic struct {
	apiKey string
	model  string
	client anthropic.Client
}

// NewAnthropic creates a new Anthropic Model instance.
// An empty apiKey is accepted; every Describe call then fails with ErrNoCredential.
func NewAnthropic(apiKey string, baseURL string, modelName string) (*Anthropic, error) {
	if modelName == "" {
		modelName = defaultAnthropicModel
	}

	// Retries are left to the caller
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Anthropic{
		apiKey: apiKey,
		model:  modelName,
		client: anthropic.NewClient(opts...),
	}, nil
}

// Describe sends a single message with the image and prompt and returns the first text block
func (a *Anthropic) Describe(ctx context.Context, img Image, prompt string) (string, error) {
	if a.apiKey == "" {
		return "", ErrNoCredential
	}

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(img.MediaType, base64.StdEncoding.EncodeToString(img.Data)),
				anthropic.NewTextBlock(prompt),
			),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &UpstreamError{StatusCode: apiErr.StatusCode, Body: apiErr.RawJSON(), Err: err}
		}
		return "", &UpstreamError{Err: err}
	}

	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", ErrEmptyResponse
}

// Close is a no-op; the SDK client holds no resources
func (a *Anthropic) Close() error {
	return nil
}
