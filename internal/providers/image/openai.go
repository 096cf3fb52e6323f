package image

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"speedrush/internal/domain"
)

// OpenAIOptions configures the OpenAI image generator.
type OpenAIOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

type openAIImageClient interface {
	CreateImage(ctx context.Context, request openai.ImageRequest) (openai.ImageResponse, error)
}

// OpenAIGenerator renders images from text only; the reference image is not
// sent because the images endpoint used here has no structure conditioning.
type OpenAIGenerator struct {
	client openAIImageClient
	model  string
	hasKey bool
}

// NewOpenAIGenerator builds a generator on the go-openai client.
func NewOpenAIGenerator(opts OpenAIOptions) *OpenAIGenerator {
	cfg := openai.DefaultConfig(strings.TrimSpace(opts.APIKey))
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		cfg.BaseURL = base
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = openai.CreateImageModelDallE3
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		hasKey: strings.TrimSpace(opts.APIKey) != "",
	}
}

func (g *OpenAIGenerator) Name() string { return "openai" }

// HasCredentials reports whether an API key was configured.
func (g *OpenAIGenerator) HasCredentials() bool {
	return g != nil && g.hasKey
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req GenerateRequest) ([]byte, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: openai: prompt is required", domain.ErrProvider)
	}
	if neg := strings.TrimSpace(req.NegativePrompt); neg != "" {
		prompt += ". Avoid: " + neg
	}
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          g.model,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		Quality:        openai.CreateImageQualityStandard,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: openai: status %d: %s", domain.ErrProvider, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: openai: %w", domain.ErrProvider, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("%w: openai: empty image response", domain.ErrProvider)
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("%w: openai: decode image: %w", domain.ErrProvider, err)
	}
	return data, nil
}

var _ Generator = (*OpenAIGenerator)(nil)
