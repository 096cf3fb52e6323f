package image

import (
	"context"
	"fmt"
	"strings"

	"speedrush/internal/domain"
	"speedrush/internal/imaging"
	"speedrush/internal/providers/stability"
)

// ReferenceSize is the square edge the control image is resized to.
const ReferenceSize = 1024

type stabilityClient interface {
	GenerateImage(context.Context, stability.ImageRequest) ([]byte, error)
	HasCredentials() bool
}

// StabilityGenerator renders images with Stability AI structure control,
// using the reference image as the structural anchor.
type StabilityGenerator struct {
	client stabilityClient
}

// NewStabilityGenerator wraps a Stability client.
func NewStabilityGenerator(client stabilityClient) *StabilityGenerator {
	return &StabilityGenerator{client: client}
}

func (g *StabilityGenerator) Name() string { return "stability" }

// HasCredentials reports whether the underlying client has an API key.
func (g *StabilityGenerator) HasCredentials() bool {
	return g != nil && g.client != nil && g.client.HasCredentials()
}

func (g *StabilityGenerator) Generate(ctx context.Context, req GenerateRequest) ([]byte, error) {
	if g == nil || g.client == nil {
		return nil, fmt.Errorf("%w: stability generator not configured", domain.ErrConfiguration)
	}
	ref := strings.TrimSpace(req.ReferencePath)
	if ref == "" {
		return nil, fmt.Errorf("%w: reference image is required", domain.ErrConfiguration)
	}
	control, err := imaging.ResizeFile(ref, ReferenceSize, ReferenceSize)
	if err != nil {
		return nil, fmt.Errorf("%w: prepare reference: %w", domain.ErrConfiguration, err)
	}
	data, err := g.client.GenerateImage(ctx, stability.ImageRequest{
		Image:          control,
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		StylePreset:    StylePreset(req.Style),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProvider, err)
	}
	return data, nil
}

var _ Generator = (*StabilityGenerator)(nil)
