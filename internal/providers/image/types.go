package image

import (
	"context"

	"speedrush/internal/domain"
)

// GenerateRequest describes one image generation anchored on a reference image.
type GenerateRequest struct {
	ReferencePath  string
	Prompt         string
	NegativePrompt string
	Style          domain.CarStyle
	RequestID      string
}

// Generator is the contract implemented by all image providers. Failures wrap
// domain.ErrProvider.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]byte, error)
	Name() string
}

// stylePresets maps car styles onto Stability AI style presets.
var stylePresets = map[domain.CarStyle]string{
	domain.CarStylePixelArt:   "pixel-art",
	domain.CarStyleRealistic:  "photographic",
	domain.CarStyleCartoon:    "comic-book",
	domain.CarStyleMinimalist: "line-art",
}

// StylePreset returns the provider preset for style, or "" when none applies.
func StylePreset(style domain.CarStyle) string {
	return stylePresets[style]
}
