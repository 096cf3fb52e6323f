package image

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"speedrush/internal/domain"
)

type credentialed interface {
	HasCredentials() bool
}

// FallbackGenerator routes to the primary provider and falls back to the
// secondary one when the primary has no credentials configured.
type FallbackGenerator struct {
	primary   Generator
	secondary Generator
	logger    zerolog.Logger
}

// NewFallbackGenerator wraps primary with an optional secondary provider.
func NewFallbackGenerator(primary, secondary Generator, logger *zerolog.Logger) *FallbackGenerator {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &FallbackGenerator{primary: primary, secondary: secondary, logger: l}
}

func (g *FallbackGenerator) Name() string {
	if active := g.active(); active != nil {
		return active.Name()
	}
	return "none"
}

// HasCredentials reports whether any wrapped provider can make remote calls.
func (g *FallbackGenerator) HasCredentials() bool {
	return g.active() != nil
}

func (g *FallbackGenerator) Generate(ctx context.Context, req GenerateRequest) ([]byte, error) {
	active := g.active()
	if active == nil {
		return nil, fmt.Errorf("%w: no image provider has credentials", domain.ErrConfiguration)
	}
	if active != g.primary {
		g.logger.Debug().
			Str("request_id", req.RequestID).
			Str("provider", active.Name()).
			Msg("image: primary provider missing credentials, using fallback")
	}
	return active.Generate(ctx, req)
}

func (g *FallbackGenerator) active() Generator {
	if usable(g.primary) {
		return g.primary
	}
	if usable(g.secondary) {
		return g.secondary
	}
	return nil
}

func usable(gen Generator) bool {
	if gen == nil {
		return false
	}
	if c, ok := gen.(credentialed); ok {
		return c.HasCredentials()
	}
	return true
}

var _ Generator = (*FallbackGenerator)(nil)
