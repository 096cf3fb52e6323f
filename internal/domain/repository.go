package domain

import "context"

// PregenQueue stores pre-generated results until a consumer claims them.
// Take claims atomically: an entry is delivered to at most one caller.
type PregenQueue interface {
	Put(ctx context.Context, result *GenerationResult) (string, error)
	// Take returns (nil, false, nil) when no entry is available. A corrupt
	// entry is discarded and reported the same way.
	Take(ctx context.Context) (*GenerationResult, bool, error)
	Len(ctx context.Context) (int, error)
}
