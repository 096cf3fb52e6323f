package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration   = errors.New("configuration error")
	ErrProvider        = errors.New("provider failure")
	ErrUpload          = errors.New("upload failure")
	ErrCacheCorruption = errors.New("cache entry corrupt")
	ErrInvalidRequest  = errors.New("invalid request")
)

// Generation pipeline stages reported by GenerationError.
const (
	StagePrompt     = "prompt"
	StageGenerate   = "generate"
	StageBackground = "remove_background"
	StageUpload     = "upload"
)

// GenerationError reports which stage and asset role made a generation fail.
type GenerationError struct {
	Stage string
	Role  string
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("generation failed at %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("generation failed at %s (%s): %v", e.Stage, e.Role, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
