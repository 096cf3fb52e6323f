package storage

import "context"

// Uploader persists a generated image and returns the URI clients fetch it
// from. Failures wrap domain.ErrUpload.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
	Name() string
}
