package gcs

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"speedrush/internal/domain"
)

const (
	defaultPrefix = "cars"
	publicBaseURL = "https://storage.googleapis.com"
	cacheControl  = "public, max-age=604800"
)

// Options configures the Cloud Storage uploader.
type Options struct {
	Bucket string
	Prefix string
	// SignedURLExpiry switches returned URIs from public object URLs to V4
	// signed URLs valid for the given duration.
	SignedURLExpiry time.Duration
}

type objectWriter interface {
	io.Writer
	Close() error
}

// Client uploads generated images into a Cloud Storage bucket.
type Client struct {
	bucket    string
	prefix    string
	newWriter func(ctx context.Context, object string) objectWriter
	sign      func(object string) (string, error)
	closer    io.Closer
}

// NewClient opens a storage client using Application Default Credentials.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("%w: GCS_BUCKET_NAME is required", domain.ErrConfiguration)
	}
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: gcs: create client: %w", domain.ErrConfiguration, err)
	}
	handle := sc.Bucket(bucket)
	c := &Client{
		bucket: bucket,
		prefix: cleanPrefix(opts.Prefix),
		newWriter: func(ctx context.Context, object string) objectWriter {
			w := handle.Object(object).NewWriter(ctx)
			w.ContentType = "image/png"
			w.CacheControl = cacheControl
			return w
		},
		closer: sc,
	}
	if opts.SignedURLExpiry > 0 {
		expiry := opts.SignedURLExpiry
		c.sign = func(object string) (string, error) {
			return handle.SignedURL(object, &storage.SignedURLOptions{
				Scheme:  storage.SigningSchemeV4,
				Method:  "GET",
				Expires: time.Now().Add(expiry),
			})
		}
	}
	return c, nil
}

func cleanPrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return defaultPrefix
	}
	return prefix
}

func (c *Client) Name() string { return "gcs" }

// Upload writes data to <prefix>/<uuid>/<name> and returns its URL.
func (c *Client) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: gcs: empty payload", domain.ErrUpload)
	}
	object := path.Join(c.prefix, uuid.NewString(), path.Base(name))
	w := c.newWriter(ctx, object)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("%w: gcs: write %s: %w", domain.ErrUpload, object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: gcs: close %s: %w", domain.ErrUpload, object, err)
	}
	if c.sign != nil {
		signed, err := c.sign(object)
		if err != nil {
			return "", fmt.Errorf("%w: gcs: sign url: %w", domain.ErrUpload, err)
		}
		return signed, nil
	}
	return publicBaseURL + "/" + c.bucket + "/" + object, nil
}

// Close releases the underlying storage client.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
