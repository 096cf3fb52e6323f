package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// RemoteOptions configures a RemoteRemover.
type RemoteOptions struct {
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *zerolog.Logger
	RequestTimeout time.Duration
}

// RemoteRemover calls a rembg-compatible HTTP service (POST /api/remove with a
// multipart "file" field). The HTTP client is safe for concurrent use; whether
// the service itself is depends on its deployment.
type RemoteRemover struct {
	endpoint   string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewRemoteRemover builds a client for the service at opts.BaseURL.
func NewRemoteRemover(opts RemoteOptions) (*RemoteRemover, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("bgremove: base url is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &RemoteRemover{endpoint: base + "/api/remove", httpClient: httpClient, logger: logger}, nil
}

func (r *RemoteRemover) RemoveBackground(ctx context.Context, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("bgremove: empty image")
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, fmt.Errorf("bgremove: build form: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("bgremove: build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("bgremove: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("bgremove: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "image/png")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bgremove: http request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bgremove: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("bgremove: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	r.logger.Debug().Int("bytes_in", len(data)).Int("bytes_out", len(raw)).Msg("bgremove: background removed")
	return raw, nil
}

var _ Remover = (*RemoteRemover)(nil)
