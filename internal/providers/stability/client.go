package stability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("stability: api key is required")

const (
	defaultBaseURL         = "https://api.stability.ai"
	structurePath          = "/v2beta/stable-image/control/structure"
	defaultControlStrength = 0.7
)

// Options configures the Stability AI client.
type Options struct {
	APIKey          string
	BaseURL         string
	ControlStrength float64
	HTTPClient      *http.Client
	Logger          *zerolog.Logger
	RequestTimeout  time.Duration
}

// Client calls the Stability AI structure-control (image-to-image) endpoint.
type Client struct {
	apiKey          string
	baseURL         string
	controlStrength float64
	httpClient      *http.Client
	logger          zerolog.Logger
}

// ImageRequest captures the inputs of one structure-control generation.
type ImageRequest struct {
	Image          []byte
	Prompt         string
	NegativePrompt string
	StylePreset    string
	Seed           int
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Name       string
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("stability: status %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
	}
	if e.Name != "" {
		return fmt.Sprintf("stability: status %d: %s", e.StatusCode, e.Name)
	}
	return fmt.Sprintf("stability: status %d", e.StatusCode)
}

type errorResponse struct {
	Name   string   `json:"name"`
	Errors []string `json:"errors"`
}

// NewClient constructs a client with defaults applied.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 90 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	strength := opts.ControlStrength
	if strength <= 0 || strength > 1 {
		strength = defaultControlStrength
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		apiKey:          strings.TrimSpace(opts.APIKey),
		baseURL:         baseURL,
		controlStrength: strength,
		httpClient:      httpClient,
		logger:          logger,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// GenerateImage sends one structure-control request and returns the PNG bytes.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) ([]byte, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("stability: prompt is required")
	}
	if len(req.Image) == 0 {
		return nil, errors.New("stability: control image is required")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := [][2]string{
		{"prompt", prompt},
		{"control_strength", strconv.FormatFloat(c.controlStrength, 'f', -1, 64)},
		{"seed", strconv.Itoa(req.Seed)},
		{"output_format", "png"},
	}
	if neg := strings.TrimSpace(req.NegativePrompt); neg != "" {
		fields = append(fields, [2]string{"negative_prompt", neg})
	}
	if preset := strings.TrimSpace(req.StylePreset); preset != "" {
		fields = append(fields, [2]string{"style_preset", preset})
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("stability: build form: %w", err)
		}
	}
	fw, err := mw.CreateFormFile("image", "control.png")
	if err != nil {
		return nil, fmt.Errorf("stability: build form: %w", err)
	}
	if _, err := fw.Write(req.Image); err != nil {
		return nil, fmt.Errorf("stability: build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("stability: build form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+structurePath, &body)
	if err != nil {
		return nil, fmt.Errorf("stability: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Accept", "image/*")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stability: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("stability: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil {
			apiErr.Name = detail.Name
			apiErr.Messages = detail.Errors
		} else if msg := strings.TrimSpace(string(raw)); msg != "" {
			apiErr.Messages = []string{msg}
		}
		return nil, apiErr
	}
	if len(raw) == 0 {
		return nil, errors.New("stability: empty image body")
	}
	c.logger.Debug().
		Int("bytes", len(raw)).
		Str("finish_reason", resp.Header.Get("Finish-Reason")).
		Dur("elapsed", time.Since(start)).
		Msg("stability: generated image")
	return raw, nil
}
