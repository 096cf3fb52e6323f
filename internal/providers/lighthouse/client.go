package lighthouse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"speedrush/internal/domain"
)

const (
	defaultUploadURL  = "https://node.lighthouse.storage/api/v0/add"
	defaultGatewayURL = "https://gateway.lighthouse.storage/ipfs"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("lighthouse: api key is required")

// Options configures the Lighthouse IPFS uploader.
type Options struct {
	APIKey         string
	UploadURL      string
	GatewayURL     string
	HTTPClient     *http.Client
	Logger         *zerolog.Logger
	RequestTimeout time.Duration
}

// Client pins files on IPFS through the Lighthouse node API.
type Client struct {
	apiKey     string
	uploadURL  string
	gatewayURL string
	httpClient *http.Client
	logger     zerolog.Logger
}

type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// NewClient constructs a client with defaults applied.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	uploadURL := strings.TrimSpace(opts.UploadURL)
	if uploadURL == "" {
		uploadURL = defaultUploadURL
	}
	gateway := strings.TrimRight(strings.TrimSpace(opts.GatewayURL), "/")
	if gateway == "" {
		gateway = defaultGatewayURL
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		uploadURL:  uploadURL,
		gatewayURL: gateway,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *Client) Name() string { return "lighthouse" }

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Upload pins data as name and returns its gateway URL.
func (c *Client) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if !c.HasCredentials() {
		return "", fmt.Errorf("%w: %w", domain.ErrUpload, ErrMissingAPIKey)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: lighthouse: empty payload", domain.ErrUpload)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	header.Set("Content-Type", "image/png")
	fw, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("%w: lighthouse: build form: %w", domain.ErrUpload, err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("%w: lighthouse: build form: %w", domain.ErrUpload, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%w: lighthouse: build form: %w", domain.ErrUpload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("%w: lighthouse: build request: %w", domain.ErrUpload, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: lighthouse: http request: %w", domain.ErrUpload, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: lighthouse: read response: %w", domain.ErrUpload, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: lighthouse: status %d: %s", domain.ErrUpload, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var out addResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: lighthouse: decode response: %w", domain.ErrUpload, err)
	}
	if strings.TrimSpace(out.Hash) == "" {
		return "", fmt.Errorf("%w: lighthouse: response missing Hash", domain.ErrUpload)
	}
	uri := c.gatewayURL + "/" + out.Hash
	c.logger.Info().Str("file", name).Str("uri", uri).Msg("lighthouse: image uploaded")
	return uri, nil
}
