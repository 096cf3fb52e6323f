package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"speedrush/internal/domain"
)

// Selectable backends.
const (
	ImageProviderStability = "stability"
	ImageProviderOpenAI    = "openai"

	StorageLighthouse = "lighthouse"
	StorageGCS        = "gcs"
	StorageLocal      = "local"

	BGRemoverLocal  = "local"
	BGRemoverRemote = "remote"

	QueueFile     = "file"
	QueuePostgres = "postgres"
	QueueSQLite   = "sqlite"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	ImageProvider    string
	StabilityAPIKey  string
	StabilityBaseURL string
	OpenAIAPIKey     string
	OpenAIImageModel string
	OpenAIBaseURL    string

	StorageBackend       string
	LighthouseAPIKey     string
	LighthouseUploadURL  string
	LighthouseGatewayURL string
	GCSBucket            string
	StoragePath          string
	StorageBaseURL       string

	BGRemover          string
	BGRemoverURL       string
	BGRemoverSerialize bool
	BGKeyTolerance     int

	QueueBackend string
	CacheDir     string
	DatabaseURL  string
	SQLitePath   string

	ReferenceDir        string
	GenerationTimeout   time.Duration
	ProviderMinInterval time.Duration
	CORSAllowedOrigins  []string

	PregenTargetDepth  int
	PregenPollInterval time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8000")
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             port,
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 5)),

		ImageProvider:    strings.ToLower(getEnv("IMAGE_PROVIDER", ImageProviderStability)),
		StabilityAPIKey:  os.Getenv("STABILITY_API_KEY"),
		StabilityBaseURL: getEnv("STABILITY_BASE_URL", "https://api.stability.ai"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIImageModel: getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		StorageBackend:       strings.ToLower(getEnv("STORAGE_BACKEND", StorageLighthouse)),
		LighthouseAPIKey:     os.Getenv("LIGHTHOUSE_API_KEY"),
		LighthouseUploadURL:  getEnv("LIGHTHOUSE_UPLOAD_URL", "https://node.lighthouse.storage/api/v0/add"),
		LighthouseGatewayURL: getEnv("LIGHTHOUSE_GATEWAY_URL", "https://gateway.lighthouse.storage/ipfs"),
		GCSBucket:            os.Getenv("GCS_BUCKET_NAME"),
		StoragePath:          getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:       getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),

		BGRemover:          strings.ToLower(getEnv("BG_REMOVER", BGRemoverLocal)),
		BGRemoverURL:       os.Getenv("BG_REMOVER_URL"),
		BGRemoverSerialize: getEnvBool("BG_REMOVER_SERIALIZE", false),
		BGKeyTolerance:     getEnvInt("BG_KEY_TOLERANCE", 24),

		QueueBackend: strings.ToLower(getEnv("QUEUE_BACKEND", QueueFile)),
		CacheDir:     getEnv("CACHE_DIR", "./cache"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		SQLitePath:   getEnv("SQLITE_PATH", "./pregen.db"),

		ReferenceDir:        getEnv("REFERENCE_DIR", "./references"),
		GenerationTimeout:   time.Second * time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", 0)),
		ProviderMinInterval: time.Millisecond * time.Duration(getEnvInt("PROVIDER_MIN_INTERVAL_MS", 0)),
		CORSAllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		PregenTargetDepth:  getEnvInt("PREGEN_TARGET_DEPTH", 10),
		PregenPollInterval: time.Second * time.Duration(getEnvInt("PREGEN_POLL_SECONDS", 30)),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ImageProvider {
	case ImageProviderStability, ImageProviderOpenAI:
	default:
		return fmt.Errorf("%w: IMAGE_PROVIDER must be stability or openai, got %q", domain.ErrConfiguration, c.ImageProvider)
	}

	switch c.StorageBackend {
	case StorageLighthouse:
		// The key may also come from the integration_tokens table.
		if c.LighthouseAPIKey == "" && c.DatabaseURL == "" {
			return fmt.Errorf("%w: LIGHTHOUSE_API_KEY is required", domain.ErrConfiguration)
		}
	case StorageGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("%w: GCS_BUCKET_NAME is required", domain.ErrConfiguration)
		}
	case StorageLocal:
	default:
		return fmt.Errorf("%w: STORAGE_BACKEND must be lighthouse, gcs or local, got %q", domain.ErrConfiguration, c.StorageBackend)
	}

	switch c.BGRemover {
	case BGRemoverLocal:
	case BGRemoverRemote:
		if c.BGRemoverURL == "" {
			return fmt.Errorf("%w: BG_REMOVER_URL is required", domain.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: BG_REMOVER must be local or remote, got %q", domain.ErrConfiguration, c.BGRemover)
	}

	switch c.QueueBackend {
	case QueueFile, QueueSQLite:
	case QueuePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required", domain.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: QUEUE_BACKEND must be file, postgres or sqlite, got %q", domain.ErrConfiguration, c.QueueBackend)
	}

	if c.PregenTargetDepth < 0 {
		return fmt.Errorf("%w: PREGEN_TARGET_DEPTH must not be negative", domain.ErrConfiguration)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
