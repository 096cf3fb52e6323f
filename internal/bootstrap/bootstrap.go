// Package bootstrap assembles the generation pipeline and pregeneration queue
// from configuration. It is shared by the API server and the pregen worker.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"speedrush/internal/domain"
	"speedrush/internal/http/handlers"
	"speedrush/internal/imagegen"
	"speedrush/internal/imaging"
	"speedrush/internal/infra"
	"speedrush/internal/infra/credentials"
	"speedrush/internal/pregen"
	"speedrush/internal/prompt"
	"speedrush/internal/providers/gcs"
	"speedrush/internal/providers/image"
	"speedrush/internal/providers/lighthouse"
	"speedrush/internal/providers/stability"
	"speedrush/internal/stats"
	"speedrush/internal/storage"
)

const providerTimeout = 90 * time.Second

// Services holds everything built from a Config.
type Services struct {
	Orchestrator *imagegen.Orchestrator
	Queue        domain.PregenQueue
	References   *prompt.Pool
	Backends     handlers.Backends
	// StaticDir is set when uploads land on local disk and must be served.
	StaticDir string

	closers []func() error
}

// Close releases pools and clients in reverse construction order.
func (s *Services) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

type keys struct {
	stability  string
	openai     string
	lighthouse string
}

// Build wires adapters, the orchestrator and the queue selected by cfg.
func Build(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (*Services, error) {
	svc := &Services{
		Backends: handlers.Backends{
			Queue:             cfg.QueueBackend,
			Storage:           cfg.StorageBackend,
			BackgroundRemover: cfg.BGRemover,
		},
	}
	ok := false
	defer func() {
		if !ok {
			_ = svc.Close()
		}
	}()

	runner, err := svc.openDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	k := resolveKeys(ctx, cfg, runner, logger)

	images, err := buildImageGenerator(cfg, k, logger)
	if err != nil {
		return nil, err
	}
	svc.Backends.ImageProvider = images.Name()

	remover, err := buildRemover(cfg, logger)
	if err != nil {
		return nil, err
	}

	uploader, err := svc.buildUploader(ctx, cfg, k, logger)
	if err != nil {
		return nil, err
	}

	svc.References = prompt.NewPool(cfg.ReferenceDir, prompt.WithPoolLogger(logger))
	orchLogger := logger.With().Str("component", "imagegen").Logger()
	svc.Orchestrator, err = imagegen.New(imagegen.Options{
		Prompts:     prompt.NewBuilder(svc.References, nil),
		Images:      images,
		Remover:     remover,
		Uploader:    uploader,
		Stats:       stats.New(nil),
		MinInterval: cfg.ProviderMinInterval,
		Timeout:     cfg.GenerationTimeout,
		Logger:      &orchLogger,
	})
	if err != nil {
		return nil, err
	}

	svc.Queue, err = svc.buildQueue(ctx, cfg, runner, logger)
	if err != nil {
		return nil, err
	}

	ok = true
	return svc, nil
}

// openDatabase connects when DATABASE_URL is set. A failed connection is
// fatal only for the postgres queue; otherwise it just disables stored keys.
func (s *Services) openDatabase(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (*infra.SQLRunner, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		if cfg.QueueBackend == infra.QueuePostgres {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		logger.Warn().Err(err).Msg("bootstrap: database unavailable, stored credentials disabled")
		return nil, nil
	}
	s.closers = append(s.closers, func() error { pool.Close(); return nil })
	return infra.NewSQLRunner(pool, logger.With().Str("component", "sql").Logger()), nil
}

func resolveKeys(ctx context.Context, cfg *infra.Config, runner *infra.SQLRunner, logger zerolog.Logger) keys {
	var store *credentials.Store
	if runner != nil {
		store = credentials.NewStore(runner)
	}
	resolve := func(provider, env string) string {
		v, err := store.Resolve(ctx, provider, env)
		if err != nil {
			logger.Warn().Err(err).Str("provider", provider).Msg("bootstrap: failed to load stored api key")
			return env
		}
		return v
	}
	return keys{
		stability:  resolve(credentials.ProviderStability, cfg.StabilityAPIKey),
		openai:     resolve(credentials.ProviderOpenAI, cfg.OpenAIAPIKey),
		lighthouse: resolve(credentials.ProviderLighthouse, cfg.LighthouseAPIKey),
	}
}

func buildImageGenerator(cfg *infra.Config, k keys, logger zerolog.Logger) (*image.FallbackGenerator, error) {
	httpClient := &http.Client{Timeout: providerTimeout}
	stabilityLogger := logger.With().Str("component", "stability").Logger()
	client, err := stability.NewClient(stability.Options{
		APIKey:     k.stability,
		BaseURL:    cfg.StabilityBaseURL,
		HTTPClient: httpClient,
		Logger:     &stabilityLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	stab := image.NewStabilityGenerator(client)
	oai := image.NewOpenAIGenerator(image.OpenAIOptions{
		APIKey:     k.openai,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.OpenAIImageModel,
		HTTPClient: httpClient,
	})

	var primary, secondary image.Generator = stab, oai
	if cfg.ImageProvider == infra.ImageProviderOpenAI {
		primary, secondary = oai, stab
	}
	gen := image.NewFallbackGenerator(primary, secondary, &logger)
	if !gen.HasCredentials() {
		logger.Warn().Str("provider", cfg.ImageProvider).Msg("bootstrap: no image provider api key configured, generation will fail")
	}
	return gen, nil
}

func buildRemover(cfg *infra.Config, logger zerolog.Logger) (imaging.Remover, error) {
	var remover imaging.Remover
	switch cfg.BGRemover {
	case infra.BGRemoverRemote:
		remoteLogger := logger.With().Str("component", "bg_remover").Logger()
		r, err := imaging.NewRemoteRemover(imaging.RemoteOptions{
			BaseURL: cfg.BGRemoverURL,
			Logger:  &remoteLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		remover = r
	default:
		remover = imaging.NewKeyRemover(cfg.BGKeyTolerance)
	}
	if cfg.BGRemoverSerialize {
		remover = imaging.Serialize(remover)
	}
	return remover, nil
}

func (s *Services) buildUploader(ctx context.Context, cfg *infra.Config, k keys, logger zerolog.Logger) (storage.Uploader, error) {
	switch cfg.StorageBackend {
	case infra.StorageGCS:
		client, err := gcs.NewClient(ctx, gcs.Options{Bucket: cfg.GCSBucket})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, client.Close)
		return client, nil
	case infra.StorageLocal:
		store, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
		if err != nil {
			return nil, err
		}
		s.StaticDir = store.BasePath()
		return store, nil
	default:
		if k.lighthouse == "" {
			return nil, fmt.Errorf("%w: LIGHTHOUSE_API_KEY is required", domain.ErrConfiguration)
		}
		lhLogger := logger.With().Str("component", "lighthouse").Logger()
		return lighthouse.NewClient(lighthouse.Options{
			APIKey:     k.lighthouse,
			UploadURL:  cfg.LighthouseUploadURL,
			GatewayURL: cfg.LighthouseGatewayURL,
			Logger:     &lhLogger,
		}), nil
	}
}

func (s *Services) buildQueue(ctx context.Context, cfg *infra.Config, runner *infra.SQLRunner, logger zerolog.Logger) (domain.PregenQueue, error) {
	queueLogger := logger.With().Str("component", "pregen").Logger()
	switch cfg.QueueBackend {
	case infra.QueuePostgres:
		if runner == nil {
			return nil, fmt.Errorf("%w: postgres queue needs DATABASE_URL", domain.ErrConfiguration)
		}
		q := pregen.NewPostgresQueue(runner, queueLogger)
		if err := q.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return q, nil
	case infra.QueueSQLite:
		db, err := infra.NewSQLiteDB(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		s.closers = append(s.closers, db.Close)
		return pregen.NewSQLiteQueue(ctx, db, queueLogger)
	default:
		return pregen.NewFileQueue(cfg.CacheDir, queueLogger)
	}
}
