package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"speedrush/internal/bootstrap"
	"speedrush/internal/http/handlers"
	httpapi "speedrush/internal/http/httpapi"
	"speedrush/internal/infra"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		l := infra.NewLogger(os.Getenv("APP_ENV"), "api")
		l.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build services")
	}
	defer svc.Close()

	app := &handlers.App{
		Logger:     logger,
		Generator:  svc.Orchestrator,
		Queue:      svc.Queue,
		References: svc.References,
		Backends:   svc.Backends,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		StaticDir:      svc.StaticDir,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("image_provider", svc.Backends.ImageProvider).
			Str("storage", svc.Backends.Storage).
			Str("queue", svc.Backends.Queue).
			Msg("api listening")
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()

	// In-flight generations get the full write timeout to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPWriteTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
