package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"speedrush/internal/bootstrap"
	"speedrush/internal/domain"
	"speedrush/internal/infra"
	"speedrush/internal/pregen"
)

func main() {
	_ = godotenv.Load()

	var (
		once        int
		promptText  string
		styleFlag   string
		concurrency int
	)
	flag.IntVar(&once, "once", 0, "generate N cars and exit instead of running the fill loop")
	flag.StringVar(&promptText, "prompt", "a fast sports car", "prompt used for every generated car")
	flag.StringVar(&styleFlag, "style", "", "car style (empty picks a random style per car)")
	flag.IntVar(&concurrency, "concurrency", 2, "cars generated in parallel")
	flag.Parse()

	cfg, err := infra.LoadConfig()
	if err != nil {
		l := infra.NewLogger(os.Getenv("APP_ENV"), "pregen")
		l.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := infra.NewLogger(cfg.AppEnv, "pregen")

	var style domain.CarStyle
	if styleFlag != "" {
		if style, err = domain.ParseCarStyle(styleFlag); err != nil {
			logger.Fatal().Err(err).Str("style", styleFlag).Msg("invalid style")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build services")
	}
	defer svc.Close()

	filler, err := pregen.NewFiller(pregen.FillerOptions{
		Queue:       svc.Queue,
		Generator:   svc.Orchestrator,
		Target:      cfg.PregenTargetDepth,
		Concurrency: concurrency,
		Prompt:      promptText,
		Style:       style,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure filler")
	}

	if once > 0 {
		n, err := filler.Generate(ctx, once)
		logger.Info().Int("requested", once).Int("stored", n).Msg("pregen: done")
		if err != nil || n < once {
			os.Exit(1)
		}
		return
	}

	if err := filler.Run(ctx, cfg.PregenPollInterval); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("pregen: stopped with error")
	}
	logger.Info().Msg("pregen: stopped")
}
