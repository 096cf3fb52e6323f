package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"speedrush/internal/infra"
	"speedrush/internal/infra/credentials"
)

// envKeys maps each provider onto the environment variable used when -key is omitted.
var envKeys = map[string]string{
	credentials.ProviderStability:  "STABILITY_API_KEY",
	credentials.ProviderOpenAI:     "OPENAI_API_KEY",
	credentials.ProviderLighthouse: "LIGHTHOUSE_API_KEY",
}

func main() {
	_ = godotenv.Load()

	var (
		keyFlag      string
		providerFlag string
	)
	flag.StringVar(&keyFlag, "key", "", "API key for the selected provider (falls back to environment)")
	flag.StringVar(&providerFlag, "provider", credentials.ProviderStability, "provider to configure (stability, openai or lighthouse)")
	flag.Parse()

	provider := strings.TrimSpace(strings.ToLower(providerFlag))
	envKey, ok := envKeys[provider]
	if !ok {
		fmt.Fprintf(os.Stderr, "unsupported provider %q\n", providerFlag)
		os.Exit(1)
	}

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(os.Getenv(envKey))
	}
	if key == "" {
		fmt.Fprintf(os.Stderr, "%s API key is required via -key or %s\n", provider, envKey)
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli", "apikey").With().Str("provider", provider).Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	if err := store.EnsureSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare schema: %v\n", err)
		os.Exit(1)
	}
	if err := store.SetToken(ctx, provider, key); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist %s api key: %v\n", provider, err)
		os.Exit(1)
	}
	logger.Info().Msg("api key stored")
}
