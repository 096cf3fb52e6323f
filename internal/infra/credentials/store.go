package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"speedrush/internal/infra"
	"speedrush/internal/sqlinline"
)

// Provider keys stored in integration_tokens.
const (
	ProviderStability  = "stability"
	ProviderOpenAI     = "openai"
	ProviderLighthouse = "lighthouse"
)

// Store reads and writes third-party API keys kept in the database, so keys
// can be rotated without redeploying.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// EnsureSchema creates the integration_tokens table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.sql.Exec(ctx, sqlinline.QCreateIntegrationTokensTable); err != nil {
		return fmt.Errorf("credentials: ensure schema: %w", err)
	}
	return nil
}

// Token returns the stored key for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("credentials: load %s token: %w", provider, err)
	}
	return strings.TrimSpace(token), nil
}

// Resolve prefers the environment value and falls back to the stored token.
func (s *Store) Resolve(ctx context.Context, provider, envValue string) (string, error) {
	if v := strings.TrimSpace(envValue); v != "" {
		return v, nil
	}
	if s == nil {
		return "", nil
	}
	return s.Token(ctx, provider)
}

// SetToken stores or replaces the key for provider.
func (s *Store) SetToken(ctx context.Context, provider, token string) error {
	provider = strings.TrimSpace(provider)
	token = strings.TrimSpace(token)
	if provider == "" {
		return fmt.Errorf("credentials: provider is required")
	}
	if token == "" {
		return fmt.Errorf("credentials: %s token is required", provider)
	}
	return s.upsert(ctx, provider, token, nil)
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw); err != nil {
		return fmt.Errorf("credentials: store %s token: %w", provider, err)
	}
	return nil
}
