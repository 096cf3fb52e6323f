package credentials

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubExecutor struct {
	token    string
	err      error
	provider string
	exec     struct {
		query string
		args  []any
	}
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.exec.query = query
	s.exec.args = args
	return pgconn.CommandTag{}, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if len(args) > 0 {
		s.provider, _ = args[0].(string)
	}
	return stubRow{token: s.token, err: s.err}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubRow struct {
	token string
	err   error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) == 0 {
		return errors.New("no dest")
	}
	ptr, ok := dest[0].(*string)
	if !ok {
		return errors.New("invalid dest")
	}
	*ptr = r.token
	return nil
}

func TestToken(t *testing.T) {
	exec := &stubExecutor{token: " abc123 "}
	store := NewStore(exec)
	key, err := store.Token(context.Background(), ProviderStability)
	if err != nil {
		t.Fatalf("Token error: %v", err)
	}
	if key != "abc123" {
		t.Fatalf("expected abc123, got %q", key)
	}
	if exec.provider != ProviderStability {
		t.Fatalf("queried provider %q", exec.provider)
	}
}

func TestToken_NoRows(t *testing.T) {
	store := NewStore(&stubExecutor{err: pgx.ErrNoRows})
	key, err := store.Token(context.Background(), ProviderOpenAI)
	if err != nil {
		t.Fatalf("Token error: %v", err)
	}
	if key != "" {
		t.Fatalf("expected empty key, got %q", key)
	}
}

func TestToken_Error(t *testing.T) {
	boom := errors.New("connection reset")
	store := NewStore(&stubExecutor{err: boom})
	if _, err := store.Token(context.Background(), ProviderOpenAI); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestResolvePrefersEnvironment(t *testing.T) {
	exec := &stubExecutor{token: "from-db"}
	store := NewStore(exec)
	key, err := store.Resolve(context.Background(), ProviderLighthouse, " from-env ")
	if err != nil || key != "from-env" {
		t.Fatalf("Resolve = %q, %v", key, err)
	}
	if exec.provider != "" {
		t.Fatalf("database consulted although env value was set")
	}
	key, err = store.Resolve(context.Background(), ProviderLighthouse, "")
	if err != nil || key != "from-db" {
		t.Fatalf("Resolve fallback = %q, %v", key, err)
	}

	var nilStore *Store
	if key, err := nilStore.Resolve(context.Background(), ProviderLighthouse, ""); err != nil || key != "" {
		t.Fatalf("nil store Resolve = %q, %v", key, err)
	}
}

func TestSetToken(t *testing.T) {
	exec := &stubExecutor{}
	store := NewStore(exec)
	if err := store.SetToken(context.Background(), ProviderStability, "secret"); err != nil {
		t.Fatalf("SetToken error: %v", err)
	}
	if len(exec.exec.args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(exec.exec.args))
	}
	if v, ok := exec.exec.args[0].(string); !ok || v != ProviderStability {
		t.Fatalf("expected provider argument, got %T %v", exec.exec.args[0], exec.exec.args[0])
	}
	if v, ok := exec.exec.args[1].(string); !ok || v != "secret" {
		t.Fatalf("expected secret argument, got %T %v", exec.exec.args[1], exec.exec.args[1])
	}
}

func TestSetTokenEmpty(t *testing.T) {
	store := NewStore(&stubExecutor{})
	if err := store.SetToken(context.Background(), ProviderOpenAI, " "); err == nil {
		t.Fatal("expected error for empty key")
	}
	if err := store.SetToken(context.Background(), "", "secret"); err == nil {
		t.Fatal("expected error for empty provider")
	}
}

func TestEnsureSchema(t *testing.T) {
	exec := &stubExecutor{}
	if err := NewStore(exec).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema error: %v", err)
	}
	if !strings.Contains(exec.exec.query, "create table if not exists integration_tokens") {
		t.Fatalf("unexpected query: %q", exec.exec.query)
	}
}
