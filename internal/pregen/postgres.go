package pregen

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"speedrush/internal/domain"
	"speedrush/internal/infra"
	"speedrush/internal/sqlinline"
)

// PostgresQueue stores entries in the pregenerated_cars table.
type PostgresQueue struct {
	sql    infra.SQLExecutor
	logger zerolog.Logger
	now    func() time.Time
}

func NewPostgresQueue(sql infra.SQLExecutor, logger zerolog.Logger) *PostgresQueue {
	return &PostgresQueue{sql: sql, logger: logger, now: time.Now}
}

// EnsureSchema creates the queue table when missing.
func (q *PostgresQueue) EnsureSchema(ctx context.Context) error {
	if _, err := q.sql.Exec(ctx, sqlinline.QCreatePregenTable); err != nil {
		return fmt.Errorf("pregen: ensure schema: %w", err)
	}
	return nil
}

func (q *PostgresQueue) Put(ctx context.Context, result *domain.GenerationResult) (string, error) {
	payload, err := encodeEntry(result)
	if err != nil {
		return "", err
	}
	id := NewEntryID(q.now())
	if _, err := q.sql.Exec(ctx, sqlinline.QInsertPregen, id, string(payload)); err != nil {
		return "", fmt.Errorf("pregen: insert entry: %w", err)
	}
	return id, nil
}

func (q *PostgresQueue) Take(ctx context.Context) (*domain.GenerationResult, bool, error) {
	var id, payload string
	if err := q.sql.QueryRow(ctx, sqlinline.QClaimPregen).Scan(&id, &payload); err != nil {
		if infra.IsNoRows(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("pregen: claim entry: %w", err)
	}
	result, ok := decodeEntry(q.logger, id, []byte(payload))
	return result, ok, nil
}

func (q *PostgresQueue) Len(ctx context.Context) (int, error) {
	var n int64
	if err := q.sql.QueryRow(ctx, sqlinline.QCountPregen).Scan(&n); err != nil {
		return 0, fmt.Errorf("pregen: count entries: %w", err)
	}
	return int(n), nil
}

var _ domain.PregenQueue = (*PostgresQueue)(nil)
