package pregen

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"speedrush/internal/domain"
	"speedrush/internal/sqlinline"
)

// SQLiteQueue stores entries in a local SQLite database.
type SQLiteQueue struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// NewSQLiteQueue wraps db and creates the queue table when missing.
func NewSQLiteQueue(ctx context.Context, db *sql.DB, logger zerolog.Logger) (*SQLiteQueue, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: pregen: sqlite database is required", domain.ErrConfiguration)
	}
	if _, err := db.ExecContext(ctx, sqlinline.QCreatePregenTableSQLite); err != nil {
		return nil, fmt.Errorf("pregen: ensure schema: %w", err)
	}
	return &SQLiteQueue{db: db, logger: logger, now: time.Now}, nil
}

func (q *SQLiteQueue) Put(ctx context.Context, result *domain.GenerationResult) (string, error) {
	payload, err := encodeEntry(result)
	if err != nil {
		return "", err
	}
	id := NewEntryID(q.now())
	if _, err := q.db.ExecContext(ctx, sqlinline.QInsertPregenSQLite, id, string(payload)); err != nil {
		return "", fmt.Errorf("pregen: insert entry: %w", err)
	}
	return id, nil
}

func (q *SQLiteQueue) Take(ctx context.Context) (*domain.GenerationResult, bool, error) {
	var id, payload string
	if err := q.db.QueryRowContext(ctx, sqlinline.QClaimPregenSQLite).Scan(&id, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("pregen: claim entry: %w", err)
	}
	result, ok := decodeEntry(q.logger, id, []byte(payload))
	return result, ok, nil
}

func (q *SQLiteQueue) Len(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, sqlinline.QCountPregenSQLite).Scan(&n); err != nil {
		return 0, fmt.Errorf("pregen: count entries: %w", err)
	}
	return n, nil
}

var _ domain.PregenQueue = (*SQLiteQueue)(nil)
