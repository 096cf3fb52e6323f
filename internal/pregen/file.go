package pregen

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"speedrush/internal/domain"
)

const (
	entryExt   = ".json"
	claimedExt = ".claimed"
	tempPrefix = "."
)

// FileQueue keeps one JSON file per entry in a directory. Takes claim a file
// by renaming it, so concurrent takers (in this or another process sharing
// the directory) never return the same entry twice.
type FileQueue struct {
	dir    string
	logger zerolog.Logger
	now    func() time.Time
}

// NewFileQueue returns a queue rooted at dir. The directory is created on
// first Put.
func NewFileQueue(dir string, logger zerolog.Logger) (*FileQueue, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("%w: pregen: cache directory is required", domain.ErrConfiguration)
	}
	return &FileQueue{dir: dir, logger: logger, now: time.Now}, nil
}

// Dir returns the backing directory.
func (q *FileQueue) Dir() string { return q.dir }

func (q *FileQueue) Put(ctx context.Context, result *domain.GenerationResult) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	payload, err := encodeEntry(result)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(q.dir, 0o755); err != nil {
		return "", fmt.Errorf("pregen: ensure cache dir: %w", err)
	}
	id := NewEntryID(q.now())
	tmp, err := os.CreateTemp(q.dir, tempPrefix+id+"-*")
	if err != nil {
		return "", fmt.Errorf("pregen: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("pregen: write entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("pregen: close entry: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(q.dir, id+entryExt)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("pregen: publish entry: %w", err)
	}
	q.logger.Debug().Str("cache_id", id).Msg("pregen: stored entry")
	return id, nil
}

func (q *FileQueue) Take(ctx context.Context) (*domain.GenerationResult, bool, error) {
	ids, err := q.list()
	if err != nil {
		return nil, false, err
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		src := filepath.Join(q.dir, id+entryExt)
		claimed := src + claimedExt
		if err := os.Rename(src, claimed); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, false, fmt.Errorf("pregen: claim entry %s: %w", id, err)
		}
		payload, readErr := os.ReadFile(claimed)
		if err := os.Remove(claimed); err != nil {
			q.logger.Warn().Err(err).Str("cache_id", id).Msg("pregen: remove claimed entry")
		}
		if readErr != nil {
			return nil, false, fmt.Errorf("pregen: read entry %s: %w", id, readErr)
		}
		result, ok := decodeEntry(q.logger, id, payload)
		return result, ok, nil
	}
	return nil, false, nil
}

func (q *FileQueue) Len(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	ids, err := q.list()
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// list returns entry ids in lexical order, which is creation order.
func (q *FileQueue) list() ([]string, error) {
	entries, err := os.ReadDir(q.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("pregen: list cache dir: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, tempPrefix) || !strings.HasSuffix(name, entryExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, entryExt))
	}
	return ids, nil
}

var _ domain.PregenQueue = (*FileQueue)(nil)
