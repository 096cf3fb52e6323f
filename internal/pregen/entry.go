// Package pregen stores fully generated cars ahead of demand so the generate
// endpoint can answer from the queue instead of running the pipeline inline.
package pregen

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"speedrush/internal/domain"
)

// NewEntryID returns an id whose lexical order follows creation time. The
// random suffix keeps ids unique when two puts share a nanosecond.
func NewEntryID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%020d-%s", now.UTC().UnixNano(), suffix)
}

func encodeEntry(result *domain.GenerationResult) ([]byte, error) {
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%w: pregen: %w", domain.ErrInvalidRequest, err)
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("pregen: encode entry: %w", err)
	}
	return payload, nil
}

// decodeEntry parses a claimed payload. Corrupt entries are logged and
// reported as a miss; the caller has already removed them.
func decodeEntry(logger zerolog.Logger, id string, payload []byte) (*domain.GenerationResult, bool) {
	var result domain.GenerationResult
	err := json.Unmarshal(payload, &result)
	if err == nil {
		err = result.Validate()
	}
	if err != nil {
		logger.Warn().
			Err(fmt.Errorf("%w: %w", domain.ErrCacheCorruption, err)).
			Str("cache_id", id).
			Msg("pregen: discarded corrupt entry")
		return nil, false
	}
	return &result, true
}
