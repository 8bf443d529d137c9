package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/growmetrics/marketing-api/internal/models"
)

const (
	suggestionKey = "marketing:daily_suggestions"
	suggestionTTL = 24 * time.Hour

	casRetries = 5
)

// ErrNotFound is returned when no suggestion batch is cached or the previous
// batch has expired.
var ErrNotFound = errors.New("no cached suggestions")

// StoredSuggestions is the cached daily batch together with its provenance.
type StoredSuggestions struct {
	Suggestions []models.ContentSuggestion `json:"suggestions"`
	BasedOn     *models.SuggestionMetrics  `json:"basedOnMetrics,omitempty"`
	GeneratedAt string                     `json:"generatedAt"`
	Source      string                     `json:"source"` // cron, upload
}

// SuggestionCache keeps the latest daily content suggestions in redis. The
// batch is overwritten wholesale on every write and expires after a day so a
// stalled generator never serves week-old advice.
type SuggestionCache struct {
	rdb redis.UniversalClient
}

func NewSuggestionCache(rdb redis.UniversalClient) *SuggestionCache {
	return &SuggestionCache{rdb: rdb}
}

func (c *SuggestionCache) Get(ctx context.Context) (*StoredSuggestions, error) {
	raw, err := c.rdb.Get(ctx, suggestionKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading suggestion cache: %w", err)
	}

	var stored StoredSuggestions
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("error decoding cached suggestions: %w", err)
	}
	return &stored, nil
}

func (c *SuggestionCache) Set(ctx context.Context, batch *StoredSuggestions) error {
	raw, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("error encoding suggestions: %w", err)
	}
	if err := c.rdb.Set(ctx, suggestionKey, raw, suggestionTTL).Err(); err != nil {
		return fmt.Errorf("error writing suggestion cache: %w", err)
	}
	return nil
}

// SetIfNewer replaces the cached batch only when the candidate's GeneratedAt
// is strictly later than what is stored. The read and the conditional write
// run under WATCH so concurrent writers cannot roll the batch backwards.
func (c *SuggestionCache) SetIfNewer(ctx context.Context, batch *StoredSuggestions) (bool, error) {
	candidate, err := time.Parse(time.RFC3339, batch.GeneratedAt)
	if err != nil {
		return false, fmt.Errorf("invalid generatedAt %q: %w", batch.GeneratedAt, err)
	}

	raw, err := json.Marshal(batch)
	if err != nil {
		return false, fmt.Errorf("error encoding suggestions: %w", err)
	}

	var written bool
	txn := func(tx *redis.Tx) error {
		written = false

		current, err := tx.Get(ctx, suggestionKey).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			var stored StoredSuggestions
			if jsonErr := json.Unmarshal(current, &stored); jsonErr == nil {
				existing, parseErr := time.Parse(time.RFC3339, stored.GeneratedAt)
				if parseErr == nil && !candidate.After(existing) {
					return nil
				}
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, suggestionKey, raw, suggestionTTL)
			return nil
		})
		if err == nil {
			written = true
		}
		return err
	}

	for i := 0; i < casRetries; i++ {
		err := c.rdb.Watch(ctx, txn, suggestionKey)
		if err == nil {
			return written, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return false, fmt.Errorf("error updating suggestion cache: %w", err)
	}
	return false, errors.New("suggestion cache update contended, giving up")
}
