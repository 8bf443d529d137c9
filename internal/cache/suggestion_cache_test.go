package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/growmetrics/marketing-api/internal/models"
)

func newTestCache(t *testing.T) (*SuggestionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewSuggestionCache(rdb), mr
}

func batchAt(generatedAt time.Time) *StoredSuggestions {
	return &StoredSuggestions{
		Suggestions: []models.ContentSuggestion{
			{ID: "s1", Concept: "feature highlight", Caption: "Check this out"},
		},
		GeneratedAt: generatedAt.Format(time.RFC3339),
		Source:      "upload",
	}
}

func TestSuggestionCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	want := batchAt(time.Now())
	if err := c.Set(ctx, want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := c.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Suggestions) != 1 || got.Suggestions[0].ID != "s1" {
		t.Errorf("got %+v", got.Suggestions)
	}
	if got.Source != "upload" {
		t.Errorf("source = %s, want upload", got.Source)
	}
}

func TestSuggestionCacheMiss(t *testing.T) {
	c, _ := newTestCache(t)

	_, err := c.Get(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSuggestionCacheExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, batchAt(time.Now())); err != nil {
		t.Fatalf("Set: %v", err)
	}

	ttl := mr.TTL(suggestionKey)
	if ttl != suggestionTTL {
		t.Errorf("ttl = %v, want %v", ttl, suggestionTTL)
	}

	mr.FastForward(suggestionTTL + time.Second)
	if _, err := c.Get(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after expiry", err)
	}
}

func TestSetIfNewer(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

	written, err := c.SetIfNewer(ctx, batchAt(base))
	if err != nil {
		t.Fatalf("SetIfNewer: %v", err)
	}
	if !written {
		t.Fatal("first write must land")
	}

	// Older batch is ignored.
	written, err = c.SetIfNewer(ctx, batchAt(base.Add(-time.Hour)))
	if err != nil {
		t.Fatalf("SetIfNewer: %v", err)
	}
	if written {
		t.Error("stale batch must not replace a newer one")
	}

	// Same timestamp is also ignored.
	written, err = c.SetIfNewer(ctx, batchAt(base))
	if err != nil {
		t.Fatalf("SetIfNewer: %v", err)
	}
	if written {
		t.Error("equal-aged batch must not replace the stored one")
	}

	newer := batchAt(base.Add(time.Hour))
	newer.Source = "cron"
	written, err = c.SetIfNewer(ctx, newer)
	if err != nil {
		t.Fatalf("SetIfNewer: %v", err)
	}
	if !written {
		t.Fatal("newer batch must replace the stored one")
	}

	got, err := c.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Source != "cron" {
		t.Errorf("source = %s, want cron", got.Source)
	}
}

func TestSetIfNewerRejectsBadTimestamp(t *testing.T) {
	c, _ := newTestCache(t)

	batch := batchAt(time.Now())
	batch.GeneratedAt = "yesterday"
	if _, err := c.SetIfNewer(context.Background(), batch); err == nil {
		t.Fatal("want error for unparseable generatedAt")
	}
}

func TestSetIfNewerReplacesCorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	mr.Set(suggestionKey, "not json")

	written, err := c.SetIfNewer(ctx, batchAt(time.Now()))
	if err != nil {
		t.Fatalf("SetIfNewer: %v", err)
	}
	if !written {
		t.Fatal("corrupt entry must be overwritten")
	}
}
