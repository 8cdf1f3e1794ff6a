package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/allisson/tabvault/internal/errors"
	feedsDomain "github.com/allisson/tabvault/internal/feeds/domain"
	"github.com/allisson/tabvault/internal/kvstore"
)

// feedCache implements the FeedCache interface. The in-memory map is the
// source of truth; the key-value store holds a snapshot so the cache
// survives restarts. Concurrent requests for the same URL are collapsed
// into one upstream fetch.
type feedCache struct {
	mu      sync.RWMutex
	entries map[string]feedsDomain.CacheEntry
	group   singleflight.Group

	fetcher FeedFetcher
	store   kvstore.Store
	clock   clockwork.Clock
	ttl     time.Duration
	logger  *slog.Logger
}

// GetFeed serves from cache while the entry is fresh, refreshes otherwise.
// A failed refresh falls back to whatever copy is cached, flagged expired,
// so a dead upstream degrades to stale content instead of an error page.
func (f *feedCache) GetFeed(ctx context.Context, url string, refresh bool) (feedsDomain.FeedResult, error) {
	if url == "" {
		return feedsDomain.FeedResult{}, apperrors.Wrap(apperrors.ErrInvalidInput, "url is required")
	}

	key := feedsDomain.CacheKey(url)

	if !refresh {
		f.mu.RLock()
		entry, ok := f.entries[key]
		f.mu.RUnlock()
		if ok && entry.Fresh(f.clock.Now(), f.ttl) {
			return f.result(entry, true, false), nil
		}
	}

	value, err, _ := f.group.Do(key, func() (interface{}, error) {
		payload, fetchErr := f.fetcher.Fetch(ctx, url)
		if fetchErr != nil {
			return nil, fetchErr
		}

		entry := feedsDomain.CacheEntry{
			URL:       url,
			Payload:   payload,
			FetchedAt: f.clock.Now().UnixMilli(),
		}

		f.mu.Lock()
		f.entries[key] = entry
		f.mu.Unlock()
		f.persist(ctx)

		return entry, nil
	})
	if err != nil {
		f.mu.RLock()
		entry, ok := f.entries[key]
		f.mu.RUnlock()
		if ok {
			f.logger.Warn("feed refresh failed, serving stale copy",
				slog.String("url", url),
				slog.String("error", err.Error()),
			)
			return f.result(entry, true, true), nil
		}
		return feedsDomain.FeedResult{}, err
	}

	return f.result(value.(feedsDomain.CacheEntry), false, false), nil
}

// InvalidateFeed drops one entry. Unknown URLs are a no-op.
func (f *feedCache) InvalidateFeed(ctx context.Context, url string) error {
	if url == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "url is required")
	}

	key := feedsDomain.CacheKey(url)

	f.mu.Lock()
	delete(f.entries, key)
	f.mu.Unlock()

	f.persist(ctx)
	return nil
}

// Clear drops every entry and removes the persisted snapshot.
func (f *feedCache) Clear(ctx context.Context) error {
	f.mu.Lock()
	f.entries = make(map[string]feedsDomain.CacheEntry)
	f.mu.Unlock()

	if err := f.store.Remove(ctx, kvstore.KeyFeedCache); err != nil {
		return apperrors.Wrap(err, "failed to clear feed cache snapshot")
	}
	return nil
}

// CleanExpired removes entries past their TTL.
func (f *feedCache) CleanExpired(ctx context.Context) (int, error) {
	now := f.clock.Now()

	f.mu.Lock()
	removed := 0
	for key, entry := range f.entries {
		if !entry.Fresh(now, f.ttl) {
			delete(f.entries, key)
			removed++
		}
	}
	f.mu.Unlock()

	if removed > 0 {
		f.persist(ctx)
	}
	return removed, nil
}

// Stats summarizes the cache contents.
func (f *feedCache) Stats(ctx context.Context) (feedsDomain.CacheStats, error) {
	now := f.clock.Now()

	f.mu.RLock()
	defer f.mu.RUnlock()

	stats := feedsDomain.CacheStats{Entries: len(f.entries)}
	for _, entry := range f.entries {
		if entry.Fresh(now, f.ttl) {
			stats.Fresh++
		} else {
			stats.Expired++
		}
		if age := now.UnixMilli() - entry.FetchedAt; age > stats.OldestAge {
			stats.OldestAge = age
		}
	}
	return stats, nil
}

// persist writes the snapshot to storage. A failed write is logged and
// swallowed: the in-memory cache stays authoritative and the next mutation
// retries.
func (f *feedCache) persist(ctx context.Context) {
	f.mu.RLock()
	snapshot, err := json.Marshal(f.entries)
	f.mu.RUnlock()
	if err != nil {
		f.logger.Error("failed to marshal feed cache snapshot", slog.Any("error", err))
		return
	}

	err = f.store.Set(ctx, map[string]string{kvstore.KeyFeedCache: string(snapshot)})
	if err != nil {
		f.logger.Error("failed to persist feed cache snapshot", slog.Any("error", err))
	}
}

// load rehydrates the cache from the persisted snapshot, keeping only
// entries still within their TTL. A corrupted snapshot is discarded.
func (f *feedCache) load(ctx context.Context) error {
	values, err := f.store.Get(ctx, kvstore.KeyFeedCache)
	if err != nil {
		return apperrors.Wrap(err, "failed to load feed cache snapshot")
	}

	raw, ok := values[kvstore.KeyFeedCache]
	if !ok {
		return nil
	}

	var snapshot map[string]feedsDomain.CacheEntry
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		f.logger.Warn("discarding corrupted feed cache snapshot", slog.Any("error", err))
		return f.store.Remove(ctx, kvstore.KeyFeedCache)
	}

	now := f.clock.Now()
	for key, entry := range snapshot {
		if entry.Fresh(now, f.ttl) {
			f.entries[key] = entry
		}
	}
	return nil
}

func (f *feedCache) result(entry feedsDomain.CacheEntry, fromCache, expired bool) feedsDomain.FeedResult {
	var age int64
	if fromCache {
		age = f.clock.Now().UnixMilli() - entry.FetchedAt
	}
	return feedsDomain.FeedResult{
		URL:       entry.URL,
		Payload:   entry.Payload,
		FetchedAt: entry.FetchedAt,
		FromCache: fromCache,
		IsExpired: expired,
		CacheAge:  age,
	}
}

// NewFeedCache creates a feed cache rehydrated from storage.
func NewFeedCache(
	ctx context.Context,
	store kvstore.Store,
	fetcher FeedFetcher,
	clock clockwork.Clock,
	ttl time.Duration,
	logger *slog.Logger,
) (FeedCache, error) {
	if ttl <= 0 {
		ttl = feedsDomain.DefaultTTL
	}

	cache := &feedCache{
		entries: make(map[string]feedsDomain.CacheEntry),
		fetcher: fetcher,
		store:   store,
		clock:   clock,
		ttl:     ttl,
		logger:  logger,
	}

	if err := cache.load(ctx); err != nil {
		return nil, err
	}
	return cache, nil
}
