package usecase

import (
	"context"
	"time"

	feedsDomain "github.com/allisson/tabvault/internal/feeds/domain"
	"github.com/allisson/tabvault/internal/metrics"
)

// feedCacheWithMetrics decorates FeedCache with metrics instrumentation.
type feedCacheWithMetrics struct {
	next    FeedCache
	metrics metrics.BusinessMetrics
}

// NewFeedCacheWithMetrics wraps a FeedCache with metrics recording.
func NewFeedCacheWithMetrics(cache FeedCache, m metrics.BusinessMetrics) FeedCache {
	return &feedCacheWithMetrics{next: cache, metrics: m}
}

func (f *feedCacheWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	f.metrics.RecordOperation(ctx, "feeds", operation, status)
	f.metrics.RecordDuration(ctx, "feeds", operation, time.Since(start), status)
}

func (f *feedCacheWithMetrics) GetFeed(ctx context.Context, url string, refresh bool) (feedsDomain.FeedResult, error) {
	start := time.Now()
	feed, err := f.next.GetFeed(ctx, url, refresh)
	f.record(ctx, "feed_get", start, err)
	return feed, err
}

func (f *feedCacheWithMetrics) InvalidateFeed(ctx context.Context, url string) error {
	start := time.Now()
	err := f.next.InvalidateFeed(ctx, url)
	f.record(ctx, "feed_invalidate", start, err)
	return err
}

func (f *feedCacheWithMetrics) Clear(ctx context.Context) error {
	start := time.Now()
	err := f.next.Clear(ctx)
	f.record(ctx, "feed_clear", start, err)
	return err
}

func (f *feedCacheWithMetrics) CleanExpired(ctx context.Context) (int, error) {
	start := time.Now()
	removed, err := f.next.CleanExpired(ctx)
	f.record(ctx, "feed_clean_expired", start, err)
	return removed, err
}

func (f *feedCacheWithMetrics) Stats(ctx context.Context) (feedsDomain.CacheStats, error) {
	start := time.Now()
	stats, err := f.next.Stats(ctx)
	f.record(ctx, "feed_stats", start, err)
	return stats, err
}
