// Package usecase implements the feed cache: TTL-bounded caching of parsed
// feeds with stale fallback when a refresh fails.
package usecase

import (
	"context"

	feedsDomain "github.com/allisson/tabvault/internal/feeds/domain"
)

// FeedFetcher defines the interface for downloading and parsing a feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (feedsDomain.FeedPayload, error)
}

// FeedCache defines the interface for the feed cache.
type FeedCache interface {
	// GetFeed returns the cached feed when it is still fresh, otherwise
	// fetches it. When refresh is true the cache is bypassed. If the fetch
	// fails and a cached copy exists, the copy is served with IsExpired set.
	GetFeed(ctx context.Context, url string, refresh bool) (feedsDomain.FeedResult, error)
	// InvalidateFeed drops the cached entry for one URL.
	InvalidateFeed(ctx context.Context, url string) error
	// Clear drops every cached entry.
	Clear(ctx context.Context) error
	// CleanExpired removes entries past their TTL and reports how many were
	// dropped.
	CleanExpired(ctx context.Context) (int, error)
	Stats(ctx context.Context) (feedsDomain.CacheStats, error)
}
