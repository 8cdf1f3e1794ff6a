// Package domain defines the feed cache's data model.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// DefaultTTL is how long a cached feed is served without refreshing.
const DefaultTTL = 5 * time.Minute

// CacheKeyPrefix namespaces feed cache keys in shared storage.
const CacheKeyPrefix = "rss_"

// CacheKey derives the storage key for a feed URL. The full SHA-256 digest
// is used so distinct URLs can never collide.
func CacheKey(url string) string {
	digest := sha256.Sum256([]byte(url))
	return CacheKeyPrefix + hex.EncodeToString(digest[:])
}

// FeedItem is a single entry of a parsed feed.
type FeedItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description,omitempty"`
	Published   string `json:"published,omitempty"`
}

// FeedPayload is the parsed form of a feed, capped to the configured number
// of items.
type FeedPayload struct {
	Title string     `json:"title"`
	Link  string     `json:"link,omitempty"`
	Items []FeedItem `json:"items"`
}

// CacheEntry is a cached feed with its fetch timestamp (Unix milliseconds).
type CacheEntry struct {
	URL       string      `json:"url"`
	Payload   FeedPayload `json:"payload"`
	FetchedAt int64       `json:"fetched_at"`
}

// Fresh reports whether the entry is still within its TTL.
func (e CacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.UnixMilli()-e.FetchedAt < ttl.Milliseconds()
}

// FeedResult is what the cache hands to callers: the payload plus where it
// came from. FromCache is false only for a payload fetched on this request;
// IsExpired marks a stale copy served after a failed refresh. CacheAge is
// how long ago the payload was fetched, in milliseconds.
type FeedResult struct {
	URL       string      `json:"url"`
	Payload   FeedPayload `json:"payload"`
	FetchedAt int64       `json:"fetched_at"`
	FromCache bool        `json:"from_cache"`
	IsExpired bool        `json:"is_expired"`
	CacheAge  int64       `json:"cache_age_ms"`
}

// CacheStats summarizes the cache contents at a point in time. OldestAge is
// the age of the oldest entry in milliseconds, 0 when the cache is empty.
type CacheStats struct {
	Entries   int   `json:"entries"`
	Fresh     int   `json:"fresh"`
	Expired   int   `json:"expired"`
	OldestAge int64 `json:"oldest_age_ms"`
}
