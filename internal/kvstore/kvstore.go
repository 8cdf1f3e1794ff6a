// Package kvstore provides the persisted key-value storage shared by the
// token vault and the response/asset caches. Each consumer owns a disjoint
// set of keys; no two components write the same key.
package kvstore

import "context"

// Well-known storage keys. The names are part of the persisted record
// contract and must not change.
const (
	// Token vault keys.
	KeyEncryptedToken = "encryptedToken"
	KeyTokenExpiry    = "tokenExpiry"

	// OAuth flow keys.
	KeyOAuthState   = "state"
	KeyCodeVerifier = "code_verifier"

	// Feed cache snapshot key.
	KeyFeedCache = "rss_feeds_cache"

	// Image pool keys.
	KeyImagePool       = "unsplash_cache_images"
	KeyImagePoolIndex  = "unsplash_cache_index"
	KeyImagePoolExpiry = "unsplash_cache_expiry"
)

// Store is the persisted key-value storage abstraction.
//
// Get returns only the keys that exist; absent keys are simply missing from
// the result map. Set writes all given pairs as one atomic operation.
// Remove is idempotent: removing absent keys is not an error.
type Store interface {
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	Set(ctx context.Context, values map[string]string) error
	Remove(ctx context.Context, keys ...string) error
}
