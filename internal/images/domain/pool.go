// Package domain defines the image pool's data model.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	apperrors "github.com/allisson/tabvault/internal/errors"
)

const (
	// DefaultPoolSize is how many images are kept for rotation.
	DefaultPoolSize = 10
	// DefaultTTL is how long a pool is rotated before being refetched.
	DefaultTTL = 24 * time.Hour
)

// PoolEntry is one cached image: its metadata plus the key of the stored
// binary.
type PoolEntry struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	BlobKey    string `json:"blob_key"`
	Author     string `json:"author,omitempty"`
	AuthorLink string `json:"author_link,omitempty"`
	ImagePage  string `json:"image_page,omitempty"`
}

// BlobKey derives the blob store key for an image URL.
func BlobKey(url string) string {
	digest := sha256.Sum256([]byte(url))
	return hex.EncodeToString(digest[:])
}

// Pool is the rotating set of cached images. Index points at the entry the
// next request will receive; Expiry is Unix-epoch milliseconds.
type Pool struct {
	Entries []PoolEntry `json:"entries"`
	Index   int         `json:"index"`
	Expiry  int64       `json:"expiry"`
}

// Usable reports whether the pool can serve a rotation: it has entries and
// has not expired.
func (p Pool) Usable(now time.Time) bool {
	return len(p.Entries) > 0 && p.Expiry > now.UnixMilli()
}

// Current returns the entry at the rotation index. The index is normalized
// modulo the pool size, so a stale persisted index can never go out of
// bounds.
func (p Pool) Current() PoolEntry {
	return p.Entries[p.Index%len(p.Entries)]
}

// Advance returns the pool with the rotation index moved to the next entry.
func (p Pool) Advance() Pool {
	p.Index = (p.Index + 1) % len(p.Entries)
	return p
}

// ExpiryString renders the expiry for its storage key.
func (p Pool) ExpiryString() string {
	return strconv.FormatInt(p.Expiry, 10)
}

// IndexString renders the rotation index for its storage key.
func (p Pool) IndexString() string {
	return strconv.Itoa(p.Index)
}

// ParseExpiry parses a persisted pool expiry value. Malformed values are
// reported as ErrStorageCorruption.
func ParseExpiry(s string) (int64, error) {
	expiry, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStorageCorruption, "pool expiry is not an integer")
	}
	return expiry, nil
}

// ParseIndex parses a persisted rotation index. Malformed or negative
// values are reported as ErrStorageCorruption.
func ParseIndex(s string) (int, error) {
	index, err := strconv.Atoi(s)
	if err != nil || index < 0 {
		return 0, apperrors.Wrap(apperrors.ErrStorageCorruption, "pool index is malformed")
	}
	return index, nil
}

// Image is what the pool hands to callers: the entry metadata plus the
// binary.
type Image struct {
	Entry PoolEntry
	Data  []byte
}
