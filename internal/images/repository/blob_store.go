// Package repository implements binary storage for cached images.
package repository

import (
	"github.com/peterbourgon/diskv/v3"

	apperrors "github.com/allisson/tabvault/internal/errors"
)

// BlobStore defines the interface for image binary persistence.
type BlobStore interface {
	Write(key string, data []byte) error
	// Read returns the stored binary, or ErrNotFound when the key is absent.
	Read(key string) ([]byte, error)
	// Delete removes a binary. Deleting an absent key is a no-op.
	Delete(key string) error
	Keys() ([]string, error)
}

const blobCacheSizeMax = 8 * 1024 * 1024

// diskvBlobStore implements BlobStore on a disk-backed key-value store with
// an in-memory read cache.
type diskvBlobStore struct {
	store *diskv.Diskv
}

// NewDiskvBlobStore creates a blob store rooted at basePath.
func NewDiskvBlobStore(basePath string) BlobStore {
	store := diskv.New(diskv.Options{
		BasePath: basePath,
		Transform: func(s string) []string {
			// Shard by the first two hex chars to keep directories small.
			if len(s) < 2 {
				return nil
			}
			return []string{s[:2]}
		},
		CacheSizeMax: blobCacheSizeMax,
	})

	return &diskvBlobStore{store: store}
}

func (d *diskvBlobStore) Write(key string, data []byte) error {
	if err := d.store.Write(key, data); err != nil {
		return apperrors.Wrap(err, "failed to write blob")
	}
	return nil
}

func (d *diskvBlobStore) Read(key string) ([]byte, error) {
	if !d.store.Has(key) {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "blob %q not found", key)
	}

	data, err := d.store.Read(key)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read blob")
	}
	return data, nil
}

func (d *diskvBlobStore) Delete(key string) error {
	if !d.store.Has(key) {
		return nil
	}

	if err := d.store.Erase(key); err != nil {
		return apperrors.Wrap(err, "failed to delete blob")
	}
	return nil
}

func (d *diskvBlobStore) Keys() ([]string, error) {
	var keys []string
	for key := range d.store.Keys(nil) {
		keys = append(keys, key)
	}
	return keys, nil
}
