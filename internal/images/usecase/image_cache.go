package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/allisson/tabvault/internal/errors"
	imagesDomain "github.com/allisson/tabvault/internal/images/domain"
	"github.com/allisson/tabvault/internal/images/repository"
	"github.com/allisson/tabvault/internal/kvstore"
)

const refillTimeout = 2 * time.Minute

// imageCache implements the ImageCache interface. Pool metadata lives in the
// key-value store; binaries live in the blob store keyed by image URL hash.
// Concurrent pool misses are collapsed into one refill.
type imageCache struct {
	store    kvstore.Store
	blobs    repository.BlobStore
	source   PhotoSource
	clock    clockwork.Clock
	poolSize int
	ttl      time.Duration
	group    singleflight.Group
	logger   *slog.Logger

	// background tracks in-flight blob downloads so Clear and tests can wait
	// for them.
	background sync.WaitGroup

	// filling counts generations whose background fill is still running. A
	// missing binary while it is non-zero just has not been written yet;
	// while it is zero the binary was evicted and the pool is due for
	// replacement.
	filling atomic.Int32
}

// NextImage serves the current pool entry and advances the rotation. On a
// pool miss the whole pool is refetched; only the first binary is downloaded
// inline. A binary evicted after the fill finished is also served inline,
// and the pool is replaced behind it.
func (c *imageCache) NextImage(ctx context.Context) (imagesDomain.Image, error) {
	pool, err := c.loadPool(ctx)
	if err != nil {
		return imagesDomain.Image{}, err
	}

	if !pool.Usable(c.clock.Now()) {
		return c.refill(ctx)
	}

	entry := pool.Current()

	data, err := c.blobs.Read(entry.BlobKey)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		if c.filling.Load() == 0 {
			// The fill is idle, so the platform evicted this binary. Serve
			// the entry inline and treat the pool as missed; the refill
			// resets the rotation, so the stale index is left alone.
			c.scheduleRefill(entry)

			data, err = c.download(ctx, entry)
			if err != nil {
				return imagesDomain.Image{}, err
			}
			return imagesDomain.Image{Entry: entry, Data: data}, nil
		}
		// The background fill has not reached this entry yet; fetch inline.
		data, err = c.download(ctx, entry)
	}
	if err != nil {
		return imagesDomain.Image{}, err
	}

	// A failed download above leaves the rotation on the same entry.
	if err := c.persistIndex(ctx, pool.Advance()); err != nil {
		return imagesDomain.Image{}, err
	}

	return imagesDomain.Image{Entry: entry, Data: data}, nil
}

// Clear drops the pool metadata and every stored binary.
func (c *imageCache) Clear(ctx context.Context) error {
	c.background.Wait()

	err := c.store.Remove(ctx,
		kvstore.KeyImagePool,
		kvstore.KeyImagePoolIndex,
		kvstore.KeyImagePoolExpiry,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to clear image pool")
	}

	keys, err := c.blobs.Keys()
	if err != nil {
		return apperrors.Wrap(err, "failed to list blobs")
	}
	for _, key := range keys {
		if err := c.blobs.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// refill replaces the pool. The first image is downloaded inline and served;
// the remaining binaries are filled in the background, after which blobs no
// longer referenced by the pool are garbage collected.
func (c *imageCache) refill(ctx context.Context) (imagesDomain.Image, error) {
	value, err, _ := c.group.Do("refill", func() (interface{}, error) {
		generation := uuid.Must(uuid.NewV7()).String()

		photos, err := c.source.RandomPhotos(ctx, c.poolSize)
		if err != nil {
			return imagesDomain.Image{}, err
		}
		if len(photos) == 0 {
			return imagesDomain.Image{}, apperrors.Wrap(apperrors.ErrNetworkUnavailable, "photo source returned no photos")
		}

		entries := make([]imagesDomain.PoolEntry, 0, len(photos))
		for _, photo := range photos {
			entries = append(entries, imagesDomain.PoolEntry{
				ID:         photo.ID,
				URL:        photo.RawURL,
				BlobKey:    imagesDomain.BlobKey(photo.RawURL),
				Author:     photo.Author,
				AuthorLink: photo.AuthorLink,
				ImagePage:  photo.ImagePage,
			})
		}

		first := entries[0]
		data, err := c.download(ctx, first)
		if err != nil {
			return imagesDomain.Image{}, err
		}

		pool := imagesDomain.Pool{
			Entries: entries,
			Index:   1 % len(entries),
			Expiry:  c.clock.Now().Add(c.ttl).UnixMilli(),
		}
		if err := c.persistPool(ctx, pool); err != nil {
			return imagesDomain.Image{}, err
		}

		c.logger.Info("image pool refilled",
			slog.String("generation", generation),
			slog.Int("entries", len(entries)),
		)

		c.background.Add(1)
		c.filling.Add(1)
		go c.fillRemaining(pool, generation)

		return imagesDomain.Image{Entry: first, Data: data}, nil
	})
	if err != nil {
		return imagesDomain.Image{}, err
	}
	return value.(imagesDomain.Image), nil
}

// fillRemaining downloads the binaries the inline path skipped, then drops
// blobs from previous generations.
func (c *imageCache) fillRemaining(pool imagesDomain.Pool, generation string) {
	defer c.background.Done()
	defer c.filling.Add(-1)

	ctx, cancel := context.WithTimeout(context.Background(), refillTimeout)
	defer cancel()

	referenced := make(map[string]bool, len(pool.Entries))
	for _, entry := range pool.Entries {
		referenced[entry.BlobKey] = true

		if _, err := c.blobs.Read(entry.BlobKey); err == nil {
			continue
		}
		if _, err := c.download(ctx, entry); err != nil {
			c.logger.Warn("background image download failed",
				slog.String("generation", generation),
				slog.String("image_id", entry.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	keys, err := c.blobs.Keys()
	if err != nil {
		c.logger.Warn("blob garbage collection skipped", slog.Any("error", err))
		return
	}
	for _, key := range keys {
		if referenced[key] {
			continue
		}
		if err := c.blobs.Delete(key); err != nil {
			c.logger.Warn("failed to delete stale blob", slog.String("key", key))
		}
	}
}

// scheduleRefill replaces the pool in the background after a stored binary
// went missing. Concurrent callers collapse into the same refill.
func (c *imageCache) scheduleRefill(entry imagesDomain.PoolEntry) {
	c.logger.Warn("pool binary missing, replacing pool",
		slog.String("image_id", entry.ID),
	)

	c.background.Add(1)
	go func() {
		defer c.background.Done()

		ctx, cancel := context.WithTimeout(context.Background(), refillTimeout)
		defer cancel()

		if _, err := c.refill(ctx); err != nil {
			c.logger.Warn("image pool refill failed", slog.String("error", err.Error()))
		}
	}()
}

// download fetches an entry's binary and stores it.
func (c *imageCache) download(ctx context.Context, entry imagesDomain.PoolEntry) ([]byte, error) {
	data, err := c.source.Download(ctx, entry.URL)
	if err != nil {
		return nil, err
	}
	if err := c.blobs.Write(entry.BlobKey, data); err != nil {
		return nil, err
	}
	return data, nil
}

// loadPool reads the persisted pool. A corrupted record is cleared and
// reported as an empty pool so the next request triggers a refill.
func (c *imageCache) loadPool(ctx context.Context) (imagesDomain.Pool, error) {
	values, err := c.store.Get(ctx,
		kvstore.KeyImagePool,
		kvstore.KeyImagePoolIndex,
		kvstore.KeyImagePoolExpiry,
	)
	if err != nil {
		return imagesDomain.Pool{}, apperrors.Wrap(err, "failed to load image pool")
	}

	raw, ok := values[kvstore.KeyImagePool]
	if !ok {
		return imagesDomain.Pool{}, nil
	}

	var entries []imagesDomain.PoolEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return c.discardPool(ctx, "pool entries are malformed")
	}
	if len(entries) == 0 {
		return c.discardPool(ctx, "pool is empty")
	}

	index, err := imagesDomain.ParseIndex(values[kvstore.KeyImagePoolIndex])
	if err != nil {
		return c.discardPool(ctx, "pool index is malformed")
	}

	expiry, err := imagesDomain.ParseExpiry(values[kvstore.KeyImagePoolExpiry])
	if err != nil {
		return c.discardPool(ctx, "pool expiry is malformed")
	}

	return imagesDomain.Pool{Entries: entries, Index: index, Expiry: expiry}, nil
}

func (c *imageCache) discardPool(ctx context.Context, reason string) (imagesDomain.Pool, error) {
	c.logger.Warn("discarding unusable image pool", slog.String("reason", reason))

	err := c.store.Remove(ctx,
		kvstore.KeyImagePool,
		kvstore.KeyImagePoolIndex,
		kvstore.KeyImagePoolExpiry,
	)
	if err != nil {
		return imagesDomain.Pool{}, apperrors.Wrap(err, "failed to discard image pool")
	}
	return imagesDomain.Pool{}, nil
}

func (c *imageCache) persistPool(ctx context.Context, pool imagesDomain.Pool) error {
	entries, err := json.Marshal(pool.Entries)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal pool entries")
	}

	err = c.store.Set(ctx, map[string]string{
		kvstore.KeyImagePool:       string(entries),
		kvstore.KeyImagePoolIndex:  pool.IndexString(),
		kvstore.KeyImagePoolExpiry: pool.ExpiryString(),
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to persist image pool")
	}
	return nil
}

func (c *imageCache) persistIndex(ctx context.Context, pool imagesDomain.Pool) error {
	err := c.store.Set(ctx, map[string]string{
		kvstore.KeyImagePoolIndex: pool.IndexString(),
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to persist rotation index")
	}
	return nil
}

// WaitForBackgroundFill blocks until in-flight background downloads finish.
// Intended for shutdown and tests.
func (c *imageCache) WaitForBackgroundFill() {
	c.background.Wait()
}

// NewImageCache creates an image cache.
func NewImageCache(
	store kvstore.Store,
	blobs repository.BlobStore,
	source PhotoSource,
	clock clockwork.Clock,
	poolSize int,
	ttl time.Duration,
	logger *slog.Logger,
) ImageCache {
	if poolSize <= 0 {
		poolSize = imagesDomain.DefaultPoolSize
	}
	if ttl <= 0 {
		ttl = imagesDomain.DefaultTTL
	}

	return &imageCache{
		store:    store,
		blobs:    blobs,
		source:   source,
		clock:    clock,
		poolSize: poolSize,
		ttl:      ttl,
		logger:   logger,
	}
}
