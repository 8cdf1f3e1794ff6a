// Package usecase implements the rotating image pool: a day-long cache of
// background images served round-robin, refilled from Unsplash when it
// expires.
package usecase

import (
	"context"

	imagesDomain "github.com/allisson/tabvault/internal/images/domain"
	imagesService "github.com/allisson/tabvault/internal/images/service"
)

// PhotoSource defines the interface for fetching photo metadata and
// binaries. RandomPhotos returns at least one photo or an error; the pool
// rejects an empty batch.
type PhotoSource interface {
	RandomPhotos(ctx context.Context, count int) ([]imagesService.Photo, error)
	Download(ctx context.Context, imageURL string) ([]byte, error)
}

// ImageCache defines the interface for the rotating image pool.
type ImageCache interface {
	// NextImage returns the image at the rotation index and advances it.
	// When the pool is empty or expired, a fresh pool is fetched: the first
	// image is downloaded inline so the caller is served immediately, the
	// rest fill in the background. A stored binary that went missing after
	// the fill finished is refetched inline and the pool is replaced in the
	// background.
	NextImage(ctx context.Context) (imagesDomain.Image, error)
	// Clear drops the pool and every stored binary.
	Clear(ctx context.Context) error
}
