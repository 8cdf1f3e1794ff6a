package usecase

import (
	"context"
	"time"

	imagesDomain "github.com/allisson/tabvault/internal/images/domain"
	"github.com/allisson/tabvault/internal/metrics"
)

// imageCacheWithMetrics decorates ImageCache with metrics instrumentation.
type imageCacheWithMetrics struct {
	next    ImageCache
	metrics metrics.BusinessMetrics
}

// NewImageCacheWithMetrics wraps an ImageCache with metrics recording.
func NewImageCacheWithMetrics(cache ImageCache, m metrics.BusinessMetrics) ImageCache {
	return &imageCacheWithMetrics{next: cache, metrics: m}
}

func (i *imageCacheWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	i.metrics.RecordOperation(ctx, "images", operation, status)
	i.metrics.RecordDuration(ctx, "images", operation, time.Since(start), status)
}

func (i *imageCacheWithMetrics) NextImage(ctx context.Context) (imagesDomain.Image, error) {
	start := time.Now()
	image, err := i.next.NextImage(ctx)
	i.record(ctx, "image_next", start, err)
	return image, err
}

func (i *imageCacheWithMetrics) Clear(ctx context.Context) error {
	start := time.Now()
	err := i.next.Clear(ctx)
	i.record(ctx, "image_clear", start, err)
	return err
}
