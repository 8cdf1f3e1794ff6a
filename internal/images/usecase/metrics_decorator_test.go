package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/tabvault/internal/errors"
	imagesDomain "github.com/allisson/tabvault/internal/images/domain"
	"github.com/allisson/tabvault/internal/metrics"
)

// mockImageCache is a mock implementation of ImageCache for testing.
type mockImageCache struct {
	mock.Mock
}

func (m *mockImageCache) NextImage(ctx context.Context) (imagesDomain.Image, error) {
	args := m.Called(ctx)
	return args.Get(0).(imagesDomain.Image), args.Error(1)
}

func (m *mockImageCache) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// mockBusinessMetrics is a mock implementation of metrics.BusinessMetrics for testing.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

var _ metrics.BusinessMetrics = (*mockBusinessMetrics)(nil)

func TestImageCacheWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RecordsSuccessMetrics", func(t *testing.T) {
		mockCache := &mockImageCache{}
		mockMetrics := &mockBusinessMetrics{}

		expected := imagesDomain.Image{
			Entry: imagesDomain.PoolEntry{ID: "photo-1"},
			Data:  []byte("webp-bytes"),
		}
		mockCache.On("NextImage", ctx).Return(expected, nil)
		mockMetrics.On("RecordOperation", ctx, "images", "image_next", "success").Return()
		mockMetrics.On("RecordDuration", ctx, "images", "image_next", mock.Anything, "success").Return()

		decorated := NewImageCacheWithMetrics(mockCache, mockMetrics)
		image, err := decorated.NextImage(ctx)

		require.NoError(t, err)
		assert.Equal(t, expected, image)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Error_RecordsErrorMetrics", func(t *testing.T) {
		mockCache := &mockImageCache{}
		mockMetrics := &mockBusinessMetrics{}

		mockCache.On("Clear", ctx).Return(apperrors.New("disk full"))
		mockMetrics.On("RecordOperation", ctx, "images", "image_clear", "error").Return()
		mockMetrics.On("RecordDuration", ctx, "images", "image_clear", mock.Anything, "error").Return()

		decorated := NewImageCacheWithMetrics(mockCache, mockMetrics)
		err := decorated.Clear(ctx)

		assert.Error(t, err)
		mockMetrics.AssertExpectations(t)
	})
}
