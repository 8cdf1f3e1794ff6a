package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	imagesUseCase "github.com/allisson/tabvault/internal/images/usecase"
)

// RunClearImageCache drops the image pool and every stored image binary. The
// next image request will fetch a fresh pool.
func RunClearImageCache(ctx context.Context, imageCache imagesUseCase.ImageCache, logger *slog.Logger, out io.Writer) error {
	logger.Info("clearing image cache")

	if err := imageCache.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear image cache: %w", err)
	}

	fmt.Fprintln(out, "Image cache cleared")

	logger.Info("image cache cleared")
	return nil
}
