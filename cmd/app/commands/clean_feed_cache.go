package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	feedsUseCase "github.com/allisson/tabvault/internal/feeds/usecase"
)

// RunCleanFeedCache removes expired feed cache entries and reports how many
// were dropped.
func RunCleanFeedCache(ctx context.Context, feedCache feedsUseCase.FeedCache, logger *slog.Logger, out io.Writer) error {
	logger.Info("cleaning expired feed cache entries")

	count, err := feedCache.CleanExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to clean feed cache: %w", err)
	}

	fmt.Fprintf(out, "Removed %d expired feed cache entrie(s)\n", count)

	logger.Info("feed cache cleanup completed", slog.Int("count", count))
	return nil
}
