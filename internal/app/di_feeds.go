package app

import (
	"context"
	"fmt"
	"sync"

	feedsHTTP "github.com/allisson/tabvault/internal/feeds/http"
	feedsService "github.com/allisson/tabvault/internal/feeds/service"
	feedsUseCase "github.com/allisson/tabvault/internal/feeds/usecase"
)

// feedsDeps holds the lazily initialized feed cache components.
type feedsDeps struct {
	fetcher     *feedsService.Fetcher
	feedCache   feedsUseCase.FeedCache
	feedHandler *feedsHTTP.FeedHandler

	fetcherInit     sync.Once
	feedCacheInit   sync.Once
	feedHandlerInit sync.Once
}

// FeedFetcher returns the upstream feed fetcher.
func (c *Container) FeedFetcher() *feedsService.Fetcher {
	c.feedsDeps.fetcherInit.Do(func() {
		c.feedsDeps.fetcher = feedsService.NewFetcher(
			c.config.FeedFetchTimeout,
			c.config.FeedMaxItems,
		)
	})
	return c.feedsDeps.fetcher
}

// FeedCache returns the feed cache, rehydrated from storage on first access.
func (c *Container) FeedCache() (feedsUseCase.FeedCache, error) {
	var err error
	c.feedsDeps.feedCacheInit.Do(func() {
		c.feedsDeps.feedCache, err = c.initFeedCache()
		if err != nil {
			c.initErrors["feedCache"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["feedCache"]; exists {
		return nil, storedErr
	}
	return c.feedsDeps.feedCache, nil
}

// FeedHandler returns the feed HTTP handler.
func (c *Container) FeedHandler() (*feedsHTTP.FeedHandler, error) {
	var err error
	c.feedsDeps.feedHandlerInit.Do(func() {
		var cache feedsUseCase.FeedCache
		cache, err = c.FeedCache()
		if err != nil {
			c.initErrors["feedHandler"] = err
			return
		}
		c.feedsDeps.feedHandler = feedsHTTP.NewFeedHandler(cache, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["feedHandler"]; exists {
		return nil, storedErr
	}
	return c.feedsDeps.feedHandler, nil
}

// initFeedCache creates the feed cache with its metrics decorator.
func (c *Container) initFeedCache() (feedsUseCase.FeedCache, error) {
	store, err := c.KVStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get kv store for feed cache: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for feed cache: %w", err)
	}

	cache, err := feedsUseCase.NewFeedCache(
		context.Background(),
		store,
		c.FeedFetcher(),
		c.Clock(),
		c.config.FeedCacheTTL,
		c.Logger(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed cache: %w", err)
	}

	return feedsUseCase.NewFeedCacheWithMetrics(cache, businessMetrics), nil
}
