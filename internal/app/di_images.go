package app

import (
	"fmt"
	"sync"

	imagesHTTP "github.com/allisson/tabvault/internal/images/http"
	imagesRepository "github.com/allisson/tabvault/internal/images/repository"
	imagesService "github.com/allisson/tabvault/internal/images/service"
	imagesUseCase "github.com/allisson/tabvault/internal/images/usecase"
)

// imagesDeps holds the lazily initialized image cache components.
type imagesDeps struct {
	blobStore      imagesRepository.BlobStore
	unsplashClient *imagesService.UnsplashClient
	imageCache     imagesUseCase.ImageCache
	imageHandler   *imagesHTTP.ImageHandler

	blobStoreInit      sync.Once
	unsplashClientInit sync.Once
	imageCacheInit     sync.Once
	imageHandlerInit   sync.Once
}

// BlobStore returns the binary image store.
func (c *Container) BlobStore() imagesRepository.BlobStore {
	c.imagesDeps.blobStoreInit.Do(func() {
		c.imagesDeps.blobStore = imagesRepository.NewDiskvBlobStore(c.config.ImageBlobDir)
	})
	return c.imagesDeps.blobStore
}

// UnsplashClient returns the image API client.
func (c *Container) UnsplashClient() *imagesService.UnsplashClient {
	c.imagesDeps.unsplashClientInit.Do(func() {
		c.imagesDeps.unsplashClient = imagesService.NewUnsplashClient(imagesService.UnsplashConfig{
			APIURL:         c.config.UnsplashAPIURL,
			AccessKey:      c.config.UnsplashAccessKey,
			RequestsPerSec: c.config.UnsplashRequestsPerSec,
			Width:          c.config.ImageWidth,
			Query:          c.config.UnsplashQuery,
		}, c.Logger())
	})
	return c.imagesDeps.unsplashClient
}

// ImageCache returns the rotating image pool.
func (c *Container) ImageCache() (imagesUseCase.ImageCache, error) {
	var err error
	c.imagesDeps.imageCacheInit.Do(func() {
		c.imagesDeps.imageCache, err = c.initImageCache()
		if err != nil {
			c.initErrors["imageCache"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["imageCache"]; exists {
		return nil, storedErr
	}
	return c.imagesDeps.imageCache, nil
}

// ImageHandler returns the image HTTP handler.
func (c *Container) ImageHandler() (*imagesHTTP.ImageHandler, error) {
	var err error
	c.imagesDeps.imageHandlerInit.Do(func() {
		var cache imagesUseCase.ImageCache
		cache, err = c.ImageCache()
		if err != nil {
			c.initErrors["imageHandler"] = err
			return
		}
		c.imagesDeps.imageHandler = imagesHTTP.NewImageHandler(cache, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["imageHandler"]; exists {
		return nil, storedErr
	}
	return c.imagesDeps.imageHandler, nil
}

// initImageCache creates the image cache with its metrics decorator.
func (c *Container) initImageCache() (imagesUseCase.ImageCache, error) {
	store, err := c.KVStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get kv store for image cache: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for image cache: %w", err)
	}

	cache := imagesUseCase.NewImageCache(
		store,
		c.BlobStore(),
		c.UnsplashClient(),
		c.Clock(),
		c.config.ImagePoolSize,
		c.config.ImagePoolTTL,
		c.Logger(),
	)

	return imagesUseCase.NewImageCacheWithMetrics(cache, businessMetrics), nil
}
