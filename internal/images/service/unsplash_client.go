// Package service implements the Unsplash API client.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	apperrors "github.com/allisson/tabvault/internal/errors"
)

const (
	unsplashHTTPTimeout = 15 * time.Second
	imageQuality        = "80"
	imageFormat         = "webp"
)

// Photo is the subset of Unsplash photo metadata the image pool keeps.
type Photo struct {
	ID         string
	RawURL     string
	Author     string
	AuthorLink string
	ImagePage  string
}

// unsplashPhoto mirrors the Unsplash API photo payload.
type unsplashPhoto struct {
	ID   string `json:"id"`
	URLs struct {
		Raw string `json:"raw"`
	} `json:"urls"`
	Links struct {
		HTML string `json:"html"`
	} `json:"links"`
	User struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
}

// UnsplashClient talks to the Unsplash API and image CDN. API calls are rate
// limited client-side to stay inside the application's request quota.
type UnsplashClient struct {
	api     *resty.Client
	cdn     *resty.Client
	limiter *rate.Limiter
	width   int
	query   string
	logger  *slog.Logger
}

// UnsplashConfig holds the Unsplash client parameters. Query optionally
// narrows random photos to a topic (e.g. "nature").
type UnsplashConfig struct {
	APIURL         string
	AccessKey      string
	RequestsPerSec float64
	Width          int
	Query          string
}

// NewUnsplashClient creates an Unsplash client.
func NewUnsplashClient(cfg UnsplashConfig, logger *slog.Logger) *UnsplashClient {
	api := resty.New().
		SetBaseURL(cfg.APIURL).
		SetTimeout(unsplashHTTPTimeout).
		SetHeader("Accept-Version", "v1").
		SetHeader("Authorization", "Client-ID "+cfg.AccessKey)

	cdn := resty.New().
		SetTimeout(unsplashHTTPTimeout)

	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}

	return &UnsplashClient{
		api:     api,
		cdn:     cdn,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		width:   cfg.Width,
		query:   cfg.Query,
		logger:  logger,
	}
}

// RandomPhotos fetches count random landscape photos.
func (u *UnsplashClient) RandomPhotos(ctx context.Context, count int) ([]Photo, error) {
	if err := u.limiter.Wait(ctx); err != nil {
		return nil, apperrors.Wrap(err, "rate limiter interrupted")
	}

	var body []unsplashPhoto

	params := map[string]string{
		"count":       fmt.Sprintf("%d", count),
		"orientation": "landscape",
	}
	if u.query != "" {
		params["query"] = u.query
	}

	resp, err := u.api.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&body).
		Get("/photos/random")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrNetworkUnavailable, err.Error())
	}

	if !resp.IsSuccess() {
		return nil, apperrors.Wrapf(
			apperrors.ErrNetworkUnavailable,
			"unsplash returned status %d", resp.StatusCode(),
		)
	}

	photos := make([]Photo, 0, len(body))
	for _, p := range body {
		if p.URLs.Raw == "" {
			continue
		}
		photos = append(photos, Photo{
			ID:         p.ID,
			RawURL:     u.imageURL(p.URLs.Raw),
			Author:     p.User.Name,
			AuthorLink: p.User.Links.HTML,
			ImagePage:  p.Links.HTML,
		})
	}

	if len(photos) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrNetworkUnavailable, "unsplash returned no usable photos")
	}
	return photos, nil
}

// Download fetches the image binary from the CDN.
func (u *UnsplashClient) Download(ctx context.Context, imageURL string) ([]byte, error) {
	resp, err := u.cdn.R().
		SetContext(ctx).
		Get(imageURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrNetworkUnavailable, err.Error())
	}

	if !resp.IsSuccess() {
		return nil, apperrors.Wrapf(
			apperrors.ErrNetworkUnavailable,
			"image download returned status %d", resp.StatusCode(),
		)
	}

	return resp.Body(), nil
}

// imageURL caps the raw CDN URL to the configured width with webp
// compression. Raw URLs without those parameters are full-resolution
// originals, far too large to cache.
func (u *UnsplashClient) imageURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	query := parsed.Query()
	query.Set("w", fmt.Sprintf("%d", u.width))
	query.Set("fm", imageFormat)
	query.Set("q", imageQuality)
	parsed.RawQuery = query.Encode()

	return parsed.String()
}
