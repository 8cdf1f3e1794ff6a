// Package service implements feed retrieval and parsing.
package service

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"

	apperrors "github.com/allisson/tabvault/internal/errors"
	feedsDomain "github.com/allisson/tabvault/internal/feeds/domain"
)

const defaultMaxItems = 10

// Fetcher downloads and parses RSS/Atom feeds.
type Fetcher struct {
	client   *resty.Client
	parser   *gofeed.Parser
	maxItems int
}

// NewFetcher creates a fetcher. maxItems caps how many items are kept per
// feed; timeout bounds the whole download.
func NewFetcher(timeout time.Duration, maxItems int) *Fetcher {
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	return &Fetcher{
		client:   client,
		parser:   gofeed.NewParser(),
		maxItems: maxItems,
	}
}

// Fetch downloads and parses the feed at url. Transport failures and non-2xx
// statuses are reported as ErrNetworkUnavailable; unparseable bodies as
// ErrInvalidInput.
func (f *Fetcher) Fetch(ctx context.Context, url string) (feedsDomain.FeedPayload, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return feedsDomain.FeedPayload{}, apperrors.Wrap(apperrors.ErrNetworkUnavailable, err.Error())
	}

	if !resp.IsSuccess() {
		return feedsDomain.FeedPayload{}, apperrors.Wrapf(
			apperrors.ErrNetworkUnavailable,
			"feed returned status %d", resp.StatusCode(),
		)
	}

	feed, err := f.parser.ParseString(string(resp.Body()))
	if err != nil {
		return feedsDomain.FeedPayload{}, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
	}

	return f.mapFeed(feed), nil
}

func (f *Fetcher) mapFeed(feed *gofeed.Feed) feedsDomain.FeedPayload {
	payload := feedsDomain.FeedPayload{
		Title: feed.Title,
		Link:  feed.Link,
		Items: make([]feedsDomain.FeedItem, 0, f.maxItems),
	}

	for _, item := range feed.Items {
		if len(payload.Items) == f.maxItems {
			break
		}

		mapped := feedsDomain.FeedItem{
			Title:       item.Title,
			Link:        item.Link,
			Description: item.Description,
		}
		if item.PublishedParsed != nil {
			mapped.Published = item.PublishedParsed.UTC().Format(time.RFC3339)
		} else {
			mapped.Published = item.Published
		}

		payload.Items = append(payload.Items, mapped)
	}

	return payload
}
