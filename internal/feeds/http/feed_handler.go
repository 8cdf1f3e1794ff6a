// Package http provides HTTP handlers for the feed cache.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/tabvault/internal/feeds/http/dto"
	feedsUseCase "github.com/allisson/tabvault/internal/feeds/usecase"
	"github.com/allisson/tabvault/internal/httputil"
	customValidation "github.com/allisson/tabvault/internal/validation"
)

// FeedHandler handles HTTP requests for cached feeds.
type FeedHandler struct {
	feedCache feedsUseCase.FeedCache
	logger    *slog.Logger
}

// NewFeedHandler creates a new feed handler with required dependencies.
func NewFeedHandler(feedCache feedsUseCase.FeedCache, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{
		feedCache: feedCache,
		logger:    logger,
	}
}

// GetHandler returns the cached or freshly fetched feed.
// GET /v1/feeds?url=...&refresh=true
// A stale copy served after a failed refresh carries is_expired=true.
func (h *FeedHandler) GetHandler(c *gin.Context) {
	var req dto.GetFeedRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.feedCache.GetFeed(c.Request.Context(), req.URL, req.Refresh)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, result)
}

// InvalidateHandler drops one cached feed, or the whole cache when no URL is
// given.
// DELETE /v1/feeds?url=...
func (h *FeedHandler) InvalidateHandler(c *gin.Context) {
	var req dto.InvalidateFeedRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	var err error
	if req.URL == "" {
		err = h.feedCache.Clear(c.Request.Context())
	} else {
		err = h.feedCache.InvalidateFeed(c.Request.Context(), req.URL)
	}
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// StatsHandler reports cache counters.
// GET /v1/feeds/stats
func (h *FeedHandler) StatsHandler(c *gin.Context) {
	stats, err := h.feedCache.Stats(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, stats)
}
