// Package http provides HTTP handlers for the rotating image pool.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/tabvault/internal/httputil"
	imagesUseCase "github.com/allisson/tabvault/internal/images/usecase"
)

const imageContentType = "image/webp"

// ImageHandler handles HTTP requests for background images.
type ImageHandler struct {
	imageCache imagesUseCase.ImageCache
	logger     *slog.Logger
}

// NewImageHandler creates a new image handler with required dependencies.
func NewImageHandler(imageCache imagesUseCase.ImageCache, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{
		imageCache: imageCache,
		logger:     logger,
	}
}

// NextHandler serves the next image in the rotation as a binary body, with
// attribution metadata in headers.
// GET /v1/images/next
func (h *ImageHandler) NextHandler(c *gin.Context) {
	image, err := h.imageCache.NextImage(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Header("X-Image-Id", image.Entry.ID)
	c.Header("X-Image-Author", image.Entry.Author)
	c.Header("X-Image-Author-Link", image.Entry.AuthorLink)
	c.Header("X-Image-Page", image.Entry.ImagePage)
	c.Data(http.StatusOK, imageContentType, image.Data)
}

// ClearHandler drops the pool and every stored binary.
// DELETE /v1/images
func (h *ImageHandler) ClearHandler(c *gin.Context) {
	if err := h.imageCache.Clear(c.Request.Context()); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
