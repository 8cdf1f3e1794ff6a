// Package http provides HTTP handlers for the OAuth login lifecycle.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/tabvault/internal/httputil"
	customValidation "github.com/allisson/tabvault/internal/validation"
	"github.com/allisson/tabvault/internal/vault/http/dto"
	vaultUseCase "github.com/allisson/tabvault/internal/vault/usecase"
)

// AuthHandler handles HTTP requests for login, callback, status and logout.
type AuthHandler struct {
	authUseCase vaultUseCase.AuthUseCase
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler with required dependencies.
func NewAuthHandler(authUseCase vaultUseCase.AuthUseCase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
		logger:      logger,
	}
}

// LoginHandler starts a PKCE login.
// POST /v1/auth/login
// Returns 200 OK with the authorize URL the frontend should open.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	authorizeURL, err := h.authUseCase.BeginLogin(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{AuthorizeURL: authorizeURL})
}

// CallbackHandler completes the login from the authorization server redirect.
// GET /v1/auth/callback?state=...&code=...
// Returns 200 OK once the token is stored encrypted.
func (h *AuthHandler) CallbackHandler(c *gin.Context) {
	var req dto.CallbackRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.authUseCase.CompleteLogin(c.Request.Context(), req.State, req.Code); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "login completed"})
}

// StatusHandler reports whether a server-verified session exists.
// GET /v1/auth/status
func (h *AuthHandler) StatusHandler(c *gin.Context) {
	authenticated, err := h.authUseCase.Status(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.StatusResponse{Authenticated: authenticated})
}

// LogoutHandler clears the stored token and revokes the server session.
// POST /v1/auth/logout
// Returns 204 No Content; local state is cleared even when the server is
// unreachable.
func (h *AuthHandler) LogoutHandler(c *gin.Context) {
	if err := h.authUseCase.Logout(c.Request.Context()); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
