// Package service implements the token vault's external collaborators: the
// passport (OAuth2) server client and the browser-facing login flow.
package service

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "github.com/allisson/tabvault/internal/errors"
)

const passportHTTPTimeout = 10 * time.Second

// ExchangeRequest carries the authorization-code grant parameters for the
// passport token endpoint.
type ExchangeRequest struct {
	ClientID     string
	RedirectURI  string
	Code         string
	CodeVerifier string
}

// tokenResponse is the passport token endpoint's JSON payload. Only the
// access token is consumed; refresh tokens are not persisted.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// PassportClient talks to the passport server's gateway and OAuth endpoints.
type PassportClient struct {
	client *resty.Client
	logger *slog.Logger
}

// NewPassportClient creates a passport client rooted at baseURL.
func NewPassportClient(baseURL string, logger *slog.Logger) *PassportClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(passportHTTPTimeout).
		SetHeader("Accept", "application/json")

	return &PassportClient{client: client, logger: logger}
}

// CheckAuthentication asks the passport gateway whether the bearer token is
// still live. Returns nil on HTTP 200, ErrUnauthorized on HTTP 401, and
// ErrNetworkUnavailable for transport failures and every other status (a
// flaky upstream must not be mistaken for a revoked session).
func (p *PassportClient) CheckAuthentication(ctx context.Context, token string) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get("/api/gateway/check-authentication")
	if err != nil {
		return apperrors.Wrap(apperrors.ErrNetworkUnavailable, err.Error())
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	default:
		return apperrors.Wrapf(
			apperrors.ErrNetworkUnavailable,
			"check-authentication returned status %d", resp.StatusCode(),
		)
	}
}

// Logout revokes the server-side session for the bearer token.
func (p *PassportClient) Logout(ctx context.Context, token string) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		Post("/api/gateway/logout")
	if err != nil {
		return apperrors.Wrap(apperrors.ErrNetworkUnavailable, err.Error())
	}

	if !resp.IsSuccess() {
		return apperrors.Wrapf(
			apperrors.ErrNetworkUnavailable,
			"logout returned status %d", resp.StatusCode(),
		)
	}
	return nil
}

// ExchangeCode trades an authorization code for an access token at the
// passport token endpoint using the form-urlencoded authorization_code grant.
func (p *PassportClient) ExchangeCode(ctx context.Context, req ExchangeRequest) (string, error) {
	var body tokenResponse

	resp, err := p.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "authorization_code",
			"client_id":     req.ClientID,
			"redirect_uri":  req.RedirectURI,
			"code_verifier": req.CodeVerifier,
			"code":          req.Code,
		}).
		SetResult(&body).
		Post("/api/oauth/token")
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrNetworkUnavailable, err.Error())
	}

	if !resp.IsSuccess() {
		p.logger.Warn("token exchange rejected",
			slog.Int("status", resp.StatusCode()),
		)
		return "", apperrors.Wrapf(
			apperrors.ErrUnauthorized,
			"token endpoint returned status %d", resp.StatusCode(),
		)
	}

	if body.AccessToken == "" {
		return "", apperrors.Wrap(apperrors.ErrUnauthorized, "token endpoint returned no access_token")
	}

	return body.AccessToken, nil
}
