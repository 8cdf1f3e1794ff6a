package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"net/url"

	"github.com/allisson/tabvault/internal/encoding"
	apperrors "github.com/allisson/tabvault/internal/errors"
	"github.com/allisson/tabvault/internal/kvstore"
)

// RFC 3986 unreserved characters, the alphabet PKCE code verifiers are
// drawn from.
const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

const (
	stateLength    = 40
	verifierLength = 128
)

// OAuthFlowConfig holds the authorize-endpoint parameters.
type OAuthFlowConfig struct {
	ServerURL   string
	ClientID    string
	RedirectURI string
	PromptMode  string
}

// OAuthFlow builds authorize URLs and validates callback state.
//
// The state nonce and PKCE code verifier generated for a login attempt are
// persisted so the callback, which may arrive on a different process, can
// verify and complete the exchange.
type OAuthFlow struct {
	config OAuthFlowConfig
	store  kvstore.Store
}

// NewOAuthFlow creates a new login flow helper.
func NewOAuthFlow(config OAuthFlowConfig, store kvstore.Store) *OAuthFlow {
	return &OAuthFlow{config: config, store: store}
}

// BeginLogin generates a fresh state nonce and PKCE verifier, persists both,
// and returns the authorize URL the frontend should open.
func (f *OAuthFlow) BeginLogin(ctx context.Context) (string, error) {
	state, err := generateCode(stateLength)
	if err != nil {
		return "", err
	}

	verifier, err := generateCode(verifierLength)
	if err != nil {
		return "", err
	}

	err = f.store.Set(ctx, map[string]string{
		kvstore.KeyOAuthState:   state,
		kvstore.KeyCodeVerifier: verifier,
	})
	if err != nil {
		return "", apperrors.Wrap(err, "failed to persist login state")
	}

	query := url.Values{}
	query.Set("client_id", f.config.ClientID)
	query.Set("redirect_uri", f.config.RedirectURI)
	query.Set("response_type", "code")
	query.Set("scope", "*")
	query.Set("state", state)
	query.Set("code_challenge", codeChallenge(verifier))
	query.Set("code_challenge_method", "S256")
	if f.config.PromptMode != "" {
		query.Set("prompt", f.config.PromptMode)
	}

	return f.config.ServerURL + "/oauth/authorize?" + query.Encode(), nil
}

// ValidateCallback checks the callback state against the stored nonce and
// returns the stored code verifier on success. A missing or mismatched state
// short-circuits the exchange with ErrUnauthorized: the callback cannot be
// tied to a login this process started.
func (f *OAuthFlow) ValidateCallback(ctx context.Context, state string) (string, error) {
	if state == "" {
		return "", apperrors.Wrap(apperrors.ErrUnauthorized, "callback is missing state")
	}

	stored, err := f.store.Get(ctx, kvstore.KeyOAuthState, kvstore.KeyCodeVerifier)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to load login state")
	}

	expected, ok := stored[kvstore.KeyOAuthState]
	if !ok || expected != state {
		return "", apperrors.Wrap(apperrors.ErrUnauthorized, "state mismatch")
	}

	return stored[kvstore.KeyCodeVerifier], nil
}

// ClearLoginState removes the persisted nonce and verifier. The state is
// single-use: it is cleared after a successful exchange so a replayed
// callback cannot validate twice.
func (f *OAuthFlow) ClearLoginState(ctx context.Context) error {
	return f.store.Remove(ctx, kvstore.KeyOAuthState, kvstore.KeyCodeVerifier)
}

// generateCode produces a random string of the given length over the
// unreserved charset.
func generateCode(length int) (string, error) {
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", apperrors.Wrap(apperrors.ErrCrypto, err.Error())
	}

	result := make([]byte, length)
	for i, b := range raw {
		result[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return string(result), nil
}

// codeChallenge derives the S256 challenge for a PKCE code verifier.
func codeChallenge(verifier string) string {
	digest := sha256.Sum256([]byte(verifier))
	return encoding.EncodeURLNoPadding(digest[:])
}
