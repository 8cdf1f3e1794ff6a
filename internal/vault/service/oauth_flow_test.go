package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/tabvault/internal/errors"
	"github.com/allisson/tabvault/internal/kvstore"
)

func newTestFlow() (*OAuthFlow, *kvstore.MemoryStore) {
	store := kvstore.NewMemoryStore()
	flow := NewOAuthFlow(OAuthFlowConfig{
		ServerURL:   "https://id.example.com",
		ClientID:    "client-123",
		RedirectURI: "https://proxy.example.com/callback",
		PromptMode:  "consent",
	}, store)
	return flow, store
}

func TestOAuthFlow_BeginLogin(t *testing.T) {
	flow, store := newTestFlow()
	ctx := context.Background()

	authorizeURL, err := flow.BeginLogin(ctx)
	require.NoError(t, err)

	parsed, err := url.Parse(authorizeURL)
	require.NoError(t, err)
	assert.Equal(t, "id.example.com", parsed.Host)
	assert.Equal(t, "/oauth/authorize", parsed.Path)

	query := parsed.Query()
	assert.Equal(t, "client-123", query.Get("client_id"))
	assert.Equal(t, "https://proxy.example.com/callback", query.Get("redirect_uri"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "*", query.Get("scope"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
	assert.Equal(t, "consent", query.Get("prompt"))
	assert.Len(t, query.Get("state"), stateLength)

	// The persisted state must match what went into the URL.
	stored, err := store.Get(ctx, kvstore.KeyOAuthState, kvstore.KeyCodeVerifier)
	require.NoError(t, err)
	assert.Equal(t, query.Get("state"), stored[kvstore.KeyOAuthState])
	assert.Len(t, stored[kvstore.KeyCodeVerifier], verifierLength)

	// The challenge must be the S256 transform of the stored verifier.
	digest := sha256.Sum256([]byte(stored[kvstore.KeyCodeVerifier]))
	expected := base64.RawURLEncoding.EncodeToString(digest[:])
	assert.Equal(t, expected, query.Get("code_challenge"))
}

func TestOAuthFlow_ValidateCallback(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_MatchingState", func(t *testing.T) {
		flow, store := newTestFlow()
		_, err := flow.BeginLogin(ctx)
		require.NoError(t, err)

		stored, err := store.Get(ctx, kvstore.KeyOAuthState, kvstore.KeyCodeVerifier)
		require.NoError(t, err)

		verifier, err := flow.ValidateCallback(ctx, stored[kvstore.KeyOAuthState])
		require.NoError(t, err)
		assert.Equal(t, stored[kvstore.KeyCodeVerifier], verifier)
	})

	t.Run("Error_MismatchedState", func(t *testing.T) {
		flow, _ := newTestFlow()
		_, err := flow.BeginLogin(ctx)
		require.NoError(t, err)

		_, err = flow.ValidateCallback(ctx, "attacker-supplied-state")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
	})

	t.Run("Error_EmptyState", func(t *testing.T) {
		flow, _ := newTestFlow()

		_, err := flow.ValidateCallback(ctx, "")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
	})

	t.Run("Error_NoLoginInProgress", func(t *testing.T) {
		flow, _ := newTestFlow()

		_, err := flow.ValidateCallback(ctx, "some-state")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
	})
}

func TestOAuthFlow_ClearLoginState(t *testing.T) {
	flow, store := newTestFlow()
	ctx := context.Background()

	_, err := flow.BeginLogin(ctx)
	require.NoError(t, err)

	require.NoError(t, flow.ClearLoginState(ctx))
	require.NoError(t, flow.ClearLoginState(ctx)) // idempotent

	stored, err := store.Get(ctx, kvstore.KeyOAuthState, kvstore.KeyCodeVerifier)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestGenerateCode(t *testing.T) {
	first, err := generateCode(40)
	require.NoError(t, err)
	second, err := generateCode(40)
	require.NoError(t, err)

	assert.Len(t, first, 40)
	assert.NotEqual(t, first, second)

	for _, r := range first {
		assert.True(t, strings.ContainsRune(codeCharset, r), "unexpected rune %q", r)
	}
}
