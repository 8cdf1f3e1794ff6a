// Package usecase implements business logic orchestration for the token
// vault: encrypted persistence of the OAuth access token, server-side
// verification, and the PKCE login flow.
package usecase

import (
	"context"
	"time"

	cryptoDomain "github.com/allisson/tabvault/internal/crypto/domain"
	vaultService "github.com/allisson/tabvault/internal/vault/service"
)

// CryptoEngine defines the interface for encrypting and decrypting the
// stored token.
type CryptoEngine interface {
	Encrypt(secret string) (cryptoDomain.EncryptedSecret, error)
	Decrypt(data cryptoDomain.EncryptedSecret) (string, error)
}

// PassportGateway defines the interface for the OAuth server's gateway and
// token endpoints.
type PassportGateway interface {
	CheckAuthentication(ctx context.Context, token string) error
	Logout(ctx context.Context, token string) error
	ExchangeCode(ctx context.Context, req vaultService.ExchangeRequest) (string, error)
}

// LoginFlow defines the interface for the PKCE authorize-URL and callback
// state handling.
type LoginFlow interface {
	BeginLogin(ctx context.Context) (string, error)
	ValidateCallback(ctx context.Context, state string) (string, error)
	ClearLoginState(ctx context.Context) error
}

// TokenVault defines the interface for the encrypted token store.
type TokenVault interface {
	// Save encrypts the token and persists it together with its expiry in a
	// single atomic write. A non-positive ttl falls back to the vault
	// default.
	Save(ctx context.Context, token string, ttl time.Duration) error
	// Get returns the decrypted token, or "" when no usable token exists.
	// Expired, malformed or undecryptable records are cleared from storage
	// before returning; only a storage backend failure yields an error.
	Get(ctx context.Context) (string, error)
	// Verify checks the stored token against the authorization server.
	Verify(ctx context.Context) (bool, error)
	Clear(ctx context.Context) error
}

// AuthUseCase defines the interface for the OAuth login lifecycle.
type AuthUseCase interface {
	BeginLogin(ctx context.Context) (string, error)
	CompleteLogin(ctx context.Context, state, code string) error
	Status(ctx context.Context) (bool, error)
	Logout(ctx context.Context) error
}
