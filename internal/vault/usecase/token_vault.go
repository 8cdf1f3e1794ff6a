package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	cryptoDomain "github.com/allisson/tabvault/internal/crypto/domain"
	apperrors "github.com/allisson/tabvault/internal/errors"
	"github.com/allisson/tabvault/internal/kvstore"
	vaultDomain "github.com/allisson/tabvault/internal/vault/domain"
)

// tokenVault implements the TokenVault interface on top of the key-value
// store and the crypto engine.
type tokenVault struct {
	store   kvstore.Store
	engine  CryptoEngine
	gateway PassportGateway
	clock   clockwork.Clock
	ttl     time.Duration
	logger  *slog.Logger
}

// Save encrypts the token and writes both storage keys atomically. The
// expiry is stamped at save time so a token is never presented past its
// server-side lifetime. A non-positive ttl falls back to the vault default.
func (t *tokenVault) Save(ctx context.Context, token string, ttl time.Duration) error {
	if token == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "token must not be empty")
	}
	if ttl <= 0 {
		ttl = t.ttl
	}

	encrypted, err := t.engine.Encrypt(token)
	if err != nil {
		return err
	}

	payload, err := encrypted.Marshal()
	if err != nil {
		return err
	}

	record := vaultDomain.TokenRecord{
		EncryptedSecret: payload,
		Expiry:          t.clock.Now().Add(ttl).UnixMilli(),
	}

	err = t.store.Set(ctx, map[string]string{
		kvstore.KeyEncryptedToken: record.EncryptedSecret,
		kvstore.KeyTokenExpiry:    record.ExpiryString(),
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to persist token")
	}

	return nil
}

// Get loads, validates and decrypts the stored token. The vault is
// self-healing: an expired, malformed or undecryptable record is removed
// from storage and reported as absent rather than as an error, so a broken
// record can never wedge the caller. Only storage backend failures surface
// as errors.
func (t *tokenVault) Get(ctx context.Context) (string, error) {
	values, err := t.store.Get(ctx, kvstore.KeyEncryptedToken, kvstore.KeyTokenExpiry)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to load token")
	}

	secret, hasSecret := values[kvstore.KeyEncryptedToken]
	expiryRaw, hasExpiry := values[kvstore.KeyTokenExpiry]
	if !hasSecret && !hasExpiry {
		return "", nil
	}
	if !hasSecret || !hasExpiry {
		return "", t.heal(ctx, "token record is incomplete")
	}

	expiry, err := vaultDomain.ParseExpiry(expiryRaw)
	if err != nil {
		return "", t.heal(ctx, "token expiry is malformed")
	}

	record := vaultDomain.TokenRecord{EncryptedSecret: secret, Expiry: expiry}
	if !record.Usable(t.clock.Now()) {
		return "", t.heal(ctx, "token is expired")
	}

	encrypted, err := cryptoDomain.UnmarshalEncryptedSecret(record.EncryptedSecret)
	if err != nil {
		return "", t.heal(ctx, "token record is corrupted")
	}

	token, err := t.engine.Decrypt(encrypted)
	if err != nil {
		return "", t.heal(ctx, "token cannot be decrypted")
	}

	return token, nil
}

// Verify checks the stored token against the authorization server. A 401
// means the session was revoked server-side: the local record is cleared and
// a best-effort remote logout tears down whatever is left of the session. A
// network failure is reported as "not verified" without clearing, so a flaky
// connection never destroys a valid credential.
func (t *tokenVault) Verify(ctx context.Context) (bool, error) {
	token, err := t.Get(ctx)
	if err != nil {
		return false, err
	}
	if token == "" {
		return false, nil
	}

	err = t.gateway.CheckAuthentication(ctx, token)
	switch {
	case err == nil:
		return true, nil
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		if clearErr := t.Clear(ctx); clearErr != nil {
			return false, clearErr
		}
		if logoutErr := t.gateway.Logout(ctx, token); logoutErr != nil {
			t.logger.Warn("remote logout after revoked session failed",
				slog.String("error", logoutErr.Error()),
			)
		}
		return false, nil
	default:
		t.logger.Warn("token verification unavailable", slog.String("error", err.Error()))
		return false, nil
	}
}

// Clear removes both token keys. Removing absent keys is a no-op.
func (t *tokenVault) Clear(ctx context.Context) error {
	err := t.store.Remove(ctx, kvstore.KeyEncryptedToken, kvstore.KeyTokenExpiry)
	if err != nil {
		return apperrors.Wrap(err, "failed to clear token")
	}
	return nil
}

// heal clears the broken record and logs why. The returned error is the
// clear failure, if any; the record problem itself is not an error.
func (t *tokenVault) heal(ctx context.Context, reason string) error {
	t.logger.Warn("clearing unusable token record", slog.String("reason", reason))
	return t.Clear(ctx)
}

// NewTokenVault creates a token vault. The ttl bounds how long a saved token
// is presented before the vault treats it as expired.
func NewTokenVault(
	store kvstore.Store,
	engine CryptoEngine,
	gateway PassportGateway,
	clock clockwork.Clock,
	ttl time.Duration,
	logger *slog.Logger,
) TokenVault {
	if ttl <= 0 {
		ttl = vaultDomain.DefaultTokenTTL
	}
	return &tokenVault{
		store:   store,
		engine:  engine,
		gateway: gateway,
		clock:   clock,
		ttl:     ttl,
		logger:  logger,
	}
}
