// Package domain defines the token vault's persisted data model.
package domain

import (
	"strconv"
	"time"

	apperrors "github.com/allisson/tabvault/internal/errors"
)

// DefaultTokenTTL is the lifetime applied to a saved token when the caller
// does not specify one (30 days, matching the issuing server's policy).
const DefaultTokenTTL = 30 * 24 * time.Hour

// ErrTokenNotFound indicates no usable token record exists.
var ErrTokenNotFound = apperrors.New("token not found")

// TokenRecord is the persisted form of the encrypted OAuth access token.
//
// EncryptedSecret holds the JSON serialization of the crypto engine's
// {iv, ciphertext} pair; Expiry is Unix-epoch milliseconds. A record is
// usable iff the expiry is in the future and the secret deserializes; any
// violation means the token is treated as absent and storage is cleared.
type TokenRecord struct {
	EncryptedSecret string
	Expiry          int64
}

// Usable reports whether the record can still be presented as a credential.
func (r TokenRecord) Usable(now time.Time) bool {
	return r.EncryptedSecret != "" && r.Expiry > now.UnixMilli()
}

// ExpiryString renders the expiry for the tokenExpiry storage key.
func (r TokenRecord) ExpiryString() string {
	return strconv.FormatInt(r.Expiry, 10)
}

// ParseExpiry parses a persisted tokenExpiry value. Malformed values are
// reported as ErrStorageCorruption.
func ParseExpiry(s string) (int64, error) {
	expiry, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStorageCorruption, "tokenExpiry is not an integer")
	}
	return expiry, nil
}
