// Package encoding provides binary-to-Base64 conversion helpers used by the
// crypto engine and the token vault's persisted record format.
package encoding

import (
	"encoding/base64"

	apperrors "github.com/allisson/tabvault/internal/errors"
)

// EncodeToString encodes binary data as a standard Base64 string.
func EncodeToString(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeString decodes a standard Base64 string back to binary data.
// Malformed input is reported as ErrStorageCorruption because the only Base64
// this application decodes comes from its own persisted records.
func DecodeString(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorageCorruption, err.Error())
	}
	return data, nil
}

// EncodeURLNoPadding encodes binary data as an unpadded URL-safe Base64
// string, the format PKCE S256 code challenges require.
func EncodeURLNoPadding(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}
