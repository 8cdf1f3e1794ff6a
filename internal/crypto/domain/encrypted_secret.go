// Package domain defines the crypto engine's data model.
package domain

import (
	"encoding/json"

	apperrors "github.com/allisson/tabvault/internal/errors"
)

// EncryptedSecret is the wire form of an AES-GCM encrypted string secret.
//
// IV is 12 random bytes (96 bits) generated per encryption call and must
// never be reused with the same key. Ciphertext includes the 16-byte GCM
// authentication tag. Both fields are standard Base64. The JSON field names
// are part of the persisted record contract.
type EncryptedSecret struct {
	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
}

// Marshal serializes the secret to the JSON string persisted under the
// encryptedToken storage key.
func (e EncryptedSecret) Marshal() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to marshal encrypted secret")
	}
	return string(data), nil
}

// UnmarshalEncryptedSecret parses a persisted JSON string back into an
// EncryptedSecret. Malformed JSON or missing fields are reported as
// ErrStorageCorruption so callers can self-heal.
func UnmarshalEncryptedSecret(s string) (EncryptedSecret, error) {
	var secret EncryptedSecret
	if err := json.Unmarshal([]byte(s), &secret); err != nil {
		return EncryptedSecret{}, apperrors.Wrap(apperrors.ErrStorageCorruption, err.Error())
	}
	if secret.IV == "" || secret.Ciphertext == "" {
		return EncryptedSecret{}, apperrors.Wrap(
			apperrors.ErrStorageCorruption,
			"encrypted secret is missing iv or ciphertext",
		)
	}
	return secret, nil
}
