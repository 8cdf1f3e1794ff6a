// Package service implements the crypto engine: PBKDF2 key derivation and
// AES-256-GCM encryption of opaque string secrets.
package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"

	cryptoDomain "github.com/allisson/tabvault/internal/crypto/domain"
	"github.com/allisson/tabvault/internal/encoding"
	apperrors "github.com/allisson/tabvault/internal/errors"
)

// Key derivation parameters. These are a compatibility contract with records
// already persisted by earlier releases: the fixed salt is a known weakening
// of PBKDF2 but changing it would orphan every stored token.
const (
	kdfSalt       = "fixed_salt_123"
	kdfIterations = 100_000
	keySize       = 32
	ivSize        = 12
)

// Engine encrypts and decrypts opaque string secrets with a key derived from
// a passphrase via PBKDF2 (SHA-256, 100k iterations).
//
// The derived key is computed once at construction; PBKDF2 is deterministic,
// so this is equivalent to deriving per call. The engine is stateless after
// construction and safe for concurrent use; every Encrypt generates a fresh
// random IV.
type Engine struct {
	aead cipher.AEAD
}

// NewEngine derives the AES-256 key from the passphrase and prepares the
// GCM cipher. Returns ErrCrypto if the passphrase is empty or the cipher
// cannot be initialized.
func NewEngine(passphrase string) (*Engine, error) {
	if passphrase == "" {
		return nil, apperrors.Wrap(apperrors.ErrCrypto, "passphrase must not be empty")
	}

	key := DeriveKey(passphrase)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCrypto, err.Error())
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCrypto, err.Error())
	}

	return &Engine{aead: aead}, nil
}

// DeriveKey derives the 256-bit AES key from a passphrase using the fixed
// PBKDF2 parameters.
func DeriveKey(passphrase string) []byte {
	return pbkdf2.Key([]byte(passphrase), []byte(kdfSalt), kdfIterations, keySize, sha256.New)
}

// Encrypt encrypts the UTF-8 bytes of secret under a fresh 96-bit random IV
// and returns both IV and ciphertext Base64-encoded. The ciphertext includes
// the GCM authentication tag.
func (e *Engine) Encrypt(secret string) (cryptoDomain.EncryptedSecret, error) {
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return cryptoDomain.EncryptedSecret{}, apperrors.Wrap(apperrors.ErrCrypto, err.Error())
	}

	ciphertext := e.aead.Seal(nil, iv, []byte(secret), nil)

	return cryptoDomain.EncryptedSecret{
		IV:         encoding.EncodeToString(iv),
		Ciphertext: encoding.EncodeToString(ciphertext),
	}, nil
}

// Decrypt reverses Encrypt. Any failure (malformed Base64, wrong IV size,
// authentication-tag mismatch, wrong passphrase) is reported as ErrCrypto;
// callers must treat it as "no valid secret" and never retry with the same
// inputs.
func (e *Engine) Decrypt(data cryptoDomain.EncryptedSecret) (string, error) {
	iv, err := encoding.DecodeString(data.IV)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCrypto, err.Error())
	}
	if len(iv) != ivSize {
		return "", apperrors.Wrap(apperrors.ErrCrypto, "invalid iv size")
	}

	ciphertext, err := encoding.DecodeString(data.Ciphertext)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCrypto, err.Error())
	}

	plaintext, err := e.aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCrypto, "failed to decrypt")
	}

	return string(plaintext), nil
}
