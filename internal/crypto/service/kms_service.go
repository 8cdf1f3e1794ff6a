package service

import (
	"context"
	"encoding/base64"

	"gocloud.dev/secrets"

	apperrors "github.com/allisson/tabvault/internal/errors"

	// Register KMS provider drivers.
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// ResolvePassphrase returns the vault passphrase to feed into the crypto
// engine.
//
// When keyURI is empty, value is used verbatim (development/test setups).
// When keyURI names a KMS key (gcpkms://, awskms://, azurekeyvault://,
// hashivault://, base64key://), value is expected to be a base64 ciphertext
// produced by that key and is unwrapped before use, so the plaintext
// passphrase never sits in the environment.
func ResolvePassphrase(ctx context.Context, keyURI, value string) (string, error) {
	if keyURI == "" {
		return value, nil
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCrypto, "failed to open KMS keeper: "+err.Error())
	}
	defer func() { _ = keeper.Close() }()

	wrapped, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCrypto, "wrapped passphrase is not valid base64")
	}

	plaintext, err := keeper.Decrypt(ctx, wrapped)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCrypto, "failed to unwrap passphrase: "+err.Error())
	}

	return string(plaintext), nil
}
