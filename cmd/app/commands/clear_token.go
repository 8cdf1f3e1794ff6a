package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	vaultUseCase "github.com/allisson/tabvault/internal/vault/usecase"
)

// RunClearToken removes the stored encrypted access token, forcing a fresh
// login. The authorization server session is not touched; use the logout
// endpoint for a full remote logout.
func RunClearToken(ctx context.Context, vault vaultUseCase.TokenVault, logger *slog.Logger, out io.Writer) error {
	logger.Info("clearing stored token")

	if err := vault.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}

	fmt.Fprintln(out, "Stored token cleared")

	logger.Info("stored token cleared")
	return nil
}
