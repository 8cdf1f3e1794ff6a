package usecase

import (
	"context"
	"log/slog"

	vaultService "github.com/allisson/tabvault/internal/vault/service"
)

// authUseCase implements the AuthUseCase interface, orchestrating the login
// flow, the passport gateway and the token vault.
type authUseCase struct {
	flow        LoginFlow
	gateway     PassportGateway
	vault       TokenVault
	clientID    string
	redirectURI string
	logger      *slog.Logger
}

// BeginLogin starts a fresh PKCE login and returns the authorize URL.
func (a *authUseCase) BeginLogin(ctx context.Context) (string, error) {
	return a.flow.BeginLogin(ctx)
}

// CompleteLogin validates the callback state, exchanges the authorization
// code for an access token and stores it encrypted. The persisted login
// state is cleared on success so the callback cannot be replayed.
func (a *authUseCase) CompleteLogin(ctx context.Context, state, code string) error {
	verifier, err := a.flow.ValidateCallback(ctx, state)
	if err != nil {
		return err
	}

	token, err := a.gateway.ExchangeCode(ctx, vaultService.ExchangeRequest{
		ClientID:     a.clientID,
		RedirectURI:  a.redirectURI,
		Code:         code,
		CodeVerifier: verifier,
	})
	if err != nil {
		return err
	}

	if err := a.vault.Save(ctx, token, 0); err != nil {
		return err
	}

	if err := a.flow.ClearLoginState(ctx); err != nil {
		a.logger.Warn("failed to clear login state", slog.String("error", err.Error()))
	}

	return nil
}

// Status reports whether a server-verified session exists.
func (a *authUseCase) Status(ctx context.Context) (bool, error) {
	return a.vault.Verify(ctx)
}

// Logout clears the local token first, then revokes the server-side session
// best-effort. Local state is always cleared even when the server is
// unreachable, so the user is never stuck logged in.
func (a *authUseCase) Logout(ctx context.Context) error {
	token, err := a.vault.Get(ctx)
	if err != nil {
		return err
	}

	if err := a.vault.Clear(ctx); err != nil {
		return err
	}

	if token != "" {
		if err := a.gateway.Logout(ctx, token); err != nil {
			a.logger.Warn("remote logout failed", slog.String("error", err.Error()))
		}
	}

	return nil
}

// NewAuthUseCase creates an auth use case. The clientID and redirectURI must
// match the values registered with the authorization server.
func NewAuthUseCase(
	flow LoginFlow,
	gateway PassportGateway,
	vault TokenVault,
	clientID string,
	redirectURI string,
	logger *slog.Logger,
) AuthUseCase {
	return &authUseCase{
		flow:        flow,
		gateway:     gateway,
		vault:       vault,
		clientID:    clientID,
		redirectURI: redirectURI,
		logger:      logger,
	}
}
