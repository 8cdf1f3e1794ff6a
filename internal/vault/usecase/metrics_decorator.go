package usecase

import (
	"context"
	"time"

	"github.com/allisson/tabvault/internal/metrics"
)

// tokenVaultWithMetrics decorates TokenVault with metrics instrumentation.
type tokenVaultWithMetrics struct {
	next    TokenVault
	metrics metrics.BusinessMetrics
}

// NewTokenVaultWithMetrics wraps a TokenVault with metrics recording.
func NewTokenVaultWithMetrics(vault TokenVault, m metrics.BusinessMetrics) TokenVault {
	return &tokenVaultWithMetrics{next: vault, metrics: m}
}

func (t *tokenVaultWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	t.metrics.RecordOperation(ctx, "vault", operation, status)
	t.metrics.RecordDuration(ctx, "vault", operation, time.Since(start), status)
}

func (t *tokenVaultWithMetrics) Save(ctx context.Context, token string, ttl time.Duration) error {
	start := time.Now()
	err := t.next.Save(ctx, token, ttl)
	t.record(ctx, "token_save", start, err)
	return err
}

func (t *tokenVaultWithMetrics) Get(ctx context.Context) (string, error) {
	start := time.Now()
	token, err := t.next.Get(ctx)
	t.record(ctx, "token_get", start, err)
	return token, err
}

func (t *tokenVaultWithMetrics) Verify(ctx context.Context) (bool, error) {
	start := time.Now()
	verified, err := t.next.Verify(ctx)
	t.record(ctx, "token_verify", start, err)
	return verified, err
}

func (t *tokenVaultWithMetrics) Clear(ctx context.Context) error {
	start := time.Now()
	err := t.next.Clear(ctx)
	t.record(ctx, "token_clear", start, err)
	return err
}

// authUseCaseWithMetrics decorates AuthUseCase with metrics instrumentation.
type authUseCaseWithMetrics struct {
	next    AuthUseCase
	metrics metrics.BusinessMetrics
}

// NewAuthUseCaseWithMetrics wraps an AuthUseCase with metrics recording.
func NewAuthUseCaseWithMetrics(useCase AuthUseCase, m metrics.BusinessMetrics) AuthUseCase {
	return &authUseCaseWithMetrics{next: useCase, metrics: m}
}

func (a *authUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	a.metrics.RecordOperation(ctx, "vault", operation, status)
	a.metrics.RecordDuration(ctx, "vault", operation, time.Since(start), status)
}

func (a *authUseCaseWithMetrics) BeginLogin(ctx context.Context) (string, error) {
	start := time.Now()
	url, err := a.next.BeginLogin(ctx)
	a.record(ctx, "auth_begin_login", start, err)
	return url, err
}

func (a *authUseCaseWithMetrics) CompleteLogin(ctx context.Context, state, code string) error {
	start := time.Now()
	err := a.next.CompleteLogin(ctx, state, code)
	a.record(ctx, "auth_complete_login", start, err)
	return err
}

func (a *authUseCaseWithMetrics) Status(ctx context.Context) (bool, error) {
	start := time.Now()
	verified, err := a.next.Status(ctx)
	a.record(ctx, "auth_status", start, err)
	return verified, err
}

func (a *authUseCaseWithMetrics) Logout(ctx context.Context) error {
	start := time.Now()
	err := a.next.Logout(ctx)
	a.record(ctx, "auth_logout", start, err)
	return err
}
