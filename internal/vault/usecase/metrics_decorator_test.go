package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/tabvault/internal/errors"
	"github.com/allisson/tabvault/internal/metrics"
)

// mockBusinessMetrics is a mock implementation of metrics.BusinessMetrics for testing.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

var _ metrics.BusinessMetrics = (*mockBusinessMetrics)(nil)

// mockTokenVault is a mock implementation of TokenVault for testing.
type mockTokenVault struct {
	mock.Mock
}

func (m *mockTokenVault) Save(ctx context.Context, token string, ttl time.Duration) error {
	args := m.Called(ctx, token, ttl)
	return args.Error(0)
}

func (m *mockTokenVault) Get(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockTokenVault) Verify(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *mockTokenVault) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestTokenVaultWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RecordsSuccessMetrics", func(t *testing.T) {
		mockVault := &mockTokenVault{}
		mockMetrics := &mockBusinessMetrics{}

		mockVault.On("Get", ctx).Return("my-access-token", nil)
		mockMetrics.On("RecordOperation", ctx, "vault", "token_get", "success").Return()
		mockMetrics.On("RecordDuration", ctx, "vault", "token_get", mock.Anything, "success").Return()

		decorated := NewTokenVaultWithMetrics(mockVault, mockMetrics)
		token, err := decorated.Get(ctx)

		require.NoError(t, err)
		assert.Equal(t, "my-access-token", token)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Error_RecordsErrorMetrics", func(t *testing.T) {
		mockVault := &mockTokenVault{}
		mockMetrics := &mockBusinessMetrics{}

		mockVault.On("Save", ctx, "", time.Duration(0)).Return(apperrors.ErrInvalidInput)
		mockMetrics.On("RecordOperation", ctx, "vault", "token_save", "error").Return()
		mockMetrics.On("RecordDuration", ctx, "vault", "token_save", mock.Anything, "error").Return()

		decorated := NewTokenVaultWithMetrics(mockVault, mockMetrics)
		err := decorated.Save(ctx, "", 0)

		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Success_VerifyAndClearPassThrough", func(t *testing.T) {
		mockVault := &mockTokenVault{}
		mockMetrics := &mockBusinessMetrics{}

		mockVault.On("Verify", ctx).Return(true, nil)
		mockVault.On("Clear", ctx).Return(nil)
		mockMetrics.On("RecordOperation", ctx, "vault", mock.Anything, "success").Return()
		mockMetrics.On("RecordDuration", ctx, "vault", mock.Anything, mock.Anything, "success").Return()

		decorated := NewTokenVaultWithMetrics(mockVault, mockMetrics)

		verified, err := decorated.Verify(ctx)
		require.NoError(t, err)
		assert.True(t, verified)
		assert.NoError(t, decorated.Clear(ctx))
		mockVault.AssertExpectations(t)
	})
}

// mockAuthUseCase is a mock implementation of AuthUseCase for testing.
type mockAuthUseCase struct {
	mock.Mock
}

func (m *mockAuthUseCase) BeginLogin(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockAuthUseCase) CompleteLogin(ctx context.Context, state, code string) error {
	args := m.Called(ctx, state, code)
	return args.Error(0)
}

func (m *mockAuthUseCase) Status(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *mockAuthUseCase) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestAuthUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RecordsSuccessMetrics", func(t *testing.T) {
		mockAuth := &mockAuthUseCase{}
		mockMetrics := &mockBusinessMetrics{}

		mockAuth.On("BeginLogin", ctx).Return("https://id.example.com/oauth/authorize", nil)
		mockMetrics.On("RecordOperation", ctx, "vault", "auth_begin_login", "success").Return()
		mockMetrics.On("RecordDuration", ctx, "vault", "auth_begin_login", mock.Anything, "success").Return()

		decorated := NewAuthUseCaseWithMetrics(mockAuth, mockMetrics)
		url, err := decorated.BeginLogin(ctx)

		require.NoError(t, err)
		assert.Equal(t, "https://id.example.com/oauth/authorize", url)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Error_RecordsErrorMetrics", func(t *testing.T) {
		mockAuth := &mockAuthUseCase{}
		mockMetrics := &mockBusinessMetrics{}

		mockAuth.On("CompleteLogin", ctx, "state", "code").Return(apperrors.ErrUnauthorized)
		mockMetrics.On("RecordOperation", ctx, "vault", "auth_complete_login", "error").Return()
		mockMetrics.On("RecordDuration", ctx, "vault", "auth_complete_login", mock.Anything, "error").Return()

		decorated := NewAuthUseCaseWithMetrics(mockAuth, mockMetrics)
		err := decorated.CompleteLogin(ctx, "state", "code")

		assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
		mockMetrics.AssertExpectations(t)
	})
}
