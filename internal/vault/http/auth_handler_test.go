package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "github.com/allisson/tabvault/internal/errors"
)

// mockAuthUseCase is a mock implementation of usecase.AuthUseCase for testing.
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

func setupAuthRouter(useCase *mockAuthUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewAuthHandler(useCase, logger)

	router := gin.New()
	v1 := router.Group("/v1")
	v1.POST("/auth/login", handler.LoginHandler)
	v1.GET("/auth/callback", handler.CallbackHandler)
	v1.GET("/auth/status", handler.StatusHandler)
	v1.POST("/auth/logout", handler.LogoutHandler)
	return router
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("Success_ReturnsAuthorizeURL", func(t *testing.T) {
		useCase := &mockAuthUseCase{}
		useCase.On("BeginLogin", mock.Anything).
			Return("https://id.example.com/oauth/authorize?state=abc", nil)
		router := setupAuthRouter(useCase)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "https://id.example.com/oauth/authorize?state=abc")
	})

	t.Run("Error_StorageFailure", func(t *testing.T) {
		useCase := &mockAuthUseCase{}
		useCase.On("BeginLogin", mock.Anything).
			Return("", apperrors.New("storage is down"))
		router := setupAuthRouter(useCase)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestAuthHandler_Callback(t *testing.T) {
	t.Run("Success_CompletesLogin", func(t *testing.T) {
		useCase := &mockAuthUseCase{}
		useCase.On("CompleteLogin", mock.Anything, "state-abc", "code-xyz").Return(nil)
		router := setupAuthRouter(useCase)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(
			http.MethodGet, "/v1/auth/callback?state=state-abc&code=code-xyz", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		useCase.AssertExpectations(t)
	})

	t.Run("Error_MissingParams", func(t *testing.T) {
		useCase := &mockAuthUseCase{}
		router := setupAuthRouter(useCase)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/auth/callback?state=only", nil))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		useCase.AssertNotCalled(t, "CompleteLogin", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_StateMismatch", func(t *testing.T) {
		useCase := &mockAuthUseCase{}
		useCase.On("CompleteLogin", mock.Anything, "forged", "code-xyz").
			Return(apperrors.Wrap(apperrors.ErrUnauthorized, "state mismatch"))
		router := setupAuthRouter(useCase)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(
			http.MethodGet, "/v1/auth/callback?state=forged&code=code-xyz", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_Status(t *testing.T) {
	t.Run("Success_Authenticated", func(t *testing.T) {
		useCase := &mockAuthUseCase{}
		useCase.On("Status", mock.Anything).Return(true, nil)
		router := setupAuthRouter(useCase)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/auth/status", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"authenticated":true}`, w.Body.String())
	})

	t.Run("Success_NotAuthenticated", func(t *testing.T) {
		useCase := &mockAuthUseCase{}
		useCase.On("Status", mock.Anything).Return(false, nil)
		router := setupAuthRouter(useCase)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/auth/status", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	useCase := &mockAuthUseCase{}
	useCase.On("Logout", mock.Anything).Return(nil)
	router := setupAuthRouter(useCase)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	useCase.AssertExpectations(t)
}
