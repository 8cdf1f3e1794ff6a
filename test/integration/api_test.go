// Package integration provides end-to-end tests for the API: the full
// dependency graph is assembled with the memory driver and exercised against
// stub passport, feed and Unsplash servers.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/tabvault/internal/app"
	"github.com/allisson/tabvault/internal/config"
	feedsDomain "github.com/allisson/tabvault/internal/feeds/domain"
	"github.com/allisson/tabvault/internal/kvstore"
)

const (
	testClientID    = "client-123"
	testAccessToken = "token-abc"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Blog</title>
    <link>https://blog.example.com</link>
    <item>
      <title>First Post</title>
      <link>https://blog.example.com/first</link>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    </item>
    <item>
      <title>Second Post</title>
      <link>https://blog.example.com/second</link>
    </item>
  </channel>
</rss>`

// stubBackends hosts the fake passport, feed and Unsplash servers.
type stubBackends struct {
	passport *httptest.Server
	feeds    *httptest.Server
	unsplash *httptest.Server

	feedRequests int64
	loggedOut    int64
}

func newStubBackends(t *testing.T) *stubBackends {
	t.Helper()

	s := &stubBackends{}

	passportMux := http.NewServeMux()
	passportMux.HandleFunc("POST /api/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.FormValue("grant_type") != "authorization_code" || r.FormValue("client_id") != testClientID {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":%q}`, testAccessToken)
	})
	passportMux.HandleFunc("GET /api/gateway/check-authentication", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testAccessToken || atomic.LoadInt64(&s.loggedOut) > 0 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	passportMux.HandleFunc("POST /api/gateway/logout", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.loggedOut, 1)
		w.WriteHeader(http.StatusOK)
	})
	s.passport = httptest.NewServer(passportMux)
	t.Cleanup(s.passport.Close)

	s.feeds = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.feedRequests, 1)
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssFixture)
	}))
	t.Cleanup(s.feeds.Close)

	unsplashMux := http.NewServeMux()
	unsplashMux.HandleFunc("GET /photos/random", func(w http.ResponseWriter, r *http.Request) {
		count := r.URL.Query().Get("count")
		require.NotEmpty(t, count)

		type photo struct {
			ID   string `json:"id"`
			URLs struct {
				Raw string `json:"raw"`
			} `json:"urls"`
			Links struct {
				HTML string `json:"html"`
			} `json:"links"`
			User struct {
				Name  string `json:"name"`
				Links struct {
					HTML string `json:"html"`
				} `json:"links"`
			} `json:"user"`
		}

		photos := make([]photo, 0, 3)
		for i := 0; i < 3; i++ {
			var p photo
			p.ID = fmt.Sprintf("photo-%d", i)
			p.URLs.Raw = fmt.Sprintf("%s/raw/photo-%d", s.unsplash.URL, i)
			p.Links.HTML = fmt.Sprintf("https://unsplash.com/photos/photo-%d", i)
			p.User.Name = "Jane Doe"
			p.User.Links.HTML = "https://unsplash.com/@janedoe"
			photos = append(photos, p)
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(photos))
	})
	unsplashMux.HandleFunc("GET /raw/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/webp")
		fmt.Fprintf(w, "binary-%s", r.PathValue("id"))
	})
	s.unsplash = httptest.NewServer(unsplashMux)
	t.Cleanup(s.unsplash.Close)

	return s
}

// apiTestContext holds the assembled application and its API server.
type apiTestContext struct {
	container *app.Container
	server    *httptest.Server
	backends  *stubBackends
}

func setupAPITest(t *testing.T) *apiTestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	backends := newStubBackends(t)

	cfg := &config.Config{
		LogLevel:               "error",
		DBDriver:               "memory",
		ServerHost:             "localhost",
		ServerPort:             8080,
		VaultPassphrase:        "integration-passphrase",
		VaultTokenTTL:          time.Hour,
		PassportServerURL:      backends.passport.URL,
		PassportClientID:       testClientID,
		PassportRedirectURI:    "https://app.example.com/callback",
		FeedCacheTTL:           5 * time.Minute,
		FeedFetchTimeout:       10 * time.Second,
		FeedMaxItems:           10,
		UnsplashAPIURL:         backends.unsplash.URL,
		UnsplashAccessKey:      "access-key",
		UnsplashRequestsPerSec: 1000,
		ImagePoolSize:          3,
		ImagePoolTTL:           24 * time.Hour,
		ImageWidth:             1920,
		ImageBlobDir:           t.TempDir(),
		MetricsEnabled:         true,
		MetricsNamespace:       "tabvault",
		MetricsPort:            8081,
	}

	container := app.NewContainer(cfg)

	server, err := container.HTTPServer()
	require.NoError(t, err)

	ts := httptest.NewServer(server.SetupRouter())
	t.Cleanup(ts.Close)

	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, container.Shutdown(shutdownCtx))
	})

	return &apiTestContext{
		container: container,
		server:    ts,
		backends:  backends,
	}
}

// request performs an HTTP request against the test server.
func (ctx *apiTestContext) request(t *testing.T, method, path string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, ctx.server.URL+path, nil)
	require.NoError(t, err)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, body
}

// login completes the OAuth flow against the stub passport server.
func (ctx *apiTestContext) login(t *testing.T) {
	t.Helper()

	resp, body := ctx.request(t, http.MethodPost, "/v1/auth/login")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResponse struct {
		AuthorizeURL string `json:"authorize_url"`
	}
	require.NoError(t, json.Unmarshal(body, &loginResponse))
	assert.Contains(t, loginResponse.AuthorizeURL, ctx.backends.passport.URL)

	// The state nonce the callback must echo is persisted by the login.
	store, err := ctx.container.KVStore()
	require.NoError(t, err)
	values, err := store.Get(context.Background(), kvstore.KeyOAuthState)
	require.NoError(t, err)
	state := values[kvstore.KeyOAuthState]
	require.NotEmpty(t, state)

	resp, _ = ctx.request(t, http.MethodGet, "/v1/auth/callback?state="+state+"&code=auth-code")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthAndReadiness(t *testing.T) {
	ctx := setupAPITest(t)

	resp, body := ctx.request(t, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body))

	resp, body = ctx.request(t, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ready","components":{"storage":"memory"}}`, string(body))
}

func TestAuthFlow(t *testing.T) {
	ctx := setupAPITest(t)

	// Before login the session is not authenticated.
	resp, body := ctx.request(t, http.MethodGet, "/v1/auth/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"authenticated":false}`, string(body))

	ctx.login(t)

	resp, body = ctx.request(t, http.MethodGet, "/v1/auth/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"authenticated":true}`, string(body))

	// Logout clears the vault and revokes the remote session.
	resp, _ = ctx.request(t, http.MethodPost, "/v1/auth/logout")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, int64(1), atomic.LoadInt64(&ctx.backends.loggedOut))

	resp, body = ctx.request(t, http.MethodGet, "/v1/auth/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"authenticated":false}`, string(body))
}

func TestAuthCallbackStateMismatch(t *testing.T) {
	ctx := setupAPITest(t)

	resp, _ := ctx.request(t, http.MethodPost, "/v1/auth/login")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ctx.request(t, http.MethodGet, "/v1/auth/callback?state=wrong-state&code=auth-code")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFeedCaching(t *testing.T) {
	ctx := setupAPITest(t)
	feedURL := ctx.backends.feeds.URL + "/feed.xml"

	resp, body := ctx.request(t, http.MethodGet, "/v1/feeds?url="+feedURL)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result feedsDomain.FeedResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "Example Blog", result.Payload.Title)
	assert.Len(t, result.Payload.Items, 2)
	assert.False(t, result.IsExpired)
	assert.False(t, result.FromCache)

	// The second request is served from the cache.
	resp, body = ctx.request(t, http.MethodGet, "/v1/feeds?url="+feedURL)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &result))
	assert.True(t, result.FromCache)
	assert.Equal(t, int64(1), atomic.LoadInt64(&ctx.backends.feedRequests))

	// A forced refresh bypasses it.
	resp, _ = ctx.request(t, http.MethodGet, "/v1/feeds?url="+feedURL+"&refresh=true")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(2), atomic.LoadInt64(&ctx.backends.feedRequests))

	resp, body = ctx.request(t, http.MethodGet, "/v1/feeds/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats feedsDomain.CacheStats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, 1, stats.Entries)

	resp, _ = ctx.request(t, http.MethodDelete, "/v1/feeds")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestFeedValidation(t *testing.T) {
	ctx := setupAPITest(t)

	resp, _ := ctx.request(t, http.MethodGet, "/v1/feeds")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = ctx.request(t, http.MethodGet, "/v1/feeds?url=not-a-url")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestImageRotation(t *testing.T) {
	ctx := setupAPITest(t)

	resp, body := ctx.request(t, http.MethodGet, "/v1/images/next")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/webp", resp.Header.Get("Content-Type"))
	assert.Equal(t, "photo-0", resp.Header.Get("X-Image-Id"))
	assert.Equal(t, "Jane Doe", resp.Header.Get("X-Image-Author"))
	assert.Equal(t, []byte("binary-photo-0"), body)

	// The pool rotates on each request.
	resp, _ = ctx.request(t, http.MethodGet, "/v1/images/next")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "photo-1", resp.Header.Get("X-Image-Id"))

	resp, _ = ctx.request(t, http.MethodDelete, "/v1/images")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
