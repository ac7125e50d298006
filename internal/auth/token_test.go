package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docbench/internal/config"
)

func tokenServer(t *testing.T, calls *int32, expiresIn int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client-1", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret-1", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-abc",
			"expires_in":   expiresIn,
		})
	}))
}

func newTestSource(url string) *TokenSource {
	return NewTokenSource(&config.AuthConfig{
		TokenURL:     url,
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		Scope:        "scope-1",
	})
}

func TestTokenSource_FetchesAndCaches(t *testing.T) {
	var calls int32
	srv := tokenServer(t, &calls, 3600)
	defer srv.Close()

	s := newTestSource(srv.URL)

	tok, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", tok)

	tok, err = s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", tok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTokenSource_RefreshesInsideSkewWindow(t *testing.T) {
	var calls int32
	// 100s of validity is inside the 120s refresh window, so every call
	// hits the endpoint again.
	srv := tokenServer(t, &calls, 100)
	defer srv.Close()

	s := newTestSource(srv.URL)

	_, err := s.Token(context.Background())
	require.NoError(t, err)
	_, err = s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTokenSource_RefreshesWhenClockPassesSkew(t *testing.T) {
	var calls int32
	srv := tokenServer(t, &calls, 3600)
	defer srv.Close()

	s := newTestSource(srv.URL)
	current := time.Now()
	s.now = func() time.Time { return current }

	_, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// Still comfortably valid.
	current = current.Add(30 * time.Minute)
	_, err = s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// 59m30s in: fewer than 120s of validity remain.
	current = current.Add(29*time.Minute + 30*time.Second)
	_, err = s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTokenSource_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := newTestSource(srv.URL)
	_, err := s.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestTokenSource_MissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"expires_in": 3600}`))
	}))
	defer srv.Close()

	s := newTestSource(srv.URL)
	_, err := s.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no access_token")
}

func TestExpiryOf_NoExpiryForcesRefresh(t *testing.T) {
	s := newTestSource("http://unused")
	fixed := time.Now()
	s.now = func() time.Time { return fixed }

	// Opaque token with no expires_in: expiry collapses to "now", so the
	// next Token call refreshes.
	exp := s.expiryOf(&tokenResponse{AccessToken: "opaque"})
	assert.Equal(t, fixed, exp)
}
