package adsenseclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/adsense-sync-api/internal/config"
	"github.com/vfg2006/adsense-sync-api/internal/domain"
)

func newTokenManager(t *testing.T, handler http.HandlerFunc) (*TokenManager, *config.Config) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Google: config.Google{
			TokenURL:     srv.URL,
			ClientID:     "client",
			ClientSecret: "secret",
			RefreshToken: "refresh",
		},
	}
	return NewTokenManager(cfg), cfg
}

func TestTokenManager_ConcurrentRefreshHitsProviderOnce(t *testing.T) {
	var calls int32
	tm, cfg := newTokenManager(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "refresh", r.PostForm.Get("refresh_token"))

		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		w.Write([]byte(`{"access_token":"fresh","expires_in":3599,"token_type":"Bearer"}`))
	})
	cfg.Google.AccessToken = "stale"

	var wg sync.WaitGroup
	tokens := make([]string, 10)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, err := tm.Refresh(context.Background(), "stale")
			assert.NoError(t, err)
			tokens[i] = token
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, token := range tokens {
		assert.Equal(t, "fresh", token)
	}
}

func TestTokenManager_TokenRefreshesWhenExpired(t *testing.T) {
	var calls int32
	tm, cfg := newTokenManager(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"access_token":"fresh","expires_in":3599}`))
	})

	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	tm.now = func() time.Time { return now }
	cfg.Google.AccessToken = "old"
	cfg.Google.TokenExpiresAt = now.Add(-time.Minute)

	token, err := tm.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
	assert.True(t, cfg.Google.TokenExpiresAt.After(now))

	// ainda válido, não chama o provedor de novo
	token, err = tm.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTokenManager_RevokedRefreshToken(t *testing.T) {
	tm, _ := newTokenManager(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`))
	})

	_, err := tm.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTokenManager_MissingRefreshToken(t *testing.T) {
	tm, cfg := newTokenManager(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("não deveria chamar o provedor")
	})
	cfg.Google.RefreshToken = ""

	_, err := tm.Token(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestCalculateTokenExpiration(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(3299*time.Second), CalculateTokenExpiration(now, 3599))
	assert.Equal(t, now.Add(60*time.Second), CalculateTokenExpiration(now, 120))
}
