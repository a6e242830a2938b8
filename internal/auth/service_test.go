package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rishabh1414/NinjaRmm-v1/internal/apperr"
)

// memStore is an in-memory TokenStore that counts reads and writes.
type memStore struct {
	ts       *TokenSet
	getCalls int
	upserts  []*TokenSet
}

func (m *memStore) Get(ctx context.Context) (*TokenSet, error) {
	m.getCalls++
	return m.ts, nil
}

func (m *memStore) Upsert(ctx context.Context, ts *TokenSet) error {
	m.ts = ts
	m.upserts = append(m.upserts, ts)
	return nil
}

type tokenEndpoint struct {
	calls    int
	status   int
	response map[string]interface{}
	lastForm map[string]string
	lastAuth struct {
		user, pass string
		ok         bool
	}
}

func (te *tokenEndpoint) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		te.calls++
		_ = r.ParseForm()
		te.lastForm = map[string]string{}
		for k := range r.PostForm {
			te.lastForm[k] = r.PostForm.Get(k)
		}
		te.lastAuth.user, te.lastAuth.pass, te.lastAuth.ok = r.BasicAuth()

		if te.status != 0 && te.status != http.StatusOK {
			w.WriteHeader(te.status)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(te.response)
	}
}

func newTestService(t *testing.T, store TokenStore, te *tokenEndpoint) *Service {
	t.Helper()
	srv := httptest.NewServer(te.handler())
	t.Cleanup(srv.Close)

	s := NewService(OAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost/oauth/callback",
		Scopes:       []string{"monitoring", "management"},
		AuthURL:      "https://upstream.example/authorize",
		TokenURL:     srv.URL,
	}, store, zap.NewNop())
	s.httpClient = srv.Client()
	return s
}

func TestEnsureValidAccessToken_NotAuthorized(t *testing.T) {
	s := newTestService(t, &memStore{}, &tokenEndpoint{})

	_, err := s.EnsureValidAccessToken(context.Background())
	assert.ErrorIs(t, err, apperr.ErrNotAuthorized)
}

func TestEnsureValidAccessToken_FreshTokenSkipsRefresh(t *testing.T) {
	te := &tokenEndpoint{}
	store := &memStore{ts: &TokenSet{
		AccessToken:  "fresh-token",
		RefreshToken: "rt",
		ExpiresAtMS:  time.Now().Add(30 * time.Minute).UnixMilli(),
	}}
	s := newTestService(t, store, te)

	token, err := s.EnsureValidAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, 0, te.calls, "a token with more than the guard band left must not refresh")
}

func TestEnsureValidAccessToken_ExpiringSoonRefreshes(t *testing.T) {
	te := &tokenEndpoint{response: map[string]interface{}{
		"access_token":  "new-token",
		"refresh_token": "new-rt",
		"expires_in":    3600,
	}}
	store := &memStore{ts: &TokenSet{
		AccessToken:  "old-token",
		RefreshToken: "old-rt",
		ExpiresAtMS:  time.Now().Add(5 * time.Minute).UnixMilli(),
	}}
	s := newTestService(t, store, te)

	token, err := s.EnsureValidAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-token", token)
	assert.Equal(t, 1, te.calls)
	require.Len(t, store.upserts, 1)
	assert.Equal(t, "new-rt", store.upserts[0].RefreshToken)
}

func TestEnsureValidAccessToken_UnsetExpiryRefreshes(t *testing.T) {
	te := &tokenEndpoint{response: map[string]interface{}{
		"access_token": "new-token",
		"expires_in":   3600,
	}}
	store := &memStore{ts: &TokenSet{
		AccessToken:  "old-token",
		RefreshToken: "old-rt",
	}}
	s := newTestService(t, store, te)

	token, err := s.EnsureValidAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-token", token)
	assert.Equal(t, 1, te.calls)
}

func TestEnsureValidAccessToken_CacheFirst(t *testing.T) {
	store := &memStore{ts: &TokenSet{
		AccessToken:  "fresh-token",
		RefreshToken: "rt",
		ExpiresAtMS:  time.Now().Add(time.Hour).UnixMilli(),
	}}
	s := newTestService(t, store, &tokenEndpoint{})

	for i := 0; i < 3; i++ {
		_, err := s.EnsureValidAccessToken(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, store.getCalls, "the cache must absorb repeat loads")
}

func TestEnsureValidAccessToken_CachesAbsence(t *testing.T) {
	store := &memStore{}
	s := newTestService(t, store, &tokenEndpoint{})

	for i := 0; i < 3; i++ {
		_, err := s.EnsureValidAccessToken(context.Background())
		assert.ErrorIs(t, err, apperr.ErrNotAuthorized)
	}
	assert.Equal(t, 1, store.getCalls, "the not-found case is cached too")
}

func TestRefresh_RequiresRefreshToken(t *testing.T) {
	store := &memStore{ts: &TokenSet{AccessToken: "at"}}
	s := newTestService(t, store, &tokenEndpoint{})

	_, err := s.Refresh(context.Background())
	assert.ErrorIs(t, err, apperr.ErrReauthorizationRequired)
}

func TestRefresh_SendsBasicAuthAndForm(t *testing.T) {
	te := &tokenEndpoint{response: map[string]interface{}{
		"access_token": "new-token",
		"expires_in":   3600,
	}}
	store := &memStore{ts: &TokenSet{AccessToken: "at", RefreshToken: "the-refresh-token"}}
	s := newTestService(t, store, te)

	_, err := s.Refresh(context.Background())
	require.NoError(t, err)

	assert.True(t, te.lastAuth.ok)
	assert.Equal(t, "client-id", te.lastAuth.user)
	assert.Equal(t, "client-secret", te.lastAuth.pass)
	assert.Equal(t, "refresh_token", te.lastForm["grant_type"])
	assert.Equal(t, "the-refresh-token", te.lastForm["refresh_token"])
}

func TestRefresh_RetainsRefreshTokenWhenAbsent(t *testing.T) {
	te := &tokenEndpoint{response: map[string]interface{}{
		"access_token": "new-token",
		"expires_in":   3600,
	}}
	store := &memStore{ts: &TokenSet{
		AccessToken:  "old-token",
		RefreshToken: "keep-me",
		TokenType:    "bearer",
		Scope:        "monitoring",
	}}
	s := newTestService(t, store, te)

	_, err := s.Refresh(context.Background())
	require.NoError(t, err)

	require.Len(t, store.upserts, 1)
	saved := store.upserts[0]
	assert.Equal(t, "keep-me", saved.RefreshToken)
	assert.Equal(t, "bearer", saved.TokenType)
	assert.Equal(t, "monitoring", saved.Scope)
}

func TestRefresh_UpstreamRejectionLeavesStateUntouched(t *testing.T) {
	te := &tokenEndpoint{status: http.StatusBadRequest}
	prior := &TokenSet{AccessToken: "old-token", RefreshToken: "rt"}
	store := &memStore{ts: prior}
	s := newTestService(t, store, te)

	_, err := s.Refresh(context.Background())

	var authErr *apperr.UpstreamAuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusBadRequest, authErr.Status)
	assert.Contains(t, authErr.Body, "invalid_grant")

	assert.Empty(t, store.upserts, "a rejected refresh must not mutate stored state")
	assert.Same(t, prior, store.ts)
}

func TestExchangeAuthorizationCode(t *testing.T) {
	te := &tokenEndpoint{response: map[string]interface{}{
		"access_token":  "first-token",
		"refresh_token": "first-rt",
		"token_type":    "bearer",
		"expires_in":    3600,
	}}
	store := &memStore{}
	s := newTestService(t, store, te)

	ts, err := s.ExchangeAuthorizationCode(context.Background(), "auth-code")
	require.NoError(t, err)

	assert.Equal(t, "authorization_code", te.lastForm["grant_type"])
	assert.Equal(t, "auth-code", te.lastForm["code"])
	assert.Equal(t, "http://localhost/oauth/callback", te.lastForm["redirect_uri"])

	assert.Equal(t, "first-token", ts.AccessToken)
	assert.Equal(t, "first-rt", ts.RefreshToken)
	require.Len(t, store.upserts, 1)

	// The fresh token set is now served from cache.
	token, err := s.EnsureValidAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first-token", token)
	assert.Equal(t, 0, store.getCalls)
}

func TestExchangeAuthorizationCode_RejectionPersistsNothing(t *testing.T) {
	te := &tokenEndpoint{status: http.StatusUnauthorized}
	store := &memStore{}
	s := newTestService(t, store, te)

	_, err := s.ExchangeAuthorizationCode(context.Background(), "bad-code")

	var authErr *apperr.UpstreamAuthError
	require.True(t, errors.As(err, &authErr))
	assert.Empty(t, store.upserts)
}

func TestExpiresAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.UnixMilli()+3540000, expiresAt(now, 3600),
		"a 3600s lifetime loses the 60s margin")
	assert.Equal(t, now.UnixMilli(), expiresAt(now, 30),
		"lifetimes shorter than the margin clamp to now")
	assert.Equal(t, now.UnixMilli(), expiresAt(now, 0))
}

func TestExpiringSoon(t *testing.T) {
	s := NewService(OAuthConfig{}, &memStore{}, zap.NewNop())
	now := time.Now()
	s.now = func() time.Time { return now }

	tests := []struct {
		name      string
		expiresAt int64
		want      bool
	}{
		{"unset deadline", 0, true},
		{"nine minutes left", now.Add(9 * time.Minute).UnixMilli(), true},
		{"eleven minutes left", now.Add(11 * time.Minute).UnixMilli(), false},
		{"already expired", now.Add(-time.Minute).UnixMilli(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.expiringSoon(&TokenSet{ExpiresAtMS: tt.expiresAt})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthorizationURL(t *testing.T) {
	s := NewService(OAuthConfig{
		ClientID:    "client-id",
		RedirectURI: "http://localhost/oauth/callback",
		Scopes:      []string{"monitoring", "management"},
		AuthURL:     "https://upstream.example/authorize",
	}, &memStore{}, zap.NewNop())

	u := s.AuthorizationURL("some-state")
	assert.Contains(t, u, "https://upstream.example/authorize?")
	assert.Contains(t, u, "client_id=client-id")
	assert.Contains(t, u, "response_type=code")
	assert.Contains(t, u, "state=some-state")
	assert.Contains(t, u, "scope=monitoring+management")
}
