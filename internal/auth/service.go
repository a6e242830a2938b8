package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rishabh1414/NinjaRmm-v1/internal/apperr"
)

const (
	// expiryMargin is subtracted from the upstream-declared lifetime when
	// computing the absolute expiry, so the stored deadline is always on
	// the safe side of the real one.
	expiryMargin = 60 * time.Second

	// refreshGuard is how much remaining lifetime still counts as
	// "expiring soon". It absorbs clock skew and request latency so a
	// token is never handed out on the edge of expiry mid-flight.
	refreshGuard = 10 * time.Minute
)

// Service is the token lifecycle manager. It guarantees every caller a
// token valid for immediate use, refreshing transparently and keeping the
// durable store and the in-process cache consistent.
//
// Concurrent callers that each decide a refresh is due will each issue one;
// the store resolves the race last-write-wins and every caller still ends
// up with a usable token. There is deliberately no lock around the refresh
// network call itself.
type Service struct {
	config     OAuthConfig
	tokenStore TokenStore
	httpClient *http.Client
	logger     *zap.Logger

	// now is swappable for expiry tests.
	now func() time.Time

	mu     sync.Mutex
	cached *TokenSet
	loaded bool
}

// NewService creates a token lifecycle manager.
func NewService(config OAuthConfig, tokenStore TokenStore, logger *zap.Logger) *Service {
	return &Service{
		config:     config,
		tokenStore: tokenStore,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		now:        time.Now,
	}
}

// AuthorizationURL builds the upstream authorization redirect for the
// interactive flow.
func (s *Service) AuthorizationURL(state string) string {
	u, _ := url.Parse(s.config.AuthURL)
	q := u.Query()

	q.Set("client_id", s.config.ClientID)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(s.config.Scopes, " "))
	q.Set("redirect_uri", s.config.RedirectURI)
	q.Set("state", state)

	u.RawQuery = q.Encode()
	return u.String()
}

// EnsureValidAccessToken returns an access token valid for immediate use,
// refreshing first when less than the guard band remains.
func (s *Service) EnsureValidAccessToken(ctx context.Context) (string, error) {
	ts, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	if ts == nil {
		return "", apperr.ErrNotAuthorized
	}

	if s.expiringSoon(ts) {
		return s.Refresh(ctx)
	}
	return ts.AccessToken, nil
}

// Refresh exchanges the stored refresh token for a new access token,
// persists the merged token set and returns the new access token. Stored
// state is left untouched when the upstream rejects the exchange.
func (s *Service) Refresh(ctx context.Context) (string, error) {
	ts, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	if ts == nil {
		return "", apperr.ErrNotAuthorized
	}
	if ts.RefreshToken == "" {
		return "", apperr.ErrReauthorizationRequired
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", ts.RefreshToken)

	resp, err := s.executeTokenRequest(ctx, data)
	if err != nil {
		return "", err
	}

	merged := s.merge(ts, resp)
	if err := s.save(ctx, merged); err != nil {
		return "", err
	}

	s.logger.Info("access token refreshed",
		zap.Int64("expires_at_ms", merged.ExpiresAtMS))
	return merged.AccessToken, nil
}

// ExchangeAuthorizationCode trades an authorization code for a fresh token
// set and persists it, replacing whatever was stored before.
func (s *Service) ExchangeAuthorizationCode(ctx context.Context, code string) (*TokenSet, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", s.config.RedirectURI)

	resp, err := s.executeTokenRequest(ctx, data)
	if err != nil {
		return nil, err
	}

	ts := s.merge(nil, resp)
	if err := s.save(ctx, ts); err != nil {
		return nil, err
	}

	s.logger.Info("authorization code exchanged, token set created")
	return ts, nil
}

// load returns the current token set, cache-first. The not-found case is
// cached too, so repeated unauthorized calls do not hammer the store.
func (s *Service) load(ctx context.Context) (*TokenSet, error) {
	s.mu.Lock()
	if s.loaded {
		ts := s.cached
		s.mu.Unlock()
		return ts, nil
	}
	s.mu.Unlock()

	ts, err := s.tokenStore.Get(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cached = ts
	s.loaded = true
	s.mu.Unlock()
	return ts, nil
}

// save persists the token set and overwrites the cache. The cache is only
// updated after the durable write succeeds.
func (s *Service) save(ctx context.Context, ts *TokenSet) error {
	if err := s.tokenStore.Upsert(ctx, ts); err != nil {
		return err
	}

	s.mu.Lock()
	s.cached = ts
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// expiringSoon reports whether less than the guard band remains before the
// stored deadline. An unset deadline counts as expiring.
func (s *Service) expiringSoon(ts *TokenSet) bool {
	if ts.ExpiresAtMS == 0 {
		return true
	}
	return ts.ExpiresAtMS-s.now().UnixMilli() < refreshGuard.Milliseconds()
}

// merge applies a token endpoint response on top of the previous token set.
// The new access token and expiry always win; the refresh token is replaced
// only when the response carries one, since upstreams commonly reuse
// refresh tokens across refreshes.
func (s *Service) merge(prev *TokenSet, resp *tokenResponse) *TokenSet {
	now := s.now()
	ts := &TokenSet{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		Scope:        resp.Scope,
		ExpiresAtMS:  expiresAt(now, resp.ExpiresIn),
		UpdatedAt:    now.UTC().Format(time.RFC3339),
	}
	if prev != nil {
		if ts.RefreshToken == "" {
			ts.RefreshToken = prev.RefreshToken
		}
		if ts.TokenType == "" {
			ts.TokenType = prev.TokenType
		}
		if ts.Scope == "" {
			ts.Scope = prev.Scope
		}
	}
	return ts
}

// expiresAt derives the absolute expiry from the upstream lifetime with the
// safety margin applied.
func expiresAt(now time.Time, expiresIn int64) int64 {
	lifetime := expiresIn - int64(expiryMargin.Seconds())
	if lifetime < 0 {
		lifetime = 0
	}
	return now.UnixMilli() + lifetime*1000
}

// executeTokenRequest performs a form-encoded token endpoint call with
// client basic auth and decodes the JSON response.
func (s *Service) executeTokenRequest(ctx context.Context, data url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(s.config.ClientID, s.config.ClientSecret)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &apperr.UpstreamAuthError{Status: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	return &tr, nil
}
