package auth

import "context"

// TokenSet is the single persisted credential document. One token set
// exists per deployment, stored under a fixed key; there is no per-user
// partitioning.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
	// ExpiresAtMS is the absolute epoch-millisecond deadline after which the
	// access token must be treated as invalid. Always derived from the
	// upstream expires_in, never stored verbatim.
	ExpiresAtMS int64 `json:"expires_at_ms"`
	// UpdatedAt is the ISO-8601 time of the last persistence. Informational.
	UpdatedAt string `json:"updated_at,omitempty"`
}

// TokenStore persists the token set. Both operations must be atomic at the
// single-document granularity so concurrent saves resolve last-write-wins.
type TokenStore interface {
	// Get returns the stored token set, or nil when none has ever been
	// persisted. The absent case is not an error.
	Get(ctx context.Context) (*TokenSet, error)
	// Upsert overwrites the stored token set.
	Upsert(ctx context.Context, ts *TokenSet) error
}

// OAuthConfig holds the fixed client identity and upstream endpoints.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AuthURL      string
	TokenURL     string
}

// tokenResponse is the upstream token endpoint's JSON response shape.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int64  `json:"expires_in"`
}
