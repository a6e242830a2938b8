package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
)

var (
	store *sessions.CookieStore
)

// InitSessionStore initializes the cookie store used to carry the OAuth
// state parameter across the authorize redirect.
func InitSessionStore(secret []byte) {
	store = sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600, // state only needs to survive the redirect round trip
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// GetSession retrieves the authorization-flow session.
func GetSession(r *http.Request) *sessions.Session {
	session, _ := store.Get(r, "ninja-auth-session")
	return session
}
