package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rishabh1414/NinjaRmm-v1/internal/apperr"
)

// Handler provides HTTP handlers for the authorization flow and the
// access-token endpoint.
type Handler struct {
	service *Service
}

// NewHandler creates a new auth handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

// generateState creates a secure random state for OAuth.
func (h *Handler) generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Authorize starts the interactive authorization flow: it stores a random
// state in the session and redirects the operator upstream.
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	state, err := h.generateState()
	if err != nil {
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}

	session := GetSession(r)
	session.Values["oauth_state"] = state
	session.Values["oauth_state_expiry"] = time.Now().Add(10 * time.Minute).Unix()
	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.service.AuthorizationURL(state), http.StatusFound)
}

// Callback handles the OAuth redirect back from upstream: it verifies the
// state, exchanges the code and persists the resulting token set.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	state := query.Get("state")

	if code == "" || state == "" {
		http.Error(w, "Invalid callback parameters", http.StatusBadRequest)
		return
	}

	session := GetSession(r)
	savedState, ok := session.Values["oauth_state"].(string)
	if !ok || savedState != state {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	expiry, ok := session.Values["oauth_state_expiry"].(int64)
	if !ok || time.Now().Unix() > expiry {
		http.Error(w, "State parameter expired", http.StatusBadRequest)
		return
	}

	delete(session.Values, "oauth_state")
	delete(session.Values, "oauth_state_expiry")
	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	ts, err := h.service.ExchangeAuthorizationCode(r.Context(), code)
	if err != nil {
		http.Error(w, "Failed to exchange code for token: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":        "success",
		"expires_at_ms": ts.ExpiresAtMS,
	})
}

// AccessToken returns the current valid access token, refreshing first when
// needed.
func (h *Handler) AccessToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.service.EnsureValidAccessToken(r.Context())
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(apperr.HTTPStatus(err))
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"access_token": token})
}
