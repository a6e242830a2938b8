// Package httputil holds small JSON response helpers shared by the HTTP
// handlers.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/rishabh1414/NinjaRmm-v1/internal/apperr"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes err as an {"error": ...} envelope, mapping NotFound to
// 404 and everything else to 500.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
}

// WriteUpstreamError writes err with the upstream status when the error
// carries one, falling back to the standard mapping otherwise. Used by
// routes that pass upstream failures through verbatim.
func WriteUpstreamError(w http.ResponseWriter, err error) {
	if status, ok := apperr.UpstreamStatus(err); ok {
		WriteJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	WriteError(w, err)
}
