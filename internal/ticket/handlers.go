package ticket

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rishabh1414/NinjaRmm-v1/internal/httputil"
)

// Handler provides the ticket HTTP handlers.
type Handler struct {
	service *Service
}

// NewHandler creates a new ticket handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

// Create forwards the request body to upstream ticket creation.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
		return
	}

	created, err := h.service.Create(r.Context(), body)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(created)
}

// Get returns a ticket by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ticket, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(ticket)
}

// Update applies a partial update through the read-filter-merge-write
// cycle and returns the updated ticket.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var patch map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	updated, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(updated)
}

// Logs returns the enriched log entries for a ticket. Upstream failures
// keep their upstream status on this route.
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	entries, err := h.service.EnrichedLogs(r.Context(), id)
	if err != nil {
		httputil.WriteUpstreamError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, entries)
}
