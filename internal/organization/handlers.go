package organization

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rishabh1414/NinjaRmm-v1/internal/httputil"
)

// Handler provides the organization HTTP handlers.
type Handler struct {
	service *Service
}

// NewHandler creates a new organization handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

// List returns the upstream organization listing.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(orgs)
}

// Get returns a single organization, 404 when the id is absent.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	org, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(org)
}
