package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rishabh1414/NinjaRmm-v1/internal/auth"
	"github.com/rishabh1414/NinjaRmm-v1/internal/httputil"
	"github.com/rishabh1414/NinjaRmm-v1/internal/organization"
	"github.com/rishabh1414/NinjaRmm-v1/internal/ticket"
)

// HealthChecker reports backing-store health for the healthz endpoint.
type HealthChecker interface {
	IsHealthy() bool
}

// SetupRoutes configures all API routes.
func SetupRoutes(
	router *mux.Router,
	logger *zap.Logger,
	authHandler *auth.Handler,
	ticketHandler *ticket.Handler,
	organizationHandler *organization.Handler,
	health HealthChecker,
) {
	router.Use(RequestLogging(logger))

	RegisterAuthRoutes(router, authHandler)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !health.IsHealthy() {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/access-token", authHandler.AccessToken).Methods("GET")

	api.HandleFunc("/tickets", ticketHandler.Create).Methods("POST")
	api.HandleFunc("/tickets/{id}", ticketHandler.Get).Methods("GET")
	api.HandleFunc("/tickets/{id}", ticketHandler.Update).Methods("PUT")
	api.HandleFunc("/tickets/{id}/logs", ticketHandler.Logs).Methods("GET")

	api.HandleFunc("/organizations", organizationHandler.List).Methods("GET")
	api.HandleFunc("/organizations/{id}", organizationHandler.Get).Methods("GET")
}
