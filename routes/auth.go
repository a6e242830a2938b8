package routes

import (
	"github.com/gorilla/mux"

	"github.com/rishabh1414/NinjaRmm-v1/internal/auth"
)

// RegisterAuthRoutes registers the interactive authorization flow routes.
func RegisterAuthRoutes(router *mux.Router, authHandler *auth.Handler) {
	router.HandleFunc("/authorize", authHandler.Authorize).Methods("GET")
	router.HandleFunc("/oauth/callback", authHandler.Callback).Methods("GET")
}
