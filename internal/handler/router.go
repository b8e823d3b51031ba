package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/advansoftware/finwise-installments/pkg/response"
)

// NewRouter wires health checks and the versioned API
func NewRouter(installments *InstallmentHandler, health *HealthHandler, log *slog.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(log), response.CORSMiddleware, response.JSONMiddleware)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "route not found")
	})

	// Health check
	router.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", health.Ready).Methods(http.MethodGet)

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	installments.Register(api)

	return router
}
