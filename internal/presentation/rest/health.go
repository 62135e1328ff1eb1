package rest

import (
	"net/http"
)

// HealthHandler serves liveness and readiness checks over HTTP.
type HealthHandler struct {
	service      string
	modelVersion string
}

// NewHealthHandler creates a health check HTTP handler. The model is loaded
// before the server starts, so readiness reports its version unconditionally.
func NewHealthHandler(service, modelVersion string) *HealthHandler {
	return &HealthHandler{service: service, modelVersion: modelVersion}
}

// RegisterRoutes attaches health-check routes to the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /healthz", h.liveness)
	mux.HandleFunc("GET /readyz", h.readiness)
}

func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": h.service,
	})
}

func (h *HealthHandler) readiness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":        "ready",
		"service":       h.service,
		"model_version": h.modelVersion,
	})
}
