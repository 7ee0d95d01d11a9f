package handlers

import "net/http"

// HealthHandler answers load balancer and uptime probes.
type HealthHandler struct{}

// NewHealthHandler creates the health check handler.
func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// Check reports service liveness.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
