package handlers

import "net/http"

// Healthz is a liveness probe.
// It returns 200 OK if the server is running.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	h.respondJson(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Readyz is a readiness probe.
// It fails once the engine has stopped accepting jobs.
func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if !h.engine.Accepting() {
		h.httpError(w, "Engine is shutting down", http.StatusServiceUnavailable)
		return
	}
	h.respondJson(w, http.StatusOK, map[string]string{"status": "ready"})
}
