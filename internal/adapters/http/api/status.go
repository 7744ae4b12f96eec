package api

import "net/http"

// StatsProvider defines the interface for retrieving runtime service
// statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatusHandler handles service status requests.
type StatusHandler struct {
	provider StatsProvider
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(provider StatsProvider) *StatusHandler {
	return &StatusHandler{provider: provider}
}

// HandleStatus handles GET /api/status requests.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.provider.GetStats())
}
