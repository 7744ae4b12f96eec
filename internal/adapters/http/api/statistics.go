package api

import (
	"context"
	"net/http"
)

// StatisticsDependencies defines the interface for statistics queries.
type StatisticsDependencies interface {
	Statistics(ctx context.Context, problemStatementID string) (StatisticsSnapshot, error)
}

// StatisticsHandler handles statistics requests.
type StatisticsHandler struct {
	deps StatisticsDependencies
}

// NewStatisticsHandler creates a new statistics handler.
func NewStatisticsHandler(deps StatisticsDependencies) *StatisticsHandler {
	return &StatisticsHandler{deps: deps}
}

// HandleGetStatistics handles GET /api/statistics requests. The
// optional problem_statement_id query parameter narrows the snapshot to
// one cohort; without it the snapshot covers every stored evaluation.
func (h *StatisticsHandler) HandleGetStatistics(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_statistics"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	snap, err := h.deps.Statistics(r.Context(), r.URL.Query().Get("problem_statement_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
