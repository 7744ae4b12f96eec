package api

import (
	"context"
	"net/http"
	"strings"
)

// RankingDependencies defines the interface for cohort ranking queries.
type RankingDependencies interface {
	Rankings(ctx context.Context, problemStatementID string) ([]RankingEntry, error)
}

// RankingsHandler handles ranking requests.
type RankingsHandler struct {
	deps RankingDependencies
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingDependencies) *RankingsHandler {
	return &RankingsHandler{deps: deps}
}

// HandleGetRankings handles GET /api/rankings/{problemStatementId}
// requests. A cohort with no evaluations yields an empty array, not an
// error.
func (h *RankingsHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rankings"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /api/rankings/
	psID := strings.TrimPrefix(r.URL.Path, "/api/rankings/")
	if psID == "" || strings.Contains(psID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	entries, err := h.deps.Rankings(r.Context(), psID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if entries == nil {
		entries = []RankingEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
