// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/criteria"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/model"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/types"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/weights"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit scores one submission synchronously and returns the
	// committed record.
	Submit(ctx context.Context, sub model.Submission) (EvaluationRecord, error)

	// SubmitBatch queues submissions for asynchronous evaluation.
	SubmitBatch(ctx context.Context, subs []model.Submission) (BatchResult, error)

	// Read operations expose committed evaluations and their projections.
	GetEvaluation(ctx context.Context, id string) (EvaluationRecord, error)
	ListEvaluations(ctx context.Context, problemStatementID string) ([]EvaluationRecord, error)
	Rankings(ctx context.Context, problemStatementID string) ([]RankingEntry, error)
	Statistics(ctx context.Context, problemStatementID string) (StatisticsSnapshot, error)
	ExportCSV(ctx context.Context, w io.Writer) error
}

// Read and write shapes mirrored from the domain packages.
type (
	// EvaluationRecord is the committed result of scoring one submission.
	EvaluationRecord = model.EvaluationRecord
	// RankingEntry is one row of a cohort ranking.
	RankingEntry = types.RankingEntry
	// StatisticsSnapshot aggregates a cohort's committed records.
	StatisticsSnapshot = types.StatisticsSnapshot
	// BatchResult summarizes the intake outcome of one batch submission.
	BatchResult = types.BatchResult
)

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statusHandler      *StatusHandler
	evaluationsHandler *EvaluationsHandler
	rankingsHandler    *RankingsHandler
	statisticsHandler  *StatisticsHandler
	exportHandler      *ExportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statusHandler:      NewStatusHandler(statsProvider),
		evaluationsHandler: NewEvaluationsHandler(deps),
		rankingsHandler:    NewRankingsHandler(deps),
		statisticsHandler:  NewStatisticsHandler(deps),
		exportHandler:      NewExportHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/api/status", MetricsMiddleware(s.statusHandler.HandleStatus, "status"))
	mux.HandleFunc("/api/evaluations", MetricsMiddleware(s.evaluationsHandler.HandleEvaluations, "evaluations"))
	mux.HandleFunc("/api/evaluations/batch", MetricsMiddleware(s.evaluationsHandler.HandleBatch, "evaluations_batch"))
	mux.HandleFunc("/api/evaluations/", MetricsMiddleware(s.evaluationsHandler.HandleGetEvaluation, "evaluation"))
	mux.HandleFunc("/api/rankings/", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("/api/statistics", MetricsMiddleware(s.statisticsHandler.HandleGetStatistics, "statistics"))
	mux.HandleFunc("/api/export.csv", MetricsMiddleware(s.exportHandler.HandleExportCSV, "export"))
}

// submitRequest mirrors the OpenAPI schema for POST /api/evaluations.
type submitRequest struct {
	ID                 string             `json:"id"`
	TeamName           string             `json:"team_name"`
	ProblemStatementID string             `json:"problem_statement_id"`
	TS                 string             `json:"ts"`
	Scores             []scoreEntry       `json:"scores"`
	Weights            map[string]float64 `json:"weights"`
}

// scoreEntry is one sub-evaluator result. An absent value marks the
// sub-evaluator as failed; that criterion scores 0 and degrades the
// record instead of rejecting the submission.
type scoreEntry struct {
	Criterion string         `json:"criterion"`
	Value     *float64       `json:"value,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func (req submitRequest) validate() error {
	switch {
	case strings.TrimSpace(req.TeamName) == "":
		return errors.New("missing team_name")
	case strings.TrimSpace(req.ProblemStatementID) == "":
		return errors.New("missing problem_statement_id")
	}
	return nil
}

// toSubmission converts the request into the domain shape, rejecting
// malformed timestamps, unknown criteria and invalid weight snapshots.
func (req submitRequest) toSubmission() (model.Submission, error) {
	sub := model.Submission{
		ID:                 strings.TrimSpace(req.ID),
		TeamName:           strings.TrimSpace(req.TeamName),
		ProblemStatementID: strings.TrimSpace(req.ProblemStatementID),
	}

	if req.TS != "" {
		ts, err := time.Parse(time.RFC3339, req.TS)
		if err != nil {
			return model.Submission{}, errors.New("invalid ts; must be RFC3339")
		}
		sub.TS = ts.UTC()
	}

	if len(req.Scores) > 0 {
		raw := make(model.RawScoreVector, len(req.Scores))
		for _, entry := range req.Scores {
			c, err := criteria.Parse(entry.Criterion)
			if err != nil {
				return model.Submission{}, err
			}
			rs := model.RawScore{Metadata: entry.Metadata}
			if entry.Value != nil {
				rs.Value = *entry.Value
				rs.Valid = true
			}
			raw[c] = rs
		}
		sub.Raw = raw
	}

	if len(req.Weights) > 0 {
		snap, err := weights.Parse(req.Weights)
		if err != nil {
			return model.Submission{}, err
		}
		sub.Weights = &snap
	}

	return sub, nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
