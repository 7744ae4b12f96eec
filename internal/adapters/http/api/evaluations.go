package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/adapters/repository"
	service "github.com/BhoomiAgrawal12/ppt-Evaluator/internal/app"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/model"
)

// EvaluationDependencies defines the interface for evaluation intake
// and lookup.
type EvaluationDependencies interface {
	Submit(ctx context.Context, sub model.Submission) (EvaluationRecord, error)
	SubmitBatch(ctx context.Context, subs []model.Submission) (BatchResult, error)
	GetEvaluation(ctx context.Context, id string) (EvaluationRecord, error)
	ListEvaluations(ctx context.Context, problemStatementID string) ([]EvaluationRecord, error)
}

// EvaluationsHandler handles evaluation requests.
type EvaluationsHandler struct {
	deps EvaluationDependencies
}

// NewEvaluationsHandler creates a new evaluations handler.
func NewEvaluationsHandler(deps EvaluationDependencies) *EvaluationsHandler {
	return &EvaluationsHandler{deps: deps}
}

// HandleEvaluations handles POST (synchronous submit) and GET (list)
// requests on /api/evaluations.
func (h *EvaluationsHandler) HandleEvaluations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleSubmit(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *EvaluationsHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_evaluation"
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	sub, err := req.toSubmission()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rec, err := h.deps.Submit(r.Context(), sub)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSubmission):
			writeError(w, http.StatusBadRequest, "bad_request", err)
		case errors.Is(err, repository.ErrDuplicateID):
			writeError(w, http.StatusConflict, "duplicate_id", err)
		case errors.Is(err, service.ErrNotStarted):
			writeError(w, http.StatusServiceUnavailable, "not_ready", err)
		default:
			writeError(w, http.StatusServiceUnavailable, "store_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *EvaluationsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_evaluations"
	records, err := h.deps.ListEvaluations(r.Context(), r.URL.Query().Get("problem_statement_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if records == nil {
		records = []EvaluationRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleBatch handles POST /api/evaluations/batch requests. The body is
// a JSON array of submissions; the response reports how many were
// accepted for asynchronous evaluation.
func (h *EvaluationsHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_evaluations_batch"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var reqs []submitRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Entries that fail conversion count as rejected; a malformed
	// envelope fails the whole call above.
	subs := make([]model.Submission, 0, len(reqs))
	rejected := 0
	for _, req := range reqs {
		sub, err := req.toSubmission()
		if err != nil {
			rejected++
			continue
		}
		subs = append(subs, sub)
	}

	res, err := h.deps.SubmitBatch(r.Context(), subs)
	if err != nil {
		if errors.Is(err, service.ErrNotStarted) {
			writeError(w, http.StatusServiceUnavailable, "not_ready", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	res.Rejected += rejected
	writeJSON(w, http.StatusAccepted, res)
}

// HandleGetEvaluation handles GET /api/evaluations/{id} requests.
func (h *EvaluationsHandler) HandleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_evaluation"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /api/evaluations/
	id := strings.TrimPrefix(r.URL.Path, "/api/evaluations/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	rec, err := h.deps.GetEvaluation(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
