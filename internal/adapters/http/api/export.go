package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
)

// ExportDependencies defines the interface for CSV export.
type ExportDependencies interface {
	ExportCSV(ctx context.Context, w io.Writer) error
}

// ExportHandler handles CSV export requests.
type ExportHandler struct {
	deps ExportDependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps ExportDependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleExportCSV handles GET /api/export.csv requests. The export is
// staged in memory so a store failure surfaces as an error response
// rather than a truncated download.
func (h *ExportHandler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_csv"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	var buf bytes.Buffer
	if err := h.deps.ExportCSV(r.Context(), &buf); err != nil {
		writeError(w, http.StatusServiceUnavailable, "export_failed", Wrap(op, err))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="evaluations.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
