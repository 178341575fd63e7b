package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ExportHandler serves CSV downloads of ledger and cycle history.
type ExportHandler struct {
	service ExportServiceInterface
}

func NewExportHandler(service ExportServiceInterface) *ExportHandler {
	return &ExportHandler{service: service}
}

// ExportEntries handles GET /api/obligations/{id}/entries/export.
func (h *ExportHandler) ExportEntries(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "ledger-entries.csv", h.service.ExportEntriesCSV)
}

// ExportCycles handles GET /api/obligations/{id}/cycles/export.
func (h *ExportHandler) ExportCycles(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "cycles.csv", h.service.ExportCyclesCSV)
}

func (h *ExportHandler) export(
	w http.ResponseWriter,
	r *http.Request,
	filename string,
	fn func(ctx context.Context, id uuid.UUID) ([]byte, error),
) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	data, err := fn(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
