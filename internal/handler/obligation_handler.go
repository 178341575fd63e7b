package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cashflow/ledgerd/internal/model"
	"github.com/cashflow/ledgerd/internal/service"
)

// ObligationHandler exposes obligations, their cycles, and their ledger over
// HTTP.
type ObligationHandler struct {
	service ObligationServiceInterface
}

func NewObligationHandler(service ObligationServiceInterface) *ObligationHandler {
	return &ObligationHandler{service: service}
}

// Create handles POST /api/obligations.
func (h *ObligationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateObligationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	obligation, err := h.service.Create(r.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, obligation)
}

// Get handles GET /api/obligations/{id}.
func (h *ObligationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	obligation, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, obligation)
}

// List handles GET /api/obligations. An optional ?kind=fixed|variable query
// parameter narrows the listing.
func (h *ObligationHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		items []model.ObligationWithCycle
		err   error
	)

	if kind := r.URL.Query().Get("kind"); kind != "" {
		items, err = h.service.ListByKind(r.Context(), model.ObligationKind(kind))
	} else {
		items, err = h.service.List(r.Context())
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, items)
}

// Update handles PUT /api/obligations/{id}.
func (h *ObligationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var input service.UpdateObligationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	obligation, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, obligation)
}

// Delete handles DELETE /api/obligations/{id}.
func (h *ObligationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// ListCycles handles GET /api/obligations/{id}/cycles.
func (h *ObligationHandler) ListCycles(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	cycles, err := h.service.ListCycles(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cycles)
}

// RecordEntry handles POST /api/obligations/{id}/entries.
func (h *ObligationHandler) RecordEntry(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var input service.RecordEntryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	input.ObligationID = id

	entry, err := h.service.RecordEntry(r.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

// ListEntries handles GET /api/obligations/{id}/entries.
func (h *ObligationHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	entries, err := h.service.ListEntries(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

// ListCycleEntries handles GET /api/cycles/{id}/entries.
func (h *ObligationHandler) ListCycleEntries(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	entries, err := h.service.ListEntriesForCycle(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

// UpdateEntry handles PUT /api/entries/{id}.
func (h *ObligationHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var input service.UpdateEntryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.service.UpdateEntry(r.Context(), id, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, entry)
}

// DeleteEntry handles DELETE /api/entries/{id}.
func (h *ObligationHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.service.DeleteEntry(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
