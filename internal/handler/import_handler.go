package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxStatementSize caps uploaded statement files at 10 MB.
const maxStatementSize = 10 << 20

// ImportHandler accepts OFX/QFX statement uploads and applies imported
// transactions to obligations.
type ImportHandler struct {
	service ImportServiceInterface
}

func NewImportHandler(service ImportServiceInterface) *ImportHandler {
	return &ImportHandler{service: service}
}

// Upload handles POST /api/imports. The statement arrives either as a
// multipart form file named "statement" or as the raw request body.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxStatementSize)

	var reader io.Reader = r.Body
	if ct := r.Header.Get("Content-Type"); strings.HasPrefix(ct, "multipart/form-data") {
		file, _, err := r.FormFile("statement")
		if err != nil {
			respondError(w, http.StatusBadRequest, "missing statement file")
			return
		}
		defer func() { _ = file.Close() }()
		reader = file
	}

	result, err := h.service.ParseStatement(r.Context(), reader)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// List handles GET /api/imports. With ?unapplied=true only transactions not
// yet recorded against an obligation are returned.
func (h *ImportHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		items interface{}
		err   error
	)
	if r.URL.Query().Get("unapplied") == "true" {
		items, err = h.service.ListUnapplied(r.Context())
	} else {
		items, err = h.service.List(r.Context())
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, items)
}

// Apply handles POST /api/imports/{id}/apply.
func (h *ImportHandler) Apply(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var body struct {
		ObligationID uuid.UUID `json:"obligationId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.ObligationID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "obligationId is required")
		return
	}

	entry, err := h.service.Apply(r.Context(), id, body.ObligationID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}
