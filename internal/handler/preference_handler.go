package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/cashflow/ledgerd/internal/service"
)

// PreferenceHandler exposes the application settings record.
type PreferenceHandler struct {
	service PreferenceServiceInterface
}

func NewPreferenceHandler(service PreferenceServiceInterface) *PreferenceHandler {
	return &PreferenceHandler{service: service}
}

// Get handles GET /api/preferences.
func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.service.Get(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, prefs)
}

// Update handles PUT /api/preferences.
func (h *PreferenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input service.UpdatePreferencesInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prefs, err := h.service.Update(r.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, prefs)
}

// SetBalance handles PUT /api/preferences/balance.
func (h *PreferenceHandler) SetBalance(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Balance decimal.Decimal `json:"balance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prefs, err := h.service.SetBalance(r.Context(), body.Balance)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, prefs)
}
