package handler

import (
	"net/http"
	"strconv"
)

// ForecastHandler serves the cash-flow projection.
type ForecastHandler struct {
	service ForecastServiceInterface
}

func NewForecastHandler(service ForecastServiceInterface) *ForecastHandler {
	return &ForecastHandler{service: service}
}

// Get handles GET /api/forecast?days=90. Days defaults to the service's
// standard window when absent or unparseable.
func (h *ForecastHandler) Get(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		days = parsed
	}

	forecast, err := h.service.Project(r.Context(), days)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, forecast)
}
