package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cashflow/ledgerd/internal/cycle"
	"github.com/cashflow/ledgerd/internal/service"
)

// ErrorResponse represents a JSON error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError writes a JSON error response with the given status code and message.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError maps service-level errors onto HTTP status codes and
// writes the error message as the response body.
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusForError(err), err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrObligationNotFound),
		errors.Is(err, service.ErrEntryNotFound),
		errors.Is(err, service.ErrDebtNotFound),
		errors.Is(err, service.ErrImportNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyApplied):
		return http.StatusConflict
	case errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrInvalidKind),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidPayment),
		errors.Is(err, service.ErrPaymentTooSmall),
		errors.Is(err, service.ErrNoBalanceToPayOff),
		errors.Is(err, service.ErrInvalidTheme),
		errors.Is(err, service.ErrInvalidCurrency),
		errors.Is(err, service.ErrInvalidStatement),
		errors.Is(err, cycle.ErrInvalidRecurrence):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
