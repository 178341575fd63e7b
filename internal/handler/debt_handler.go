package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cashflow/ledgerd/internal/service"
)

// DebtHandler exposes debt tracking and payoff projections over HTTP.
type DebtHandler struct {
	service DebtServiceInterface
}

func NewDebtHandler(service DebtServiceInterface) *DebtHandler {
	return &DebtHandler{service: service}
}

// Create handles POST /api/debts.
func (h *DebtHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateDebtInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	debt, err := h.service.Create(r.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, debt)
}

// Get handles GET /api/debts/{id}.
func (h *DebtHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	debt, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, debt)
}

// List handles GET /api/debts.
func (h *DebtHandler) List(w http.ResponseWriter, r *http.Request) {
	debts, err := h.service.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, debts)
}

// Update handles PUT /api/debts/{id}.
func (h *DebtHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var input service.CreateDebtInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	debt, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, debt)
}

// Delete handles DELETE /api/debts/{id}.
func (h *DebtHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// MakePayment handles POST /api/debts/{id}/payments.
func (h *DebtHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var input service.MakePaymentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payment, err := h.service.MakePayment(r.Context(), id, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, payment)
}

// ListPayments handles GET /api/debts/{id}/payments.
func (h *DebtHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	payments, err := h.service.ListPayments(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, payments)
}

// Total handles GET /api/debts/total.
func (h *DebtHandler) Total(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.TotalDebt(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]decimal.Decimal{"total": total})
}

// PayoffPlan handles GET /api/debts/{id}/payoff-plan?payment=250.
func (h *DebtHandler) PayoffPlan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	payment, err := decimal.NewFromString(r.URL.Query().Get("payment"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid payment amount")
		return
	}

	plan, err := h.service.PayoffPlan(r.Context(), id, payment)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, plan)
}

// Calculator handles GET /api/debts/calculator?principal=10000&interestRate=5.5&termMonths=36.
func (h *DebtHandler) Calculator(w http.ResponseWriter, r *http.Request) {
	var input service.InterestCalculatorInput

	if p, err := decimal.NewFromString(r.URL.Query().Get("principal")); err == nil {
		input.Principal = p
	}
	if rate, err := decimal.NewFromString(r.URL.Query().Get("interestRate")); err == nil {
		input.InterestRate = rate
	}
	if tm, err := strconv.Atoi(r.URL.Query().Get("termMonths")); err == nil {
		input.TermMonths = tm
	}

	result, err := h.service.CalculateInterest(input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
