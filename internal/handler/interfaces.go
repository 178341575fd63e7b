package handler

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cashflow/ledgerd/internal/model"
	"github.com/cashflow/ledgerd/internal/service"
)

// ObligationServiceInterface for handler testing
type ObligationServiceInterface interface {
	Create(ctx context.Context, input service.CreateObligationInput) (*model.ObligationWithCycle, error)
	Get(ctx context.Context, id uuid.UUID) (*model.ObligationWithCycle, error)
	List(ctx context.Context) ([]model.ObligationWithCycle, error)
	ListByKind(ctx context.Context, kind model.ObligationKind) ([]model.ObligationWithCycle, error)
	Update(ctx context.Context, id uuid.UUID, input service.UpdateObligationInput) (*model.ObligationWithCycle, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListCycles(ctx context.Context, obligationID uuid.UUID) ([]model.CycleView, error)
	RecordEntry(ctx context.Context, input service.RecordEntryInput) (*model.LedgerEntry, error)
	UpdateEntry(ctx context.Context, id uuid.UUID, input service.UpdateEntryInput) (*model.LedgerEntry, error)
	DeleteEntry(ctx context.Context, id uuid.UUID) error
	ListEntries(ctx context.Context, obligationID uuid.UUID) ([]model.LedgerEntry, error)
	ListEntriesForCycle(ctx context.Context, cycleID uuid.UUID) ([]model.LedgerEntry, error)
}

// DebtServiceInterface for handler testing
type DebtServiceInterface interface {
	Create(ctx context.Context, input service.CreateDebtInput) (*model.Debt, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Debt, error)
	List(ctx context.Context) ([]model.Debt, error)
	Update(ctx context.Context, id uuid.UUID, input service.CreateDebtInput) (*model.Debt, error)
	Delete(ctx context.Context, id uuid.UUID) error
	MakePayment(ctx context.Context, debtID uuid.UUID, input service.MakePaymentInput) (*model.DebtPayment, error)
	ListPayments(ctx context.Context, debtID uuid.UUID) ([]model.DebtPayment, error)
	TotalDebt(ctx context.Context) (decimal.Decimal, error)
	PayoffPlan(ctx context.Context, debtID uuid.UUID, monthlyPayment decimal.Decimal) (*model.PayoffPlan, error)
	CalculateInterest(input service.InterestCalculatorInput) (*service.InterestCalculatorResult, error)
}

// ForecastServiceInterface for handler testing
type ForecastServiceInterface interface {
	Project(ctx context.Context, days int) (*model.Forecast, error)
}

// PreferenceServiceInterface for handler testing
type PreferenceServiceInterface interface {
	Get(ctx context.Context) (*model.Preferences, error)
	Update(ctx context.Context, input service.UpdatePreferencesInput) (*model.Preferences, error)
	SetBalance(ctx context.Context, balance decimal.Decimal) (*model.Preferences, error)
}

// ImportServiceInterface for handler testing
type ImportServiceInterface interface {
	ParseStatement(ctx context.Context, r io.Reader) (*service.ImportResult, error)
	List(ctx context.Context) ([]model.ImportedTransaction, error)
	ListUnapplied(ctx context.Context) ([]model.ImportedTransaction, error)
	Apply(ctx context.Context, importID, obligationID uuid.UUID) (*model.LedgerEntry, error)
}

// ExportServiceInterface for handler testing
type ExportServiceInterface interface {
	ExportEntriesCSV(ctx context.Context, obligationID uuid.UUID) ([]byte, error)
	ExportCyclesCSV(ctx context.Context, obligationID uuid.UUID) ([]byte, error)
}
