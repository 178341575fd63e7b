package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cashflow/ledgerd/pkg/currency"
	"github.com/cashflow/ledgerd/pkg/datetime"
)

// ObligationKind selects the cycle policy for an obligation.
type ObligationKind string

const (
	// KindFixed is a bill: one expected amount per cycle, anchored to a due date.
	KindFixed ObligationKind = "fixed"
	// KindVariable is a spending envelope: a rolling budget with optional carryover.
	KindVariable ObligationKind = "variable"
)

// RecurrenceUnit is the calendar unit for fixed-obligation recurrence.
type RecurrenceUnit string

const (
	UnitDay   RecurrenceUnit = "day"
	UnitWeek  RecurrenceUnit = "week"
	UnitMonth RecurrenceUnit = "month"
	UnitYear  RecurrenceUnit = "year"
)

// Frequency is the cycle length for variable obligations (and paydays).
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Obligation is a recurring or one-time financial commitment. The two kinds
// share one shape; kind-specific columns are nullable and ignored for the
// other kind.
type Obligation struct {
	ID       uuid.UUID       `db:"id" json:"id"`
	Kind     ObligationKind  `db:"kind" json:"kind"`
	Name     string          `db:"name" json:"name"`
	Category string          `db:"category" json:"category"`
	Amount   decimal.Decimal `db:"amount" json:"amount"` // fixed: expected per cycle; variable: budget per cycle
	Notes    *string         `db:"notes" json:"notes,omitempty"`

	// Fixed obligations
	DueDate            datetime.Date   `db:"due_date" json:"dueDate,omitempty"`
	IsRecurring        bool            `db:"is_recurring" json:"isRecurring"`
	RecurrenceInterval *int            `db:"recurrence_interval" json:"recurrenceInterval,omitempty"`
	RecurrenceUnit     *RecurrenceUnit `db:"recurrence_unit" json:"recurrenceUnit,omitempty"`
	IsPaid             bool            `db:"is_paid" json:"isPaid"`
	IsAutopay          bool            `db:"is_autopay" json:"isAutopay"`
	IsVariableAmount   bool            `db:"is_variable_amount" json:"isVariableAmount"`
	PaymentLink        *string         `db:"payment_link" json:"paymentLink,omitempty"`

	// Variable obligations
	Frequency       *Frequency    `db:"frequency" json:"frequency,omitempty"`
	AnchorDate      datetime.Date `db:"anchor_date" json:"anchorDate,omitempty"`
	EnableCarryover bool          `db:"enable_carryover" json:"enableCarryover"`
	IsDeleted       bool          `db:"is_deleted" json:"isDeleted"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Cycle is a materialized, date-bounded accounting period for one obligation.
// Start and end form a closed day interval; PlannedAmount is a snapshot of the
// obligation's amount taken when the cycle was created, so later obligation
// edits never rewrite history.
type Cycle struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	ObligationID    uuid.UUID       `db:"obligation_id" json:"obligationId"`
	StartDate       datetime.Date   `db:"start_date" json:"startDate"`
	EndDate         datetime.Date   `db:"end_date" json:"endDate"`
	PlannedAmount   decimal.Decimal `db:"planned_amount" json:"plannedAmount"`
	TotalApplied    decimal.Decimal `db:"total_applied" json:"totalApplied"` // re-derived sum of ledger entries, never a running counter
	CarryoverAmount decimal.Decimal `db:"carryover_amount" json:"carryoverAmount"`
	IsPaid          bool            `db:"is_paid" json:"isPaid"`
	IsClosed        bool            `db:"is_closed" json:"isClosed"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
}

// Contains reports whether the given date falls inside the cycle's closed interval.
func (c Cycle) Contains(d datetime.Date) bool {
	return !d.Before(c.StartDate) && !d.After(c.EndDate)
}

// LedgerEntry is a single payment (fixed obligation) or spend transaction
// (variable obligation) assigned to exactly one cycle.
type LedgerEntry struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	ObligationID uuid.UUID       `db:"obligation_id" json:"obligationId"`
	CycleID      uuid.UUID       `db:"cycle_id" json:"cycleId"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	EventDate    time.Time       `db:"event_date" json:"eventDate"`
	Notes        *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}

// CycleView adds presentation-only fields derived from a persisted cycle.
type CycleView struct {
	Cycle
	Remaining       decimal.Decimal  `json:"remaining"`
	PercentPaid     float64          `json:"percentPaid"`
	StartingBalance *decimal.Decimal `json:"startingBalance,omitempty"` // variable only
	IsSatisfied     bool             `json:"isSatisfied"`
}

// UsageStats summarizes recent paid cycles of a variable-amount fixed
// obligation, for the "what does this usually cost" widget.
type UsageStats struct {
	Count      int             `json:"count"`
	Average    decimal.Decimal `json:"average"`
	Min        decimal.Decimal `json:"min"`
	Max        decimal.Decimal `json:"max"`
	LastAmount decimal.Decimal `json:"lastAmount"`
}

// ObligationWithCycle is the list/detail view: the obligation plus its current
// cycle (materialized on demand) and usage stats where applicable.
type ObligationWithCycle struct {
	Obligation
	CurrentCycle *CycleView  `json:"currentCycle"`
	UsageStats   *UsageStats `json:"usageStats,omitempty"`
}

// Debt tracking

type DebtType string

const (
	DebtTypeMortgage     DebtType = "mortgage"
	DebtTypeAutoLoan     DebtType = "auto_loan"
	DebtTypeStudentLoan  DebtType = "student_loan"
	DebtTypeCreditCard   DebtType = "credit_card"
	DebtTypePersonalLoan DebtType = "personal_loan"
	DebtTypeOther        DebtType = "other"
)

type Debt struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Type           DebtType        `db:"type" json:"type"`
	OriginalAmount decimal.Decimal `db:"original_amount" json:"originalAmount"`
	CurrentBalance decimal.Decimal `db:"current_balance" json:"currentBalance"`
	InterestRate   decimal.Decimal `db:"interest_rate" json:"interestRate"` // APR as percentage
	MinimumPayment decimal.Decimal `db:"minimum_payment" json:"minimumPayment"`
	DueDay         int             `db:"due_day" json:"dueDay"` // Day of month
	StartDate      datetime.Date   `db:"start_date" json:"startDate"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updatedAt"`
}

type DebtPayment struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	DebtID    uuid.UUID       `db:"debt_id" json:"debtId"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Principal decimal.Decimal `db:"principal" json:"principal"`
	Interest  decimal.Decimal `db:"interest" json:"interest"`
	Date      datetime.Date   `db:"date" json:"date"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

type PayoffPlan struct {
	DebtID           uuid.UUID         `json:"debtId"`
	CurrentBalance   decimal.Decimal   `json:"currentBalance"`
	MonthlyPayment   decimal.Decimal   `json:"monthlyPayment"`
	TotalInterest    decimal.Decimal   `json:"totalInterest"`
	TotalPayment     decimal.Decimal   `json:"totalPayment"`
	PayoffDate       datetime.Date     `json:"payoffDate"`
	MonthsToPayoff   int               `json:"monthsToPayoff"`
	AmortizationPlan []AmortizationRow `json:"amortizationPlan"`
}

type AmortizationRow struct {
	Month            int             `json:"month"`
	Payment          decimal.Decimal `json:"payment"`
	Principal        decimal.Decimal `json:"principal"`
	Interest         decimal.Decimal `json:"interest"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

// Preferences is the single-row application settings record.
type Preferences struct {
	ID                   int              `db:"id" json:"id"`
	Theme                string           `db:"theme" json:"theme"` // light, dark, system
	Currency             currency.Code    `db:"currency" json:"currency"`
	CurrentBalance       *decimal.Decimal `db:"current_balance" json:"currentBalance,omitempty"`
	LastBalanceUpdate    *time.Time       `db:"last_balance_update" json:"lastBalanceUpdate,omitempty"`
	ExpectedIncomeAmount *decimal.Decimal `db:"expected_income_amount" json:"expectedIncomeAmount,omitempty"`
	PaydayFrequency      *Frequency       `db:"payday_frequency" json:"paydayFrequency,omitempty"`
	PaydayAnchor         *datetime.Date   `db:"payday_anchor" json:"paydayAnchor,omitempty"`
	CreatedAt            time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time        `db:"updated_at" json:"updatedAt"`
}

// ImportedTransaction is one row parsed from an uploaded bank statement.
// FitID is the bank's unique transaction id and is used for dedupe.
type ImportedTransaction struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	FitID           string          `db:"fit_id" json:"fitId"`
	TransactionType string          `db:"transaction_type" json:"transactionType"`
	DatePosted      datetime.Date   `db:"date_posted" json:"datePosted"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Payee           string          `db:"payee" json:"payee"`
	Memo            *string         `db:"memo" json:"memo,omitempty"`
	CheckNumber     *string         `db:"check_number" json:"checkNumber,omitempty"`
	IsIncome        bool            `db:"is_income" json:"isIncome"`
	ObligationID    *uuid.UUID      `db:"obligation_id" json:"obligationId,omitempty"`
	LedgerEntryID   *uuid.UUID      `db:"ledger_entry_id" json:"ledgerEntryId,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
}
