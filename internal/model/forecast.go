package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cashflow/ledgerd/pkg/datetime"
)

// ForecastEventType tags a projected cash movement.
type ForecastEventType string

const (
	ForecastEventIncome   ForecastEventType = "income"
	ForecastEventFixed    ForecastEventType = "fixed"
	ForecastEventVariable ForecastEventType = "variable"
	ForecastEventDebt     ForecastEventType = "debt"
)

// ForecastEvent is a single projected inflow or outflow on a given day.
type ForecastEvent struct {
	Type        ForecastEventType `json:"type"`
	Description string            `json:"description"`
	Amount      decimal.Decimal   `json:"amount"`
}

// ForecastPoint is one day of the cash-flow projection.
type ForecastPoint struct {
	Date     datetime.Date   `json:"date"`
	Balance  decimal.Decimal `json:"balance"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Events   []ForecastEvent `json:"events"`
}

// WarningSeverity grades a forecast warning.
type WarningSeverity string

const (
	SeverityHigh   WarningSeverity = "high"
	SeverityMedium WarningSeverity = "medium"
	SeverityLow    WarningSeverity = "low"
)

// ForecastWarning flags a projected trouble spot.
type ForecastWarning struct {
	Date     datetime.Date    `json:"date"`
	Type     string           `json:"type"` // negative_balance, low_balance, large_expense
	Severity WarningSeverity  `json:"severity"`
	Message  string           `json:"message"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
}

// ForecastMetrics are the headline numbers shown alongside the projection.
type ForecastMetrics struct {
	CurrentBalance     *decimal.Decimal `json:"currentBalance"`
	ExpectedIncome     *decimal.Decimal `json:"expectedIncome"`
	NextPayday         *datetime.Date   `json:"nextPayday"`
	LastBalanceUpdate  *time.Time       `json:"lastBalanceUpdate"`
	MonthlyObligations decimal.Decimal  `json:"totalMonthlyObligations"`
	MonthlyFixed       decimal.Decimal  `json:"totalMonthlyFixed"`
	MonthlyVariable    decimal.Decimal  `json:"totalMonthlyVariable"`
	MonthlyDebts       decimal.Decimal  `json:"totalMonthlyDebts"`
	BurnRate           decimal.Decimal  `json:"burnRate"` // average daily outflow
	RunwayDays         int              `json:"runwayDays"`
}

// Forecast is the multi-day cash-flow projection returned to the API.
type Forecast struct {
	Projection []ForecastPoint   `json:"cashFlowProjection"`
	Warnings   []ForecastWarning `json:"warnings"`
	Metrics    ForecastMetrics   `json:"metrics"`
}
