package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cashflow/ledgerd/internal/cycle"
	"github.com/cashflow/ledgerd/internal/model"
	"github.com/cashflow/ledgerd/pkg/currency"
	"github.com/cashflow/ledgerd/pkg/datetime"
)

// Projection tuning. Weekly amounts convert to monthly at 4.33 weeks per
// month, biweekly at 2.17.
const (
	defaultForecastDays = 90
	maxForecastWarnings = 10
)

var (
	weeksPerMonth     = decimal.NewFromFloat(4.33)
	halfWeeksPerMonth = decimal.NewFromFloat(2.17)
	daysPerMonth      = decimal.NewFromInt(30)
	lowBalanceFloor   = decimal.NewFromInt(100)
	half              = decimal.NewFromFloat(0.5)
)

// PreferenceReader provides the settings the projection starts from.
type PreferenceReader interface {
	Get(ctx context.Context) (*model.Preferences, error)
}

// ForecastService projects the account balance forward day by day from the
// obligations, debts, and payday settings on record.
type ForecastService struct {
	obligations ObligationRepositoryInterface
	debts       DebtRepositoryInterface
	preferences PreferenceReader

	now func() time.Time
}

// NewForecastService creates a new ForecastService.
func NewForecastService(
	obligations ObligationRepositoryInterface,
	debts DebtRepositoryInterface,
	preferences PreferenceReader,
) *ForecastService {
	return &ForecastService{
		obligations: obligations,
		debts:       debts,
		preferences: preferences,
		now:         time.Now,
	}
}

// Project builds the cash-flow forecast for the next days days. Fixed
// obligations hit on their due dates, variable budgets drain as a flat daily
// allocation, debt minimums land on the first of each month, and paychecks
// arrive per the payday settings.
func (s *ForecastService) Project(ctx context.Context, days int) (*model.Forecast, error) {
	if days <= 0 {
		days = defaultForecastDays
	}

	prefs, err := s.preferences.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}
	obligations, err := s.obligations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing obligations: %w", err)
	}
	debts, err := s.debts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing debts: %w", err)
	}

	today := datetime.DateOf(s.now())
	end := today.AddDays(days)

	balance := decimal.Zero
	if prefs.CurrentBalance != nil {
		balance = *prefs.CurrentBalance
	}
	income := decimal.Zero
	if prefs.ExpectedIncomeAmount != nil {
		income = *prefs.ExpectedIncomeAmount
	}

	var fixed, variable []model.Obligation
	for _, o := range obligations {
		switch o.Kind {
		case model.KindFixed:
			fixed = append(fixed, o)
		case model.KindVariable:
			variable = append(variable, o)
		}
	}

	monthlyFixed := monthlyFixedTotal(fixed)
	monthlyVariable := monthlyVariableTotal(variable)
	monthlyDebts := decimal.Zero
	for _, d := range debts {
		monthlyDebts = monthlyDebts.Add(d.MinimumPayment)
	}
	monthlyTotal := monthlyFixed.Add(monthlyVariable).Add(monthlyDebts)

	dailyVariable := monthlyVariable.Div(daysPerMonth)
	dueByDay := fixedDueDates(fixed, today, end)
	paydays := s.paydays(prefs, today, end)

	forecast := &model.Forecast{
		Projection: make([]model.ForecastPoint, 0, days),
	}

	for day := 0; day < days; day++ {
		date := today.AddDays(day)
		point := model.ForecastPoint{
			Date:     date,
			Income:   decimal.Zero,
			Expenses: decimal.Zero,
		}

		if paydays[date.String()] && income.IsPositive() {
			point.Income = point.Income.Add(income)
			balance = balance.Add(income)
			point.Events = append(point.Events, model.ForecastEvent{
				Type:        model.ForecastEventIncome,
				Description: "Paycheck",
				Amount:      income,
			})
		}

		for _, o := range dueByDay[date.String()] {
			point.Expenses = point.Expenses.Add(o.Amount)
			balance = balance.Sub(o.Amount)
			point.Events = append(point.Events, model.ForecastEvent{
				Type:        model.ForecastEventFixed,
				Description: o.Name,
				Amount:      o.Amount,
			})
		}

		if dailyVariable.IsPositive() {
			point.Expenses = point.Expenses.Add(dailyVariable)
			balance = balance.Sub(dailyVariable)
			point.Events = append(point.Events, model.ForecastEvent{
				Type:        model.ForecastEventVariable,
				Description: "Daily variable spending",
				Amount:      dailyVariable,
			})
		}

		if date.Day() == 1 && monthlyDebts.IsPositive() {
			point.Expenses = point.Expenses.Add(monthlyDebts)
			balance = balance.Sub(monthlyDebts)
			point.Events = append(point.Events, model.ForecastEvent{
				Type:        model.ForecastEventDebt,
				Description: "Debt minimum payments",
				Amount:      monthlyDebts,
			})
		}

		point.Balance = balance
		forecast.Projection = append(forecast.Projection, point)

		forecast.Warnings = appendWarnings(forecast.Warnings, date, balance, point.Expenses, income, prefs.Currency)
	}

	if len(forecast.Warnings) > maxForecastWarnings {
		forecast.Warnings = forecast.Warnings[:maxForecastWarnings]
	}

	forecast.Metrics = model.ForecastMetrics{
		CurrentBalance:     prefs.CurrentBalance,
		ExpectedIncome:     prefs.ExpectedIncomeAmount,
		LastBalanceUpdate:  prefs.LastBalanceUpdate,
		MonthlyObligations: monthlyTotal,
		MonthlyFixed:       monthlyFixed,
		MonthlyVariable:    monthlyVariable,
		MonthlyDebts:       monthlyDebts,
		BurnRate:           monthlyTotal.Div(daysPerMonth),
	}
	if next := s.nextPayday(prefs, today); next != nil {
		forecast.Metrics.NextPayday = next
	}
	if prefs.CurrentBalance != nil && forecast.Metrics.BurnRate.IsPositive() {
		runway, _ := prefs.CurrentBalance.Div(forecast.Metrics.BurnRate).Float64()
		if runway > 0 {
			forecast.Metrics.RunwayDays = int(runway)
		}
	}

	return forecast, nil
}

// monthlyFixedTotal normalizes recurring fixed obligations to a monthly
// cost. One-time bills are excluded.
func monthlyFixedTotal(fixed []model.Obligation) decimal.Decimal {
	total := decimal.Zero
	for _, o := range fixed {
		if !o.IsRecurring || o.RecurrenceInterval == nil || o.RecurrenceUnit == nil {
			continue
		}
		interval := decimal.NewFromInt(int64(*o.RecurrenceInterval))
		if !interval.IsPositive() {
			continue
		}
		switch *o.RecurrenceUnit {
		case model.UnitDay:
			total = total.Add(o.Amount.Mul(daysPerMonth).Div(interval))
		case model.UnitWeek:
			total = total.Add(o.Amount.Mul(weeksPerMonth).Div(interval))
		case model.UnitMonth:
			total = total.Add(o.Amount.Div(interval))
		case model.UnitYear:
			total = total.Add(o.Amount.Div(interval.Mul(decimal.NewFromInt(12))))
		}
	}
	return total
}

// monthlyVariableTotal normalizes variable budgets to a monthly cost.
func monthlyVariableTotal(variable []model.Obligation) decimal.Decimal {
	total := decimal.Zero
	for _, o := range variable {
		if o.Frequency == nil {
			continue
		}
		switch *o.Frequency {
		case model.FrequencyWeekly:
			total = total.Add(o.Amount.Mul(weeksPerMonth))
		case model.FrequencyBiweekly:
			total = total.Add(o.Amount.Mul(halfWeeksPerMonth))
		case model.FrequencyMonthly:
			total = total.Add(o.Amount)
		case model.FrequencyQuarterly:
			total = total.Add(o.Amount.Div(decimal.NewFromInt(3)))
		case model.FrequencyYearly:
			total = total.Add(o.Amount.Div(decimal.NewFromInt(12)))
		}
	}
	return total
}

// fixedDueDates maps each projection day to the fixed obligations due on it.
// Recurring bills repeat per their schedule; one-time bills appear only if
// still unpaid and due inside the window.
func fixedDueDates(fixed []model.Obligation, from, to datetime.Date) map[string][]model.Obligation {
	due := make(map[string][]model.Obligation)
	for _, o := range fixed {
		if o.IsPaid && !o.IsRecurring {
			continue
		}

		if !o.IsRecurring || o.RecurrenceInterval == nil || o.RecurrenceUnit == nil {
			d := o.DueDate
			if !d.Before(from) && !d.After(to) && !o.IsPaid {
				due[d.String()] = append(due[d.String()], o)
			}
			continue
		}

		sched, err := cycle.ForObligation(&o)
		if err != nil {
			continue
		}
		// A cycle ends on the obligation's due date, so each cycle end
		// inside the window is an occurrence.
		n := sched.IndexContaining(from)
		for occ := sched.EndOf(n); !occ.After(to); occ = sched.EndOf(n) {
			if !occ.Before(from) {
				due[occ.String()] = append(due[occ.String()], o)
			}
			n++
		}
	}
	return due
}

// paydays returns the set of payday dates inside the window, keyed by date
// string.
func (s *ForecastService) paydays(prefs *model.Preferences, from, to datetime.Date) map[string]bool {
	set := make(map[string]bool)
	if prefs.PaydayFrequency == nil || prefs.PaydayAnchor == nil {
		return set
	}

	sched, err := cycle.ForObligation(&model.Obligation{
		Kind:       model.KindVariable,
		Frequency:  prefs.PaydayFrequency,
		AnchorDate: *prefs.PaydayAnchor,
	})
	if err != nil {
		return set
	}

	// Paydays fall on cycle starts of the payday schedule.
	n := sched.IndexContaining(from)
	if sched.StartOf(n).Before(from) {
		n++
	}
	for d := sched.StartOf(n); !d.After(to); d = sched.StartOf(n) {
		set[d.String()] = true
		n++
	}
	return set
}

// nextPayday returns the first payday on or after today, or nil when payday
// settings are incomplete.
func (s *ForecastService) nextPayday(prefs *model.Preferences, today datetime.Date) *datetime.Date {
	if prefs.PaydayFrequency == nil || prefs.PaydayAnchor == nil {
		return nil
	}
	sched, err := cycle.ForObligation(&model.Obligation{
		Kind:       model.KindVariable,
		Frequency:  prefs.PaydayFrequency,
		AnchorDate: *prefs.PaydayAnchor,
	})
	if err != nil {
		return nil
	}
	n := sched.IndexContaining(today)
	d := sched.StartOf(n)
	if d.Before(today) {
		d = sched.StartOf(n + 1)
	}
	return &d
}

func appendWarnings(warnings []model.ForecastWarning, date datetime.Date, balance, expenses, income decimal.Decimal, cur currency.Code) []model.ForecastWarning {
	switch {
	case balance.IsNegative():
		amount := balance
		warnings = append(warnings, model.ForecastWarning{
			Date:     date,
			Type:     "negative_balance",
			Severity: model.SeverityHigh,
			Message:  fmt.Sprintf("Projected negative balance of %s", currency.Format(balance.Abs(), cur)),
			Amount:   &amount,
		})
	case balance.IsPositive() && balance.LessThan(lowBalanceFloor):
		amount := balance
		warnings = append(warnings, model.ForecastWarning{
			Date:     date,
			Type:     "low_balance",
			Severity: model.SeverityMedium,
			Message:  fmt.Sprintf("Low balance warning: only %s remaining", currency.Format(balance, cur)),
			Amount:   &amount,
		})
	}

	if income.IsPositive() && expenses.GreaterThan(income.Mul(half)) {
		amount := expenses
		warnings = append(warnings, model.ForecastWarning{
			Date:     date,
			Type:     "large_expense",
			Severity: model.SeverityMedium,
			Message:  fmt.Sprintf("Large expense day: %s in expenses", currency.Format(expenses, cur)),
			Amount:   &amount,
		})
	}
	return warnings
}
