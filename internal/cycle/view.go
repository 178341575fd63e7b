package cycle

import (
	"github.com/shopspring/decimal"

	"github.com/cashflow/ledgerd/internal/model"
)

var hundred = decimal.NewFromInt(100)

// View derives the presentation-only fields for a persisted cycle without
// mutating it.
//
// Fixed obligations report remaining = planned - paid and a percent paid
// capped at 100. Variable obligations report a starting balance of budget +
// carryover and the remaining spendable amount, which may go negative.
func View(o *model.Obligation, c model.Cycle) model.CycleView {
	v := model.CycleView{Cycle: c}

	switch o.Kind {
	case model.KindVariable:
		starting := c.PlannedAmount.Add(c.CarryoverAmount)
		v.StartingBalance = &starting
		v.Remaining = starting.Sub(c.TotalApplied)
		v.IsSatisfied = c.IsClosed

	default: // fixed
		v.Remaining = c.PlannedAmount.Sub(c.TotalApplied)
		if c.PlannedAmount.IsPositive() {
			pct, _ := c.TotalApplied.Div(c.PlannedAmount).Mul(hundred).Float64()
			if pct > 100 {
				pct = 100
			}
			v.PercentPaid = pct
		}
		v.IsSatisfied = Satisfied(o, c)
	}

	return v
}

// Satisfied reports whether a fixed obligation's cycle counts as paid.
// A variable-amount bill is satisfied by any payment at all, since the true
// amount is unknown until it arrives; a normal bill needs the full expected
// amount. The cycle's explicit paid flag satisfies either shape.
func Satisfied(o *model.Obligation, c model.Cycle) bool {
	if c.IsPaid {
		return true
	}
	if o.IsVariableAmount {
		return c.TotalApplied.IsPositive()
	}
	return c.TotalApplied.GreaterThanOrEqual(c.PlannedAmount)
}

// Carryover computes the carryover entering a cycle from its immediately
// preceding cycle: (budget + carryover) - spent. Obligations without
// carryover enabled, fixed obligations, and first cycles all carry zero.
func Carryover(o *model.Obligation, prev *model.Cycle) decimal.Decimal {
	if prev == nil || o.Kind != model.KindVariable || !o.EnableCarryover {
		return decimal.Zero
	}
	return prev.PlannedAmount.Add(prev.CarryoverAmount).Sub(prev.TotalApplied)
}
