package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cashflow/ledgerd/internal/cycle"
	"github.com/cashflow/ledgerd/internal/model"
	"github.com/cashflow/ledgerd/internal/repository"
	"github.com/cashflow/ledgerd/pkg/datetime"
)

// Service-level errors for obligations and their ledger.
var (
	ErrInvalidAmount      = errors.New("amount must not be negative")
	ErrInvalidKind        = errors.New("kind must be 'fixed' or 'variable'")
	ErrNameRequired       = errors.New("name is required")
	ErrObligationNotFound = errors.New("obligation not found")
	ErrEntryNotFound      = errors.New("ledger entry not found")
)

// usageWindow is how many recent paid cycles feed the usage statistics of a
// variable-amount bill.
const usageWindow = 6

// ObligationRepositoryInterface defines the contract for obligation data access.
// Implementations must be safe for concurrent use.
type ObligationRepositoryInterface interface {
	Create(ctx context.Context, o *model.Obligation) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Obligation, error)
	List(ctx context.Context) ([]model.Obligation, error)
	ListByKind(ctx context.Context, kind model.ObligationKind) ([]model.Obligation, error)
	Update(ctx context.Context, o *model.Obligation) error
	Delete(ctx context.Context, id uuid.UUID) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// CycleRepositoryInterface defines the contract for cycle data access.
type CycleRepositoryInterface interface {
	Create(ctx context.Context, c *model.Cycle) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Cycle, error)
	GetByStart(ctx context.Context, obligationID uuid.UUID, start datetime.Date) (*model.Cycle, error)
	LatestByEnd(ctx context.Context, obligationID uuid.UUID) (*model.Cycle, error)
	FindContaining(ctx context.Context, obligationID uuid.UUID, d datetime.Date) (*model.Cycle, error)
	Preceding(ctx context.Context, obligationID uuid.UUID, before datetime.Date) (*model.Cycle, error)
	ListFrom(ctx context.Context, obligationID uuid.UUID, start datetime.Date) ([]model.Cycle, error)
	List(ctx context.Context, obligationID uuid.UUID) ([]model.Cycle, error)
	UpdateTotals(ctx context.Context, id uuid.UUID, total, carryover decimal.Decimal, isPaid bool) error
	Close(ctx context.Context, id uuid.UUID) error
	UpdatePlannedFrom(ctx context.Context, obligationID uuid.UUID, amount decimal.Decimal, from datetime.Date) error
	RecentPaid(ctx context.Context, obligationID uuid.UUID, limit int) ([]model.Cycle, error)
}

// LedgerRepositoryInterface defines the contract for ledger entry data access.
type LedgerRepositoryInterface interface {
	Create(ctx context.Context, e *model.LedgerEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.LedgerEntry, error)
	Update(ctx context.Context, e *model.LedgerEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListForObligation(ctx context.Context, obligationID uuid.UUID) ([]model.LedgerEntry, error)
	ListForCycle(ctx context.Context, cycleID uuid.UUID) ([]model.LedgerEntry, error)
	SumForCycle(ctx context.Context, cycleID uuid.UUID) (decimal.Decimal, error)
}

// ObligationService owns the cycle engine: it materializes accounting periods
// on demand, assigns ledger entries to them, and keeps every cycle's totals
// and carryover consistent with the ledger.
type ObligationService struct {
	obligations ObligationRepositoryInterface
	cycles      CycleRepositoryInterface
	ledger      LedgerRepositoryInterface

	// now is swappable so tests can pin the reference date.
	now func() time.Time
}

// NewObligationService creates a new ObligationService with the given repositories.
func NewObligationService(
	obligations ObligationRepositoryInterface,
	cycles CycleRepositoryInterface,
	ledger LedgerRepositoryInterface,
) *ObligationService {
	return &ObligationService{
		obligations: obligations,
		cycles:      cycles,
		ledger:      ledger,
		now:         time.Now,
	}
}

type CreateObligationInput struct {
	Kind     model.ObligationKind `json:"kind"`
	Name     string               `json:"name"`
	Category string               `json:"category"`
	Amount   decimal.Decimal      `json:"amount"`
	Notes    *string              `json:"notes"`

	DueDate            datetime.Date         `json:"dueDate"`
	IsRecurring        bool                  `json:"isRecurring"`
	RecurrenceInterval *int                  `json:"recurrenceInterval"`
	RecurrenceUnit     *model.RecurrenceUnit `json:"recurrenceUnit"`
	IsAutopay          bool                  `json:"isAutopay"`
	IsVariableAmount   bool                  `json:"isVariableAmount"`
	PaymentLink        *string               `json:"paymentLink"`

	Frequency       *model.Frequency `json:"frequency"`
	AnchorDate      datetime.Date    `json:"anchorDate"`
	EnableCarryover bool             `json:"enableCarryover"`
}

type UpdateObligationInput struct {
	Name     *string          `json:"name"`
	Category *string          `json:"category"`
	Amount   *decimal.Decimal `json:"amount"`
	Notes    *string          `json:"notes"`

	DueDate            *datetime.Date        `json:"dueDate"`
	IsRecurring        *bool                 `json:"isRecurring"`
	RecurrenceInterval *int                  `json:"recurrenceInterval"`
	RecurrenceUnit     *model.RecurrenceUnit `json:"recurrenceUnit"`
	IsPaid             *bool                 `json:"isPaid"`
	IsAutopay          *bool                 `json:"isAutopay"`
	IsVariableAmount   *bool                 `json:"isVariableAmount"`
	PaymentLink        *string               `json:"paymentLink"`

	Frequency       *model.Frequency `json:"frequency"`
	EnableCarryover *bool            `json:"enableCarryover"`
}

// Create validates the recurrence settings and persists a new obligation.
// Nothing is materialized for an invalid configuration.
func (s *ObligationService) Create(ctx context.Context, input CreateObligationInput) (*model.ObligationWithCycle, error) {
	if input.Name == "" {
		return nil, ErrNameRequired
	}
	if input.Kind != model.KindFixed && input.Kind != model.KindVariable {
		return nil, ErrInvalidKind
	}
	if input.Amount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	o := &model.Obligation{
		Kind:               input.Kind,
		Name:               input.Name,
		Category:           input.Category,
		Amount:             input.Amount,
		Notes:              input.Notes,
		DueDate:            input.DueDate,
		IsRecurring:        input.IsRecurring,
		RecurrenceInterval: input.RecurrenceInterval,
		RecurrenceUnit:     input.RecurrenceUnit,
		IsAutopay:          input.IsAutopay,
		IsVariableAmount:   input.IsVariableAmount,
		PaymentLink:        input.PaymentLink,
		Frequency:          input.Frequency,
		AnchorDate:         input.AnchorDate,
		EnableCarryover:    input.EnableCarryover,
		CreatedAt:          s.now(),
	}

	if _, err := cycle.ForObligation(o); err != nil {
		return nil, err
	}

	if err := s.obligations.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("creating obligation: %w", err)
	}

	return s.withCurrentCycle(ctx, o)
}

// Get retrieves an obligation with its current cycle, materializing any
// cycles that are missing up to today.
func (s *ObligationService) Get(ctx context.Context, id uuid.UUID) (*model.ObligationWithCycle, error) {
	o, err := s.getObligation(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withCurrentCycle(ctx, o)
}

// List retrieves all obligations with their current cycles.
func (s *ObligationService) List(ctx context.Context) ([]model.ObligationWithCycle, error) {
	items, err := s.obligations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing obligations: %w", err)
	}
	return s.withCurrentCycles(ctx, items)
}

// ListByKind retrieves obligations of one kind with their current cycles.
func (s *ObligationService) ListByKind(ctx context.Context, kind model.ObligationKind) ([]model.ObligationWithCycle, error) {
	if kind != model.KindFixed && kind != model.KindVariable {
		return nil, ErrInvalidKind
	}
	items, err := s.obligations.ListByKind(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("listing %s obligations: %w", kind, err)
	}
	return s.withCurrentCycles(ctx, items)
}

// Update modifies an obligation. An amount change is pushed onto the current
// and future cycles only; past cycles keep the amount they were created with.
func (s *ObligationService) Update(ctx context.Context, id uuid.UUID, input UpdateObligationInput) (*model.ObligationWithCycle, error) {
	o, err := s.getObligation(ctx, id)
	if err != nil {
		return nil, err
	}

	amountChanged := false

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrNameRequired
		}
		o.Name = *input.Name
	}
	if input.Category != nil {
		o.Category = *input.Category
	}
	if input.Amount != nil {
		if input.Amount.IsNegative() {
			return nil, ErrInvalidAmount
		}
		amountChanged = !o.Amount.Equal(*input.Amount)
		o.Amount = *input.Amount
	}
	if input.Notes != nil {
		o.Notes = input.Notes
	}
	if input.DueDate != nil {
		o.DueDate = *input.DueDate
	}
	if input.IsRecurring != nil {
		o.IsRecurring = *input.IsRecurring
	}
	if input.RecurrenceInterval != nil {
		o.RecurrenceInterval = input.RecurrenceInterval
	}
	if input.RecurrenceUnit != nil {
		o.RecurrenceUnit = input.RecurrenceUnit
	}
	if input.IsPaid != nil {
		o.IsPaid = *input.IsPaid
	}
	if input.IsAutopay != nil {
		o.IsAutopay = *input.IsAutopay
	}
	if input.IsVariableAmount != nil {
		o.IsVariableAmount = *input.IsVariableAmount
	}
	if input.PaymentLink != nil {
		o.PaymentLink = input.PaymentLink
	}
	if input.Frequency != nil {
		o.Frequency = input.Frequency
	}
	if input.EnableCarryover != nil {
		o.EnableCarryover = *input.EnableCarryover
	}

	if _, err := cycle.ForObligation(o); err != nil {
		return nil, err
	}

	if err := s.obligations.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("updating obligation %s: %w", id, err)
	}

	if amountChanged {
		from := datetime.DateOf(s.now())
		if current, err := s.cycles.FindContaining(ctx, o.ID, from); err != nil {
			return nil, fmt.Errorf("finding current cycle for %s: %w", id, err)
		} else if current != nil {
			from = current.StartDate
		}
		if err := s.cycles.UpdatePlannedFrom(ctx, o.ID, o.Amount, from); err != nil {
			return nil, fmt.Errorf("updating planned amounts for %s: %w", id, err)
		}
		if err := s.recalculateFrom(ctx, o, from); err != nil {
			return nil, err
		}
	}

	return s.withCurrentCycle(ctx, o)
}

// Delete removes an obligation. Variable obligations are soft-deleted so
// their spending history stays queryable; fixed obligations cascade away
// with their cycles and payments.
func (s *ObligationService) Delete(ctx context.Context, id uuid.UUID) error {
	o, err := s.getObligation(ctx, id)
	if err != nil {
		return err
	}

	if o.Kind == model.KindVariable {
		err = s.obligations.SoftDelete(ctx, id)
	} else {
		err = s.obligations.Delete(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("deleting obligation %s: %w", id, err)
	}
	return nil
}

// ListCycles returns an obligation's cycle history, newest first, after
// materializing up to today.
func (s *ObligationService) ListCycles(ctx context.Context, obligationID uuid.UUID) ([]model.CycleView, error) {
	o, err := s.getObligation(ctx, obligationID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCycles(ctx, o); err != nil {
		return nil, err
	}

	items, err := s.cycles.List(ctx, obligationID)
	if err != nil {
		return nil, fmt.Errorf("listing cycles for %s: %w", obligationID, err)
	}

	views := make([]model.CycleView, 0, len(items))
	for _, c := range items {
		views = append(views, cycle.View(o, c))
	}
	return views, nil
}

// MaterializeAll brings every obligation's cycles up to today. The scheduler
// calls this so cycles roll over even when nobody is looking at them.
// Returns the number of obligations processed.
func (s *ObligationService) MaterializeAll(ctx context.Context) (int, error) {
	items, err := s.obligations.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing obligations for materialization: %w", err)
	}

	count := 0
	for i := range items {
		if err := s.ensureCycles(ctx, &items[i]); err != nil {
			continue
		}
		count++
	}
	return count, nil
}

func (s *ObligationService) getObligation(ctx context.Context, id uuid.UUID) (*model.Obligation, error) {
	o, err := s.obligations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrObligationNotFound) {
			return nil, ErrObligationNotFound
		}
		return nil, fmt.Errorf("getting obligation %s: %w", id, err)
	}
	return o, nil
}

func (s *ObligationService) withCurrentCycle(ctx context.Context, o *model.Obligation) (*model.ObligationWithCycle, error) {
	if err := s.ensureCycles(ctx, o); err != nil {
		return nil, err
	}

	out := &model.ObligationWithCycle{Obligation: *o}

	current, err := s.cycles.FindContaining(ctx, o.ID, datetime.DateOf(s.now()))
	if err != nil {
		return nil, fmt.Errorf("finding current cycle for %s: %w", o.ID, err)
	}
	if current != nil {
		v := cycle.View(o, *current)
		out.CurrentCycle = &v
	}

	if o.Kind == model.KindFixed && o.IsVariableAmount {
		stats, err := s.usageStats(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		out.UsageStats = stats
	}

	return out, nil
}

func (s *ObligationService) withCurrentCycles(ctx context.Context, items []model.Obligation) ([]model.ObligationWithCycle, error) {
	out := make([]model.ObligationWithCycle, 0, len(items))
	for i := range items {
		owc, err := s.withCurrentCycle(ctx, &items[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *owc)
	}
	return out, nil
}

// ensureCycles materializes missing cycles from the latest existing one up
// through the cycle containing today. Creation is idempotent: a concurrent
// materializer losing the insert race just moves on.
func (s *ObligationService) ensureCycles(ctx context.Context, o *model.Obligation) error {
	sched, err := cycle.ForObligation(o)
	if err != nil {
		return err
	}

	today := datetime.DateOf(s.now())

	latest, err := s.cycles.LatestByEnd(ctx, o.ID)
	if err != nil {
		return fmt.Errorf("finding latest cycle for %s: %w", o.ID, err)
	}

	if !sched.Recurring() {
		if latest != nil {
			return nil
		}
		b := sched.BoundsOf(0)
		c := &model.Cycle{
			ObligationID:    o.ID,
			StartDate:       b.Start,
			EndDate:         b.End,
			PlannedAmount:   o.Amount,
			TotalApplied:    decimal.Zero,
			CarryoverAmount: decimal.Zero,
			IsPaid:          o.IsPaid,
		}
		if err := s.cycles.Create(ctx, c); err != nil && !errors.Is(err, repository.ErrDuplicateCycle) {
			return fmt.Errorf("creating cycle for %s: %w", o.ID, err)
		}
		return nil
	}

	var first int
	if latest == nil {
		// A fixed obligation's first cycle is the one ending on its due
		// date; a variable obligation's starts on its anchor date.
		ref := o.AnchorDate
		if o.Kind == model.KindFixed {
			ref = o.DueDate
		}
		first = sched.IndexContaining(ref)
	} else {
		if !latest.EndDate.Before(today) {
			return nil
		}
		if !latest.IsClosed {
			if err := s.cycles.Close(ctx, latest.ID); err != nil {
				return fmt.Errorf("closing cycle %s: %w", latest.ID, err)
			}
		}
		first = sched.IndexContaining(latest.EndDate.AddDays(1))
	}

	last := sched.IndexContaining(today)
	if last < first {
		last = first
	}

	for n := first; n <= last; n++ {
		b := sched.BoundsOf(n)

		prev, err := s.cycles.Preceding(ctx, o.ID, b.Start)
		if err != nil {
			return fmt.Errorf("finding preceding cycle for %s: %w", o.ID, err)
		}

		c := &model.Cycle{
			ObligationID:    o.ID,
			StartDate:       b.Start,
			EndDate:         b.End,
			PlannedAmount:   o.Amount,
			TotalApplied:    decimal.Zero,
			CarryoverAmount: cycle.Carryover(o, prev),
			IsClosed:        b.End.Before(today),
		}
		if err := s.cycles.Create(ctx, c); err != nil {
			if errors.Is(err, repository.ErrDuplicateCycle) {
				continue
			}
			return fmt.Errorf("creating cycle for %s: %w", o.ID, err)
		}
	}

	return nil
}

// recalculateFrom re-derives totals, carryover, and paid state for every
// cycle starting on or after the given date, in ascending start order. Each
// cycle's carryover depends on its recalculated predecessor, so the order is
// load-bearing.
func (s *ObligationService) recalculateFrom(ctx context.Context, o *model.Obligation, from datetime.Date) error {
	items, err := s.cycles.ListFrom(ctx, o.ID, from)
	if err != nil {
		return fmt.Errorf("listing cycles for recalculation: %w", err)
	}

	for _, c := range items {
		total, err := s.ledger.SumForCycle(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("summing entries for cycle %s: %w", c.ID, err)
		}

		prev, err := s.cycles.Preceding(ctx, o.ID, c.StartDate)
		if err != nil {
			return fmt.Errorf("finding preceding cycle for %s: %w", o.ID, err)
		}
		carryover := cycle.Carryover(o, prev)

		isPaid := c.IsPaid
		if o.Kind == model.KindFixed {
			isPaid = total.GreaterThanOrEqual(c.PlannedAmount)
		}

		if err := s.cycles.UpdateTotals(ctx, c.ID, total, carryover, isPaid); err != nil {
			return fmt.Errorf("updating totals for cycle %s: %w", c.ID, err)
		}
	}

	return nil
}

func (s *ObligationService) usageStats(ctx context.Context, obligationID uuid.UUID) (*model.UsageStats, error) {
	recent, err := s.cycles.RecentPaid(ctx, obligationID, usageWindow)
	if err != nil {
		return nil, fmt.Errorf("loading recent paid cycles for %s: %w", obligationID, err)
	}
	if len(recent) == 0 {
		return nil, nil
	}

	stats := &model.UsageStats{
		Count:      len(recent),
		Min:        recent[0].TotalApplied,
		Max:        recent[0].TotalApplied,
		LastAmount: recent[0].TotalApplied,
	}
	total := decimal.Zero
	for _, c := range recent {
		total = total.Add(c.TotalApplied)
		if c.TotalApplied.LessThan(stats.Min) {
			stats.Min = c.TotalApplied
		}
		if c.TotalApplied.GreaterThan(stats.Max) {
			stats.Max = c.TotalApplied
		}
	}
	stats.Average = total.Div(decimal.NewFromInt(int64(len(recent))))

	return stats, nil
}
