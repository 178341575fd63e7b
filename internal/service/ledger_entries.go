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

type RecordEntryInput struct {
	ObligationID uuid.UUID       `json:"obligationId"`
	Amount       decimal.Decimal `json:"amount"`
	EventDate    time.Time       `json:"eventDate"`
	Notes        *string         `json:"notes"`
}

type UpdateEntryInput struct {
	Amount    *decimal.Decimal `json:"amount"`
	EventDate *time.Time       `json:"eventDate"`
	Notes     *string          `json:"notes"`
}

// RecordEntry assigns a payment or spend to the cycle containing its event
// date, creating that cycle first if the date is backdated past the earliest
// materialized cycle, then recalculates forward.
func (s *ObligationService) RecordEntry(ctx context.Context, input RecordEntryInput) (*model.LedgerEntry, error) {
	if input.Amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if input.EventDate.IsZero() {
		input.EventDate = s.now()
	}

	o, err := s.getObligation(ctx, input.ObligationID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCycles(ctx, o); err != nil {
		return nil, err
	}

	target, err := s.cycleForDate(ctx, o, datetime.DateOf(input.EventDate))
	if err != nil {
		return nil, err
	}

	entry := &model.LedgerEntry{
		ObligationID: o.ID,
		CycleID:      target.ID,
		Amount:       input.Amount,
		EventDate:    input.EventDate,
		Notes:        input.Notes,
	}
	if err := s.ledger.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("recording entry for %s: %w", o.ID, err)
	}

	if err := s.recalculateFrom(ctx, o, target.StartDate); err != nil {
		return nil, err
	}

	return entry, nil
}

// UpdateEntry modifies a ledger entry. A changed event date moves the entry
// to the cycle containing the new date; both the old and new chains are
// recalculated from the earliest affected cycle.
func (s *ObligationService) UpdateEntry(ctx context.Context, id uuid.UUID, input UpdateEntryInput) (*model.LedgerEntry, error) {
	entry, err := s.getEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	o, err := s.getObligation(ctx, entry.ObligationID)
	if err != nil {
		return nil, err
	}

	oldCycle, err := s.cycles.GetByID(ctx, entry.CycleID)
	if err != nil {
		return nil, fmt.Errorf("getting cycle %s: %w", entry.CycleID, err)
	}
	recalcFrom := oldCycle.StartDate

	if input.Amount != nil {
		if input.Amount.IsNegative() {
			return nil, ErrInvalidAmount
		}
		entry.Amount = *input.Amount
	}
	if input.Notes != nil {
		entry.Notes = input.Notes
	}
	if input.EventDate != nil && !input.EventDate.Equal(entry.EventDate) {
		entry.EventDate = *input.EventDate

		target, err := s.cycleForDate(ctx, o, datetime.DateOf(*input.EventDate))
		if err != nil {
			return nil, err
		}
		entry.CycleID = target.ID
		if target.StartDate.Before(recalcFrom) {
			recalcFrom = target.StartDate
		}
	}

	if err := s.ledger.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("updating entry %s: %w", id, err)
	}

	if err := s.recalculateFrom(ctx, o, recalcFrom); err != nil {
		return nil, err
	}

	return entry, nil
}

// DeleteEntry removes a ledger entry and recalculates its cycle chain.
func (s *ObligationService) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	entry, err := s.getEntry(ctx, id)
	if err != nil {
		return err
	}
	o, err := s.getObligation(ctx, entry.ObligationID)
	if err != nil {
		return err
	}

	c, err := s.cycles.GetByID(ctx, entry.CycleID)
	if err != nil {
		return fmt.Errorf("getting cycle %s: %w", entry.CycleID, err)
	}

	if err := s.ledger.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting entry %s: %w", id, err)
	}

	return s.recalculateFrom(ctx, o, c.StartDate)
}

// ListEntries returns an obligation's ledger entries, newest first.
func (s *ObligationService) ListEntries(ctx context.Context, obligationID uuid.UUID) ([]model.LedgerEntry, error) {
	if _, err := s.getObligation(ctx, obligationID); err != nil {
		return nil, err
	}
	items, err := s.ledger.ListForObligation(ctx, obligationID)
	if err != nil {
		return nil, fmt.Errorf("listing entries for %s: %w", obligationID, err)
	}
	return items, nil
}

// ListEntriesForCycle returns one cycle's ledger entries, newest first.
func (s *ObligationService) ListEntriesForCycle(ctx context.Context, cycleID uuid.UUID) ([]model.LedgerEntry, error) {
	items, err := s.ledger.ListForCycle(ctx, cycleID)
	if err != nil {
		return nil, fmt.Errorf("listing entries for cycle %s: %w", cycleID, err)
	}
	return items, nil
}

func (s *ObligationService) getEntry(ctx context.Context, id uuid.UUID) (*model.LedgerEntry, error) {
	entry, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLedgerEntryNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("getting entry %s: %w", id, err)
	}
	return entry, nil
}

// cycleForDate returns the persisted cycle containing d, creating it from
// the schedule when the date falls outside everything materialized so far.
// Backdated cycles start with zero carryover; the forward recalculation that
// follows every write fixes the chain.
func (s *ObligationService) cycleForDate(ctx context.Context, o *model.Obligation, d datetime.Date) (*model.Cycle, error) {
	sched, err := cycle.ForObligation(o)
	if err != nil {
		return nil, err
	}
	b := sched.BoundsContaining(d)

	existing, err := s.cycles.GetByStart(ctx, o.ID, b.Start)
	if err != nil {
		return nil, fmt.Errorf("finding cycle for %s: %w", o.ID, err)
	}
	if existing != nil {
		return existing, nil
	}

	c := &model.Cycle{
		ObligationID:    o.ID,
		StartDate:       b.Start,
		EndDate:         b.End,
		PlannedAmount:   o.Amount,
		TotalApplied:    decimal.Zero,
		CarryoverAmount: decimal.Zero,
		IsClosed:        b.End.Before(datetime.DateOf(s.now())),
	}
	err = s.cycles.Create(ctx, c)
	if errors.Is(err, repository.ErrDuplicateCycle) {
		// Lost the insert race; the row exists now.
		existing, err = s.cycles.GetByStart(ctx, o.ID, b.Start)
		if err != nil {
			return nil, fmt.Errorf("finding cycle for %s: %w", o.ID, err)
		}
		if existing == nil {
			return nil, fmt.Errorf("cycle for %s starting %s vanished after duplicate insert", o.ID, b.Start)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("creating cycle for %s: %w", o.ID, err)
	}
	return c, nil
}
