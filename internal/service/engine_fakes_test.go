package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cashflow/ledgerd/internal/model"
	"github.com/cashflow/ledgerd/internal/repository"
	"github.com/cashflow/ledgerd/pkg/datetime"
)

// memStore is a stateful in-memory backend shared by the fake repositories.
// Engine scenarios span many dependent reads and writes, which is more than
// expectation-based mocks can express.
type memStore struct {
	obligations map[uuid.UUID]model.Obligation
	cycles      map[uuid.UUID]model.Cycle
	entries     map[uuid.UUID]model.LedgerEntry
}

func newMemStore() *memStore {
	return &memStore{
		obligations: make(map[uuid.UUID]model.Obligation),
		cycles:      make(map[uuid.UUID]model.Cycle),
		entries:     make(map[uuid.UUID]model.LedgerEntry),
	}
}

func (s *memStore) sortedCycles(obligationID uuid.UUID) []model.Cycle {
	var out []model.Cycle
	for _, c := range s.cycles {
		if c.ObligationID == obligationID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

type memObligations struct{ s *memStore }

func (r *memObligations) Create(_ context.Context, o *model.Obligation) error {
	o.ID = uuid.New()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	o.UpdatedAt = o.CreatedAt
	r.s.obligations[o.ID] = *o
	return nil
}

func (r *memObligations) GetByID(_ context.Context, id uuid.UUID) (*model.Obligation, error) {
	o, ok := r.s.obligations[id]
	if !ok {
		return nil, repository.ErrObligationNotFound
	}
	return &o, nil
}

func (r *memObligations) List(_ context.Context) ([]model.Obligation, error) {
	var out []model.Obligation
	for _, o := range r.s.obligations {
		if !o.IsDeleted {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memObligations) ListByKind(ctx context.Context, kind model.ObligationKind) ([]model.Obligation, error) {
	all, _ := r.List(ctx)
	var out []model.Obligation
	for _, o := range all {
		if o.Kind == kind {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memObligations) Update(_ context.Context, o *model.Obligation) error {
	if _, ok := r.s.obligations[o.ID]; !ok {
		return repository.ErrObligationNotFound
	}
	o.UpdatedAt = time.Now()
	r.s.obligations[o.ID] = *o
	return nil
}

func (r *memObligations) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.obligations[id]; !ok {
		return repository.ErrObligationNotFound
	}
	delete(r.s.obligations, id)
	for cid, c := range r.s.cycles {
		if c.ObligationID == id {
			delete(r.s.cycles, cid)
		}
	}
	for eid, e := range r.s.entries {
		if e.ObligationID == id {
			delete(r.s.entries, eid)
		}
	}
	return nil
}

func (r *memObligations) SoftDelete(_ context.Context, id uuid.UUID) error {
	o, ok := r.s.obligations[id]
	if !ok {
		return repository.ErrObligationNotFound
	}
	o.IsDeleted = true
	r.s.obligations[id] = o
	return nil
}

type memCycles struct{ s *memStore }

func (r *memCycles) Create(_ context.Context, c *model.Cycle) error {
	for _, existing := range r.s.cycles {
		if existing.ObligationID == c.ObligationID && existing.StartDate.Equal(c.StartDate) {
			return repository.ErrDuplicateCycle
		}
	}
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.s.cycles[c.ID] = *c
	return nil
}

func (r *memCycles) GetByID(_ context.Context, id uuid.UUID) (*model.Cycle, error) {
	c, ok := r.s.cycles[id]
	if !ok {
		return nil, repository.ErrCycleNotFound
	}
	return &c, nil
}

func (r *memCycles) GetByStart(_ context.Context, obligationID uuid.UUID, start datetime.Date) (*model.Cycle, error) {
	for _, c := range r.s.cycles {
		if c.ObligationID == obligationID && c.StartDate.Equal(start) {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memCycles) LatestByEnd(_ context.Context, obligationID uuid.UUID) (*model.Cycle, error) {
	var latest *model.Cycle
	for _, c := range r.s.cycles {
		if c.ObligationID != obligationID {
			continue
		}
		c := c
		if latest == nil || c.EndDate.After(latest.EndDate) {
			latest = &c
		}
	}
	return latest, nil
}

func (r *memCycles) FindContaining(_ context.Context, obligationID uuid.UUID, d datetime.Date) (*model.Cycle, error) {
	for _, c := range r.s.cycles {
		if c.ObligationID == obligationID && c.Contains(d) {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memCycles) Preceding(_ context.Context, obligationID uuid.UUID, before datetime.Date) (*model.Cycle, error) {
	var prev *model.Cycle
	for _, c := range r.s.cycles {
		if c.ObligationID != obligationID || !c.EndDate.Before(before) {
			continue
		}
		c := c
		if prev == nil || c.EndDate.After(prev.EndDate) {
			prev = &c
		}
	}
	return prev, nil
}

func (r *memCycles) ListFrom(_ context.Context, obligationID uuid.UUID, start datetime.Date) ([]model.Cycle, error) {
	var out []model.Cycle
	for _, c := range r.s.sortedCycles(obligationID) {
		if !c.StartDate.Before(start) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCycles) List(_ context.Context, obligationID uuid.UUID) ([]model.Cycle, error) {
	out := r.s.sortedCycles(obligationID)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *memCycles) UpdateTotals(_ context.Context, id uuid.UUID, total, carryover decimal.Decimal, isPaid bool) error {
	c, ok := r.s.cycles[id]
	if !ok {
		return repository.ErrCycleNotFound
	}
	c.TotalApplied = total
	c.CarryoverAmount = carryover
	c.IsPaid = isPaid
	c.UpdatedAt = time.Now()
	r.s.cycles[id] = c
	return nil
}

func (r *memCycles) Close(_ context.Context, id uuid.UUID) error {
	c, ok := r.s.cycles[id]
	if !ok {
		return repository.ErrCycleNotFound
	}
	c.IsClosed = true
	r.s.cycles[id] = c
	return nil
}

func (r *memCycles) UpdatePlannedFrom(_ context.Context, obligationID uuid.UUID, amount decimal.Decimal, from datetime.Date) error {
	for id, c := range r.s.cycles {
		if c.ObligationID == obligationID && !c.StartDate.Before(from) {
			c.PlannedAmount = amount
			r.s.cycles[id] = c
		}
	}
	return nil
}

func (r *memCycles) RecentPaid(_ context.Context, obligationID uuid.UUID, limit int) ([]model.Cycle, error) {
	var out []model.Cycle
	for _, c := range r.s.cycles {
		if c.ObligationID == obligationID && c.TotalApplied.IsPositive() {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.After(out[j].EndDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memLedger struct{ s *memStore }

func (r *memLedger) Create(_ context.Context, e *model.LedgerEntry) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	r.s.entries[e.ID] = *e
	return nil
}

func (r *memLedger) GetByID(_ context.Context, id uuid.UUID) (*model.LedgerEntry, error) {
	e, ok := r.s.entries[id]
	if !ok {
		return nil, repository.ErrLedgerEntryNotFound
	}
	return &e, nil
}

func (r *memLedger) Update(_ context.Context, e *model.LedgerEntry) error {
	if _, ok := r.s.entries[e.ID]; !ok {
		return repository.ErrLedgerEntryNotFound
	}
	e.UpdatedAt = time.Now()
	r.s.entries[e.ID] = *e
	return nil
}

func (r *memLedger) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.entries[id]; !ok {
		return repository.ErrLedgerEntryNotFound
	}
	delete(r.s.entries, id)
	return nil
}

func (r *memLedger) ListForObligation(_ context.Context, obligationID uuid.UUID) ([]model.LedgerEntry, error) {
	var out []model.LedgerEntry
	for _, e := range r.s.entries {
		if e.ObligationID == obligationID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventDate.After(out[j].EventDate) })
	return out, nil
}

func (r *memLedger) ListForCycle(_ context.Context, cycleID uuid.UUID) ([]model.LedgerEntry, error) {
	var out []model.LedgerEntry
	for _, e := range r.s.entries {
		if e.CycleID == cycleID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventDate.After(out[j].EventDate) })
	return out, nil
}

func (r *memLedger) SumForCycle(_ context.Context, cycleID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, e := range r.s.entries {
		if e.CycleID == cycleID {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

// newTestEngine wires an ObligationService over a fresh in-memory store with
// the clock pinned to the given date.
func newTestEngine(today datetime.Date) (*ObligationService, *memStore) {
	store := newMemStore()
	svc := NewObligationService(&memObligations{store}, &memCycles{store}, &memLedger{store})
	svc.now = func() time.Time { return today.Time }
	return svc, store
}
