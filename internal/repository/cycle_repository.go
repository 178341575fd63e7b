package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/cashflow/ledgerd/internal/model"
	"github.com/cashflow/ledgerd/pkg/datetime"
)

var (
	// ErrCycleNotFound is returned when a cycle does not exist.
	ErrCycleNotFound = errors.New("cycle not found")

	// ErrDuplicateCycle is returned when a cycle insert loses the race on the
	// (obligation_id, start_date) uniqueness constraint. Callers should fetch
	// the existing row and continue.
	ErrDuplicateCycle = errors.New("cycle already exists for this period")
)

const pqUniqueViolation = "23505"

type CycleRepository struct {
	db *sqlx.DB
}

func NewCycleRepository(db *sqlx.DB) *CycleRepository {
	return &CycleRepository{db: db}
}

func (r *CycleRepository) Create(ctx context.Context, c *model.Cycle) error {
	query := `
		INSERT INTO cycles (id, obligation_id, start_date, end_date,
			planned_amount, total_applied, carryover_amount, is_paid, is_closed,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at`

	c.ID = uuid.New()
	err := r.db.QueryRowxContext(ctx, query,
		c.ID, c.ObligationID, c.StartDate, c.EndDate,
		c.PlannedAmount, c.TotalApplied, c.CarryoverAmount, c.IsPaid, c.IsClosed,
	).Scan(&c.CreatedAt, &c.UpdatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return ErrDuplicateCycle
	}
	return err
}

func (r *CycleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Cycle, error) {
	var c model.Cycle
	err := r.db.GetContext(ctx, &c, `SELECT * FROM cycles WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCycleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByStart returns the cycle starting exactly on the given date, or nil.
func (r *CycleRepository) GetByStart(ctx context.Context, obligationID uuid.UUID, start datetime.Date) (*model.Cycle, error) {
	var c model.Cycle
	query := `SELECT * FROM cycles WHERE obligation_id = $1 AND start_date = $2`
	err := r.db.GetContext(ctx, &c, query, obligationID, start)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// LatestByEnd returns the most recently ending cycle, or nil when the
// obligation has no cycles yet.
func (r *CycleRepository) LatestByEnd(ctx context.Context, obligationID uuid.UUID) (*model.Cycle, error) {
	var c model.Cycle
	query := `SELECT * FROM cycles WHERE obligation_id = $1 ORDER BY end_date DESC LIMIT 1`
	err := r.db.GetContext(ctx, &c, query, obligationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindContaining returns the cycle whose closed interval contains the given
// date, or nil.
func (r *CycleRepository) FindContaining(ctx context.Context, obligationID uuid.UUID, d datetime.Date) (*model.Cycle, error) {
	var c model.Cycle
	query := `SELECT * FROM cycles WHERE obligation_id = $1 AND start_date <= $2 AND end_date >= $2 LIMIT 1`
	err := r.db.GetContext(ctx, &c, query, obligationID, d)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Preceding returns the latest cycle ending before the given start date, or nil.
func (r *CycleRepository) Preceding(ctx context.Context, obligationID uuid.UUID, before datetime.Date) (*model.Cycle, error) {
	var c model.Cycle
	query := `SELECT * FROM cycles WHERE obligation_id = $1 AND end_date < $2 ORDER BY end_date DESC LIMIT 1`
	err := r.db.GetContext(ctx, &c, query, obligationID, before)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListFrom returns cycles starting on or after the given date in ascending
// start order. Forward recalculation depends on this ordering.
func (r *CycleRepository) ListFrom(ctx context.Context, obligationID uuid.UUID, start datetime.Date) ([]model.Cycle, error) {
	var items []model.Cycle
	query := `SELECT * FROM cycles WHERE obligation_id = $1 AND start_date >= $2 ORDER BY start_date ASC`
	err := r.db.SelectContext(ctx, &items, query, obligationID, start)
	return items, err
}

// List returns all cycles for an obligation, newest first.
func (r *CycleRepository) List(ctx context.Context, obligationID uuid.UUID) ([]model.Cycle, error) {
	var items []model.Cycle
	query := `SELECT * FROM cycles WHERE obligation_id = $1 ORDER BY start_date DESC`
	err := r.db.SelectContext(ctx, &items, query, obligationID)
	return items, err
}

// UpdateTotals persists a recalculated cycle aggregate.
func (r *CycleRepository) UpdateTotals(ctx context.Context, id uuid.UUID, total, carryover decimal.Decimal, isPaid bool) error {
	query := `
		UPDATE cycles
		SET total_applied = $2, carryover_amount = $3, is_paid = $4, updated_at = NOW()
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, total, carryover, isPaid)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCycleNotFound
	}
	return nil
}

// Close marks a cycle closed.
func (r *CycleRepository) Close(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE cycles SET is_closed = true, updated_at = NOW() WHERE id = $1`, id)
	return err
}

// UpdatePlannedFrom pushes a new planned amount onto every cycle starting on
// or after the given date. Past cycles keep their creation-time snapshot.
func (r *CycleRepository) UpdatePlannedFrom(ctx context.Context, obligationID uuid.UUID, amount decimal.Decimal, from datetime.Date) error {
	query := `
		UPDATE cycles
		SET planned_amount = $2, updated_at = NOW()
		WHERE obligation_id = $1 AND start_date >= $3`
	_, err := r.db.ExecContext(ctx, query, obligationID, amount, from)
	return err
}

// RecentPaid returns up to limit cycles with a positive total, newest first.
// Feeds the usage stats for variable-amount bills.
func (r *CycleRepository) RecentPaid(ctx context.Context, obligationID uuid.UUID, limit int) ([]model.Cycle, error) {
	var items []model.Cycle
	query := `
		SELECT * FROM cycles
		WHERE obligation_id = $1 AND total_applied > 0
		ORDER BY end_date DESC
		LIMIT $2`
	err := r.db.SelectContext(ctx, &items, query, obligationID, limit)
	return items, err
}
