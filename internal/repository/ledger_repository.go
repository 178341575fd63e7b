package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/cashflow/ledgerd/internal/model"
)

// ErrLedgerEntryNotFound is returned when a ledger entry does not exist.
var ErrLedgerEntryNotFound = errors.New("ledger entry not found")

type LedgerRepository struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Create(ctx context.Context, e *model.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, obligation_id, cycle_id, amount, event_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at`

	e.ID = uuid.New()
	return r.db.QueryRowxContext(ctx, query,
		e.ID, e.ObligationID, e.CycleID, e.Amount, e.EventDate, e.Notes,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
}

func (r *LedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.LedgerEntry, error) {
	var e model.LedgerEntry
	err := r.db.GetContext(ctx, &e, `SELECT * FROM ledger_entries WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLedgerEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *LedgerRepository) Update(ctx context.Context, e *model.LedgerEntry) error {
	query := `
		UPDATE ledger_entries
		SET cycle_id = $2, amount = $3, event_date = $4, notes = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.db.QueryRowxContext(ctx, query,
		e.ID, e.CycleID, e.Amount, e.EventDate, e.Notes,
	).Scan(&e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrLedgerEntryNotFound
	}
	return err
}

func (r *LedgerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrLedgerEntryNotFound
	}
	return nil
}

// ListForObligation returns an obligation's entries, newest event first.
func (r *LedgerRepository) ListForObligation(ctx context.Context, obligationID uuid.UUID) ([]model.LedgerEntry, error) {
	var items []model.LedgerEntry
	query := `SELECT * FROM ledger_entries WHERE obligation_id = $1 ORDER BY event_date DESC`
	err := r.db.SelectContext(ctx, &items, query, obligationID)
	return items, err
}

// ListForCycle returns a cycle's entries, newest event first.
func (r *LedgerRepository) ListForCycle(ctx context.Context, cycleID uuid.UUID) ([]model.LedgerEntry, error) {
	var items []model.LedgerEntry
	query := `SELECT * FROM ledger_entries WHERE cycle_id = $1 ORDER BY event_date DESC`
	err := r.db.SelectContext(ctx, &items, query, cycleID)
	return items, err
}

// SumForCycle re-derives a cycle's total from its source rows. Recalculation
// always uses this sum, never a running counter, so edits and deletes stay
// consistent.
func (r *LedgerRepository) SumForCycle(ctx context.Context, cycleID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE cycle_id = $1`
	err := r.db.GetContext(ctx, &total, query, cycleID)
	return total, err
}
