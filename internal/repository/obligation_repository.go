package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cashflow/ledgerd/internal/model"
)

// ErrObligationNotFound is returned when an obligation does not exist.
var ErrObligationNotFound = errors.New("obligation not found")

type ObligationRepository struct {
	db *sqlx.DB
}

func NewObligationRepository(db *sqlx.DB) *ObligationRepository {
	return &ObligationRepository{db: db}
}

func (r *ObligationRepository) Create(ctx context.Context, o *model.Obligation) error {
	query := `
		INSERT INTO obligations (id, kind, name, category, amount, notes,
			due_date, is_recurring, recurrence_interval, recurrence_unit,
			is_paid, is_autopay, is_variable_amount, payment_link,
			frequency, anchor_date, enable_carryover, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, false, NOW(), NOW())
		RETURNING created_at, updated_at`

	o.ID = uuid.New()
	return r.db.QueryRowxContext(ctx, query,
		o.ID, o.Kind, o.Name, o.Category, o.Amount, o.Notes,
		o.DueDate, o.IsRecurring, o.RecurrenceInterval, o.RecurrenceUnit,
		o.IsPaid, o.IsAutopay, o.IsVariableAmount, o.PaymentLink,
		o.Frequency, o.AnchorDate, o.EnableCarryover,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
}

func (r *ObligationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Obligation, error) {
	var o model.Obligation
	query := `SELECT * FROM obligations WHERE id = $1`
	err := r.db.GetContext(ctx, &o, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrObligationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// List returns all live obligations, soft-deleted ones excluded, ordered by name.
func (r *ObligationRepository) List(ctx context.Context) ([]model.Obligation, error) {
	var items []model.Obligation
	query := `SELECT * FROM obligations WHERE is_deleted = false ORDER BY name ASC`
	err := r.db.SelectContext(ctx, &items, query)
	return items, err
}

// ListByKind returns live obligations of one kind, ordered by name.
func (r *ObligationRepository) ListByKind(ctx context.Context, kind model.ObligationKind) ([]model.Obligation, error) {
	var items []model.Obligation
	query := `SELECT * FROM obligations WHERE kind = $1 AND is_deleted = false ORDER BY name ASC`
	err := r.db.SelectContext(ctx, &items, query, kind)
	return items, err
}

func (r *ObligationRepository) Update(ctx context.Context, o *model.Obligation) error {
	query := `
		UPDATE obligations
		SET name = $2, category = $3, amount = $4, notes = $5,
			due_date = $6, is_recurring = $7, recurrence_interval = $8, recurrence_unit = $9,
			is_paid = $10, is_autopay = $11, is_variable_amount = $12, payment_link = $13,
			frequency = $14, anchor_date = $15, enable_carryover = $16, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.db.QueryRowxContext(ctx, query,
		o.ID, o.Name, o.Category, o.Amount, o.Notes,
		o.DueDate, o.IsRecurring, o.RecurrenceInterval, o.RecurrenceUnit,
		o.IsPaid, o.IsAutopay, o.IsVariableAmount, o.PaymentLink,
		o.Frequency, o.AnchorDate, o.EnableCarryover,
	).Scan(&o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrObligationNotFound
	}
	return err
}

// Delete removes an obligation; cycles and ledger entries cascade.
func (r *ObligationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM obligations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrObligationNotFound
	}
	return nil
}

// SoftDelete hides a variable obligation while keeping its history.
func (r *ObligationRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE obligations SET is_deleted = true, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrObligationNotFound
	}
	return nil
}
