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

// ErrDebtNotFound is returned when a debt does not exist.
var ErrDebtNotFound = errors.New("debt not found")

type DebtRepository struct {
	db *sqlx.DB
}

func NewDebtRepository(db *sqlx.DB) *DebtRepository {
	return &DebtRepository{db: db}
}

func (r *DebtRepository) Create(ctx context.Context, d *model.Debt) error {
	query := `
		INSERT INTO debts (id, name, type, original_amount, current_balance,
			interest_rate, minimum_payment, due_day, start_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at`

	d.ID = uuid.New()
	return r.db.QueryRowxContext(ctx, query,
		d.ID, d.Name, d.Type, d.OriginalAmount, d.CurrentBalance,
		d.InterestRate, d.MinimumPayment, d.DueDay, d.StartDate,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *DebtRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Debt, error) {
	var d model.Debt
	err := r.db.GetContext(ctx, &d, `SELECT * FROM debts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDebtNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DebtRepository) List(ctx context.Context) ([]model.Debt, error) {
	var items []model.Debt
	err := r.db.SelectContext(ctx, &items, `SELECT * FROM debts ORDER BY name ASC`)
	return items, err
}

func (r *DebtRepository) Update(ctx context.Context, d *model.Debt) error {
	query := `
		UPDATE debts
		SET name = $2, type = $3, original_amount = $4, current_balance = $5,
			interest_rate = $6, minimum_payment = $7, due_day = $8, start_date = $9,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.db.QueryRowxContext(ctx, query,
		d.ID, d.Name, d.Type, d.OriginalAmount, d.CurrentBalance,
		d.InterestRate, d.MinimumPayment, d.DueDay, d.StartDate,
	).Scan(&d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDebtNotFound
	}
	return err
}

func (r *DebtRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM debts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrDebtNotFound
	}
	return nil
}

// RecordPayment inserts a payment row and reduces the debt balance by its
// principal portion.
func (r *DebtRepository) RecordPayment(ctx context.Context, p *model.DebtPayment) error {
	p.ID = uuid.New()
	query := `
		INSERT INTO debt_payments (id, debt_id, amount, principal, interest, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at`
	if err := r.db.QueryRowxContext(ctx, query,
		p.ID, p.DebtID, p.Amount, p.Principal, p.Interest, p.Date,
	).Scan(&p.CreatedAt); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE debts SET current_balance = current_balance - $2, updated_at = NOW() WHERE id = $1`,
		p.DebtID, p.Principal)
	return err
}

// ListPayments returns a debt's payments, newest first.
func (r *DebtRepository) ListPayments(ctx context.Context, debtID uuid.UUID) ([]model.DebtPayment, error) {
	var items []model.DebtPayment
	query := `SELECT * FROM debt_payments WHERE debt_id = $1 ORDER BY date DESC`
	err := r.db.SelectContext(ctx, &items, query, debtID)
	return items, err
}

// GetTotalDebt sums all current balances.
func (r *DebtRepository) GetTotalDebt(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(current_balance), 0) FROM debts`)
	return total, err
}
