package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cashflow/ledgerd/internal/model"
)

// ErrImportNotFound is returned when an imported transaction does not exist.
var ErrImportNotFound = errors.New("imported transaction not found")

type ImportRepository struct {
	db *sqlx.DB
}

func NewImportRepository(db *sqlx.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

// Create inserts a parsed statement row. Rows whose fit_id was already seen
// are skipped; the bool reports whether a row was actually inserted.
func (r *ImportRepository) Create(ctx context.Context, t *model.ImportedTransaction) (bool, error) {
	query := `
		INSERT INTO imported_transactions (id, fit_id, transaction_type, date_posted,
			amount, payee, memo, check_number, is_income, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (fit_id) DO NOTHING
		RETURNING created_at`

	t.ID = uuid.New()
	err := r.db.QueryRowxContext(ctx, query,
		t.ID, t.FitID, t.TransactionType, t.DatePosted,
		t.Amount, t.Payee, t.Memo, t.CheckNumber, t.IsIncome,
	).Scan(&t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *ImportRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ImportedTransaction, error) {
	var t model.ImportedTransaction
	err := r.db.GetContext(ctx, &t, `SELECT * FROM imported_transactions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrImportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ImportRepository) List(ctx context.Context) ([]model.ImportedTransaction, error) {
	var items []model.ImportedTransaction
	query := `SELECT * FROM imported_transactions ORDER BY date_posted DESC, created_at DESC`
	err := r.db.SelectContext(ctx, &items, query)
	return items, err
}

// ListUnapplied returns rows not yet linked to a ledger entry.
func (r *ImportRepository) ListUnapplied(ctx context.Context) ([]model.ImportedTransaction, error) {
	var items []model.ImportedTransaction
	query := `
		SELECT * FROM imported_transactions
		WHERE ledger_entry_id IS NULL AND is_income = false
		ORDER BY date_posted DESC`
	err := r.db.SelectContext(ctx, &items, query)
	return items, err
}

// MarkApplied links an imported row to the obligation and ledger entry it
// was recorded against.
func (r *ImportRepository) MarkApplied(ctx context.Context, id, obligationID, entryID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE imported_transactions
		SET obligation_id = $2, ledger_entry_id = $3
		WHERE id = $1`, id, obligationID, entryID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrImportNotFound
	}
	return nil
}
