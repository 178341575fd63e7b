package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/cashflow/ledgerd/internal/model"
)

// PreferenceRepository manages the single preferences row. Get creates the
// row with defaults on first access so callers never see a missing row.
type PreferenceRepository struct {
	db *sqlx.DB
}

func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

func (r *PreferenceRepository) Get(ctx context.Context) (*model.Preferences, error) {
	var p model.Preferences
	query := `
		INSERT INTO preferences (id, theme, currency, created_at, updated_at)
		VALUES (1, 'system', 'USD', NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET id = preferences.id
		RETURNING *`
	if err := r.db.GetContext(ctx, &p, query); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PreferenceRepository) Update(ctx context.Context, p *model.Preferences) error {
	query := `
		UPDATE preferences
		SET theme = $1, currency = $2, current_balance = $3, last_balance_update = $4,
			expected_income_amount = $5, payday_frequency = $6, payday_anchor = $7,
			updated_at = NOW()
		WHERE id = 1
		RETURNING updated_at`
	return r.db.QueryRowxContext(ctx, query,
		p.Theme, p.Currency, p.CurrentBalance, p.LastBalanceUpdate,
		p.ExpectedIncomeAmount, p.PaydayFrequency, p.PaydayAnchor,
	).Scan(&p.UpdatedAt)
}

// SetBalance records a fresh account balance and stamps last_balance_update.
func (r *PreferenceRepository) SetBalance(ctx context.Context, balance decimal.Decimal, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE preferences
		SET current_balance = $1, last_balance_update = $2, updated_at = NOW()
		WHERE id = 1`, balance, at)
	return err
}
