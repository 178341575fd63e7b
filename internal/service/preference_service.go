package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cashflow/ledgerd/internal/model"
	"github.com/cashflow/ledgerd/pkg/currency"
	"github.com/cashflow/ledgerd/pkg/datetime"
)

// ErrInvalidTheme is returned for theme values the UI does not know.
var ErrInvalidTheme = errors.New("theme must be 'light', 'dark', or 'system'")

// ErrInvalidCurrency is returned for unsupported currency codes.
var ErrInvalidCurrency = errors.New("unsupported currency code")

// PreferenceRepositoryInterface defines the contract for the settings row.
type PreferenceRepositoryInterface interface {
	Get(ctx context.Context) (*model.Preferences, error)
	Update(ctx context.Context, p *model.Preferences) error
	SetBalance(ctx context.Context, balance decimal.Decimal, at time.Time) error
}

// PreferenceService manages the single application settings record.
type PreferenceService struct {
	repo PreferenceRepositoryInterface
	now  func() time.Time
}

// NewPreferenceService creates a new PreferenceService.
func NewPreferenceService(repo PreferenceRepositoryInterface) *PreferenceService {
	return &PreferenceService{repo: repo, now: time.Now}
}

type UpdatePreferencesInput struct {
	Theme                *string          `json:"theme"`
	Currency             *string          `json:"currency"`
	CurrentBalance       *decimal.Decimal `json:"currentBalance"`
	ExpectedIncomeAmount *decimal.Decimal `json:"expectedIncomeAmount"`
	PaydayFrequency      *model.Frequency `json:"paydayFrequency"`
	PaydayAnchor         *datetime.Date   `json:"paydayAnchor"`
}

// Get returns the settings, creating defaults on first access.
func (s *PreferenceService) Get(ctx context.Context) (*model.Preferences, error) {
	p, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}
	return p, nil
}

// Update applies a partial settings change. Setting the balance stamps the
// last update time so the forecast can show how stale its starting point is.
func (s *PreferenceService) Update(ctx context.Context, input UpdatePreferencesInput) (*model.Preferences, error) {
	p, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if input.Theme != nil {
		switch *input.Theme {
		case "light", "dark", "system":
			p.Theme = *input.Theme
		default:
			return nil, ErrInvalidTheme
		}
	}
	if input.Currency != nil {
		if !currency.IsValid(*input.Currency) {
			return nil, ErrInvalidCurrency
		}
		p.Currency = currency.Code(*input.Currency)
	}
	if input.CurrentBalance != nil {
		p.CurrentBalance = input.CurrentBalance
		now := s.now()
		p.LastBalanceUpdate = &now
	}
	if input.ExpectedIncomeAmount != nil {
		p.ExpectedIncomeAmount = input.ExpectedIncomeAmount
	}
	if input.PaydayFrequency != nil {
		p.PaydayFrequency = input.PaydayFrequency
	}
	if input.PaydayAnchor != nil {
		p.PaydayAnchor = input.PaydayAnchor
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("updating preferences: %w", err)
	}
	return p, nil
}

// SetBalance records a fresh account balance reading.
func (s *PreferenceService) SetBalance(ctx context.Context, balance decimal.Decimal) (*model.Preferences, error) {
	if err := s.repo.SetBalance(ctx, balance, s.now()); err != nil {
		return nil, fmt.Errorf("setting balance: %w", err)
	}
	return s.Get(ctx)
}
