package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cashflow/ledgerd/internal/model"
	"github.com/cashflow/ledgerd/pkg/currency"
)

type MockPreferenceRepo struct {
	mock.Mock
}

func (m *MockPreferenceRepo) Get(ctx context.Context) (*model.Preferences, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Preferences), args.Error(1)
}

func (m *MockPreferenceRepo) Update(ctx context.Context, p *model.Preferences) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPreferenceRepo) SetBalance(ctx context.Context, balance decimal.Decimal, at time.Time) error {
	args := m.Called(ctx, balance, at)
	return args.Error(0)
}

func TestPreferenceService_Update(t *testing.T) {
	t.Parallel()

	frozen := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

	t.Run("balance change stamps update time", func(t *testing.T) {
		t.Parallel()

		repo := new(MockPreferenceRepo)
		repo.On("Get", mock.Anything).Return(&model.Preferences{ID: 1, Theme: "system"}, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*model.Preferences")).Return(nil)

		svc := NewPreferenceService(repo)
		svc.now = func() time.Time { return frozen }

		balance := decimal.NewFromInt(2500)
		p, err := svc.Update(context.Background(), UpdatePreferencesInput{
			CurrentBalance: &balance,
		})

		require.NoError(t, err)
		require.NotNil(t, p.LastBalanceUpdate)
		assert.Equal(t, frozen, *p.LastBalanceUpdate)
		assert.True(t, p.CurrentBalance.Equal(balance))
		repo.AssertExpectations(t)
	})

	t.Run("theme whitelist", func(t *testing.T) {
		t.Parallel()

		repo := new(MockPreferenceRepo)
		repo.On("Get", mock.Anything).Return(&model.Preferences{ID: 1, Theme: "system"}, nil)

		svc := NewPreferenceService(repo)

		theme := "solarized"
		_, err := svc.Update(context.Background(), UpdatePreferencesInput{Theme: &theme})

		assert.ErrorIs(t, err, ErrInvalidTheme)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("currency validated against supported codes", func(t *testing.T) {
		t.Parallel()

		repo := new(MockPreferenceRepo)
		repo.On("Get", mock.Anything).Return(&model.Preferences{ID: 1, Theme: "system", Currency: currency.USD}, nil)

		svc := NewPreferenceService(repo)

		code := "DOGE"
		_, err := svc.Update(context.Background(), UpdatePreferencesInput{Currency: &code})

		assert.ErrorIs(t, err, ErrInvalidCurrency)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("currency change persists", func(t *testing.T) {
		t.Parallel()

		repo := new(MockPreferenceRepo)
		repo.On("Get", mock.Anything).Return(&model.Preferences{ID: 1, Theme: "system", Currency: currency.USD}, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*model.Preferences")).Return(nil)

		svc := NewPreferenceService(repo)

		code := "EUR"
		p, err := svc.Update(context.Background(), UpdatePreferencesInput{Currency: &code})

		require.NoError(t, err)
		assert.Equal(t, currency.EUR, p.Currency)
	})

	t.Run("other fields leave the balance stamp alone", func(t *testing.T) {
		t.Parallel()

		repo := new(MockPreferenceRepo)
		repo.On("Get", mock.Anything).Return(&model.Preferences{ID: 1, Theme: "system"}, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*model.Preferences")).Return(nil)

		svc := NewPreferenceService(repo)
		svc.now = func() time.Time { return frozen }

		theme := "dark"
		p, err := svc.Update(context.Background(), UpdatePreferencesInput{Theme: &theme})

		require.NoError(t, err)
		assert.Equal(t, "dark", p.Theme)
		assert.Nil(t, p.LastBalanceUpdate)
	})
}

func TestPreferenceService_SetBalance(t *testing.T) {
	t.Parallel()

	frozen := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	balance := decimal.NewFromInt(1800)

	repo := new(MockPreferenceRepo)
	repo.On("SetBalance", mock.Anything, balance, frozen).Return(nil)
	repo.On("Get", mock.Anything).Return(&model.Preferences{
		ID:                1,
		Theme:             "system",
		CurrentBalance:    &balance,
		LastBalanceUpdate: &frozen,
	}, nil)

	svc := NewPreferenceService(repo)
	svc.now = func() time.Time { return frozen }

	p, err := svc.SetBalance(context.Background(), balance)

	require.NoError(t, err)
	assert.True(t, p.CurrentBalance.Equal(balance))
	repo.AssertExpectations(t)
}
