package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cashflow/ledgerd/internal/model"
	"github.com/cashflow/ledgerd/internal/repository"
	"github.com/cashflow/ledgerd/pkg/datetime"
)

// Service-level errors for debts.
var (
	ErrDebtNotFound      = errors.New("debt not found")
	ErrInvalidPayment    = errors.New("payment must be greater than zero")
	ErrPaymentTooSmall   = errors.New("payment does not cover monthly interest")
	ErrNoBalanceToPayOff = errors.New("debt has no outstanding balance")
)

// payoffHorizonMonths caps amortization at 100 years so a payment that barely
// covers interest cannot loop forever.
const payoffHorizonMonths = 1200

// DebtRepositoryInterface defines the contract for debt data access.
// Implementations must be safe for concurrent use.
type DebtRepositoryInterface interface {
	Create(ctx context.Context, d *model.Debt) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Debt, error)
	List(ctx context.Context) ([]model.Debt, error)
	Update(ctx context.Context, d *model.Debt) error
	Delete(ctx context.Context, id uuid.UUID) error
	RecordPayment(ctx context.Context, p *model.DebtPayment) error
	ListPayments(ctx context.Context, debtID uuid.UUID) ([]model.DebtPayment, error)
	GetTotalDebt(ctx context.Context) (decimal.Decimal, error)
}

// DebtService handles debt tracking, payment splitting, and payoff projections.
type DebtService struct {
	repo DebtRepositoryInterface
	now  func() time.Time
}

// NewDebtService creates a new DebtService with the given repository.
func NewDebtService(repo DebtRepositoryInterface) *DebtService {
	return &DebtService{repo: repo, now: time.Now}
}

type CreateDebtInput struct {
	Name           string          `json:"name"`
	Type           model.DebtType  `json:"type"`
	OriginalAmount decimal.Decimal `json:"originalAmount"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	InterestRate   decimal.Decimal `json:"interestRate"` // APR as percentage (e.g., 5.5 for 5.5%)
	MinimumPayment decimal.Decimal `json:"minimumPayment"`
	DueDay         int             `json:"dueDay"`
	StartDate      datetime.Date   `json:"startDate"`
}

type MakePaymentInput struct {
	Amount decimal.Decimal `json:"amount"`
	Date   datetime.Date   `json:"date"`
}

type InterestCalculatorInput struct {
	Principal    decimal.Decimal `json:"principal"`
	InterestRate decimal.Decimal `json:"interestRate"` // APR as percentage
	TermMonths   int             `json:"termMonths"`
}

type InterestCalculatorResult struct {
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
	TotalPayment   decimal.Decimal `json:"totalPayment"`
	TotalInterest  decimal.Decimal `json:"totalInterest"`
	PayoffDate     datetime.Date   `json:"payoffDate"`
}

// Create creates a new debt record. The current balance defaults to the
// original amount when unset.
func (s *DebtService) Create(ctx context.Context, input CreateDebtInput) (*model.Debt, error) {
	if input.Name == "" {
		return nil, ErrNameRequired
	}
	if input.OriginalAmount.IsNegative() || input.CurrentBalance.IsNegative() {
		return nil, ErrInvalidAmount
	}

	d := &model.Debt{
		Name:           input.Name,
		Type:           input.Type,
		OriginalAmount: input.OriginalAmount,
		CurrentBalance: input.CurrentBalance,
		InterestRate:   input.InterestRate,
		MinimumPayment: input.MinimumPayment,
		DueDay:         input.DueDay,
		StartDate:      input.StartDate,
	}
	if d.Type == "" {
		d.Type = model.DebtTypeOther
	}
	if d.CurrentBalance.IsZero() {
		d.CurrentBalance = d.OriginalAmount
	}
	if d.StartDate.IsZero() {
		d.StartDate = datetime.DateOf(s.now())
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("creating debt: %w", err)
	}
	return d, nil
}

// Get retrieves a debt by its ID.
func (s *DebtService) Get(ctx context.Context, id uuid.UUID) (*model.Debt, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDebtNotFound) {
			return nil, ErrDebtNotFound
		}
		return nil, fmt.Errorf("getting debt %s: %w", id, err)
	}
	return d, nil
}

// List retrieves all debts.
func (s *DebtService) List(ctx context.Context) ([]model.Debt, error) {
	debts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing debts: %w", err)
	}
	return debts, nil
}

// Update replaces a debt's editable fields.
func (s *DebtService) Update(ctx context.Context, id uuid.UUID, input CreateDebtInput) (*model.Debt, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		d.Name = input.Name
	}
	if input.Type != "" {
		d.Type = input.Type
	}
	if !input.OriginalAmount.IsZero() {
		d.OriginalAmount = input.OriginalAmount
	}
	d.CurrentBalance = input.CurrentBalance
	d.InterestRate = input.InterestRate
	d.MinimumPayment = input.MinimumPayment
	if input.DueDay != 0 {
		d.DueDay = input.DueDay
	}
	if !input.StartDate.IsZero() {
		d.StartDate = input.StartDate
	}

	if err := s.repo.Update(ctx, d); err != nil {
		if errors.Is(err, repository.ErrDebtNotFound) {
			return nil, ErrDebtNotFound
		}
		return nil, fmt.Errorf("updating debt %s: %w", id, err)
	}
	return d, nil
}

// Delete removes a debt and its payment history.
func (s *DebtService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrDebtNotFound) {
			return ErrDebtNotFound
		}
		return fmt.Errorf("deleting debt %s: %w", id, err)
	}
	return nil
}

// MakePayment records a payment against a debt, splitting it into interest
// first and principal second at the debt's monthly rate.
func (s *DebtService) MakePayment(ctx context.Context, debtID uuid.UUID, input MakePaymentInput) (*model.DebtPayment, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidPayment
	}

	d, err := s.Get(ctx, debtID)
	if err != nil {
		return nil, err
	}

	interest := monthlyInterest(d.CurrentBalance, d.InterestRate)
	if interest.GreaterThan(input.Amount) {
		interest = input.Amount
	}
	principal := input.Amount.Sub(interest)
	if principal.GreaterThan(d.CurrentBalance) {
		principal = d.CurrentBalance
	}

	p := &model.DebtPayment{
		DebtID:    debtID,
		Amount:    input.Amount,
		Principal: principal,
		Interest:  interest,
		Date:      input.Date,
	}
	if p.Date.IsZero() {
		p.Date = datetime.DateOf(s.now())
	}

	if err := s.repo.RecordPayment(ctx, p); err != nil {
		return nil, fmt.Errorf("recording payment for debt %s: %w", debtID, err)
	}
	return p, nil
}

// ListPayments returns a debt's payment history, newest first.
func (s *DebtService) ListPayments(ctx context.Context, debtID uuid.UUID) ([]model.DebtPayment, error) {
	if _, err := s.Get(ctx, debtID); err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx, debtID)
	if err != nil {
		return nil, fmt.Errorf("listing payments for debt %s: %w", debtID, err)
	}
	return payments, nil
}

// TotalDebt returns the sum of all current balances.
func (s *DebtService) TotalDebt(ctx context.Context) (decimal.Decimal, error) {
	total, err := s.repo.GetTotalDebt(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing debt balances: %w", err)
	}
	return total, nil
}

// PayoffPlan amortizes a debt at the given monthly payment: each month
// accrues balance * APR / 12 in interest, the remainder of the payment
// reduces principal. Returns ErrPaymentTooSmall when the payment never
// clears the first month's interest.
func (s *DebtService) PayoffPlan(ctx context.Context, debtID uuid.UUID, monthlyPayment decimal.Decimal) (*model.PayoffPlan, error) {
	if monthlyPayment.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidPayment
	}

	d, err := s.Get(ctx, debtID)
	if err != nil {
		return nil, err
	}
	if !d.CurrentBalance.IsPositive() {
		return nil, ErrNoBalanceToPayOff
	}
	if monthlyInterest(d.CurrentBalance, d.InterestRate).GreaterThanOrEqual(monthlyPayment) {
		return nil, ErrPaymentTooSmall
	}

	plan := &model.PayoffPlan{
		DebtID:         debtID,
		CurrentBalance: d.CurrentBalance,
		MonthlyPayment: monthlyPayment,
	}

	balance := d.CurrentBalance
	for month := 1; balance.IsPositive() && month <= payoffHorizonMonths; month++ {
		interest := monthlyInterest(balance, d.InterestRate)
		payment := monthlyPayment
		if balance.Add(interest).LessThan(payment) {
			payment = balance.Add(interest)
		}
		principal := payment.Sub(interest)
		balance = balance.Sub(principal)

		plan.TotalInterest = plan.TotalInterest.Add(interest)
		plan.TotalPayment = plan.TotalPayment.Add(payment)
		plan.AmortizationPlan = append(plan.AmortizationPlan, model.AmortizationRow{
			Month:            month,
			Payment:          payment,
			Principal:        principal,
			Interest:         interest,
			RemainingBalance: balance,
		})
	}

	plan.MonthsToPayoff = len(plan.AmortizationPlan)
	plan.PayoffDate = datetime.DateOf(s.now()).AddDate(0, plan.MonthsToPayoff, 0)
	return plan, nil
}

// CalculateInterest answers the what-if question for a hypothetical loan:
// the fixed monthly payment that amortizes the principal over the term, via
// M = P * [r(1+r)^n] / [(1+r)^n - 1].
func (s *DebtService) CalculateInterest(input InterestCalculatorInput) (*InterestCalculatorResult, error) {
	if !input.Principal.IsPositive() || input.TermMonths <= 0 {
		return nil, ErrInvalidAmount
	}

	monthlyRate := input.InterestRate.Div(hundredPercent).Div(decimal.NewFromInt(12))

	r := monthlyRate.InexactFloat64()
	p := input.Principal.InexactFloat64()
	n := float64(input.TermMonths)

	var monthlyPayment float64
	if r == 0 {
		monthlyPayment = p / n
	} else {
		monthlyPayment = p * (r * math.Pow(1+r, n)) / (math.Pow(1+r, n) - 1)
	}

	totalPayment := monthlyPayment * n
	totalInterest := totalPayment - p

	return &InterestCalculatorResult{
		MonthlyPayment: decimal.NewFromFloat(monthlyPayment).Round(2),
		TotalPayment:   decimal.NewFromFloat(totalPayment).Round(2),
		TotalInterest:  decimal.NewFromFloat(totalInterest).Round(2),
		PayoffDate:     datetime.DateOf(s.now()).AddDate(0, input.TermMonths, 0),
	}, nil
}

// monthlyInterest is balance * APR / 12, rounded to cents.
func monthlyInterest(balance, annualRatePercent decimal.Decimal) decimal.Decimal {
	twelve := decimal.NewFromInt(12)
	return balance.Mul(annualRatePercent).Div(hundredPercent).Div(twelve).Round(2)
}

var hundredPercent = decimal.NewFromInt(100)
