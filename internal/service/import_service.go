package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cashflow/ledgerd/internal/model"
	"github.com/cashflow/ledgerd/internal/repository"
	"github.com/cashflow/ledgerd/pkg/datetime"
)

// Service-level errors for statement imports.
var (
	ErrInvalidStatement = errors.New("could not parse OFX statement")
	ErrImportNotFound   = errors.New("imported transaction not found")
	ErrAlreadyApplied   = errors.New("imported transaction already applied")
)

// ImportRepositoryInterface defines the contract for imported transaction
// data access.
type ImportRepositoryInterface interface {
	Create(ctx context.Context, t *model.ImportedTransaction) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.ImportedTransaction, error)
	List(ctx context.Context) ([]model.ImportedTransaction, error)
	ListUnapplied(ctx context.Context) ([]model.ImportedTransaction, error)
	MarkApplied(ctx context.Context, id, obligationID, entryID uuid.UUID) error
}

// EntryRecorder applies an imported transaction to an obligation's ledger.
type EntryRecorder interface {
	RecordEntry(ctx context.Context, input RecordEntryInput) (*model.LedgerEntry, error)
}

// ImportService parses OFX/QFX bank statements, stores their transactions
// with FITID-based dedupe, and applies them to obligations.
type ImportService struct {
	repo   ImportRepositoryInterface
	engine EntryRecorder
}

// NewImportService creates a new ImportService.
func NewImportService(repo ImportRepositoryInterface, engine EntryRecorder) *ImportService {
	return &ImportService{repo: repo, engine: engine}
}

// ImportResult summarizes one statement upload.
type ImportResult struct {
	Imported     int                         `json:"imported"`
	Skipped      int                         `json:"skipped"`
	Transactions []model.ImportedTransaction `json:"transactions"`
}

// ParseStatement reads an OFX or QFX document and stores every transaction
// it contains. Transactions whose FITID was seen in an earlier upload are
// counted as skipped, so re-uploading a statement is harmless.
func (s *ImportService) ParseStatement(ctx context.Context, r io.Reader) (*ImportResult, error) {
	resp, err := ofxgo.ParseResponse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatement, err)
	}

	result := &ImportResult{}
	for _, txn := range statementTransactions(resp) {
		amount, err := decimal.NewFromString(txn.TrnAmt.String())
		if err != nil {
			continue
		}

		payee := string(txn.Name)
		if payee == "" {
			payee = string(txn.Memo)
		}
		if payee == "" {
			payee = "Unknown"
		}

		t := &model.ImportedTransaction{
			FitID:           string(txn.FiTID),
			TransactionType: txn.TrnType.String(),
			DatePosted:      datetime.DateOf(txn.DtPosted.Time),
			Amount:          amount.Abs(),
			Payee:           payee,
			IsIncome:        txn.TrnType == ofxgo.TrnTypeCredit,
		}
		if memo := string(txn.Memo); memo != "" {
			t.Memo = &memo
		}
		if check := string(txn.CheckNum); check != "" {
			t.CheckNumber = &check
		}

		inserted, err := s.repo.Create(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("storing imported transaction %s: %w", t.FitID, err)
		}
		if !inserted {
			result.Skipped++
			continue
		}
		result.Imported++
		result.Transactions = append(result.Transactions, *t)
	}

	return result, nil
}

// List returns all imported transactions, newest first.
func (s *ImportService) List(ctx context.Context) ([]model.ImportedTransaction, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing imported transactions: %w", err)
	}
	return items, nil
}

// ListUnapplied returns imported spending not yet recorded against an
// obligation.
func (s *ImportService) ListUnapplied(ctx context.Context) ([]model.ImportedTransaction, error) {
	items, err := s.repo.ListUnapplied(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing unapplied transactions: %w", err)
	}
	return items, nil
}

// Apply records an imported transaction as a ledger entry on the given
// obligation and links the two.
func (s *ImportService) Apply(ctx context.Context, importID, obligationID uuid.UUID) (*model.LedgerEntry, error) {
	t, err := s.repo.GetByID(ctx, importID)
	if err != nil {
		if errors.Is(err, repository.ErrImportNotFound) {
			return nil, ErrImportNotFound
		}
		return nil, fmt.Errorf("getting imported transaction %s: %w", importID, err)
	}
	if t.LedgerEntryID != nil {
		return nil, ErrAlreadyApplied
	}

	notes := t.Payee
	if t.Memo != nil && *t.Memo != t.Payee {
		notes = fmt.Sprintf("%s - %s", t.Payee, *t.Memo)
	}

	entry, err := s.engine.RecordEntry(ctx, RecordEntryInput{
		ObligationID: obligationID,
		Amount:       t.Amount,
		EventDate:    t.DatePosted.Time,
		Notes:        &notes,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkApplied(ctx, importID, obligationID, entry.ID); err != nil {
		return nil, fmt.Errorf("linking imported transaction %s: %w", importID, err)
	}
	return entry, nil
}

// statementTransactions flattens the bank and credit card statements of a
// response into one transaction list.
func statementTransactions(resp *ofxgo.Response) []ofxgo.Transaction {
	var out []ofxgo.Transaction
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			out = append(out, stmt.BankTranList.Transactions...)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			out = append(out, stmt.BankTranList.Transactions...)
		}
	}
	return out
}
