package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/google/uuid"
)

// ExportService renders obligation data as CSV downloads.
type ExportService struct {
	obligations ObligationRepositoryInterface
	cycles      CycleRepositoryInterface
	ledger      LedgerRepositoryInterface
}

// NewExportService creates a new ExportService with the given repositories.
func NewExportService(
	obligations ObligationRepositoryInterface,
	cycles CycleRepositoryInterface,
	ledger LedgerRepositoryInterface,
) *ExportService {
	return &ExportService{obligations: obligations, cycles: cycles, ledger: ledger}
}

// ExportEntriesCSV exports one obligation's ledger entries to CSV.
func (s *ExportService) ExportEntriesCSV(ctx context.Context, obligationID uuid.UUID) ([]byte, error) {
	o, err := s.obligations.GetByID(ctx, obligationID)
	if err != nil {
		return nil, fmt.Errorf("fetching obligation for export: %w", err)
	}
	entries, err := s.ledger.ListForObligation(ctx, obligationID)
	if err != nil {
		return nil, fmt.Errorf("fetching entries for export: %w", err)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"Date", "Obligation", "Amount", "Notes"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}

	for _, e := range entries {
		notes := ""
		if e.Notes != nil {
			notes = *e.Notes
		}
		row := []string{
			e.EventDate.Format("2006-01-02"),
			o.Name,
			e.Amount.String(),
			notes,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("writing CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flushing CSV writer: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportCyclesCSV exports an obligation's cycle history to CSV.
func (s *ExportService) ExportCyclesCSV(ctx context.Context, obligationID uuid.UUID) ([]byte, error) {
	o, err := s.obligations.GetByID(ctx, obligationID)
	if err != nil {
		return nil, fmt.Errorf("fetching obligation for export: %w", err)
	}
	cycles, err := s.cycles.List(ctx, obligationID)
	if err != nil {
		return nil, fmt.Errorf("fetching cycles for export: %w", err)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"Obligation", "Start", "End", "Planned", "Applied", "Carryover", "Paid", "Closed"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}

	for _, c := range cycles {
		row := []string{
			o.Name,
			c.StartDate.String(),
			c.EndDate.String(),
			c.PlannedAmount.String(),
			c.TotalApplied.String(),
			c.CarryoverAmount.String(),
			fmt.Sprintf("%t", c.IsPaid),
			fmt.Sprintf("%t", c.IsClosed),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("writing CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flushing CSV writer: %w", err)
	}

	return buf.Bytes(), nil
}
