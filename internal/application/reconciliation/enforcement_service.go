package reconciliation

import (
	"context"
	"fmt"
	"time"

	recon "github.com/procurehub/backend/internal/domain/reconciliation"
	"github.com/procurehub/backend/internal/domain/reconciliation/acl"
	"github.com/procurehub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RemapError records one invoice that could not be remapped. The rest of the
// bulk operation is unaffected.
type RemapError struct {
	InvoiceID string `json:"invoice_id"`
	Error     string `json:"error"`
}

// BulkRemapResult is the outcome of a bulk remap run.
type BulkRemapResult struct {
	TotalInvoices    int          `json:"total_invoices"`
	RemappedInvoices int          `json:"remapped_invoices"`
	RemappedLines    int          `json:"remapped_lines"`
	ChangedLines     int          `json:"changed_lines"`
	Errors           []RemapError `json:"errors,omitempty"`
}

// CatalogReconciliationLine is one invoice line checked against the item
// catalog.
type CatalogReconciliationLine struct {
	LineID             string            `json:"line_id"`
	LineNumber         int               `json:"line_number"`
	ItemNumber         string            `json:"item_number,omitempty"`
	Description        string            `json:"description"`
	FinanceCode        recon.FinanceCode `json:"finance_code"`
	NeedsItemBankEntry bool              `json:"needs_item_bank_entry"`
	Reason             string            `json:"reason,omitempty"`
}

// CatalogReconciliationResult reports which of an invoice's lines reference
// items the catalog does not know about.
type CatalogReconciliationResult struct {
	InvoiceID      string                      `json:"invoice_id"`
	TotalLines     int                         `json:"total_lines"`
	MissingEntries int                         `json:"missing_entries"`
	Lines          []CatalogReconciliationLine `json:"lines"`
}

// EnforcementService owns period aggregation, period locking, bulk remapping
// and catalog reconciliation over already-imported invoices.
type EnforcementService struct {
	validations recon.ValidationResultRepository
	assignments recon.LineAssignmentRepository
	verified    recon.VerifiedPeriodRepository
	mapper      acl.FinanceCodeMapper
	catalog     acl.ItemCatalog
	logger      *zap.Logger
}

// NewEnforcementService creates a new EnforcementService
func NewEnforcementService(
	validations recon.ValidationResultRepository,
	assignments recon.LineAssignmentRepository,
	verified recon.VerifiedPeriodRepository,
	mapper acl.FinanceCodeMapper,
	catalog acl.ItemCatalog,
	logger *zap.Logger,
) *EnforcementService {
	return &EnforcementService{
		validations: validations,
		assignments: assignments,
		verified:    verified,
		mapper:      mapper,
		catalog:     catalog,
		logger:      logger,
	}
}

// GeneratePeriodSummary aggregates every balanced invoice validated in
// [start, end) into per-finance-code totals. An invoice's subtotal and taxes
// are allocated to each code in proportion to how many of its lines carry
// that code; the summary carries a zero-filled entry for every code in the
// fixed set.
func (s *EnforcementService) GeneratePeriodSummary(ctx context.Context, period string, start, end time.Time) (*recon.PeriodSummary, error) {
	results, err := s.validations.FindCurrentBalancedInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load balanced validations for period %s: %w", period, err)
	}

	codes := recon.AllFinanceCodes()
	index := make(map[recon.FinanceCode]*recon.FinanceCodeTotals, len(codes))
	totals := make([]recon.FinanceCodeTotals, len(codes))
	for i, code := range codes {
		totals[i] = recon.FinanceCodeTotals{FinanceCode: code}
		index[code] = &totals[i]
	}

	summary := &recon.PeriodSummary{
		Period:      period,
		Start:       start,
		End:         end,
		GeneratedAt: time.Now(),
	}

	for _, result := range results {
		assignments, err := s.assignments.FindByInvoice(ctx, result.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("failed to load assignments for invoice %s: %w", result.InvoiceID, err)
		}
		if len(assignments) == 0 {
			s.logger.Warn("balanced invoice has no line assignments, skipping",
				zap.String("invoice_id", result.InvoiceID))
			continue
		}

		lineCounts := make(map[recon.FinanceCode]int, len(assignments))
		for _, a := range assignments {
			lineCounts[a.FinanceCode]++
		}

		summary.InvoiceCount++
		summary.LineCount += len(assignments)

		for code, count := range lineCounts {
			entry, ok := index[code]
			if !ok {
				// Codes outside the fixed set cannot be persisted, so this
				// only fires on corrupted rows.
				s.logger.Warn("assignment carries unknown finance code",
					zap.String("invoice_id", result.InvoiceID),
					zap.String("finance_code", string(code)))
				continue
			}
			entry.AmountCents += recon.AllocateByLineCount(result.ComputedSubtotalCents, count, len(assignments))
			entry.GSTCents += recon.AllocateByLineCount(result.ComputedGSTCents, count, len(assignments))
			entry.QSTCents += recon.AllocateByLineCount(result.ComputedQSTCents, count, len(assignments))
			entry.InvoiceCount++
			entry.LineCount += count
		}
	}

	summary.Totals = totals
	return summary, nil
}

// VerifyAndLockPeriod regenerates the period summary and persists it as the
// period's verified totals, replacing any previous lock wholesale. Two
// concurrent locks race; the last writer wins and there is no history of the
// loser.
func (s *EnforcementService) VerifyAndLockPeriod(ctx context.Context, period string, start, end time.Time, verifiedBy string) ([]recon.VerifiedPeriodTotals, error) {
	if verifiedBy == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "verified_by is required to lock a period")
	}

	summary, err := s.GeneratePeriodSummary(ctx, period, start, end)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rows := make([]recon.VerifiedPeriodTotals, 0, len(summary.Totals))
	for _, t := range summary.Totals {
		rows = append(rows, recon.VerifiedPeriodTotals{
			BaseEntity:   shared.NewBaseEntity(),
			Period:       period,
			FinanceCode:  t.FinanceCode,
			AmountCents:  t.AmountCents,
			GSTCents:     t.GSTCents,
			QSTCents:     t.QSTCents,
			InvoiceCount: t.InvoiceCount,
			LineCount:    t.LineCount,
			VerifiedBy:   verifiedBy,
			VerifiedAt:   now,
		})
	}

	if err := s.verified.ReplaceForPeriod(ctx, period, rows); err != nil {
		return nil, fmt.Errorf("failed to lock period %s: %w", period, err)
	}

	s.logger.Info("period locked",
		zap.String("period", period),
		zap.String("verified_by", verifiedBy),
		zap.Int("invoice_count", summary.InvoiceCount),
	)
	return rows, nil
}

// GetCurrentValidation returns an invoice's latest validation result.
func (s *EnforcementService) GetCurrentValidation(ctx context.Context, invoiceID string) (*recon.ValidationResult, error) {
	return s.validations.FindCurrentByInvoice(ctx, invoiceID)
}

// GetVerifiedPeriodTotals returns the locked totals for a period.
func (s *EnforcementService) GetVerifiedPeriodTotals(ctx context.Context, period string) ([]recon.VerifiedPeriodTotals, error) {
	return s.verified.FindByPeriod(ctx, period)
}

// ListVerifiedPeriods lists every locked period, most recent first.
func (s *EnforcementService) ListVerifiedPeriods(ctx context.Context) ([]recon.PeriodLock, error) {
	return s.verified.ListPeriods(ctx)
}

// BulkRemapInvoices re-runs the mapping service over every invoice with
// mapping activity in [start, end) and replaces each invoice's assignments
// with the fresh results. Invoices are isolated: one failure is recorded and
// the run moves on without touching that invoice's existing assignments.
func (s *EnforcementService) BulkRemapInvoices(ctx context.Context, start, end time.Time, actor string) (*BulkRemapResult, error) {
	invoiceIDs, err := s.assignments.FindInvoiceIDsWithActivity(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoices with mapping activity: %w", err)
	}

	result := &BulkRemapResult{TotalInvoices: len(invoiceIDs)}

	for _, invoiceID := range invoiceIDs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		remapped, changed, err := s.remapInvoice(ctx, invoiceID, actor)
		if err != nil {
			s.logger.Warn("bulk remap: invoice failed",
				zap.String("invoice_id", invoiceID),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, RemapError{InvoiceID: invoiceID, Error: err.Error()})
			continue
		}
		result.RemappedInvoices++
		result.RemappedLines += remapped
		result.ChangedLines += changed
	}

	return result, nil
}

// remapInvoice rebuilds one invoice's assignments from fresh mapping calls.
// Any line failure abandons the invoice with its existing rows intact.
func (s *EnforcementService) remapInvoice(ctx context.Context, invoiceID, actor string) (remapped, changed int, err error) {
	assignments, err := s.assignments.FindByInvoice(ctx, invoiceID)
	if err != nil {
		return 0, 0, err
	}

	now := time.Now()
	updated := make([]recon.LineAssignment, 0, len(assignments))
	for _, a := range assignments {
		mapping, err := s.mapper.MapLine(ctx, acl.MapLineRequest{
			InvoiceID:   invoiceID,
			LineID:      a.LineID,
			ItemNumber:  a.ItemNumber,
			VendorSKU:   a.VendorSKU,
			Description: a.Description,
			Actor:       actor,
		})
		if err != nil {
			return 0, 0, fmt.Errorf("line %d: %w", a.LineNumber, err)
		}
		code, err := recon.ParseFinanceCode(mapping.FinanceCode)
		if err != nil {
			return 0, 0, fmt.Errorf("line %d: %w", a.LineNumber, err)
		}

		if code != a.FinanceCode {
			changed++
		}
		a.FinanceCode = code
		a.Confidence = mapping.Confidence
		a.Strategy = mapping.Strategy
		a.AuditID = mapping.AuditID
		a.Actor = actor
		a.MappedAt = now
		updated = append(updated, a)
	}

	if err := s.assignments.ReplaceForInvoice(ctx, invoiceID, updated); err != nil {
		return 0, 0, err
	}
	return len(updated), changed, nil
}

// ReconcileInvoiceAgainstItemBank checks each of an invoice's lines against
// the item catalog and flags lines whose item number is missing or inactive.
// Lines without an item number are reported but never flagged.
func (s *EnforcementService) ReconcileInvoiceAgainstItemBank(ctx context.Context, invoiceID string) (*CatalogReconciliationResult, error) {
	assignments, err := s.assignments.FindByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("invoice %s has no line assignments", invoiceID))
	}

	result := &CatalogReconciliationResult{
		InvoiceID:  invoiceID,
		TotalLines: len(assignments),
		Lines:      make([]CatalogReconciliationLine, 0, len(assignments)),
	}

	for _, a := range assignments {
		line := CatalogReconciliationLine{
			LineID:      a.LineID,
			LineNumber:  a.LineNumber,
			ItemNumber:  a.ItemNumber,
			Description: a.Description,
			FinanceCode: a.FinanceCode,
		}

		if a.ItemNumber != "" {
			item, err := s.catalog.Lookup(ctx, a.ItemNumber)
			if err != nil {
				return nil, fmt.Errorf("catalog lookup for item %s: %w", a.ItemNumber, err)
			}
			switch {
			case item == nil:
				line.NeedsItemBankEntry = true
				line.Reason = "item not in catalog"
			case !item.IsActive():
				line.NeedsItemBankEntry = true
				line.Reason = "item inactive in catalog"
			}
		}

		if line.NeedsItemBankEntry {
			result.MissingEntries++
		}
		result.Lines = append(result.Lines, line)
	}

	return result, nil
}
