package reconciliation

import (
	"context"
	"fmt"
	"os"
	"time"

	recon "github.com/procurehub/backend/internal/domain/reconciliation"
	"github.com/procurehub/backend/internal/domain/reconciliation/acl"
	"github.com/procurehub/backend/internal/domain/shared"
	"github.com/procurehub/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// invoiceDateLayouts are the date formats upstream parsers are known to emit.
var invoiceDateLayouts = []string{"2006-01-02", time.RFC3339, "01/02/2006"}

// ImportOptions controls one invoice import.
type ImportOptions struct {
	// Actor is the user or system performing the import; it is forwarded to
	// the mapping service and stamped on persisted rows.
	Actor string
	// SkipValidation persists line assignments without computing or
	// persisting a ValidationResult.
	SkipValidation bool
}

// ImportResult is the outcome of one successful invoice import.
type ImportResult struct {
	Success            bool                     `json:"success"`
	InvoiceID          string                   `json:"invoice_id"`
	TotalLines         int                      `json:"total_lines"`
	MappedLines        int                      `json:"mapped_lines"`
	LowConfidenceLines int                      `json:"low_confidence_lines"`
	Lines              []recon.InvoiceLine     `json:"lines"`
	Validation         *recon.ValidationResult `json:"validation,omitempty"`
}

// BatchImportError records one failed file in a batch without aborting the
// rest of the batch.
type BatchImportError struct {
	Path      string `json:"path"`
	InvoiceID string `json:"invoice_id,omitempty"`
	Error     string `json:"error"`
}

// BatchImportResult is the outcome of a batch import. Failures are isolated
// per file; successes are never rolled back by a later failure.
type BatchImportResult struct {
	TotalFiles int                `json:"total_files"`
	Imported   int                `json:"imported"`
	Results    []*ImportResult    `json:"results"`
	Errors     []BatchImportError `json:"errors,omitempty"`
}

// ImportService turns one raw vendor document into priced, mapped, taxed
// invoice lines and a persisted validation verdict. Lines are processed
// sequentially in document order, and a failure on any line aborts the
// whole invoice: nothing is persisted unless every line succeeds.
type ImportService struct {
	parser      acl.DocumentParser
	mapper      acl.FinanceCodeMapper
	catalog     acl.ItemCatalog
	validations recon.ValidationResultRepository
	assignments recon.LineAssignmentRepository
	logger      *zap.Logger
}

// NewImportService creates a new ImportService
func NewImportService(
	parser acl.DocumentParser,
	mapper acl.FinanceCodeMapper,
	catalog acl.ItemCatalog,
	validations recon.ValidationResultRepository,
	assignments recon.LineAssignmentRepository,
	logger *zap.Logger,
) *ImportService {
	return &ImportService{
		parser:      parser,
		mapper:      mapper,
		catalog:     catalog,
		validations: validations,
		assignments: assignments,
		logger:      logger,
	}
}

// ImportInvoice imports one raw vendor document. A parser failure or any
// single line failure aborts the import with nothing persisted; the error
// for a line failure names the failing line number.
func (s *ImportService) ImportInvoice(ctx context.Context, document []byte, opts ImportOptions) (*ImportResult, error) {
	parsed, err := s.parser.Parse(ctx, document)
	if err != nil {
		s.logger.Warn("document parse failed", zap.Error(err))
		return nil, shared.NewDomainError("PARSE_FAILED", fmt.Sprintf("document could not be parsed: %v", err))
	}

	invoice := &recon.Invoice{
		InvoiceID:      parsed.InvoiceID,
		InvoiceDate:    s.parseInvoiceDate(parsed.InvoiceID, parsed.InvoiceDate),
		Vendor:         parsed.Vendor,
		Lines:          make([]recon.InvoiceLine, 0, len(parsed.Lines)),
		ParsedSubtotal: parsed.Subtotal,
		ParsedGST:      parsed.GST,
		ParsedQST:      parsed.QST,
		ParsedTotal:    parsed.Total,
	}

	// Lines are processed strictly in document order; everything is built in
	// memory and only persisted once the last line has succeeded.
	for i, raw := range parsed.Lines {
		lineNumber := i + 1
		line, err := s.processLine(ctx, parsed.InvoiceID, lineNumber, raw, opts.Actor)
		if err != nil {
			return nil, shared.NewDomainError("LINE_IMPORT_FAILED",
				fmt.Sprintf("invoice %s line %d: %v", parsed.InvoiceID, lineNumber, err))
		}
		invoice.Lines = append(invoice.Lines, *line)
	}

	now := time.Now()

	assignments := make([]recon.LineAssignment, 0, len(invoice.Lines))
	for _, line := range invoice.Lines {
		assignments = append(assignments, recon.NewLineAssignment(invoice.InvoiceID, line, opts.Actor, now))
	}
	if err := s.assignments.ReplaceForInvoice(ctx, invoice.InvoiceID, assignments); err != nil {
		return nil, fmt.Errorf("failed to persist line assignments for invoice %s: %w", invoice.InvoiceID, err)
	}

	result := &ImportResult{
		Success:    true,
		InvoiceID:  invoice.InvoiceID,
		TotalLines: len(invoice.Lines),
		Lines:      invoice.Lines,
	}
	for i := range invoice.Lines {
		if invoice.Lines[i].IsMapped() {
			result.MappedLines++
		} else if invoice.Lines[i].IsLowConfidence() {
			result.LowConfidenceLines++
		}
	}

	if !opts.SkipValidation {
		validation := recon.ValidateInvoice(invoice, opts.Actor, now)
		if err := s.validations.Save(ctx, validation); err != nil {
			return nil, fmt.Errorf("failed to persist validation result for invoice %s: %w", invoice.InvoiceID, err)
		}
		result.Validation = validation

		s.logger.Info("invoice validated",
			zap.String("invoice_id", invoice.InvoiceID),
			zap.String("balance_status", string(validation.BalanceStatus)),
			zap.Int64("total_delta_cents", validation.TotalDeltaCents),
		)
	}

	return result, nil
}

// BatchImport imports the documents at the given paths sequentially. Each
// file is isolated: a failure is recorded and the batch moves on, and
// already-imported invoices stay imported.
func (s *ImportService) BatchImport(ctx context.Context, paths []string, opts ImportOptions) (*BatchImportResult, error) {
	batch := &BatchImportResult{
		TotalFiles: len(paths),
		Results:    make([]*ImportResult, 0, len(paths)),
	}

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		document, err := os.ReadFile(path)
		if err != nil {
			batch.Errors = append(batch.Errors, BatchImportError{Path: path, Error: err.Error()})
			continue
		}

		result, err := s.ImportInvoice(ctx, document, opts)
		if err != nil {
			s.logger.Warn("batch import: invoice failed",
				zap.String("path", path),
				zap.Error(err),
			)
			batch.Errors = append(batch.Errors, BatchImportError{Path: path, Error: err.Error()})
			continue
		}

		batch.Imported++
		batch.Results = append(batch.Results, result)
	}

	return batch, nil
}

// processLine maps, prices and taxes one raw line. Any error aborts the
// whole invoice import.
func (s *ImportService) processLine(ctx context.Context, invoiceID string, lineNumber int, raw acl.ParsedLine, actor string) (*recon.InvoiceLine, error) {
	lineID := fmt.Sprintf("%s-%d", invoiceID, lineNumber)

	mapping, err := s.mapper.MapLine(ctx, acl.MapLineRequest{
		InvoiceID:   invoiceID,
		LineID:      lineID,
		ItemNumber:  raw.ItemNumber,
		VendorSKU:   raw.VendorSKU,
		Description: raw.Description,
		Actor:       actor,
	})
	if err != nil {
		return nil, fmt.Errorf("finance-code mapping failed: %w", err)
	}
	financeCode, err := recon.ParseFinanceCode(mapping.FinanceCode)
	if err != nil {
		return nil, err
	}

	quantity, err := valueobject.ParseQuantityStrict(raw.Quantity)
	if err != nil {
		s.logger.Warn("unparsable quantity defaulted to zero",
			zap.String("invoice_id", invoiceID),
			zap.Int("line_number", lineNumber),
			zap.String("quantity", raw.Quantity),
		)
		quantity = valueobject.ParseQuantity(raw.Quantity)
	}

	unitPriceCents, err := valueobject.ParseDollars(raw.UnitPrice)
	if err != nil {
		s.logger.Warn("unparsable unit price defaulted to zero",
			zap.String("invoice_id", invoiceID),
			zap.Int("line_number", lineNumber),
			zap.String("unit_price", raw.UnitPrice),
		)
		unitPriceCents = 0
	}

	extendedPriceCents, err := valueobject.ParseDollars(raw.ExtendedPrice)
	if err != nil {
		// No stated extended price: derive from quantity x unit price.
		extendedPriceCents = valueobject.ExtendedPriceCents(quantity, unitPriceCents)
	}

	taxableGST, taxableQST, err := s.resolveTaxability(ctx, raw.ItemNumber)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup failed: %w", err)
	}

	line := &recon.InvoiceLine{
		LineID:             lineID,
		LineNumber:         lineNumber,
		ItemNumber:         raw.ItemNumber,
		VendorSKU:          raw.VendorSKU,
		Description:        raw.Description,
		Quantity:           quantity,
		UnitPriceCents:     unitPriceCents,
		ExtendedPriceCents: extendedPriceCents,
		FinanceCode:        financeCode,
		MappingConfidence:  mapping.Confidence,
		MappingStrategy:    mapping.Strategy,
		MappingAuditID:     mapping.AuditID,
		TaxableGST:         taxableGST,
		TaxableQST:         taxableQST,
	}
	if taxableGST {
		line.GSTCents = valueobject.CalculateTax(extendedPriceCents, valueobject.GSTRateNumerator)
	}
	if taxableQST {
		line.QSTCents = valueobject.CalculateTax(extendedPriceCents, valueobject.QSTRateNumerator)
	}
	return line, nil
}

// resolveTaxability looks the item up in the catalog. A missing item number,
// an unknown item, or an inactive item all default to taxable on both
// regimes; only an infrastructure failure is an error.
func (s *ImportService) resolveTaxability(ctx context.Context, itemNumber string) (gst, qst bool, err error) {
	if itemNumber == "" {
		return true, true, nil
	}
	item, err := s.catalog.Lookup(ctx, itemNumber)
	if err != nil {
		return false, false, err
	}
	if item == nil || !item.IsActive() {
		return true, true, nil
	}
	return item.TaxableGST, item.TaxableQST, nil
}

func (s *ImportService) parseInvoiceDate(invoiceID, text string) time.Time {
	for _, layout := range invoiceDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t
		}
	}
	s.logger.Warn("unparsable invoice date",
		zap.String("invoice_id", invoiceID),
		zap.String("invoice_date", text),
	)
	return time.Time{}
}
