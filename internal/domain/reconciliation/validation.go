package reconciliation

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/procurehub/backend/internal/domain/shared"
	"github.com/procurehub/backend/internal/domain/shared/valueobject"
)

// BalanceStatus classifies an invoice's computed totals against the totals
// the vendor printed.
type BalanceStatus string

const (
	// BalanceStatusBalanced means every delta is within tolerance.
	BalanceStatusBalanced BalanceStatus = "BALANCED"
	// BalanceStatusImbalance means a subtotal or total delta breached
	// tolerance while the tax deltas did not.
	BalanceStatusImbalance BalanceStatus = "IMBALANCE"
	// BalanceStatusTaxError means a GST or QST delta breached tolerance.
	// Tax errors take precedence over subtotal and total breaches.
	BalanceStatusTaxError BalanceStatus = "TAX_ERROR"
)

// BalanceToleranceCents is the per-field tolerance for computed-vs-parsed
// deltas. Vendor documents routinely drift a cent or two from per-line
// rounding.
const BalanceToleranceCents int64 = 2

// ValidationError records one field whose computed amount disagrees with the
// vendor-stated amount beyond tolerance.
type ValidationError struct {
	Field          string `json:"field"`
	ComputedAmount int64  `json:"computed_amount"`
	ParsedAmount   int64  `json:"parsed_amount"`
	DeltaCents     int64  `json:"delta_cents"`
}

// ValidationErrors is a JSON-persisted list of validation errors
type ValidationErrors []ValidationError

// Value implements driver.Valuer for database storage
func (v ValidationErrors) Value() (driver.Value, error) {
	if v == nil {
		v = ValidationErrors{}
	}
	return json.Marshal(v)
}

// Scan implements sql.Scanner for database retrieval
func (v *ValidationErrors) Scan(value any) error {
	if value == nil {
		*v = ValidationErrors{}
		return nil
	}
	var data []byte
	switch raw := value.(type) {
	case []byte:
		data = raw
	case string:
		data = []byte(raw)
	default:
		return fmt.Errorf("cannot scan %T into ValidationErrors", value)
	}
	return json.Unmarshal(data, v)
}

// ValidationResult is one persisted row per invoice validation attempt.
// Rows are append-only: a re-validation supersedes earlier rows rather than
// mutating them, and "current" means the row with the latest ValidatedAt.
type ValidationResult struct {
	shared.BaseEntity
	InvoiceID   string
	InvoiceDate time.Time
	Vendor      string
	Actor       string
	ValidatedAt time.Time

	TotalLines         int
	MappedLines        int
	UnmappedLines      int
	LowConfidenceLines int

	ComputedSubtotalCents int64
	ComputedGSTCents      int64
	ComputedQSTCents      int64
	ComputedTotalCents    int64

	ParsedSubtotalCents int64
	ParsedGSTCents      int64
	ParsedQSTCents      int64
	ParsedTotalCents    int64

	SubtotalDeltaCents int64
	GSTDeltaCents      int64
	QSTDeltaCents      int64
	TotalDeltaCents    int64

	BalanceStatus BalanceStatus
	Errors        ValidationErrors
}

// IsBalanced returns true when the validation classified as BALANCED
func (r *ValidationResult) IsBalanced() bool {
	return r.BalanceStatus == BalanceStatusBalanced
}

// ValidateInvoice sums the processed lines, converts the vendor-stated
// dollar totals to cents, and classifies the invoice.
//
// Classification precedence: a GST or QST delta beyond tolerance always
// yields TAX_ERROR, even when the subtotal or total also breaches; IMBALANCE
// is only reported when the taxes agree. A field error is recorded for every
// breached field regardless of the final status.
func ValidateInvoice(inv *Invoice, actor string, validatedAt time.Time) *ValidationResult {
	result := &ValidationResult{
		BaseEntity:  shared.NewBaseEntity(),
		InvoiceID:   inv.InvoiceID,
		InvoiceDate: inv.InvoiceDate,
		Vendor:      inv.Vendor,
		Actor:       actor,
		ValidatedAt: validatedAt,
		TotalLines:  len(inv.Lines),
		Errors:      ValidationErrors{},
	}

	for i := range inv.Lines {
		line := &inv.Lines[i]
		switch {
		case line.IsMapped():
			result.MappedLines++
		case line.IsUnmapped():
			result.UnmappedLines++
		default:
			result.LowConfidenceLines++
		}
		result.ComputedSubtotalCents += line.ExtendedPriceCents
		result.ComputedGSTCents += line.GSTCents
		result.ComputedQSTCents += line.QSTCents
	}
	result.ComputedTotalCents = result.ComputedSubtotalCents + result.ComputedGSTCents + result.ComputedQSTCents

	result.ParsedSubtotalCents = valueobject.DollarsToCents(inv.ParsedSubtotal)
	result.ParsedGSTCents = valueobject.DollarsToCents(inv.ParsedGST)
	result.ParsedQSTCents = valueobject.DollarsToCents(inv.ParsedQST)
	result.ParsedTotalCents = valueobject.DollarsToCents(inv.ParsedTotal)

	result.SubtotalDeltaCents = result.ComputedSubtotalCents - result.ParsedSubtotalCents
	result.GSTDeltaCents = result.ComputedGSTCents - result.ParsedGSTCents
	result.QSTDeltaCents = result.ComputedQSTCents - result.ParsedQSTCents
	result.TotalDeltaCents = result.ComputedTotalCents - result.ParsedTotalCents

	taxError := false
	amountError := false

	if breached(result.GSTDeltaCents) {
		taxError = true
		result.Errors = append(result.Errors, ValidationError{
			Field:          "gst",
			ComputedAmount: result.ComputedGSTCents,
			ParsedAmount:   result.ParsedGSTCents,
			DeltaCents:     result.GSTDeltaCents,
		})
	}
	if breached(result.QSTDeltaCents) {
		taxError = true
		result.Errors = append(result.Errors, ValidationError{
			Field:          "qst",
			ComputedAmount: result.ComputedQSTCents,
			ParsedAmount:   result.ParsedQSTCents,
			DeltaCents:     result.QSTDeltaCents,
		})
	}
	if breached(result.SubtotalDeltaCents) {
		amountError = true
		result.Errors = append(result.Errors, ValidationError{
			Field:          "subtotal",
			ComputedAmount: result.ComputedSubtotalCents,
			ParsedAmount:   result.ParsedSubtotalCents,
			DeltaCents:     result.SubtotalDeltaCents,
		})
	}
	if breached(result.TotalDeltaCents) {
		amountError = true
		result.Errors = append(result.Errors, ValidationError{
			Field:          "total",
			ComputedAmount: result.ComputedTotalCents,
			ParsedAmount:   result.ParsedTotalCents,
			DeltaCents:     result.TotalDeltaCents,
		})
	}

	switch {
	case taxError:
		result.BalanceStatus = BalanceStatusTaxError
	case amountError:
		result.BalanceStatus = BalanceStatusImbalance
	default:
		result.BalanceStatus = BalanceStatusBalanced
	}

	return result
}

func breached(delta int64) bool {
	if delta < 0 {
		delta = -delta
	}
	return delta > BalanceToleranceCents
}
