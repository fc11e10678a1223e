package reconciliation

import (
	"time"

	"github.com/procurehub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MinMappingConfidence is the confidence threshold at or above which a
// finance-code assignment counts as mapped.
const MinMappingConfidence = 0.80

// InvoiceLine is one purchased line item after mapping and tax computation.
// Every monetary field is integer cents; quantity is the only decimal.
type InvoiceLine struct {
	LineID      string
	LineNumber  int
	ItemNumber  string // empty when the vendor did not reference a catalog item
	VendorSKU   string
	Description string

	Quantity           decimal.Decimal
	UnitPriceCents     int64
	ExtendedPriceCents int64

	FinanceCode       FinanceCode
	MappingConfidence float64
	MappingStrategy   string
	MappingAuditID    string

	TaxableGST bool
	TaxableQST bool
	GSTCents   int64
	QSTCents   int64
}

// IsMapped returns true if the line's mapping confidence meets the threshold
func (l *InvoiceLine) IsMapped() bool {
	return l.MappingConfidence >= MinMappingConfidence
}

// IsUnmapped returns true if the mapping service produced no usable signal
func (l *InvoiceLine) IsUnmapped() bool {
	return l.MappingConfidence == 0
}

// IsLowConfidence returns true for assignments below the threshold that
// still carry some signal
func (l *InvoiceLine) IsLowConfidence() bool {
	return l.MappingConfidence > 0 && l.MappingConfidence < MinMappingConfidence
}

// Invoice is a vendor document with its processed lines and the totals the
// vendor printed on it. Parsed totals stay as dollar text until validation
// converts them to cents.
type Invoice struct {
	InvoiceID   string
	InvoiceDate time.Time
	Vendor      string
	Lines       []InvoiceLine

	ParsedSubtotal string
	ParsedGST      string
	ParsedQST      string
	ParsedTotal    string
}

// LineAssignment is the persisted record of one line's finance-code
// assignment from an import or remap. Period summaries and catalog
// reconciliation read these; re-importing an invoice replaces its
// assignments wholesale.
type LineAssignment struct {
	shared.BaseEntity
	InvoiceID   string
	LineID      string
	LineNumber  int
	ItemNumber  string
	VendorSKU   string
	Description string

	FinanceCode FinanceCode
	Confidence  float64
	Strategy    string
	AuditID     string
	Actor       string

	ExtendedPriceCents int64
	GSTCents           int64
	QSTCents           int64

	MappedAt time.Time
}

// NewLineAssignment builds the persisted assignment record for a processed line
func NewLineAssignment(invoiceID string, line InvoiceLine, actor string, mappedAt time.Time) LineAssignment {
	return LineAssignment{
		BaseEntity:         shared.NewBaseEntity(),
		InvoiceID:          invoiceID,
		LineID:             line.LineID,
		LineNumber:         line.LineNumber,
		ItemNumber:         line.ItemNumber,
		VendorSKU:          line.VendorSKU,
		Description:        line.Description,
		FinanceCode:        line.FinanceCode,
		Confidence:         line.MappingConfidence,
		Strategy:           line.MappingStrategy,
		AuditID:            line.MappingAuditID,
		Actor:              actor,
		ExtendedPriceCents: line.ExtendedPriceCents,
		GSTCents:           line.GSTCents,
		QSTCents:           line.QSTCents,
		MappedAt:           mappedAt,
	}
}
