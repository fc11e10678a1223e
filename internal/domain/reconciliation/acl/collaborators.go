// Package acl holds the reconciliation context's ports to its external
// collaborators: the upstream document parser, the finance-code mapping
// service, and the item catalog. The interfaces are defined here in the
// domain and implemented in the infrastructure layer.
package acl

import (
	"context"
)

// ParsedLine is one raw line as the upstream parser emits it. Quantities and
// prices are text exactly as they appeared on the document; the import
// adapter owns converting them to cents.
type ParsedLine struct {
	ItemNumber    string `json:"item_number"`
	VendorSKU     string `json:"vendor_sku"`
	Description   string `json:"description"`
	Quantity      string `json:"quantity"`
	UnitPrice     string `json:"unit_price"`
	ExtendedPrice string `json:"extended_price"`
}

// ParsedInvoice is the parser's output for one vendor document.
type ParsedInvoice struct {
	InvoiceID   string       `json:"invoice_id" validate:"required"`
	InvoiceDate string       `json:"invoice_date" validate:"required"`
	Vendor      string       `json:"vendor" validate:"required"`
	Lines       []ParsedLine `json:"lines" validate:"required,min=1"`
	Subtotal    string       `json:"subtotal"`
	GST         string       `json:"gst"`
	QST         string       `json:"qst"`
	Total       string       `json:"total"`
}

// DocumentParser is the port to the upstream parser. Parse failures come
// back as errors; a returned invoice is structurally complete.
type DocumentParser interface {
	Parse(ctx context.Context, document []byte) (*ParsedInvoice, error)
}

// MapLineRequest identifies one invoice line to the mapping service.
type MapLineRequest struct {
	InvoiceID   string `json:"invoice_id"`
	LineID      string `json:"line_id"`
	ItemNumber  string `json:"item_number,omitempty"`
	VendorSKU   string `json:"vendor_sku,omitempty"`
	Description string `json:"description"`
	Actor       string `json:"actor"`
}

// MapLineResult is the mapping service's assignment for one line. The
// finance code is raw text here; the import adapter rejects codes outside
// the known set.
type MapLineResult struct {
	FinanceCode string  `json:"finance_code"`
	Confidence  float64 `json:"confidence"`
	Strategy    string  `json:"strategy"`
	AuditID     string  `json:"audit_id"`
}

// FinanceCodeMapper is the port to the finance-code mapping service.
type FinanceCodeMapper interface {
	MapLine(ctx context.Context, req MapLineRequest) (*MapLineResult, error)
}

// CatalogItemStatus values reported by the item catalog.
const (
	CatalogItemStatusActive   = "ACTIVE"
	CatalogItemStatusInactive = "INACTIVE"
)

// CatalogItem is the catalog's taxability record for one item number.
type CatalogItem struct {
	ItemNumber string `json:"item_number"`
	TaxableGST bool   `json:"taxable_gst"`
	TaxableQST bool   `json:"taxable_qst"`
	Status     string `json:"status"`
}

// IsActive returns true if the catalog considers the item active
func (i *CatalogItem) IsActive() bool {
	return i.Status == CatalogItemStatusActive
}

// ItemCatalog is the port to the item catalog. Lookup returns (nil, nil)
// when the item number is unknown; callers treat a miss as taxable by
// default rather than as an error.
type ItemCatalog interface {
	Lookup(ctx context.Context, itemNumber string) (*CatalogItem, error)
}
