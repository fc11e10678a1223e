package models

import (
	"time"

	"github.com/procurehub/backend/internal/domain/reconciliation"
)

// ValidationResultModel is the persistence model for one invoice validation
// attempt. The table is append-only.
type ValidationResultModel struct {
	BaseModel
	InvoiceID   string    `gorm:"type:varchar(100);not null;index:idx_validation_invoice_validated,priority:1"`
	InvoiceDate time.Time `gorm:"index"`
	Vendor      string    `gorm:"type:varchar(200)"`
	Actor       string    `gorm:"type:varchar(100)"`
	ValidatedAt time.Time `gorm:"not null;index:idx_validation_invoice_validated,priority:2"`

	TotalLines         int `gorm:"not null"`
	MappedLines        int `gorm:"not null"`
	UnmappedLines      int `gorm:"not null"`
	LowConfidenceLines int `gorm:"not null"`

	ComputedSubtotalCents int64 `gorm:"not null"`
	ComputedGSTCents      int64 `gorm:"not null"`
	ComputedQSTCents      int64 `gorm:"not null"`
	ComputedTotalCents    int64 `gorm:"not null"`

	ParsedSubtotalCents int64 `gorm:"not null"`
	ParsedGSTCents      int64 `gorm:"not null"`
	ParsedQSTCents      int64 `gorm:"not null"`
	ParsedTotalCents    int64 `gorm:"not null"`

	SubtotalDeltaCents int64 `gorm:"not null"`
	GSTDeltaCents      int64 `gorm:"not null"`
	QSTDeltaCents      int64 `gorm:"not null"`
	TotalDeltaCents    int64 `gorm:"not null"`

	BalanceStatus reconciliation.BalanceStatus    `gorm:"type:varchar(20);not null;index"`
	Errors        reconciliation.ValidationErrors `gorm:"type:jsonb;default:'[]'"`
}

// TableName returns the table name for GORM
func (ValidationResultModel) TableName() string {
	return "validation_results"
}

// ToDomain converts the persistence model to a domain ValidationResult
func (m *ValidationResultModel) ToDomain() *reconciliation.ValidationResult {
	return &reconciliation.ValidationResult{
		BaseEntity:            m.ToBaseEntity(),
		InvoiceID:             m.InvoiceID,
		InvoiceDate:           m.InvoiceDate,
		Vendor:                m.Vendor,
		Actor:                 m.Actor,
		ValidatedAt:           m.ValidatedAt,
		TotalLines:            m.TotalLines,
		MappedLines:           m.MappedLines,
		UnmappedLines:         m.UnmappedLines,
		LowConfidenceLines:    m.LowConfidenceLines,
		ComputedSubtotalCents: m.ComputedSubtotalCents,
		ComputedGSTCents:      m.ComputedGSTCents,
		ComputedQSTCents:      m.ComputedQSTCents,
		ComputedTotalCents:    m.ComputedTotalCents,
		ParsedSubtotalCents:   m.ParsedSubtotalCents,
		ParsedGSTCents:        m.ParsedGSTCents,
		ParsedQSTCents:        m.ParsedQSTCents,
		ParsedTotalCents:      m.ParsedTotalCents,
		SubtotalDeltaCents:    m.SubtotalDeltaCents,
		GSTDeltaCents:         m.GSTDeltaCents,
		QSTDeltaCents:         m.QSTDeltaCents,
		TotalDeltaCents:       m.TotalDeltaCents,
		BalanceStatus:         m.BalanceStatus,
		Errors:                m.Errors,
	}
}

// FromDomain populates the persistence model from a domain ValidationResult
func (m *ValidationResultModel) FromDomain(r *reconciliation.ValidationResult) {
	m.FromBaseEntity(r.BaseEntity)
	m.InvoiceID = r.InvoiceID
	m.InvoiceDate = r.InvoiceDate
	m.Vendor = r.Vendor
	m.Actor = r.Actor
	m.ValidatedAt = r.ValidatedAt
	m.TotalLines = r.TotalLines
	m.MappedLines = r.MappedLines
	m.UnmappedLines = r.UnmappedLines
	m.LowConfidenceLines = r.LowConfidenceLines
	m.ComputedSubtotalCents = r.ComputedSubtotalCents
	m.ComputedGSTCents = r.ComputedGSTCents
	m.ComputedQSTCents = r.ComputedQSTCents
	m.ComputedTotalCents = r.ComputedTotalCents
	m.ParsedSubtotalCents = r.ParsedSubtotalCents
	m.ParsedGSTCents = r.ParsedGSTCents
	m.ParsedQSTCents = r.ParsedQSTCents
	m.ParsedTotalCents = r.ParsedTotalCents
	m.SubtotalDeltaCents = r.SubtotalDeltaCents
	m.GSTDeltaCents = r.GSTDeltaCents
	m.QSTDeltaCents = r.QSTDeltaCents
	m.TotalDeltaCents = r.TotalDeltaCents
	m.BalanceStatus = r.BalanceStatus
	m.Errors = r.Errors
}

// LineAssignmentModel is the persistence model for one line's finance-code
// assignment. An invoice's rows are replaced wholesale on re-import or remap.
type LineAssignmentModel struct {
	BaseModel
	InvoiceID   string `gorm:"type:varchar(100);not null;index"`
	LineID      string `gorm:"type:varchar(120);not null"`
	LineNumber  int    `gorm:"not null"`
	ItemNumber  string `gorm:"type:varchar(50);index"`
	VendorSKU   string `gorm:"type:varchar(50)"`
	Description string `gorm:"type:text"`

	FinanceCode reconciliation.FinanceCode `gorm:"type:varchar(20);not null;index"`
	Confidence  float64                    `gorm:"not null"`
	Strategy    string                     `gorm:"type:varchar(50)"`
	AuditID     string                     `gorm:"type:varchar(100)"`
	Actor       string                     `gorm:"type:varchar(100)"`

	ExtendedPriceCents int64 `gorm:"not null"`
	GSTCents           int64 `gorm:"not null"`
	QSTCents           int64 `gorm:"not null"`

	MappedAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (LineAssignmentModel) TableName() string {
	return "invoice_line_assignments"
}

// ToDomain converts the persistence model to a domain LineAssignment
func (m *LineAssignmentModel) ToDomain() *reconciliation.LineAssignment {
	return &reconciliation.LineAssignment{
		BaseEntity:         m.ToBaseEntity(),
		InvoiceID:          m.InvoiceID,
		LineID:             m.LineID,
		LineNumber:         m.LineNumber,
		ItemNumber:         m.ItemNumber,
		VendorSKU:          m.VendorSKU,
		Description:        m.Description,
		FinanceCode:        m.FinanceCode,
		Confidence:         m.Confidence,
		Strategy:           m.Strategy,
		AuditID:            m.AuditID,
		Actor:              m.Actor,
		ExtendedPriceCents: m.ExtendedPriceCents,
		GSTCents:           m.GSTCents,
		QSTCents:           m.QSTCents,
		MappedAt:           m.MappedAt,
	}
}

// FromDomain populates the persistence model from a domain LineAssignment
func (m *LineAssignmentModel) FromDomain(a *reconciliation.LineAssignment) {
	m.FromBaseEntity(a.BaseEntity)
	m.InvoiceID = a.InvoiceID
	m.LineID = a.LineID
	m.LineNumber = a.LineNumber
	m.ItemNumber = a.ItemNumber
	m.VendorSKU = a.VendorSKU
	m.Description = a.Description
	m.FinanceCode = a.FinanceCode
	m.Confidence = a.Confidence
	m.Strategy = a.Strategy
	m.AuditID = a.AuditID
	m.Actor = a.Actor
	m.ExtendedPriceCents = a.ExtendedPriceCents
	m.GSTCents = a.GSTCents
	m.QSTCents = a.QSTCents
	m.MappedAt = a.MappedAt
}

// VerifiedPeriodTotalsModel is the persistence model for one locked period
// row. Rows for a period are replaced wholesale inside a transaction on lock.
type VerifiedPeriodTotalsModel struct {
	BaseModel
	Period       string                     `gorm:"type:varchar(20);not null;uniqueIndex:idx_verified_period_code,priority:1"`
	FinanceCode  reconciliation.FinanceCode `gorm:"type:varchar(20);not null;uniqueIndex:idx_verified_period_code,priority:2"`
	AmountCents  int64                      `gorm:"not null"`
	GSTCents     int64                      `gorm:"not null"`
	QSTCents     int64                      `gorm:"not null"`
	InvoiceCount int                        `gorm:"not null"`
	LineCount    int                        `gorm:"not null"`
	VerifiedBy   string                     `gorm:"type:varchar(100);not null"`
	VerifiedAt   time.Time                  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (VerifiedPeriodTotalsModel) TableName() string {
	return "verified_period_totals"
}

// ToDomain converts the persistence model to a domain VerifiedPeriodTotals
func (m *VerifiedPeriodTotalsModel) ToDomain() *reconciliation.VerifiedPeriodTotals {
	return &reconciliation.VerifiedPeriodTotals{
		BaseEntity:   m.ToBaseEntity(),
		Period:       m.Period,
		FinanceCode:  m.FinanceCode,
		AmountCents:  m.AmountCents,
		GSTCents:     m.GSTCents,
		QSTCents:     m.QSTCents,
		InvoiceCount: m.InvoiceCount,
		LineCount:    m.LineCount,
		VerifiedBy:   m.VerifiedBy,
		VerifiedAt:   m.VerifiedAt,
	}
}

// FromDomain populates the persistence model from a domain VerifiedPeriodTotals
func (m *VerifiedPeriodTotalsModel) FromDomain(t *reconciliation.VerifiedPeriodTotals) {
	m.FromBaseEntity(t.BaseEntity)
	m.Period = t.Period
	m.FinanceCode = t.FinanceCode
	m.AmountCents = t.AmountCents
	m.GSTCents = t.GSTCents
	m.QSTCents = t.QSTCents
	m.InvoiceCount = t.InvoiceCount
	m.LineCount = t.LineCount
	m.VerifiedBy = t.VerifiedBy
	m.VerifiedAt = t.VerifiedAt
}
