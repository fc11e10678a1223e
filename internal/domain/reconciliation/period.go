package reconciliation

import (
	"time"

	"github.com/procurehub/backend/internal/domain/shared"
)

// FinanceCodeTotals aggregates validated spend for one finance code over a
// period window.
type FinanceCodeTotals struct {
	FinanceCode  FinanceCode
	AmountCents  int64
	GSTCents     int64
	QSTCents     int64
	InvoiceCount int
	LineCount    int
}

// PeriodSummary is the derived (not persisted) aggregation of all balanced
// invoices in a window, broken down by finance code. Totals carries an entry
// for every code in the fixed set, zero-filled where there was no activity.
type PeriodSummary struct {
	Period       string
	Start        time.Time
	End          time.Time
	Totals       []FinanceCodeTotals
	InvoiceCount int
	LineCount    int
	GeneratedAt  time.Time
}

// TotalsFor returns the totals entry for a code, or nil if the code is not
// present (which only happens for codes outside the fixed set).
func (s *PeriodSummary) TotalsFor(code FinanceCode) *FinanceCodeTotals {
	for i := range s.Totals {
		if s.Totals[i].FinanceCode == code {
			return &s.Totals[i]
		}
	}
	return nil
}

// VerifiedPeriodTotals is one immutable locked row per (period, finance
// code). Locking a period deletes and replaces all of its rows; only the
// latest lock survives.
type VerifiedPeriodTotals struct {
	shared.BaseEntity
	Period       string
	FinanceCode  FinanceCode
	AmountCents  int64
	GSTCents     int64
	QSTCents     int64
	InvoiceCount int
	LineCount    int
	VerifiedBy   string
	VerifiedAt   time.Time
}

// PeriodLock describes one locked period for listings.
type PeriodLock struct {
	Period           string
	VerifiedBy       string
	VerifiedAt       time.Time
	TotalAmountCents int64
}

// AllocateByLineCount splits an invoice amount across finance codes in
// proportion to how many of the invoice's lines carry each code, not in
// proportion to line value. This is a deliberate simplifying approximation;
// replacing it with value-weighted allocation changes locked period totals
// and is a business decision, not a bug fix.
//
// Shares are floored, so up to totalLines-1 cents of an amount can go
// unallocated; the same inputs always produce the same shares.
func AllocateByLineCount(amountCents int64, lineCount, totalLines int) int64 {
	if totalLines <= 0 || lineCount <= 0 {
		return 0
	}
	return amountCents * int64(lineCount) / int64(totalLines)
}
