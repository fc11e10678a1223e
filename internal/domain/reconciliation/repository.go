package reconciliation

import (
	"context"
	"time"
)

// ValidationResultRepository persists invoice validation attempts. The table
// is append-only: Save never updates an existing row, and the current state
// of an invoice is its row with the latest ValidatedAt.
type ValidationResultRepository interface {
	// Save appends one validation attempt.
	Save(ctx context.Context, result *ValidationResult) error

	// FindCurrentByInvoice returns the invoice's latest validation attempt.
	// Returns shared.ErrNotFound if the invoice has never been validated.
	FindCurrentByInvoice(ctx context.Context, invoiceID string) (*ValidationResult, error)

	// FindCurrentInRange returns, for every invoice whose latest validation
	// falls in [start, end), that latest row.
	FindCurrentInRange(ctx context.Context, start, end time.Time) ([]ValidationResult, error)

	// FindCurrentBalancedInRange is FindCurrentInRange restricted to rows
	// classified BALANCED.
	FindCurrentBalancedInRange(ctx context.Context, start, end time.Time) ([]ValidationResult, error)
}

// LineAssignmentRepository persists per-line finance-code assignments.
type LineAssignmentRepository interface {
	// ReplaceForInvoice atomically replaces the invoice's assignments with
	// the given set. Re-importing or remapping an invoice goes through here.
	ReplaceForInvoice(ctx context.Context, invoiceID string, assignments []LineAssignment) error

	// FindByInvoice returns the invoice's assignments in line order.
	FindByInvoice(ctx context.Context, invoiceID string) ([]LineAssignment, error)

	// FindInvoiceIDsWithActivity returns the distinct invoices with mapping
	// activity in [start, end).
	FindInvoiceIDsWithActivity(ctx context.Context, start, end time.Time) ([]string, error)

	// FindInRange returns all assignments mapped in [start, end).
	FindInRange(ctx context.Context, start, end time.Time) ([]LineAssignment, error)
}

// VerifiedPeriodRepository persists locked period totals. A period's rows
// are replaced wholesale on each lock; there is no history of prior locks.
type VerifiedPeriodRepository interface {
	// ReplaceForPeriod deletes any existing rows for the period and inserts
	// the new snapshot in one transaction.
	ReplaceForPeriod(ctx context.Context, period string, totals []VerifiedPeriodTotals) error

	// FindByPeriod returns the locked totals for a period.
	// Returns shared.ErrNotFound if the period has never been locked.
	FindByPeriod(ctx context.Context, period string) ([]VerifiedPeriodTotals, error)

	// ListPeriods returns one entry per locked period, most recent first.
	ListPeriods(ctx context.Context) ([]PeriodLock, error)
}
