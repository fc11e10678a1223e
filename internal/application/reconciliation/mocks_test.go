package reconciliation

import (
	"context"
	"time"

	recon "github.com/procurehub/backend/internal/domain/reconciliation"
	"github.com/procurehub/backend/internal/domain/reconciliation/acl"
	"github.com/stretchr/testify/mock"
)

type MockDocumentParser struct {
	mock.Mock
}

func (m *MockDocumentParser) Parse(ctx context.Context, document []byte) (*acl.ParsedInvoice, error) {
	args := m.Called(ctx, document)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*acl.ParsedInvoice), args.Error(1)
}

type MockFinanceCodeMapper struct {
	mock.Mock
}

func (m *MockFinanceCodeMapper) MapLine(ctx context.Context, req acl.MapLineRequest) (*acl.MapLineResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*acl.MapLineResult), args.Error(1)
}

type MockItemCatalog struct {
	mock.Mock
}

func (m *MockItemCatalog) Lookup(ctx context.Context, itemNumber string) (*acl.CatalogItem, error) {
	args := m.Called(ctx, itemNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*acl.CatalogItem), args.Error(1)
}

type MockValidationResultRepository struct {
	mock.Mock
}

func (m *MockValidationResultRepository) Save(ctx context.Context, result *recon.ValidationResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockValidationResultRepository) FindCurrentByInvoice(ctx context.Context, invoiceID string) (*recon.ValidationResult, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recon.ValidationResult), args.Error(1)
}

func (m *MockValidationResultRepository) FindCurrentInRange(ctx context.Context, start, end time.Time) ([]recon.ValidationResult, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recon.ValidationResult), args.Error(1)
}

func (m *MockValidationResultRepository) FindCurrentBalancedInRange(ctx context.Context, start, end time.Time) ([]recon.ValidationResult, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recon.ValidationResult), args.Error(1)
}

type MockLineAssignmentRepository struct {
	mock.Mock
}

func (m *MockLineAssignmentRepository) ReplaceForInvoice(ctx context.Context, invoiceID string, assignments []recon.LineAssignment) error {
	args := m.Called(ctx, invoiceID, assignments)
	return args.Error(0)
}

func (m *MockLineAssignmentRepository) FindByInvoice(ctx context.Context, invoiceID string) ([]recon.LineAssignment, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recon.LineAssignment), args.Error(1)
}

func (m *MockLineAssignmentRepository) FindInvoiceIDsWithActivity(ctx context.Context, start, end time.Time) ([]string, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockLineAssignmentRepository) FindInRange(ctx context.Context, start, end time.Time) ([]recon.LineAssignment, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recon.LineAssignment), args.Error(1)
}

type MockVerifiedPeriodRepository struct {
	mock.Mock
}

func (m *MockVerifiedPeriodRepository) ReplaceForPeriod(ctx context.Context, period string, totals []recon.VerifiedPeriodTotals) error {
	args := m.Called(ctx, period, totals)
	return args.Error(0)
}

func (m *MockVerifiedPeriodRepository) FindByPeriod(ctx context.Context, period string) ([]recon.VerifiedPeriodTotals, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recon.VerifiedPeriodTotals), args.Error(1)
}

func (m *MockVerifiedPeriodRepository) ListPeriods(ctx context.Context) ([]recon.PeriodLock, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recon.PeriodLock), args.Error(1)
}

type MockStatsCache struct {
	mock.Mock
}

func (m *MockStatsCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStatsCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

type MockPeriodSummarizer struct {
	mock.Mock
}

func (m *MockPeriodSummarizer) GeneratePeriodSummary(ctx context.Context, period string, start, end time.Time) (*recon.PeriodSummary, error) {
	args := m.Called(ctx, period, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recon.PeriodSummary), args.Error(1)
}
