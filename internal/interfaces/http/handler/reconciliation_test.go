package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	app "github.com/procurehub/backend/internal/application/reconciliation"
	recon "github.com/procurehub/backend/internal/domain/reconciliation"
	"github.com/procurehub/backend/internal/domain/reconciliation/acl"
	"github.com/procurehub/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeValidationRepo is a canned-data implementation of
// reconciliation.ValidationResultRepository
type fakeValidationRepo struct {
	current *recon.ValidationResult
	inRange []recon.ValidationResult
	saved   []*recon.ValidationResult
}

func (f *fakeValidationRepo) Save(ctx context.Context, result *recon.ValidationResult) error {
	f.saved = append(f.saved, result)
	return nil
}

func (f *fakeValidationRepo) FindCurrentByInvoice(ctx context.Context, invoiceID string) (*recon.ValidationResult, error) {
	if f.current == nil {
		return nil, shared.ErrNotFound
	}
	return f.current, nil
}

func (f *fakeValidationRepo) FindCurrentInRange(ctx context.Context, start, end time.Time) ([]recon.ValidationResult, error) {
	return f.inRange, nil
}

func (f *fakeValidationRepo) FindCurrentBalancedInRange(ctx context.Context, start, end time.Time) ([]recon.ValidationResult, error) {
	var balanced []recon.ValidationResult
	for _, r := range f.inRange {
		if r.IsBalanced() {
			balanced = append(balanced, r)
		}
	}
	return balanced, nil
}

// fakeAssignmentRepo is a canned-data implementation of
// reconciliation.LineAssignmentRepository
type fakeAssignmentRepo struct {
	byInvoice map[string][]recon.LineAssignment
	replaced  map[string][]recon.LineAssignment
}

func (f *fakeAssignmentRepo) ReplaceForInvoice(ctx context.Context, invoiceID string, assignments []recon.LineAssignment) error {
	if f.replaced == nil {
		f.replaced = make(map[string][]recon.LineAssignment)
	}
	f.replaced[invoiceID] = assignments
	return nil
}

func (f *fakeAssignmentRepo) FindByInvoice(ctx context.Context, invoiceID string) ([]recon.LineAssignment, error) {
	return f.byInvoice[invoiceID], nil
}

func (f *fakeAssignmentRepo) FindInvoiceIDsWithActivity(ctx context.Context, start, end time.Time) ([]string, error) {
	ids := make([]string, 0, len(f.byInvoice))
	for id := range f.byInvoice {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeAssignmentRepo) FindInRange(ctx context.Context, start, end time.Time) ([]recon.LineAssignment, error) {
	var all []recon.LineAssignment
	for _, rows := range f.byInvoice {
		all = append(all, rows...)
	}
	return all, nil
}

// fakeVerifiedRepo is a canned-data implementation of
// reconciliation.VerifiedPeriodRepository
type fakeVerifiedRepo struct {
	totals   []recon.VerifiedPeriodTotals
	locks    []recon.PeriodLock
	replaced map[string][]recon.VerifiedPeriodTotals
}

func (f *fakeVerifiedRepo) ReplaceForPeriod(ctx context.Context, period string, totals []recon.VerifiedPeriodTotals) error {
	if f.replaced == nil {
		f.replaced = make(map[string][]recon.VerifiedPeriodTotals)
	}
	f.replaced[period] = totals
	return nil
}

func (f *fakeVerifiedRepo) FindByPeriod(ctx context.Context, period string) ([]recon.VerifiedPeriodTotals, error) {
	if len(f.totals) == 0 {
		return nil, shared.ErrNotFound
	}
	return f.totals, nil
}

func (f *fakeVerifiedRepo) ListPeriods(ctx context.Context) ([]recon.PeriodLock, error) {
	return f.locks, nil
}

type fakeParser struct {
	invoice *acl.ParsedInvoice
	err     error
}

func (f *fakeParser) Parse(ctx context.Context, document []byte) (*acl.ParsedInvoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.invoice, nil
}

type fakeMapper struct {
	result *acl.MapLineResult
	err    error
}

func (f *fakeMapper) MapLine(ctx context.Context, req acl.MapLineRequest) (*acl.MapLineResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeCatalog struct {
	items map[string]*acl.CatalogItem
}

func (f *fakeCatalog) Lookup(ctx context.Context, itemNumber string) (*acl.CatalogItem, error) {
	return f.items[itemNumber], nil
}

type handlerFixture struct {
	validations *fakeValidationRepo
	assignments *fakeAssignmentRepo
	verified    *fakeVerifiedRepo
	parser      *fakeParser
	mapper      *fakeMapper
	router      *gin.Engine
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &handlerFixture{
		validations: &fakeValidationRepo{},
		assignments: &fakeAssignmentRepo{byInvoice: map[string][]recon.LineAssignment{}},
		verified:    &fakeVerifiedRepo{},
		parser: &fakeParser{invoice: &acl.ParsedInvoice{
			InvoiceID:   "INV-1001",
			InvoiceDate: "2026-03-05",
			Vendor:      "Maison Richard",
			Lines: []acl.ParsedLine{
				{ItemNumber: "10001", Description: "Flour 20kg", Quantity: "1", UnitPrice: "100.00", ExtendedPrice: "100.00"},
			},
			Subtotal: "100.00",
			GST:      "5.00",
			QST:      "9.98",
			Total:    "114.98",
		}},
		mapper: &fakeMapper{result: &acl.MapLineResult{
			FinanceCode: "BAKE",
			Confidence:  0.95,
			Strategy:    "exact_item",
			AuditID:     "audit-1",
		}},
	}

	logger := zap.NewNop()
	catalog := &fakeCatalog{}
	imports := app.NewImportService(f.parser, f.mapper, catalog, f.validations, f.assignments, logger)
	enforcement := app.NewEnforcementService(f.validations, f.assignments, f.verified, f.mapper, catalog, logger)
	reports := app.NewReportService(f.validations, f.assignments, enforcement, nil, 0, logger)

	h := NewReconciliationHandler(imports, enforcement, reports)
	f.router = gin.New()
	h.RegisterRoutes(f.router.Group("/api/v1"))
	return f
}

func (f *handlerFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-Actor", "tester")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (bool, json.RawMessage) {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Success, resp.Data
}

func TestReconciliationHandler_ImportInvoice(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, "POST", "/api/v1/invoices/import", []byte(`{"raw":"document"}`))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	success, data := decodeEnvelope(t, w)
	assert.True(t, success)

	var result app.ImportResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "INV-1001", result.InvoiceID)
	assert.Equal(t, 1, result.TotalLines)
	require.NotNil(t, result.Validation)
	assert.Equal(t, recon.BalanceStatusBalanced, result.Validation.BalanceStatus)

	// The import persisted assignments and a validation row.
	assert.Len(t, f.assignments.replaced["INV-1001"], 1)
	assert.Len(t, f.validations.saved, 1)
	assert.Equal(t, "tester", f.validations.saved[0].Actor)
}

func TestReconciliationHandler_ImportInvoiceEmptyBody(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, "POST", "/api/v1/invoices/import", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReconciliationHandler_ImportInvoiceParseFailure(t *testing.T) {
	f := newHandlerFixture(t)
	f.parser.err = shared.NewDomainError("PARSE_FAILED", "document is not a recognized format")

	w := f.do(t, "POST", "/api/v1/invoices/import", []byte(`not json`))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "ERR_PARSE_FAILED", resp.Error.Code)
}

func TestReconciliationHandler_GetValidation(t *testing.T) {
	f := newHandlerFixture(t)
	f.validations.current = &recon.ValidationResult{
		BaseEntity:    shared.NewBaseEntity(),
		InvoiceID:     "INV-1001",
		BalanceStatus: recon.BalanceStatusBalanced,
	}

	w := f.do(t, "GET", "/api/v1/invoices/INV-1001/validation", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReconciliationHandler_GetValidationNotFound(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, "GET", "/api/v1/invoices/INV-MISSING/validation", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ERR_NOT_FOUND", resp.Error.Code)
}

func TestReconciliationHandler_BulkRemap(t *testing.T) {
	f := newHandlerFixture(t)
	f.assignments.byInvoice["INV-1001"] = []recon.LineAssignment{
		{
			BaseEntity:  shared.NewBaseEntity(),
			InvoiceID:   "INV-1001",
			LineID:      "line-1",
			LineNumber:  1,
			FinanceCode: recon.FinanceCodeMeat,
			MappedAt:    time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		},
	}

	w := f.do(t, "POST", "/api/v1/invoices/remap", map[string]string{
		"start": "2026-03-01",
		"end":   "2026-04-01",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, data := decodeEnvelope(t, w)
	var result app.BulkRemapResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, 1, result.TotalInvoices)
	assert.Equal(t, 1, result.RemappedInvoices)
	// MEAT -> BAKE per the fake mapper.
	assert.Equal(t, 1, result.ChangedLines)
}

func TestReconciliationHandler_BulkRemapBadWindow(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, "POST", "/api/v1/invoices/remap", map[string]string{
		"start": "2026-04-01",
		"end":   "2026-03-01",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReconciliationHandler_PeriodSummaryFromPeriod(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, "GET", "/api/v1/periods/summary?period=2026-03", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, data := decodeEnvelope(t, w)
	var summary recon.PeriodSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, "2026-03", summary.Period)
	assert.Len(t, summary.Totals, len(recon.AllFinanceCodes()))
}

func TestReconciliationHandler_PeriodSummaryRequiresWindow(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, "GET", "/api/v1/periods/summary", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReconciliationHandler_LockPeriod(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, "POST", "/api/v1/periods/2026-03/lock", map[string]string{
		"verified_by": "controller",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	locked := f.verified.replaced["2026-03"]
	require.Len(t, locked, len(recon.AllFinanceCodes()))
	assert.Equal(t, "controller", locked[0].VerifiedBy)
}

func TestReconciliationHandler_LockPeriodDefaultsActor(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, "POST", "/api/v1/periods/2026-03/lock", map[string]string{})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "tester", f.verified.replaced["2026-03"][0].VerifiedBy)
}

func TestReconciliationHandler_GetVerifiedPeriodNotFound(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, "GET", "/api/v1/periods/2026-03/verified", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReconciliationHandler_ListVerifiedPeriods(t *testing.T) {
	f := newHandlerFixture(t)
	f.verified.locks = []recon.PeriodLock{
		{Period: "2026-03", VerifiedBy: "controller", TotalAmountCents: 10000},
	}

	w := f.do(t, "GET", "/api/v1/periods/verified", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, data := decodeEnvelope(t, w)
	var locks []recon.PeriodLock
	require.NoError(t, json.Unmarshal(data, &locks))
	require.Len(t, locks, 1)
	assert.Equal(t, "2026-03", locks[0].Period)
}

func TestReconciliationHandler_Dashboard(t *testing.T) {
	f := newHandlerFixture(t)
	f.validations.inRange = []recon.ValidationResult{
		{InvoiceID: "INV-1", BalanceStatus: recon.BalanceStatusBalanced, TotalLines: 2, MappedLines: 2},
		{InvoiceID: "INV-2", BalanceStatus: recon.BalanceStatusTaxError, TotalLines: 2, MappedLines: 1},
	}

	w := f.do(t, "GET", "/api/v1/reports/dashboard?start=2026-03-01&end=2026-04-01", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, data := decodeEnvelope(t, w)
	var stats app.DashboardStats
	require.NoError(t, json.Unmarshal(data, &stats))
	assert.Equal(t, 2, stats.TotalInvoices)
	assert.Equal(t, 1, stats.BalancedInvoices)
	assert.Equal(t, 1, stats.TaxErrorInvoices)
}

func TestReconciliationHandler_DashboardRequiresWindow(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, "GET", "/api/v1/reports/dashboard", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReconciliationHandler_PeriodSummaryCSV(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, "GET", "/api/v1/reports/period-summary.csv?period=2026-03", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "period-summary-2026-03.csv")
	assert.Contains(t, w.Body.String(), "period,finance_code,amount,gst,qst,invoice_count,line_count")
	assert.Contains(t, w.Body.String(), "TOTAL")
}
