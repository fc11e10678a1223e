package reconciliation

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	recon "github.com/procurehub/backend/internal/domain/reconciliation"
	"github.com/procurehub/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// StatsCache is the reporting layer's cache port. A miss is (nil, nil);
// infrastructure errors are returned and callers fall through to the source.
type StatsCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// PeriodSummarizer is the slice of EnforcementService that reporting needs.
type PeriodSummarizer interface {
	GeneratePeriodSummary(ctx context.Context, period string, start, end time.Time) (*recon.PeriodSummary, error)
}

// DashboardStats is the headline view over a reporting window.
type DashboardStats struct {
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	TotalInvoices     int       `json:"total_invoices"`
	BalancedInvoices  int       `json:"balanced_invoices"`
	ImbalanceInvoices int       `json:"imbalance_invoices"`
	TaxErrorInvoices  int       `json:"tax_error_invoices"`
	TotalLines        int       `json:"total_lines"`
	MappedLines       int       `json:"mapped_lines"`
	MappedLineRate    float64   `json:"mapped_line_rate"`
	TotalAmountCents  int64     `json:"total_amount_cents"`
}

// FinanceCategoryTotal is one row of the top-categories report.
type FinanceCategoryTotal struct {
	FinanceCode recon.FinanceCode `json:"finance_code"`
	AmountCents int64             `json:"amount_cents"`
	Amount      string            `json:"amount"`
	LineCount   int               `json:"line_count"`
}

// MappingTrendPoint is one day of mapping accuracy.
type MappingTrendPoint struct {
	Date              string  `json:"date"`
	TotalLines        int     `json:"total_lines"`
	MappedLines       int     `json:"mapped_lines"`
	MappedRate        float64 `json:"mapped_rate"`
	AverageConfidence float64 `json:"average_confidence"`
}

// FinanceReport bundles a period summary with its validation stats.
type FinanceReport struct {
	Period      string               `json:"period"`
	Summary     *recon.PeriodSummary `json:"summary"`
	Stats       *DashboardStats      `json:"stats"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// ReportService produces read-only views for dashboards and finance exports.
type ReportService struct {
	validations recon.ValidationResultRepository
	assignments recon.LineAssignmentRepository
	summarizer  PeriodSummarizer
	cache       StatsCache
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewReportService creates a new ReportService. cache may be nil, in which
// case every read goes to the source.
func NewReportService(
	validations recon.ValidationResultRepository,
	assignments recon.LineAssignmentRepository,
	summarizer PeriodSummarizer,
	cache StatsCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		validations: validations,
		assignments: assignments,
		summarizer:  summarizer,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// GetDashboardStats aggregates validation and mapping counts over
// [start, end). Results are cached; cache failures degrade to a direct read.
func (s *ReportService) GetDashboardStats(ctx context.Context, start, end time.Time) (*DashboardStats, error) {
	cacheKey := fmt.Sprintf("reports:dashboard:%d:%d", start.Unix(), end.Unix())
	if cached := s.cacheGet(ctx, cacheKey); cached != nil {
		var stats DashboardStats
		if err := json.Unmarshal(cached, &stats); err == nil {
			return &stats, nil
		}
	}

	results, err := s.validations.FindCurrentInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load validations: %w", err)
	}

	stats := &DashboardStats{Start: start, End: end}
	for _, r := range results {
		stats.TotalInvoices++
		stats.TotalLines += r.TotalLines
		stats.MappedLines += r.MappedLines
		stats.TotalAmountCents += r.ComputedTotalCents
		switch r.BalanceStatus {
		case recon.BalanceStatusBalanced:
			stats.BalancedInvoices++
		case recon.BalanceStatusImbalance:
			stats.ImbalanceInvoices++
		case recon.BalanceStatusTaxError:
			stats.TaxErrorInvoices++
		}
	}
	if stats.TotalLines > 0 {
		stats.MappedLineRate = float64(stats.MappedLines) / float64(stats.TotalLines)
	}

	s.cachePut(ctx, cacheKey, stats)
	return stats, nil
}

// GetTopFinanceCategories returns the finance codes with the highest
// validated spend in [start, end), descending, at most limit entries. Codes
// with no activity are omitted.
func (s *ReportService) GetTopFinanceCategories(ctx context.Context, start, end time.Time, limit int) ([]FinanceCategoryTotal, error) {
	summary, err := s.summarizer.GeneratePeriodSummary(ctx, "", start, end)
	if err != nil {
		return nil, err
	}

	categories := make([]FinanceCategoryTotal, 0, len(summary.Totals))
	for _, t := range summary.Totals {
		if t.AmountCents == 0 && t.LineCount == 0 {
			continue
		}
		categories = append(categories, FinanceCategoryTotal{
			FinanceCode: t.FinanceCode,
			AmountCents: t.AmountCents,
			Amount:      valueobject.CentsToDollars(t.AmountCents),
			LineCount:   t.LineCount,
		})
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].AmountCents > categories[j].AmountCents
	})
	if limit > 0 && len(categories) > limit {
		categories = categories[:limit]
	}
	return categories, nil
}

// GetMappingAccuracyTrend returns per-day mapped rates and average mapping
// confidence over [start, end), oldest day first.
func (s *ReportService) GetMappingAccuracyTrend(ctx context.Context, start, end time.Time) ([]MappingTrendPoint, error) {
	assignments, err := s.assignments.FindInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load line assignments: %w", err)
	}

	type bucket struct {
		total      int
		mapped     int
		confidence float64
	}
	days := make(map[string]*bucket)
	for _, a := range assignments {
		day := a.MappedAt.Format("2006-01-02")
		b, ok := days[day]
		if !ok {
			b = &bucket{}
			days[day] = b
		}
		b.total++
		b.confidence += a.Confidence
		if a.Confidence >= recon.MinMappingConfidence {
			b.mapped++
		}
	}

	trend := make([]MappingTrendPoint, 0, len(days))
	for day, b := range days {
		point := MappingTrendPoint{
			Date:        day,
			TotalLines:  b.total,
			MappedLines: b.mapped,
		}
		if b.total > 0 {
			point.MappedRate = float64(b.mapped) / float64(b.total)
			point.AverageConfidence = b.confidence / float64(b.total)
		}
		trend = append(trend, point)
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Date < trend[j].Date })
	return trend, nil
}

// GenerateFinanceReport bundles the period summary with validation stats.
func (s *ReportService) GenerateFinanceReport(ctx context.Context, period string, start, end time.Time) (*FinanceReport, error) {
	summary, err := s.summarizer.GeneratePeriodSummary(ctx, period, start, end)
	if err != nil {
		return nil, err
	}
	stats, err := s.GetDashboardStats(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return &FinanceReport{
		Period:      period,
		Summary:     summary,
		Stats:       stats,
		GeneratedAt: time.Now(),
	}, nil
}

// ExportPeriodSummaryCSV writes the period summary as CSV: one row per
// finance code plus a trailing TOTAL row, amounts in dollars.
func (s *ReportService) ExportPeriodSummaryCSV(ctx context.Context, w io.Writer, period string, start, end time.Time) error {
	summary, err := s.summarizer.GeneratePeriodSummary(ctx, period, start, end)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"period", "finance_code", "amount", "gst", "qst", "invoice_count", "line_count"}); err != nil {
		return err
	}

	var totalAmount, totalGST, totalQST int64
	for _, t := range summary.Totals {
		totalAmount += t.AmountCents
		totalGST += t.GSTCents
		totalQST += t.QSTCents
		record := []string{
			period,
			string(t.FinanceCode),
			valueobject.CentsToDollars(t.AmountCents),
			valueobject.CentsToDollars(t.GSTCents),
			valueobject.CentsToDollars(t.QSTCents),
			fmt.Sprintf("%d", t.InvoiceCount),
			fmt.Sprintf("%d", t.LineCount),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	total := []string{
		period,
		"TOTAL",
		valueobject.CentsToDollars(totalAmount),
		valueobject.CentsToDollars(totalGST),
		valueobject.CentsToDollars(totalQST),
		fmt.Sprintf("%d", summary.InvoiceCount),
		fmt.Sprintf("%d", summary.LineCount),
	}
	if err := writer.Write(total); err != nil {
		return err
	}

	writer.Flush()
	return writer.Error()
}

func (s *ReportService) cacheGet(ctx context.Context, key string) []byte {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	return data
}

func (s *ReportService) cachePut(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
	}
}
