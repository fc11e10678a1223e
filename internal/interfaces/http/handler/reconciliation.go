package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	app "github.com/procurehub/backend/internal/application/reconciliation"
	"github.com/procurehub/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// ReconciliationHandler exposes invoice import, period enforcement and
// reporting over HTTP
type ReconciliationHandler struct {
	BaseHandler
	imports     *app.ImportService
	enforcement *app.EnforcementService
	reports     *app.ReportService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(
	imports *app.ImportService,
	enforcement *app.EnforcementService,
	reports *app.ReportService,
) *ReconciliationHandler {
	return &ReconciliationHandler{
		imports:     imports,
		enforcement: enforcement,
		reports:     reports,
	}
}

// RegisterRoutes registers all reconciliation routes
func (h *ReconciliationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.POST("/import", h.ImportInvoice)
		invoices.POST("/import/batch", h.BatchImport)
		invoices.POST("/remap", h.BulkRemap)
		invoices.GET("/:id/validation", h.GetValidation)
		invoices.GET("/:id/catalog-reconciliation", h.CatalogReconciliation)
	}

	periods := rg.Group("/periods")
	{
		periods.GET("/summary", h.PeriodSummary)
		periods.GET("/verified", h.ListVerifiedPeriods)
		periods.POST("/:period/lock", h.LockPeriod)
		periods.GET("/:period/verified", h.GetVerifiedPeriod)
	}

	reports := rg.Group("/reports")
	{
		reports.GET("/dashboard", h.Dashboard)
		reports.GET("/top-categories", h.TopCategories)
		reports.GET("/mapping-trend", h.MappingTrend)
		reports.GET("/finance", h.FinanceReport)
		reports.GET("/period-summary.csv", h.PeriodSummaryCSV)
	}
}

// ImportInvoice imports one raw vendor document posted as the request body
func (h *ReconciliationHandler) ImportInvoice(c *gin.Context) {
	document, err := c.GetRawData()
	if err != nil {
		h.BadRequest(c, "failed to read document body")
		return
	}
	if len(document) == 0 {
		h.BadRequest(c, "document body is required")
		return
	}

	opts := app.ImportOptions{
		Actor:          getActor(c),
		SkipValidation: c.Query("skip_validation") == "true",
	}

	result, err := h.imports.ImportInvoice(c.Request.Context(), document, opts)
	if err != nil {
		logger.GetGinLogger(c).Warn("invoice import failed", zap.Error(err))
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// batchImportRequest is the body for a batch import
type batchImportRequest struct {
	Paths []string `json:"paths" binding:"required,min=1"`
}

// BatchImport imports a set of documents from server-visible paths
func (h *ReconciliationHandler) BatchImport(c *gin.Context) {
	var req batchImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, fmt.Sprintf("invalid batch request: %v", err))
		return
	}

	opts := app.ImportOptions{
		Actor:          getActor(c),
		SkipValidation: c.Query("skip_validation") == "true",
	}

	result, err := h.imports.BatchImport(c.Request.Context(), req.Paths, opts)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetValidation returns an invoice's current validation result
func (h *ReconciliationHandler) GetValidation(c *gin.Context) {
	invoiceID := c.Param("id")

	result, err := h.enforcement.GetCurrentValidation(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CatalogReconciliation reports which of an invoice's lines need item bank
// entries
func (h *ReconciliationHandler) CatalogReconciliation(c *gin.Context) {
	invoiceID := c.Param("id")

	result, err := h.enforcement.ReconcileInvoiceAgainstItemBank(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// remapRequest is the body for a bulk remap run
type remapRequest struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

// BulkRemap re-runs finance-code mapping over every invoice with activity in
// the window
func (h *ReconciliationHandler) BulkRemap(c *gin.Context) {
	var req remapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, fmt.Sprintf("invalid remap request: %v", err))
		return
	}
	start, end, err := parseWindow(req.Start, req.End)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.enforcement.BulkRemapInvoices(c.Request.Context(), start, end, getActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// PeriodSummary returns the derived (unlocked) summary for a period window
func (h *ReconciliationHandler) PeriodSummary(c *gin.Context) {
	period, start, end, err := h.resolvePeriodWindow(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	summary, err := h.enforcement.GeneratePeriodSummary(c.Request.Context(), period, start, end)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// lockPeriodRequest is the body for a period lock
type lockPeriodRequest struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	VerifiedBy string `json:"verified_by"`
}

// LockPeriod regenerates and locks a period's totals, replacing any prior lock
func (h *ReconciliationHandler) LockPeriod(c *gin.Context) {
	period := c.Param("period")

	var req lockPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, fmt.Sprintf("invalid lock request: %v", err))
		return
	}

	start, end, err := windowForPeriod(period, req.Start, req.End)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	verifiedBy := req.VerifiedBy
	if verifiedBy == "" {
		verifiedBy = getActor(c)
	}

	rows, err := h.enforcement.VerifyAndLockPeriod(c.Request.Context(), period, start, end, verifiedBy)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rows)
}

// GetVerifiedPeriod returns the locked totals for one period
func (h *ReconciliationHandler) GetVerifiedPeriod(c *gin.Context) {
	totals, err := h.enforcement.GetVerifiedPeriodTotals(c.Request.Context(), c.Param("period"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, totals)
}

// ListVerifiedPeriods lists every locked period
func (h *ReconciliationHandler) ListVerifiedPeriods(c *gin.Context) {
	locks, err := h.enforcement.ListVerifiedPeriods(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, locks)
}

// Dashboard returns headline validation and mapping stats for a window
func (h *ReconciliationHandler) Dashboard(c *gin.Context) {
	start, end, err := parseWindow(c.Query("start"), c.Query("end"))
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	stats, err := h.reports.GetDashboardStats(c.Request.Context(), start, end)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// TopCategories returns the finance codes with the highest validated spend
func (h *ReconciliationHandler) TopCategories(c *gin.Context) {
	start, end, err := parseWindow(c.Query("start"), c.Query("end"))
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

	categories, err := h.reports.GetTopFinanceCategories(c.Request.Context(), start, end, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, categories)
}

// MappingTrend returns the per-day mapping accuracy trend
func (h *ReconciliationHandler) MappingTrend(c *gin.Context) {
	start, end, err := parseWindow(c.Query("start"), c.Query("end"))
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	trend, err := h.reports.GetMappingAccuracyTrend(c.Request.Context(), start, end)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, trend)
}

// FinanceReport returns the combined summary and stats report for a period
func (h *ReconciliationHandler) FinanceReport(c *gin.Context) {
	period, start, end, err := h.resolvePeriodWindow(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	report, err := h.reports.GenerateFinanceReport(c.Request.Context(), period, start, end)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// PeriodSummaryCSV streams the period summary as a CSV download
func (h *ReconciliationHandler) PeriodSummaryCSV(c *gin.Context) {
	period, start, end, err := h.resolvePeriodWindow(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=period-summary-%s.csv", period))

	if err := h.reports.ExportPeriodSummaryCSV(c.Request.Context(), c.Writer, period, start, end); err != nil {
		logger.GetGinLogger(c).Error("csv export failed", zap.Error(err))
		// Headers are already written; nothing useful left to send.
		c.Abort()
	}
}

// resolvePeriodWindow resolves a period plus optional explicit window from
// query parameters
func (h *ReconciliationHandler) resolvePeriodWindow(c *gin.Context) (string, time.Time, time.Time, error) {
	period := c.Query("period")
	start, end, err := windowForPeriod(period, c.Query("start"), c.Query("end"))
	return period, start, end, err
}

// windowForPeriod resolves [start, end): explicit dates win, otherwise the
// window is derived from a YYYY-MM period
func windowForPeriod(period, startText, endText string) (time.Time, time.Time, error) {
	if startText != "" || endText != "" {
		return parseWindow(startText, endText)
	}
	if period == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("either period or start and end are required")
	}
	start, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period %q, expected YYYY-MM", period)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// parseWindow parses an explicit [start, end) window
func parseWindow(startText, endText string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, startText)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q, expected YYYY-MM-DD", startText)
	}
	end, err := time.Parse(dateLayout, endText)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q, expected YYYY-MM-DD", endText)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date must be after start date")
	}
	return start, end, nil
}
