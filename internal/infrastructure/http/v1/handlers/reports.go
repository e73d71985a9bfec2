package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appctx "salesreports/internal/core/context"
	"salesreports/internal/domain/reports"
	"salesreports/internal/infrastructure/export"
	"salesreports/internal/infrastructure/http/v1/dto"
)

// SalesReporter is the report service as seen by the HTTP layer.
type SalesReporter interface {
	TotalSales(ctx context.Context, filter reports.SalesFilter) (*reports.Summary, error)
	AverageSales(ctx context.Context, filter reports.SalesFilter) (*reports.Summary, error)
	SalesByProduct(ctx context.Context, filter reports.SalesFilter) (*reports.GroupedTotals, error)
	SalesByVariant(ctx context.Context, filter reports.SalesFilter) (*reports.GroupedTotals, error)
	SalesByOption(ctx context.Context, filter reports.SalesFilter) (*reports.GroupedTotals, error)
	SalesByOptionValue(ctx context.Context, filter reports.SalesFilter) (*reports.GroupedTotals, error)
	Overview(ctx context.Context, filter reports.SalesFilter) (*reports.SalesReport, error)
}

var _ SalesReporter = (*reports.Service)(nil)

// ReportsHandler handles HTTP requests for sales reports.
type ReportsHandler struct {
	*BaseHandler
	service  SalesReporter
	location *time.Location
	exponent int32
}

// NewReportsHandler creates a new reports handler. Dates are read in loc and
// exported amounts use exponent decimal places.
func NewReportsHandler(base *BaseHandler, service SalesReporter, loc *time.Location, exponent int32) *ReportsHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
		location:    loc,
		exponent:    exponent,
	}
}

// RegisterRoutes mounts the report endpoints on rg.
func (h *ReportsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Overview)
	rg.GET("/total", h.Total)
	rg.GET("/average", h.Average)
	rg.GET("/products", h.Products)
	rg.GET("/variants", h.Variants)
	rg.GET("/options", h.Options)
	rg.GET("/option-values", h.OptionValues)
	rg.GET("/export", h.Export)
}

// filter binds the query and scopes the request context to its channel.
func (h *ReportsHandler) filter(c *gin.Context) (context.Context, reports.SalesFilter, bool) {
	var req dto.SalesReportRequest
	if !h.BindQuery(c, &req) {
		return nil, reports.SalesFilter{}, false
	}

	filter, err := req.Filter(h.location)
	if err != nil {
		h.Error(c, err)
		return nil, reports.SalesFilter{}, false
	}

	ctx := appctx.WithChannel(c.Request.Context(), filter.ChannelCode)
	c.Request = c.Request.WithContext(ctx)
	return ctx, filter, true
}

type summaryFunc func(ctx context.Context, filter reports.SalesFilter) (*reports.Summary, error)

type groupedFunc func(ctx context.Context, filter reports.SalesFilter) (*reports.GroupedTotals, error)

func (h *ReportsHandler) summary(c *gin.Context, fn summaryFunc) {
	ctx, filter, ok := h.filter(c)
	if !ok {
		return
	}
	s, err := fn(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSummary(s))
}

func (h *ReportsHandler) grouped(c *gin.Context, fn groupedFunc) {
	ctx, filter, ok := h.filter(c)
	if !ok {
		return
	}
	g, err := fn(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromGroupedTotals(g))
}

// Total handles GET /reports/sales/total
func (h *ReportsHandler) Total(c *gin.Context) {
	h.summary(c, h.service.TotalSales)
}

// Average handles GET /reports/sales/average
func (h *ReportsHandler) Average(c *gin.Context) {
	h.summary(c, h.service.AverageSales)
}

// Products handles GET /reports/sales/products
func (h *ReportsHandler) Products(c *gin.Context) {
	h.grouped(c, h.service.SalesByProduct)
}

// Variants handles GET /reports/sales/variants
func (h *ReportsHandler) Variants(c *gin.Context) {
	h.grouped(c, h.service.SalesByVariant)
}

// Options handles GET /reports/sales/options
func (h *ReportsHandler) Options(c *gin.Context) {
	h.grouped(c, h.service.SalesByOption)
}

// OptionValues handles GET /reports/sales/option-values
func (h *ReportsHandler) OptionValues(c *gin.Context) {
	h.grouped(c, h.service.SalesByOptionValue)
}

// Overview handles GET /reports/sales
func (h *ReportsHandler) Overview(c *gin.Context) {
	ctx, filter, ok := h.filter(c)
	if !ok {
		return
	}
	report, err := h.service.Overview(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSalesReport(report))
}

// Export handles GET /reports/sales/export and downloads the overview as XLSX.
func (h *ReportsHandler) Export(c *gin.Context) {
	ctx, filter, ok := h.filter(c)
	if !ok {
		return
	}
	report, err := h.service.Overview(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	// Rendered into memory so a failure still reaches the error middleware.
	var buf bytes.Buffer
	if err := export.WriteSalesReport(&buf, report, h.exponent); err != nil {
		h.Error(c, fmt.Errorf("export sales report: %w", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, ExportFilename(report)))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// ExportFilename names the workbook of a report, e.g. sales-WEB-2024-03-01-2024-03-31.xlsx.
func ExportFilename(r *reports.SalesReport) string {
	return fmt.Sprintf("sales-%s-%s-%s.xlsx",
		r.Channel.Code,
		r.Period.From.Format(dto.DateLayout),
		r.Period.To.Format(dto.DateLayout),
	)
}
