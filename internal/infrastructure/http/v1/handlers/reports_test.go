package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salesreports/internal/core/apperror"
	appctx "salesreports/internal/core/context"
	"salesreports/internal/domain/reports"
	"salesreports/internal/infrastructure/export"
	"salesreports/internal/infrastructure/http/v1/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubReporter records the filter of the last call and returns canned results.
type stubReporter struct {
	filter  reports.SalesFilter
	channel string
	called  string
	err     error

	summary reports.Summary
	grouped reports.GroupedTotals
	report  reports.SalesReport
}

func (s *stubReporter) record(ctx context.Context, name string, f reports.SalesFilter) {
	s.called = name
	s.filter = f
	s.channel = appctx.GetChannel(ctx)
}

func (s *stubReporter) sum(ctx context.Context, name string, f reports.SalesFilter) (*reports.Summary, error) {
	s.record(ctx, name, f)
	if s.err != nil {
		return nil, s.err
	}
	return &s.summary, nil
}

func (s *stubReporter) group(ctx context.Context, name string, f reports.SalesFilter) (*reports.GroupedTotals, error) {
	s.record(ctx, name, f)
	if s.err != nil {
		return nil, s.err
	}
	return &s.grouped, nil
}

func (s *stubReporter) TotalSales(ctx context.Context, f reports.SalesFilter) (*reports.Summary, error) {
	return s.sum(ctx, "total", f)
}

func (s *stubReporter) AverageSales(ctx context.Context, f reports.SalesFilter) (*reports.Summary, error) {
	return s.sum(ctx, "average", f)
}

func (s *stubReporter) SalesByProduct(ctx context.Context, f reports.SalesFilter) (*reports.GroupedTotals, error) {
	return s.group(ctx, "products", f)
}

func (s *stubReporter) SalesByVariant(ctx context.Context, f reports.SalesFilter) (*reports.GroupedTotals, error) {
	return s.group(ctx, "variants", f)
}

func (s *stubReporter) SalesByOption(ctx context.Context, f reports.SalesFilter) (*reports.GroupedTotals, error) {
	return s.group(ctx, "options", f)
}

func (s *stubReporter) SalesByOptionValue(ctx context.Context, f reports.SalesFilter) (*reports.GroupedTotals, error) {
	return s.group(ctx, "option_values", f)
}

func (s *stubReporter) Overview(ctx context.Context, f reports.SalesFilter) (*reports.SalesReport, error) {
	s.record(ctx, "overview", f)
	if s.err != nil {
		return nil, s.err
	}
	return &s.report, nil
}

func newReportsEngine(svc SalesReporter) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Trace(), middleware.ErrorHandler())
	NewReportsHandler(NewBaseHandler(), svc, time.UTC, 2).RegisterRoutes(r.Group("/api/v1/reports/sales"))
	return r
}

func get(t *testing.T, r http.Handler, url string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	var body map[string]any
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func sampleReport() reports.SalesReport {
	variants := reports.NewGroupAccumulator(reports.GroupSpec{Group: reports.FieldVariantID, Label: reports.FieldVariantName})
	variants.Add(reports.SourceRow{OrderID: "1", VariantID: "v1", VariantName: "Small", Total: 1000})
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return reports.SalesReport{
		Channel:  reports.Channel{ID: 1, Code: "WEB", DefaultLocaleCode: "en_US"},
		Period:   reports.Period{From: from, To: time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)},
		IsPeriod: true,
		Total:    reports.Summary{Totals: reports.Totals{Total: 1000}},
		Average:  reports.Summary{Totals: reports.Totals{Total: 1000}, NumberOfElements: 1},
		Variants: variants.Result(),
		Custom:   []reports.CustomReport{{Key: "refunds", Data: [][]any{{"order", "amount"}, {"1", 10}}}},
	}
}

func TestReportsHandler_Total(t *testing.T) {
	svc := &stubReporter{summary: reports.Summary{Totals: reports.Totals{WithoutTax: 900, Tax: 100, Total: 1000}}}

	w, body := get(t, newReportsEngine(svc), "/api/v1/reports/sales/total?channel=WEB&date=2024-03-05")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "total", svc.called)
	assert.Equal(t, "WEB", svc.filter.ChannelCode)
	assert.Equal(t, "WEB", svc.channel)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), svc.filter.From)
	assert.Nil(t, svc.filter.To)
	assert.EqualValues(t, 1000, body["total"])
	assert.EqualValues(t, 100, body["tax"])
	assert.EqualValues(t, 0, body["number_of_elements"])
}

func TestReportsHandler_RoutesToOperation(t *testing.T) {
	tests := map[string]string{
		"/api/v1/reports/sales/average":       "average",
		"/api/v1/reports/sales/products":      "products",
		"/api/v1/reports/sales/variants":      "variants",
		"/api/v1/reports/sales/options":       "options",
		"/api/v1/reports/sales/option-values": "option_values",
		"/api/v1/reports/sales":               "overview",
	}

	for path, op := range tests {
		t.Run(op, func(t *testing.T) {
			svc := &stubReporter{report: sampleReport()}

			w, _ := get(t, newReportsEngine(svc), path+"?channel=WEB&from=2024-03-01&to=2024-03-31")

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, op, svc.called)
		})
	}
}

func TestReportsHandler_ReversedRangeIsSwapped(t *testing.T) {
	svc := &stubReporter{}

	w, _ := get(t, newReportsEngine(svc), "/api/v1/reports/sales/products?channel=WEB&from=2024-03-31&to=2024-03-01")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), svc.filter.From)
	require.NotNil(t, svc.filter.To)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), *svc.filter.To)
}

func TestReportsHandler_GroupedBody(t *testing.T) {
	svc := &stubReporter{grouped: sampleReport().Variants}

	w, body := get(t, newReportsEngine(svc), "/api/v1/reports/sales/variants?channel=WEB&date=2024-03-05")

	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])
	items := body["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "v1", item["variant_id"])
	assert.Equal(t, "Small", item["variant_name"])
	assert.EqualValues(t, 1000, item["total"])
}

func TestReportsHandler_Overview(t *testing.T) {
	svc := &stubReporter{report: sampleReport()}

	w, body := get(t, newReportsEngine(svc), "/api/v1/reports/sales?channel=WEB&from=2024-03-01&to=2024-03-31")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "WEB", body["channel"])
	assert.Equal(t, "2024-03-01 00:00:00", body["from"])
	assert.Equal(t, "2024-03-31 23:59:59", body["to"])
	assert.Equal(t, true, body["is_period"])
	assert.Len(t, body["variants"], 1)
	assert.Empty(t, body["products"])
	custom := body["custom"].([]any)
	require.Len(t, custom, 1)
	assert.Equal(t, "refunds", custom[0].(map[string]any)["key"])
}

func TestReportsHandler_MissingChannel(t *testing.T) {
	svc := &stubReporter{}

	w, body := get(t, newReportsEngine(svc), "/api/v1/reports/sales/total?date=2024-03-05")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, body["code"])
	assert.Equal(t, map[string]any{"field": "channel"}, body["details"])
	assert.Empty(t, svc.called)
}

func TestReportsHandler_InvalidDate(t *testing.T) {
	svc := &stubReporter{}

	w, body := get(t, newReportsEngine(svc), "/api/v1/reports/sales/total?channel=WEB&from=2024-03-01&to=tomorrow")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeInvalidDateRange, body["code"])
	assert.Equal(t, "to", body["details"].(map[string]any)["field"])
	assert.Empty(t, svc.called)
}

func TestReportsHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"missing locale", apperror.NewMissingLocale("WEB"), http.StatusUnprocessableEntity, apperror.CodeMissingLocale},
		{"unknown channel", apperror.NewNotFound("channel", "WEB"), http.StatusNotFound, apperror.CodeNotFound},
		{"database", apperror.NewDatabase(errors.New("conn reset")), http.StatusInternalServerError, apperror.CodeDatabase},
		{"plain", errors.New("boom"), http.StatusInternalServerError, apperror.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubReporter{err: tt.err}

			w, body := get(t, newReportsEngine(svc), "/api/v1/reports/sales/options?channel=WEB&date=2024-03-05")

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestReportsHandler_Export(t *testing.T) {
	svc := &stubReporter{report: sampleReport()}

	w, _ := get(t, newReportsEngine(svc), "/api/v1/reports/sales/export?channel=WEB&from=2024-03-01&to=2024-03-31")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="sales-WEB-2024-03-01-2024-03-31.xlsx"`, w.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Variants")
}

func TestReportsHandler_ExportError(t *testing.T) {
	svc := &stubReporter{err: apperror.NewNotFound("channel", "NOPE")}

	w, body := get(t, newReportsEngine(svc), "/api/v1/reports/sales/export?channel=NOPE&date=2024-03-05")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.CodeNotFound, body["code"])
}
