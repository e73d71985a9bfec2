package dto

import (
	"strings"
	"time"

	"salesreports/internal/core/apperror"
	"salesreports/internal/domain/reports"
)

// --- Sales report request ---

// SalesReportRequest holds the query of every sales report endpoint.
// Either Date or both From and To select the window.
type SalesReportRequest struct {
	Channel string `form:"channel" binding:"required"`
	Date    string `form:"date"`
	From    string `form:"from"`
	To      string `form:"to"`
}

// Filter parses the dates in loc and returns the service filter.
// Reversed from/to dates are swapped.
func (r SalesReportRequest) Filter(loc *time.Location) (reports.SalesFilter, error) {
	filter := reports.SalesFilter{ChannelCode: strings.TrimSpace(r.Channel)}

	if r.Date != "" {
		if r.From != "" || r.To != "" {
			return filter, apperror.NewValidation("date cannot be combined with from and to").
				WithDetail("field", "date")
		}
		day, err := parseDate("date", r.Date, loc)
		if err != nil {
			return filter, err
		}
		filter.From = day
		return filter, nil
	}

	if r.From == "" {
		return filter, apperror.NewInvalidDateRange("from", "either date or from and to are required")
	}
	if r.To == "" {
		return filter, apperror.NewInvalidDateRange("to", "to is required together with from")
	}

	from, err := parseDate("from", r.From, loc)
	if err != nil {
		return filter, err
	}
	to, err := parseDate("to", r.To, loc)
	if err != nil {
		return filter, err
	}
	if from.After(to) {
		from, to = to, from
	}

	filter.From = from
	filter.To = &to
	return filter, nil
}

func parseDate(field, value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, apperror.NewInvalidDateRange(field, "expected a date formatted as YYYY-MM-DD").
			WithDetail("value", value)
	}
	return t, nil
}

// --- Sales report responses ---

// SummaryResponse is a flat report.
type SummaryResponse struct {
	reports.Totals
	NumberOfElements int `json:"number_of_elements"`
}

// FromSummary converts a domain summary to response DTO.
func FromSummary(s *reports.Summary) SummaryResponse {
	return SummaryResponse{Totals: s.Totals, NumberOfElements: s.NumberOfElements}
}

// GroupRow is one group of a grouped report. Keys are the grouping's key,
// label and passthrough field names plus the amount columns.
type GroupRow map[string]any

// FromGroupedTotals renders groups in the order they were first seen.
func FromGroupedTotals(g *reports.GroupedTotals) ListResponse[GroupRow] {
	rows := make([]GroupRow, 0, g.Len())
	g.Each(func(e *reports.GroupEntry) {
		rows = append(rows, groupRow(g.Spec, e))
	})
	return NewListResponse(rows)
}

func groupRow(spec reports.GroupSpec, e *reports.GroupEntry) GroupRow {
	row := GroupRow{
		string(spec.Group):     e.Key,
		"order_id":             e.OrderID,
		"number_of_elements":   e.NumberOfElements,
		"without_tax":          e.Totals.WithoutTax,
		"without_tax_promo":    e.Totals.WithoutTaxPromo,
		"without_tax_shipping": e.Totals.WithoutTaxShipping,
		"tax":                  e.Totals.Tax,
		"total":                e.Totals.Total,
		"item_row":             e.Totals.ItemRow,
	}
	if spec.Label != "" {
		row[string(spec.Label)] = e.Label
	}
	for _, f := range spec.Extra {
		row[string(f)] = e.Extra[f]
	}
	return row
}

// CustomReportResponse is one contributed report section.
type CustomReportResponse struct {
	Key  string `json:"key"`
	Data any    `json:"data"`
}

// SalesReportResponse is the overview of one channel and period.
type SalesReportResponse struct {
	Channel      string                 `json:"channel"`
	From         string                 `json:"from"`
	To           string                 `json:"to"`
	IsPeriod     bool                   `json:"is_period"`
	Total        SummaryResponse        `json:"total"`
	Average      SummaryResponse        `json:"average"`
	Products     []GroupRow             `json:"products"`
	Variants     []GroupRow             `json:"variants"`
	Options      []GroupRow             `json:"options"`
	OptionValues []GroupRow             `json:"option_values"`
	Custom       []CustomReportResponse `json:"custom"`
}

// FromSalesReport converts the domain overview to response DTO.
func FromSalesReport(r *reports.SalesReport) SalesReportResponse {
	resp := SalesReportResponse{
		Channel:      r.Channel.Code,
		From:         r.Period.From.Format(time.DateTime),
		To:           r.Period.To.Format(time.DateTime),
		IsPeriod:     r.IsPeriod,
		Total:        FromSummary(&r.Total),
		Average:      FromSummary(&r.Average),
		Products:     FromGroupedTotals(&r.Products).Items,
		Variants:     FromGroupedTotals(&r.Variants).Items,
		Options:      FromGroupedTotals(&r.Options).Items,
		OptionValues: FromGroupedTotals(&r.OptionValues).Items,
		Custom:       make([]CustomReportResponse, len(r.Custom)),
	}
	for i, c := range r.Custom {
		resp.Custom[i] = CustomReportResponse{Key: c.Key, Data: c.Data}
	}
	return resp
}
