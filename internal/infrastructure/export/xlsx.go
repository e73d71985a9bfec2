// Package export renders sales reports as XLSX workbooks.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"salesreports/internal/core/types"
	"salesreports/internal/domain/reports"
)

// ContentType is the MIME type of the written workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const maxSheetName = 31

var amountHeaders = []string{
	"without_tax",
	"without_tax_promo",
	"without_tax_shipping",
	"tax",
	"total",
	"item_row",
}

// WriteSalesReport writes one sheet per report section of r to w.
// Amounts are written in major units using exponent decimal places.
func WriteSalesReport(w io.Writer, r *reports.SalesReport, exponent int32) error {
	f := excelize.NewFile()
	defer f.Close()

	x := &workbook{f: f, exponent: exponent}

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	x.summary(r)

	x.grouped("Products", r.Products)
	x.grouped("Variants", r.Variants)
	x.grouped("Options", r.Options)
	x.grouped("Option values", r.OptionValues)

	for _, c := range r.Custom {
		table, ok := c.Data.([][]any)
		if !ok {
			continue
		}
		x.table(x.customSheetName(c.Key), table)
	}

	if x.err != nil {
		return x.err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// workbook keeps the first error so sheet writers can stay linear.
type workbook struct {
	f        *excelize.File
	exponent int32
	err      error
}

func (x *workbook) row(sheet string, rowNo int, values ...any) {
	if x.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, rowNo)
	if err != nil {
		x.err = err
		return
	}
	if err := x.f.SetSheetRow(sheet, cell, &values); err != nil {
		x.err = fmt.Errorf("sheet %s row %d: %w", sheet, rowNo, err)
	}
}

func (x *workbook) newSheet(name string) bool {
	if x.err != nil {
		return false
	}
	if _, err := x.f.NewSheet(name); err != nil {
		x.err = fmt.Errorf("create sheet %s: %w", name, err)
		return false
	}
	return true
}

func (x *workbook) amounts(t reports.Totals) []any {
	out := make([]any, 0, len(amountHeaders))
	for _, v := range []types.MinorUnits{t.WithoutTax, t.WithoutTaxPromo, t.WithoutTaxShipping, t.Tax, t.Total, t.ItemRow} {
		out = append(out, v.ToMoney(x.exponent).InexactFloat64())
	}
	return out
}

func (x *workbook) summary(r *reports.SalesReport) {
	const sheet = "Summary"
	x.row(sheet, 1, "channel", r.Channel.Code)
	x.row(sheet, 2, "from", r.Period.From.Format("2006-01-02"))
	x.row(sheet, 3, "to", r.Period.To.Format("2006-01-02"))

	header := append([]any{"report", "number_of_elements"}, toAny(amountHeaders)...)
	x.row(sheet, 5, header...)
	x.row(sheet, 6, append([]any{"total", r.Total.NumberOfElements}, x.amounts(r.Total.Totals)...)...)
	x.row(sheet, 7, append([]any{"average", r.Average.NumberOfElements}, x.amounts(r.Average.Totals)...)...)
}

func (x *workbook) grouped(sheet string, g reports.GroupedTotals) {
	if !x.newSheet(sheet) {
		return
	}

	header := []any{string(g.Spec.Group)}
	if g.Spec.Label != "" {
		header = append(header, string(g.Spec.Label))
	}
	for _, f := range g.Spec.Extra {
		header = append(header, string(f))
	}
	header = append(header, "number_of_elements")
	header = append(header, toAny(amountHeaders)...)
	x.row(sheet, 1, header...)

	rowNo := 2
	g.Each(func(e *reports.GroupEntry) {
		values := []any{e.Key}
		if g.Spec.Label != "" {
			values = append(values, e.Label)
		}
		for _, f := range g.Spec.Extra {
			values = append(values, e.Extra[f])
		}
		values = append(values, e.NumberOfElements)
		values = append(values, x.amounts(e.Totals)...)
		x.row(sheet, rowNo, values...)
		rowNo++
	})
}

func (x *workbook) table(sheet string, rows [][]any) {
	if !x.newSheet(sheet) {
		return
	}
	for i, r := range rows {
		x.row(sheet, i+1, r...)
	}
}

var sheetNameReplacer = strings.NewReplacer(
	":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

// customSheetName turns a report key into a sheet name Excel accepts that
// does not collide with a sheet already in the workbook.
func (x *workbook) customSheetName(key string) string {
	base := strings.Trim(sheetNameReplacer.Replace(strings.TrimSpace(key)), "'")
	if base == "" {
		base = "Custom"
	}

	taken := make(map[string]bool)
	for _, s := range x.f.GetSheetList() {
		taken[strings.ToLower(s)] = true
	}

	name := truncateRunes(base, maxSheetName)
	for n := 2; taken[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	return name
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) > limit {
		return string(r[:limit])
	}
	return s
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
