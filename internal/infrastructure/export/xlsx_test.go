package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salesreports/internal/domain/reports"
)

func sampleReport() *reports.SalesReport {
	rows := []reports.PivotRow{
		{VariantID: "10", LastOrderID: "1", Orders: []string{"1"}, Totals: reports.Totals{WithoutTax: 1050, Tax: 210},
			OptionCode: "size", OptionLabel: "Size", OptionValueCode: "size_s", OptionValueLabel: "S"},
		{VariantID: "11", LastOrderID: "2", Orders: []string{"2"}, Totals: reports.Totals{WithoutTax: 2000},
			OptionCode: "size", OptionLabel: "Size", OptionValueCode: "size_m", OptionValueLabel: "M"},
	}
	values := reports.AccumulateGroups(reports.NewGroupAccumulator(reports.GroupSpec{
		Group: reports.FieldOptionValueCode,
		Label: reports.FieldOptionValueLabel,
		Extra: []reports.Field{reports.FieldOptionCode, reports.FieldOptionLabel},
	}), rows).Result()
	options := reports.AccumulateGroups(reports.NewGroupAccumulator(reports.GroupSpec{
		Group: reports.FieldOptionCode,
		Label: reports.FieldOptionLabel,
	}), rows).Result()

	return &reports.SalesReport{
		Channel: reports.Channel{Code: "WEB"},
		Period: reports.Period{
			From: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2024, 5, 2, 23, 59, 59, 0, time.UTC),
		},
		Total:        reports.Summary{Totals: reports.Totals{Total: 3260}},
		Average:      reports.Summary{Totals: reports.Totals{Total: 1630}, NumberOfElements: 2},
		Options:      options,
		OptionValues: values,
		Custom: []reports.CustomReport{
			{Key: "top customers", Data: [][]any{{"customer", "orders"}, {"ada", 2}}},
			{Key: "ignored", Data: 42},
		},
	}
}

func TestWriteSalesReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSalesReport(&buf, sampleReport(), 2))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t,
		[]string{"Summary", "Products", "Variants", "Options", "Option values", "top customers"},
		f.GetSheetList())

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, []string{"channel", "WEB"}, summary[0])
	assert.Equal(t, []string{"from", "2024-05-01"}, summary[1])
	assert.Equal(t, []string{"average", "2", "0", "0", "0", "0", "16.3", "0"}, summary[6])

	values, err := f.GetRows("Option values")
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.Equal(t, []string{
		"option_value_code", "option_value_label", "option_code", "option_label", "number_of_elements",
		"without_tax", "without_tax_promo", "without_tax_shipping", "tax", "total", "item_row",
	}, values[0])
	assert.Equal(t, []string{"size_s", "S", "size", "Size", "1", "10.5", "0", "0", "2.1", "0", "0"}, values[1])

	opts, err := f.GetRows("Options")
	require.NoError(t, err)
	assert.Equal(t, []string{"size", "Size", "2", "30.5", "0", "0", "2.1", "0", "0"}, opts[1])

	products, err := f.GetRows("Products")
	require.NoError(t, err)
	assert.Len(t, products, 1, "header only")

	custom, err := f.GetRows("top customers")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"customer", "orders"}, {"ada", "2"}}, custom)
}

func TestCustomSheetName(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet("Products")
	require.NoError(t, err)
	x := &workbook{f: f}

	tests := []struct {
		key  string
		want string
	}{
		{"short", "short"},
		{"sales/region", "sales_region"},
		{"a:b\\c?d*e[f]", "a_b_c_d_e_f_"},
		{"products", "products (2)"},
		{"Sheet1", "Sheet1 (2)"},
		{"   ", "Custom"},
		{"a custom report key that is far too long for excel", "a custom report key that is far"},
		{"отчёт по региональным продажам за квартал", "отчёт по региональным продажам "},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, x.customSheetName(tt.key))
		})
	}
}

func TestWriteSalesReport_CustomKeysKeepBuiltInSheets(t *testing.T) {
	r := sampleReport()
	r.Custom = []reports.CustomReport{
		{Key: "Products", Data: [][]any{{"HIJACKED"}}},
		{Key: "sales/region", Data: [][]any{{"region", "total"}, {"north", 10}}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSalesReport(&buf, r, 2))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t,
		[]string{"Summary", "Products", "Variants", "Options", "Option values", "Products (2)", "sales_region"},
		f.GetSheetList())

	header, err := f.GetCellValue("Products", "B1")
	require.NoError(t, err)
	assert.Equal(t, "number_of_elements", header)

	hijack, err := f.GetCellValue("Products (2)", "A1")
	require.NoError(t, err)
	assert.Equal(t, "HIJACKED", hijack)

	region, err := f.GetRows("sales_region")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"region", "total"}, {"north", "10"}}, region)
}
