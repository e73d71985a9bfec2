// Package reports aggregates order data of one sales channel into totals,
// averages and breakdowns by product, variant, option and option value.
package reports

import (
	"salesreports/internal/core/types"
)

// Granularity is the row level a projection operates at.
type Granularity string

const (
	GranularityOrderItemUnit Granularity = "order_item_unit"
	GranularityOrderItem     Granularity = "order_item"
	GranularityOrder         Granularity = "order"
)

// Valid reports whether g is one of the three known granularities.
func (g Granularity) Valid() bool {
	switch g {
	case GranularityOrderItemUnit, GranularityOrderItem, GranularityOrder:
		return true
	}
	return false
}

// Field names a column of a projected or pivoted row.
// Grouping keys, labels and passthrough fields are all Fields.
type Field string

const (
	FieldOrderID          Field = "order_id"
	FieldProductID        Field = "product_id"
	FieldProductName      Field = "product_name"
	FieldVariantID        Field = "variant_id"
	FieldVariantName      Field = "variant_name"
	FieldOptionCode       Field = "option_code"
	FieldOptionLabel      Field = "option_label"
	FieldOptionValueCode  Field = "option_value_code"
	FieldOptionValueLabel Field = "option_value_label"
)

// Totals is the fixed monetary schema every report is expressed in.
// All amounts are minor currency units.
type Totals struct {
	WithoutTax         types.MinorUnits `json:"without_tax"`
	WithoutTaxPromo    types.MinorUnits `json:"without_tax_promo"`
	WithoutTaxShipping types.MinorUnits `json:"without_tax_shipping"`
	Tax                types.MinorUnits `json:"tax"`
	Total              types.MinorUnits `json:"total"`
	ItemRow            types.MinorUnits `json:"item_row"`
}

// Add returns the field-wise sum of t and o.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		WithoutTax:         t.WithoutTax + o.WithoutTax,
		WithoutTaxPromo:    t.WithoutTaxPromo + o.WithoutTaxPromo,
		WithoutTaxShipping: t.WithoutTaxShipping + o.WithoutTaxShipping,
		Tax:                t.Tax + o.Tax,
		Total:              t.Total + o.Total,
		ItemRow:            t.ItemRow + o.ItemRow,
	}
}

// DivRound divides every field by n, rounding half away from zero.
func (t Totals) DivRound(n int64) Totals {
	return Totals{
		WithoutTax:         t.WithoutTax.DivRound(n),
		WithoutTaxPromo:    t.WithoutTaxPromo.DivRound(n),
		WithoutTaxShipping: t.WithoutTaxShipping.DivRound(n),
		Tax:                t.Tax.DivRound(n),
		Total:              t.Total.DivRound(n),
		ItemRow:            t.ItemRow.DivRound(n),
	}
}

// Summary is a flat report: totals plus the number of distinct elements
// (orders) they were computed over. NumberOfElements is 0 for plain sums.
type Summary struct {
	Totals
	NumberOfElements int `json:"number_of_elements"`
}

// SourceRow is one row produced by a projection.
// Columns a granularity does not own hold zero or empty placeholders.
type SourceRow struct {
	OrderID     string `db:"order_id"`
	ProductID   string `db:"product_id"`
	ProductName string `db:"product_name"`
	VariantID   string `db:"variant_id"`
	VariantName string `db:"variant_name"`

	WithoutTax         types.MinorUnits `db:"without_tax"`
	WithoutTaxPromo    types.MinorUnits `db:"without_tax_promo"`
	WithoutTaxShipping types.MinorUnits `db:"without_tax_shipping"`
	Tax                types.MinorUnits `db:"tax"`
	Total              types.MinorUnits `db:"total"`
	ItemRow            types.MinorUnits `db:"item_row"`
}

func (r SourceRow) OrderIDs() []string {
	return []string{r.OrderID}
}

func (r SourceRow) Amounts() Totals {
	return Totals{
		WithoutTax:         r.WithoutTax,
		WithoutTaxPromo:    r.WithoutTaxPromo,
		WithoutTaxShipping: r.WithoutTaxShipping,
		Tax:                r.Tax,
		Total:              r.Total,
		ItemRow:            r.ItemRow,
	}
}

func (r SourceRow) Field(f Field) (string, bool) {
	switch f {
	case FieldOrderID:
		return r.OrderID, true
	case FieldProductID:
		return r.ProductID, true
	case FieldProductName:
		return r.ProductName, true
	case FieldVariantID:
		return r.VariantID, true
	case FieldVariantName:
		return r.VariantName, true
	}
	return "", false
}

// Channel is the sales context a report is scoped to.
type Channel struct {
	ID                int64  `db:"id"`
	Code              string `db:"code"`
	DefaultLocaleCode string `db:"default_locale_code"`
}

// OptionEntry labels one option of a variant in one locale.
type OptionEntry struct {
	OptionCode string `json:"option_code"`
	Label      string `json:"label"`
	ValueCode  string `json:"value_code"`
	ValueLabel string `json:"value_label"`
}

// VariantOptions maps a variant id to its option entries, at most one per option code.
type VariantOptions map[string][]OptionEntry

// Set records e for the variant, replacing an entry with the same option code.
func (v VariantOptions) Set(variantID string, e OptionEntry) {
	entries := v[variantID]
	for i := range entries {
		if entries[i].OptionCode == e.OptionCode {
			entries[i] = e
			return
		}
	}
	v[variantID] = append(entries, e)
}

// For returns the option entries of a variant, nil when it has none.
func (v VariantOptions) For(variantID string) []OptionEntry {
	return v[variantID]
}
