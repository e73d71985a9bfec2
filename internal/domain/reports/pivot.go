package reports

import (
	"context"

	"salesreports/internal/core/apperror"
)

// PivotRow is one (variant group, option) pair of a variant-grouped result.
// It keeps every order of the variant group so regrouping still counts
// distinct orders.
type PivotRow struct {
	VariantID        string
	VariantName      string
	LastOrderID      string
	Orders           []string
	Totals           Totals
	OptionCode       string
	OptionLabel      string
	OptionValueCode  string
	OptionValueLabel string
}

func (p PivotRow) OrderIDs() []string {
	return p.Orders
}

func (p PivotRow) Amounts() Totals {
	return p.Totals
}

func (p PivotRow) Field(f Field) (string, bool) {
	switch f {
	case FieldOrderID:
		return p.LastOrderID, true
	case FieldVariantID:
		return p.VariantID, true
	case FieldVariantName:
		return p.VariantName, true
	case FieldOptionCode:
		return p.OptionCode, true
	case FieldOptionLabel:
		return p.OptionLabel, true
	case FieldOptionValueCode:
		return p.OptionValueCode, true
	case FieldOptionValueLabel:
		return p.OptionValueLabel, true
	}
	return "", false
}

// Pivot fans every variant group out into one row per option of the variant.
// Variants without options produce no rows.
func Pivot(variants GroupedTotals, options VariantOptions) []PivotRow {
	var rows []PivotRow
	variants.Each(func(e *GroupEntry) {
		orders := e.OrderIDs()
		for _, opt := range options.For(e.Key) {
			rows = append(rows, PivotRow{
				VariantID:        e.Key,
				VariantName:      e.Label,
				LastOrderID:      e.OrderID,
				Orders:           orders,
				Totals:           e.Totals,
				OptionCode:       opt.OptionCode,
				OptionLabel:      opt.Label,
				OptionValueCode:  opt.ValueCode,
				OptionValueLabel: opt.ValueLabel,
			})
		}
	})
	return rows
}

// PivotByOption looks up the option labels in the channel's default locale
// and pivots the variant groups through them.
func PivotByOption(ctx context.Context, variants GroupedTotals, channel Channel, index OptionIndex) ([]PivotRow, error) {
	if channel.DefaultLocaleCode == "" {
		return nil, apperror.NewMissingLocale(channel.Code)
	}
	options, err := index.OptionsForLocale(ctx, channel.DefaultLocaleCode)
	if err != nil {
		return nil, err
	}
	return Pivot(variants, options), nil
}
