package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"salesreports/internal/domain/reports"
	"salesreports/internal/infrastructure/storage/postgres"
)

var _ reports.OptionIndex = (*OptionRepo)(nil)

// OptionRepo reads the option and option value labels of every variant.
type OptionRepo struct {
	db      postgres.QuerierProvider
	builder squirrel.StatementBuilderType
}

// NewOptionRepo creates a new option repository.
func NewOptionRepo(db postgres.QuerierProvider) *OptionRepo {
	return &OptionRepo{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

type variantOptionRow struct {
	VariantID        string `db:"variant_id"`
	OptionCode       string `db:"option_code"`
	OptionLabel      string `db:"option_label"`
	OptionValueCode  string `db:"option_value_code"`
	OptionValueLabel string `db:"option_value_label"`
}

// OptionsForLocale returns the option labels of every variant in localeCode.
// Missing translations yield empty labels.
func (r *OptionRepo) OptionsForLocale(ctx context.Context, localeCode string) (reports.VariantOptions, error) {
	sql, args, err := r.optionsQuery(localeCode).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build options query: %w", err)
	}

	var rows []variantOptionRow
	if err := pgxscan.Select(ctx, r.db.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("variant options for %s: %w", localeCode, err)
	}

	out := make(reports.VariantOptions)
	for _, row := range rows {
		out.Set(row.VariantID, reports.OptionEntry{
			OptionCode: row.OptionCode,
			Label:      row.OptionLabel,
			ValueCode:  row.OptionValueCode,
			ValueLabel: row.OptionValueLabel,
		})
	}
	return out, nil
}

func (r *OptionRepo) optionsQuery(localeCode string) squirrel.SelectBuilder {
	return r.builder.
		Select(
			"CAST(v.id AS TEXT) AS variant_id",
			"opt.code AS option_code",
			"COALESCE(opt_t.name, '') AS option_label",
			"ov.code AS option_value_code",
			"COALESCE(ov_t.value, '') AS option_value_label",
		).
		From("sylius_product_variant v").
		Join("sylius_product_variant_option_value vov ON vov.variant_id = v.id").
		Join("sylius_product_option_value ov ON ov.id = vov.option_value_id").
		Join("sylius_product_option opt ON opt.id = ov.option_id").
		LeftJoin("sylius_product_option_value_translation ov_t ON ov_t.translatable_id = ov.id AND ov_t.locale = ?", localeCode).
		LeftJoin("sylius_product_option_translation opt_t ON opt_t.translatable_id = opt.id AND opt_t.locale = ?", localeCode).
		OrderBy("v.id", "opt.position", "opt.code")
}
