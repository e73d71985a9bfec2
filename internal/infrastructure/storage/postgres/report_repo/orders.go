// Package report_repo provides PostgreSQL implementations of the report data sources.
package report_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"salesreports/internal/domain/reports"
	"salesreports/internal/infrastructure/storage/postgres"
)

// Compile-time check that OrderRowRepo implements reports.OrderSource.
var _ reports.OrderSource = (*OrderRowRepo)(nil)

// adjustment join aliases, one per adjustment kind
var adjustmentAliases = map[reports.AdjustmentKind]string{
	reports.AdjustmentTax:                    "tax_adjustment",
	reports.AdjustmentShipping:               "shipping_adjustment",
	reports.AdjustmentOrderPromotion:         "order_promotion_adjustment",
	reports.AdjustmentOrderItemPromotion:     "order_item_promotion_adjustment",
	reports.AdjustmentOrderShippingPromotion: "order_shipping_promotion_adjustment",
	reports.AdjustmentOrderUnitPromotion:     "order_unit_promotion_adjustment",
}

// OrderRowRepo projects orders, order items and order item units with their
// adjustments into reports.SourceRow.
type OrderRowRepo struct {
	db      postgres.QuerierProvider
	builder squirrel.StatementBuilderType
}

// NewOrderRowRepo creates a new order row repository.
func NewOrderRowRepo(db postgres.QuerierProvider) *OrderRowRepo {
	return &OrderRowRepo{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Project runs the projection of q.Granularity.
func (r *OrderRowRepo) Project(ctx context.Context, q reports.ProjectionQuery) ([]reports.SourceRow, error) {
	query, err := r.projection(q)
	if err != nil {
		return nil, err
	}
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s projection: %w", q.Granularity, err)
	}

	var rows []reports.SourceRow
	if err := pgxscan.Select(ctx, r.db.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("project %s rows: %w", q.Granularity, err)
	}
	return rows, nil
}

// sourceColumns is the select list every projection has to provide.
var sourceColumns = postgres.ExtractDBColumns[reports.SourceRow]()

// projection builds the SELECT for one granularity. "element" is the alias of
// the row owner the adjustments are attached to.
func (r *OrderRowRepo) projection(q reports.ProjectionQuery) (squirrel.SelectBuilder, error) {
	var (
		exprs   map[string]string
		joins   []string
		element string
		owner   string
	)

	switch q.Granularity {
	case reports.GranularityOrderItemUnit:
		exprs = map[string]string{
			"product_id":   "COALESCE(CAST(variant.product_id AS TEXT), '')",
			"product_name": "COALESCE(item.product_name, '')",
			"variant_id":   "COALESCE(CAST(item.variant_id AS TEXT), '')",
			"variant_name": "CONCAT(item.product_name, ' ', item.variant_name)",
			"without_tax":  "CAST(COALESCE(item.unit_price, 0) - COALESCE(tax_adjustment.neutral_amount, 0) AS BIGINT)",
		}
		joins = []string{
			"sylius_order_item item ON item.order_id = o.id",
			"sylius_product_variant variant ON variant.id = item.variant_id",
			"sylius_order_item_unit element ON element.order_item_id = item.id",
		}
		element, owner = "element", "order_item_unit_id"

	case reports.GranularityOrderItem:
		exprs = map[string]string{
			"product_id":   "COALESCE(CAST(variant.product_id AS TEXT), '')",
			"product_name": "COALESCE(element.product_name, '')",
			"variant_id":   "COALESCE(CAST(element.variant_id AS TEXT), '')",
			"variant_name": "CONCAT(element.product_name, ' ', element.variant_name)",
			"without_tax":  "CAST(0 AS BIGINT)",
		}
		joins = []string{
			"sylius_order_item element ON element.order_id = o.id",
			"sylius_product_variant variant ON variant.id = element.variant_id",
		}
		element, owner = "element", "order_item_id"

	case reports.GranularityOrder:
		exprs = map[string]string{
			"product_id":   "''",
			"product_name": "''",
			"variant_id":   "''",
			"variant_name": "''",
			"without_tax":  "CAST(0 AS BIGINT)",
		}
		element, owner = "o", "order_id"

	default:
		return squirrel.SelectBuilder{}, fmt.Errorf("unknown granularity %q", q.Granularity)
	}

	promo := make([]string, 0, len(reports.PromotionKinds))
	for _, k := range reports.PromotionKinds {
		promo = append(promo, fmt.Sprintf("COALESCE(%s.amount, 0)", adjustmentAliases[k]))
	}
	exprs["order_id"] = "CAST(o.id AS TEXT)"
	exprs["without_tax_promo"] = fmt.Sprintf("CAST(%s AS BIGINT)", strings.Join(promo, " + "))
	exprs["without_tax_shipping"] = "CAST(COALESCE(shipping_adjustment.amount, 0) AS BIGINT)"
	exprs["tax"] = "CAST(COALESCE(tax_adjustment.amount, 0) AS BIGINT)"
	exprs["total"] = totalColumn(q.Granularity)
	exprs["item_row"] = itemRowColumn(q.Granularity)

	columns, err := postgres.AliasedColumns(sourceColumns, exprs)
	if err != nil {
		return squirrel.SelectBuilder{}, fmt.Errorf("%s projection: %w", q.Granularity, err)
	}

	query := r.builder.Select(columns...).From("sylius_order o")
	for _, j := range joins {
		query = query.LeftJoin(j)
	}

	for _, k := range reports.AdjustmentKinds {
		sub, args, err := adjustmentSubquery(owner, q.Adjustments.TypesFor(k))
		if err != nil {
			return squirrel.SelectBuilder{}, err
		}
		alias := adjustmentAliases[k]
		query = query.LeftJoin(
			fmt.Sprintf("(%s) %s ON %s.owner_id = %s.id", sub, alias, alias, element),
			args...,
		)
	}

	return query.
		Where(squirrel.Eq{"o.channel_id": q.ChannelID}).
		Where(squirrel.Eq{"o.state": q.Eligibility.OrderStates}).
		Where(squirrel.Eq{"o.payment_state": q.Eligibility.PaymentStates}).
		Where(squirrel.Expr("o.checkout_completed_at BETWEEN ? AND ?", q.Period.From, q.Period.To)).
		OrderBy("o.id"), nil
}

// adjustmentSubquery sums the adjustments of the given types per owner row,
// so several adjustments of one kind never multiply the projected rows.
func adjustmentSubquery(owner string, types []string) (string, []any, error) {
	sql, args, err := squirrel.
		Select(
			owner+" AS owner_id",
			"SUM(amount) AS amount",
			"SUM(CASE WHEN is_neutral THEN amount ELSE 0 END) AS neutral_amount",
		).
		From("sylius_adjustment").
		Where(squirrel.Eq{"type": types}).
		Where(squirrel.NotEq{owner: nil}).
		GroupBy(owner).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build adjustment subquery: %w", err)
	}
	return sql, args, nil
}

func totalColumn(g reports.Granularity) string {
	if g == reports.GranularityOrder {
		return "CAST(o.total AS BIGINT)"
	}
	return "CAST(0 AS BIGINT)"
}

func itemRowColumn(g reports.Granularity) string {
	if g == reports.GranularityOrderItem {
		return "CAST(COALESCE(element.total, 0) AS BIGINT)"
	}
	return "CAST(0 AS BIGINT)"
}
