package reports

import (
	"context"

	"salesreports/internal/core/apperror"
)

// Projector issues the three granularity projections for one channel and
// period, under a fixed eligibility policy and adjustment type set.
type Projector struct {
	source      OrderSource
	eligibility EligibilityPolicy
	adjustments AdjustmentTypes
}

// NewProjector creates a projector over source.
func NewProjector(source OrderSource, eligibility EligibilityPolicy, adjustments AdjustmentTypes) *Projector {
	return &Projector{
		source:      source,
		eligibility: eligibility,
		adjustments: adjustments,
	}
}

// OrderItemUnitRows returns one row per order item unit; only without_tax is owned.
func (p *Projector) OrderItemUnitRows(ctx context.Context, channel Channel, period Period) ([]SourceRow, error) {
	return p.project(ctx, channel, period, GranularityOrderItemUnit)
}

// OrderItemRows returns one row per order item; only item_row is owned.
func (p *Projector) OrderItemRows(ctx context.Context, channel Channel, period Period) ([]SourceRow, error) {
	return p.project(ctx, channel, period, GranularityOrderItem)
}

// OrderRows returns one row per order; only total is owned.
func (p *Projector) OrderRows(ctx context.Context, channel Channel, period Period) ([]SourceRow, error) {
	return p.project(ctx, channel, period, GranularityOrder)
}

func (p *Projector) project(ctx context.Context, channel Channel, period Period, g Granularity) ([]SourceRow, error) {
	if !g.Valid() {
		return nil, apperror.NewValidation("unknown projection granularity").WithDetail("granularity", string(g))
	}
	rows, err := p.source.Project(ctx, ProjectionQuery{
		ChannelID:   channel.ID,
		Period:      period,
		Granularity: g,
		Eligibility: p.eligibility,
		Adjustments: p.adjustments,
	})
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i] = clearPlaceholders(g, rows[i])
	}
	return rows, nil
}

// clearPlaceholders zeroes the columns g does not own, so that summing rows
// of all granularities never counts an amount twice.
func clearPlaceholders(g Granularity, r SourceRow) SourceRow {
	switch g {
	case GranularityOrderItemUnit:
		r.ItemRow, r.Total = 0, 0
	case GranularityOrderItem:
		r.WithoutTax, r.Total = 0, 0
	case GranularityOrder:
		r.WithoutTax, r.ItemRow = 0, 0
		r.ProductID, r.ProductName, r.VariantID, r.VariantName = "", "", "", ""
	}
	return r
}
