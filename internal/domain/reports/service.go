package reports

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"salesreports/internal/core/apperror"
	"salesreports/internal/core/tx"
	"salesreports/pkg/logger"
)

var tracer = otel.Tracer("salesreports/reports")

// SalesFilter selects a channel and a date or date range.
// A nil To means the single day of From.
type SalesFilter struct {
	ChannelCode string
	From        time.Time
	To          *time.Time
}

// SalesReport bundles every report of one channel and period.
type SalesReport struct {
	Channel      Channel
	Period       Period
	IsPeriod     bool
	Total        Summary
	Average      Summary
	Products     GroupedTotals
	Variants     GroupedTotals
	Options      GroupedTotals
	OptionValues GroupedTotals
	Custom       []CustomReport
}

// Service provides the sales report operations.
// It keeps no state between calls besides its collaborators.
type Service struct {
	projector    *Projector
	channels     ChannelRepository
	options      OptionIndex
	txManager    tx.ReadOnlyManager
	contributors *Contributors
}

// NewService creates a new reports service.
func NewService(
	projector *Projector,
	channels ChannelRepository,
	options OptionIndex,
	txManager tx.ReadOnlyManager,
) *Service {
	return &Service{
		projector:    projector,
		channels:     channels,
		options:      options,
		txManager:    txManager,
		contributors: &Contributors{},
	}
}

// Contributors returns the registry custom report contributors are added to.
func (s *Service) Contributors() *Contributors {
	return s.contributors
}

// TotalSales sums unit, item and order rows of the period.
func (s *Service) TotalSales(ctx context.Context, filter SalesFilter) (*Summary, error) {
	var out Summary
	err := s.run(ctx, "total", filter, func(ctx context.Context, ch Channel, p Period) error {
		acc, err := s.accumulateAll(ctx, ch, p, NewAccumulator())
		if err != nil {
			return err
		}
		out = acc.Sum()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("total sales: %w", err)
	}
	return &out, nil
}

// AverageSales is TotalSales averaged per distinct order.
func (s *Service) AverageSales(ctx context.Context, filter SalesFilter) (*Summary, error) {
	var out Summary
	err := s.run(ctx, "average", filter, func(ctx context.Context, ch Channel, p Period) error {
		acc, err := s.accumulateAll(ctx, ch, p, NewAccumulatorBy(FieldOrderID))
		if err != nil {
			return err
		}
		out = acc.Average()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("average sales: %w", err)
	}
	return &out, nil
}

// SalesByVariant groups unit and item rows by variant.
func (s *Service) SalesByVariant(ctx context.Context, filter SalesFilter) (*GroupedTotals, error) {
	return s.grouped(ctx, "variants", filter, s.salesByVariant)
}

// SalesByProduct groups unit and item rows by product.
func (s *Service) SalesByProduct(ctx context.Context, filter SalesFilter) (*GroupedTotals, error) {
	return s.grouped(ctx, "products", filter, s.salesByProduct)
}

// SalesByOption regroups the variant report by product option.
func (s *Service) SalesByOption(ctx context.Context, filter SalesFilter) (*GroupedTotals, error) {
	return s.grouped(ctx, "options", filter, s.salesByOption)
}

// SalesByOptionValue regroups the variant report by option value.
func (s *Service) SalesByOptionValue(ctx context.Context, filter SalesFilter) (*GroupedTotals, error) {
	return s.grouped(ctx, "option_values", filter, s.salesByOptionValue)
}

// Overview runs every report for the filter and collects custom report sections.
func (s *Service) Overview(ctx context.Context, filter SalesFilter) (*SalesReport, error) {
	report := &SalesReport{}
	err := s.run(ctx, "overview", filter, func(ctx context.Context, ch Channel, p Period) error {
		report.Channel = ch
		report.Period = p
		report.IsPeriod = filter.To != nil

		total, err := s.accumulateAll(ctx, ch, p, NewAccumulator())
		if err != nil {
			return err
		}
		report.Total = total.Sum()

		average, err := s.accumulateAll(ctx, ch, p, NewAccumulatorBy(FieldOrderID))
		if err != nil {
			return err
		}
		report.Average = average.Average()

		if report.Products, err = s.salesByProduct(ctx, ch, p); err != nil {
			return err
		}
		if report.Variants, err = s.salesByVariant(ctx, ch, p); err != nil {
			return err
		}
		if report.Options, err = s.salesByOption(ctx, ch, p); err != nil {
			return err
		}
		if report.OptionValues, err = s.salesByOptionValue(ctx, ch, p); err != nil {
			return err
		}

		custom, err := s.contributors.Collect(ctx, CustomReportContext{
			Channel:  ch,
			FromDate: p.From,
			ToDate:   p.To,
		})
		if err != nil {
			return err
		}
		report.Custom = custom.Entries()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sales overview: %w", err)
	}
	return report, nil
}

type groupedReport func(ctx context.Context, ch Channel, p Period) (GroupedTotals, error)

func (s *Service) grouped(ctx context.Context, name string, filter SalesFilter, fn groupedReport) (*GroupedTotals, error) {
	var out GroupedTotals
	err := s.run(ctx, name, filter, func(ctx context.Context, ch Channel, p Period) error {
		var err error
		out, err = fn(ctx, ch, p)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("sales by %s: %w", name, err)
	}
	return &out, nil
}

// run normalizes the period, resolves the channel and executes fn inside
// one read-only transaction.
func (s *Service) run(
	ctx context.Context,
	name string,
	filter SalesFilter,
	fn func(ctx context.Context, ch Channel, p Period) error,
) error {
	ctx, span := tracer.Start(ctx, "reports."+name,
		trace.WithAttributes(attribute.String("channel", filter.ChannelCode)))
	defer span.End()

	period, err := NormalizePeriod(filter.From, filter.To)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(
		attribute.String("from", period.From.Format(time.DateTime)),
		attribute.String("to", period.To.Format(time.DateTime)),
	)

	started := time.Now()
	err = s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		ch, err := s.channels.GetByCode(ctx, filter.ChannelCode)
		if err != nil {
			return err
		}
		return fn(ctx, ch, period)
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	logger.Info(ctx, "sales report built",
		"report", name,
		"channel", filter.ChannelCode,
		"from", period.From,
		"to", period.To,
		"days", period.Days(),
		"elapsed", time.Since(started),
	)
	return nil
}

// accumulateAll folds unit, item and order rows, in that order, into acc.
func (s *Service) accumulateAll(ctx context.Context, ch Channel, p Period, acc *Accumulator) (*Accumulator, error) {
	steps := []struct {
		granularity Granularity
		project     func(context.Context, Channel, Period) ([]SourceRow, error)
	}{
		{GranularityOrderItemUnit, s.projector.OrderItemUnitRows},
		{GranularityOrderItem, s.projector.OrderItemRows},
		{GranularityOrder, s.projector.OrderRows},
	}
	for _, step := range steps {
		rows, err := step.project(ctx, ch, p)
		if err != nil {
			return nil, err
		}
		Accumulate(acc, rows)
		logger.Debug(ctx, "projected rows", "granularity", step.granularity, "rows", len(rows))
	}
	return acc, nil
}

// accumulateItems folds unit then item rows into g.
func (s *Service) accumulateItems(ctx context.Context, ch Channel, p Period, g *GroupAccumulator) (*GroupAccumulator, error) {
	units, err := s.projector.OrderItemUnitRows(ctx, ch, p)
	if err != nil {
		return nil, err
	}
	AccumulateGroups(g, units)
	logger.Debug(ctx, "projected rows", "granularity", GranularityOrderItemUnit, "rows", len(units))

	items, err := s.projector.OrderItemRows(ctx, ch, p)
	if err != nil {
		return nil, err
	}
	AccumulateGroups(g, items)
	logger.Debug(ctx, "projected rows", "granularity", GranularityOrderItem, "rows", len(items))
	return g, nil
}

func (s *Service) salesByVariant(ctx context.Context, ch Channel, p Period) (GroupedTotals, error) {
	g, err := s.accumulateItems(ctx, ch, p, NewGroupAccumulator(GroupSpec{
		Group: FieldVariantID,
		Label: FieldVariantName,
	}))
	if err != nil {
		return GroupedTotals{}, err
	}
	return g.Result(), nil
}

func (s *Service) salesByProduct(ctx context.Context, ch Channel, p Period) (GroupedTotals, error) {
	g, err := s.accumulateItems(ctx, ch, p, NewGroupAccumulator(GroupSpec{
		Group: FieldProductID,
		Label: FieldProductName,
	}))
	if err != nil {
		return GroupedTotals{}, err
	}
	return g.Result(), nil
}

func (s *Service) salesByOption(ctx context.Context, ch Channel, p Period) (GroupedTotals, error) {
	return s.regroupByOption(ctx, ch, p, GroupSpec{
		Group: FieldOptionCode,
		Label: FieldOptionLabel,
	})
}

func (s *Service) salesByOptionValue(ctx context.Context, ch Channel, p Period) (GroupedTotals, error) {
	return s.regroupByOption(ctx, ch, p, GroupSpec{
		Group: FieldOptionValueCode,
		Label: FieldOptionValueLabel,
		Extra: []Field{FieldOptionCode, FieldOptionLabel},
	})
}

// regroupByOption builds the variant report, pivots it through the option
// index and groups the pivoted rows by spec.
func (s *Service) regroupByOption(ctx context.Context, ch Channel, p Period, spec GroupSpec) (GroupedTotals, error) {
	if ch.DefaultLocaleCode == "" {
		return GroupedTotals{}, apperror.NewMissingLocale(ch.Code)
	}
	variants, err := s.salesByVariant(ctx, ch, p)
	if err != nil {
		return GroupedTotals{}, err
	}
	rows, err := PivotByOption(ctx, variants, ch, s.options)
	if err != nil {
		return GroupedTotals{}, err
	}
	return AccumulateGroups(NewGroupAccumulator(spec), rows).Result(), nil
}
