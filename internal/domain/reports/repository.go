package reports

import (
	"context"
)

// OrderSource runs one filtered projection over orders, items, units and adjustments.
type OrderSource interface {
	Project(ctx context.Context, q ProjectionQuery) ([]SourceRow, error)
}

// OptionIndex returns, for one locale, the option labels of every variant.
type OptionIndex interface {
	OptionsForLocale(ctx context.Context, localeCode string) (VariantOptions, error)
}

// ChannelRepository resolves channels by code.
type ChannelRepository interface {
	GetByCode(ctx context.Context, code string) (Channel, error)
}
