package reports

import (
	"context"
	"sync"

	"salesreports/internal/core/apperror"
	"salesreports/internal/core/types"
)

type inTxKey struct{}

// fakeTx marks the context it hands to fn so sources can see they run inside it.
type fakeTx struct {
	readOnlyCalls int
}

func (m *fakeTx) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	m.readOnlyCalls++
	return fn(context.WithValue(ctx, inTxKey{}, true))
}

type sourceCall struct {
	query ProjectionQuery
	inTx  bool
}

type fakeSource struct {
	mu    sync.Mutex
	rows  map[Granularity][]SourceRow
	err   error
	calls []sourceCall
}

func newFakeSource() *fakeSource {
	return &fakeSource{rows: make(map[Granularity][]SourceRow)}
}

func (s *fakeSource) Project(ctx context.Context, q ProjectionQuery) ([]SourceRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inTx, _ := ctx.Value(inTxKey{}).(bool)
	s.calls = append(s.calls, sourceCall{query: q, inTx: inTx})
	if s.err != nil {
		return nil, s.err
	}
	return append([]SourceRow(nil), s.rows[q.Granularity]...), nil
}

func (s *fakeSource) granularities() []Granularity {
	out := make([]Granularity, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, c.query.Granularity)
	}
	return out
}

type fakeChannels map[string]Channel

func (f fakeChannels) GetByCode(_ context.Context, code string) (Channel, error) {
	ch, ok := f[code]
	if !ok {
		return Channel{}, apperror.NewNotFound("channel", code)
	}
	return ch, nil
}

type fakeOptions struct {
	options VariantOptions
	err     error
	locales []string
}

func (f *fakeOptions) OptionsForLocale(_ context.Context, locale string) (VariantOptions, error) {
	f.locales = append(f.locales, locale)
	if f.err != nil {
		return nil, f.err
	}
	return f.options, nil
}

var (
	webChannel      = Channel{ID: 1, Code: "WEB", DefaultLocaleCode: "en_US"}
	noLocaleChannel = Channel{ID: 2, Code: "B2B"}
)

type fixture struct {
	source  *fakeSource
	options *fakeOptions
	tx      *fakeTx
	service *Service
}

func newFixture() *fixture {
	f := &fixture{
		source:  newFakeSource(),
		options: &fakeOptions{options: VariantOptions{}},
		tx:      &fakeTx{},
	}
	f.service = NewService(
		NewProjector(f.source, DefaultEligibilityPolicy(), DefaultAdjustmentTypes()),
		fakeChannels{webChannel.Code: webChannel, noLocaleChannel.Code: noLocaleChannel},
		f.options,
		f.tx,
	)
	return f
}

func unit(order, product, variant string, withoutTax int64) SourceRow {
	return SourceRow{
		OrderID:     order,
		ProductID:   product,
		ProductName: "Product " + product,
		VariantID:   variant,
		VariantName: "Variant " + variant,
		WithoutTax:  types.MinorUnits(withoutTax),
	}
}

func item(order, product, variant string, itemRow int64) SourceRow {
	return SourceRow{
		OrderID:     order,
		ProductID:   product,
		ProductName: "Product " + product,
		VariantID:   variant,
		VariantName: "Variant " + variant,
		ItemRow:     types.MinorUnits(itemRow),
	}
}

func order(id string, total int64) SourceRow {
	return SourceRow{OrderID: id, Total: types.MinorUnits(total)}
}
