package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesreports/internal/core/apperror"
)

func TestProjector_ClearsPlaceholderColumns(t *testing.T) {
	full := SourceRow{
		OrderID: "1", ProductID: "p", ProductName: "P", VariantID: "v", VariantName: "V",
		WithoutTax: 10, WithoutTaxPromo: -1, WithoutTaxShipping: 2, Tax: 3, Total: 40, ItemRow: 50,
	}
	src := newFakeSource()
	for _, g := range []Granularity{GranularityOrderItemUnit, GranularityOrderItem, GranularityOrder} {
		src.rows[g] = []SourceRow{full}
	}
	p := NewProjector(src, DefaultEligibilityPolicy(), DefaultAdjustmentTypes())
	ctx := context.Background()
	period, _ := NormalizePeriod(time.Now(), nil)

	units, err := p.OrderItemUnitRows(ctx, webChannel, period)
	require.NoError(t, err)
	items, err := p.OrderItemRows(ctx, webChannel, period)
	require.NoError(t, err)
	orders, err := p.OrderRows(ctx, webChannel, period)
	require.NoError(t, err)

	owned := func(r SourceRow) int {
		n := 0
		for _, v := range []int64{int64(r.WithoutTax), int64(r.ItemRow), int64(r.Total)} {
			if v != 0 {
				n++
			}
		}
		return n
	}
	for _, r := range [][]SourceRow{units, items, orders} {
		require.Len(t, r, 1)
		assert.Equal(t, 1, owned(r[0]))
		assert.EqualValues(t, -1, r[0].WithoutTaxPromo)
		assert.EqualValues(t, 3, r[0].Tax)
	}
	assert.EqualValues(t, 10, units[0].WithoutTax)
	assert.EqualValues(t, 50, items[0].ItemRow)
	assert.EqualValues(t, 40, orders[0].Total)
	assert.Empty(t, orders[0].VariantID)
	assert.Equal(t, "v", items[0].VariantID)
}

func TestProjector_PassesQuery(t *testing.T) {
	src := newFakeSource()
	policy := LegacyEligibilityPolicy()
	adjustments := DefaultAdjustmentTypes()
	p := NewProjector(src, policy, adjustments)
	period, _ := NormalizePeriod(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), nil)

	_, err := p.OrderItemRows(context.Background(), webChannel, period)
	require.NoError(t, err)

	require.Len(t, src.calls, 1)
	q := src.calls[0].query
	assert.Equal(t, webChannel.ID, q.ChannelID)
	assert.Equal(t, GranularityOrderItem, q.Granularity)
	assert.Equal(t, period, q.Period)
	assert.Equal(t, policy, q.Eligibility)
	assert.Equal(t, adjustments.All(), q.Adjustments.All())
}

func TestProjector_ErrorPropagatesUnchanged(t *testing.T) {
	boom := errors.New("storage down")
	src := newFakeSource()
	src.err = boom
	p := NewProjector(src, DefaultEligibilityPolicy(), DefaultAdjustmentTypes())

	rows, err := p.OrderRows(context.Background(), webChannel, Period{})
	assert.Nil(t, rows)
	assert.Same(t, boom, err)
}

func TestProjector_RejectsUnknownGranularity(t *testing.T) {
	src := newFakeSource()
	p := NewProjector(src, DefaultEligibilityPolicy(), DefaultAdjustmentTypes())

	rows, err := p.project(context.Background(), webChannel, Period{}, Granularity("shipment"))

	assert.Nil(t, rows)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.Empty(t, src.calls)
}
