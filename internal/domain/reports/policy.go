package reports

import (
	"slices"

	"salesreports/internal/core/apperror"
)

// Order states.
const (
	OrderStateCart      = "cart"
	OrderStateNew       = "new"
	OrderStateCancelled = "cancelled"
	OrderStateFulfilled = "fulfilled"
)

// Order payment states.
const (
	PaymentStateCart                = "cart"
	PaymentStateAwaitingPayment     = "awaiting_payment"
	PaymentStatePartiallyAuthorized = "partially_authorized"
	PaymentStateAuthorized          = "authorized"
	PaymentStatePartiallyPaid       = "partially_paid"
	PaymentStateCancelled           = "cancelled"
	PaymentStatePaid                = "paid"
	PaymentStatePartiallyRefunded   = "partially_refunded"
	PaymentStateRefunded            = "refunded"
)

// EligibilityPolicy selects the orders that count as revenue:
// an order is eligible when its state and its payment state are both accepted.
type EligibilityPolicy struct {
	OrderStates   []string
	PaymentStates []string
}

// DefaultEligibilityPolicy accepts new and fulfilled orders that are paid.
func DefaultEligibilityPolicy() EligibilityPolicy {
	return EligibilityPolicy{
		OrderStates:   []string{OrderStateFulfilled, OrderStateNew},
		PaymentStates: []string{PaymentStatePaid},
	}
}

// LegacyEligibilityPolicy accepts fulfilled orders in any payment state but refunded.
func LegacyEligibilityPolicy() EligibilityPolicy {
	return EligibilityPolicy{
		OrderStates: []string{OrderStateFulfilled},
		PaymentStates: []string{
			PaymentStateCart,
			PaymentStateAwaitingPayment,
			PaymentStatePartiallyAuthorized,
			PaymentStateAuthorized,
			PaymentStatePartiallyPaid,
			PaymentStateCancelled,
			PaymentStatePaid,
			PaymentStatePartiallyRefunded,
		},
	}
}

// Validate rejects policies that could never match an order.
func (p EligibilityPolicy) Validate() error {
	if len(p.OrderStates) == 0 {
		return apperror.NewValidation("eligibility policy has no order states").
			WithDetail("field", "order_states")
	}
	if len(p.PaymentStates) == 0 {
		return apperror.NewValidation("eligibility policy has no payment states").
			WithDetail("field", "payment_states")
	}
	return nil
}

// AdjustmentKind is one of the adjustment columns a projection joins.
type AdjustmentKind string

const (
	AdjustmentTax                    AdjustmentKind = "tax"
	AdjustmentShipping               AdjustmentKind = "shipping"
	AdjustmentOrderPromotion         AdjustmentKind = "order_promotion"
	AdjustmentOrderItemPromotion     AdjustmentKind = "order_item_promotion"
	AdjustmentOrderShippingPromotion AdjustmentKind = "order_shipping_promotion"
	AdjustmentOrderUnitPromotion     AdjustmentKind = "order_unit_promotion"
)

// AdjustmentKinds lists the kinds in projection column order.
var AdjustmentKinds = []AdjustmentKind{
	AdjustmentTax,
	AdjustmentShipping,
	AdjustmentOrderPromotion,
	AdjustmentOrderItemPromotion,
	AdjustmentOrderShippingPromotion,
	AdjustmentOrderUnitPromotion,
}

// PromotionKinds are summed into the without_tax_promo column.
var PromotionKinds = []AdjustmentKind{
	AdjustmentOrderPromotion,
	AdjustmentOrderItemPromotion,
	AdjustmentOrderShippingPromotion,
	AdjustmentOrderUnitPromotion,
}

// Admin order creation discount types.
const (
	AdminOrderDiscount     = "order_discount"
	AdminOrderItemDiscount = "order_item_discount"
)

// AdjustmentTypes maps each adjustment kind to the type codes stored on adjustments.
// Aliases let discounts created outside the promotion engine count as promotions.
type AdjustmentTypes struct {
	Codes                     map[AdjustmentKind]string
	OrderPromotionAliases     []string
	OrderItemPromotionAliases []string
}

// DefaultAdjustmentTypes uses the kind names as type codes and aliases the
// admin order creation discounts.
func DefaultAdjustmentTypes() AdjustmentTypes {
	codes := make(map[AdjustmentKind]string, len(AdjustmentKinds))
	for _, k := range AdjustmentKinds {
		codes[k] = string(k)
	}
	return AdjustmentTypes{
		Codes:                     codes,
		OrderPromotionAliases:     []string{AdminOrderDiscount},
		OrderItemPromotionAliases: []string{AdminOrderItemDiscount},
	}
}

// TypesFor returns every type code joined into the column of the given kind.
func (a AdjustmentTypes) TypesFor(kind AdjustmentKind) []string {
	code, ok := a.Codes[kind]
	if !ok || code == "" {
		code = string(kind)
	}
	out := []string{code}
	switch kind {
	case AdjustmentOrderPromotion:
		out = append(out, a.OrderPromotionAliases...)
	case AdjustmentOrderItemPromotion:
		out = append(out, a.OrderItemPromotionAliases...)
	}
	return out
}

// All returns the full adjustment type filter, without duplicates.
func (a AdjustmentTypes) All() []string {
	var out []string
	for _, k := range AdjustmentKinds {
		for _, t := range a.TypesFor(k) {
			if !slices.Contains(out, t) {
				out = append(out, t)
			}
		}
	}
	return out
}

// ProjectionQuery is everything an OrderSource needs to produce one row set.
type ProjectionQuery struct {
	ChannelID   int64
	Period      Period
	Granularity Granularity
	Eligibility EligibilityPolicy
	Adjustments AdjustmentTypes
}
