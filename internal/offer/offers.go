// Package offer provides discount policies for baskets.
package offer

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-basket/internal/basket"
)

var two = decimal.NewFromInt(2)

// SecondHalfPrice makes every second item with Code half price. Each pair is
// discounted by half the price of its second item, in the order added.
type SecondHalfPrice struct {
	Code string
}

// Discount implements basket.Offer.
func (o SecondHalfPrice) Discount(items []basket.Product) decimal.Decimal {
	discount := decimal.Zero
	matched := 0
	for _, it := range items {
		if it.Code() != o.Code {
			continue
		}
		matched++
		if matched%2 == 0 {
			discount = discount.Add(it.Price().Div(two))
		}
	}
	return discount
}

// PercentOff discounts Bps basis points of the summed price of items whose
// code is in Codes. An empty Codes applies to every item.
type PercentOff struct {
	Codes []string
	Bps   int32
}

// Discount implements basket.Offer.
func (o PercentOff) Discount(items []basket.Product) decimal.Decimal {
	if o.Bps <= 0 {
		return decimal.Zero
	}
	eligible := decimal.Zero
	for _, it := range items {
		if o.matches(it.Code()) {
			eligible = eligible.Add(it.Price())
		}
	}
	if !eligible.IsPositive() {
		return decimal.Zero
	}
	discount := eligible.Mul(decimal.NewFromInt32(o.Bps)).Div(decimal.NewFromInt(10000))
	if discount.GreaterThan(eligible) {
		return eligible
	}
	return discount
}

func (o PercentOff) matches(code string) bool {
	if len(o.Codes) == 0 {
		return true
	}
	for _, c := range o.Codes {
		if c == code {
			return true
		}
	}
	return false
}

// FixedOff discounts Amount once the item gross reaches MinSpend. The
// discount never exceeds the gross.
type FixedOff struct {
	Amount   decimal.Decimal
	MinSpend decimal.Decimal
}

// Discount implements basket.Offer.
func (o FixedOff) Discount(items []basket.Product) decimal.Decimal {
	if !o.Amount.IsPositive() {
		return decimal.Zero
	}
	gross := decimal.Zero
	for _, it := range items {
		gross = gross.Add(it.Price())
	}
	if gross.LessThan(o.MinSpend) || !gross.IsPositive() {
		return decimal.Zero
	}
	if o.Amount.GreaterThan(gross) {
		return gross
	}
	return o.Amount
}
