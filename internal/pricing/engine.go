package pricing

import "github.com/shopspring/decimal"

// Money is a currency amount. Intermediate values keep full precision; only
// the payable total is truncated to cents.
type Money = decimal.Decimal

var hundred = decimal.NewFromInt(100)

// DeliveryQuote reports the delivery cost a rule charges for the given
// subtotal. The bool is false when the rule does not apply.
type DeliveryQuote func(subtotal Money) (Money, bool)

// Summary aggregates computed pricing components.
type Summary struct {
	Gross    Money `json:"gross"`
	Discount Money `json:"discount"`
	Subtotal Money `json:"subtotal"`
	Delivery Money `json:"delivery"`
	Total    Money `json:"total"`
}

// Compute calculates the basket totals. Discounts are summed as reported,
// the subtotal is not clamped, and delivery is the largest positive quote.
func Compute(prices []Money, discounts []Money, quotes []DeliveryQuote) Summary {
	gross := decimal.Zero
	for _, p := range prices {
		gross = gross.Add(p)
	}
	discount := decimal.Zero
	for _, d := range discounts {
		discount = discount.Add(d)
	}
	subtotal := gross.Sub(discount)

	delivery := decimal.Zero
	for _, quote := range quotes {
		cost, ok := quote(subtotal)
		if !ok || !cost.IsPositive() {
			continue
		}
		if cost.GreaterThan(delivery) {
			delivery = cost
		}
	}

	return Summary{
		Gross:    gross,
		Discount: discount,
		Subtotal: subtotal,
		Delivery: delivery,
		Total:    FloorCents(subtotal.Add(delivery)),
	}
}

// FloorCents truncates amount to two decimal places, rounding toward
// negative infinity: 37.855 becomes 37.85 and -0.001 becomes -0.01.
func FloorCents(amount Money) Money {
	return amount.Mul(hundred).Floor().Div(hundred).Truncate(2)
}
