// Package delivery provides delivery-cost rules for baskets.
package delivery

import "github.com/shopspring/decimal"

// Below charges Cost while the subtotal is strictly less than Limit.
type Below struct {
	Limit decimal.Decimal
	Cost  decimal.Decimal
}

// DeliveryCost implements basket.Rule.
func (b Below) DeliveryCost(subtotal decimal.Decimal) (decimal.Decimal, bool) {
	if subtotal.LessThan(b.Limit) {
		return b.Cost, true
	}
	return decimal.Zero, false
}

// Flat always charges Cost.
type Flat struct {
	Cost decimal.Decimal
}

// DeliveryCost implements basket.Rule.
func (f Flat) DeliveryCost(decimal.Decimal) (decimal.Decimal, bool) {
	return f.Cost, true
}
