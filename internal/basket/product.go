package basket

import "github.com/shopspring/decimal"

// Product is a priced catalog entry identified by a unique code.
type Product interface {
	Code() string
	Price() decimal.Decimal
}

// Rule is a delivery-cost policy. It reports false when it does not apply
// to the given subtotal.
type Rule interface {
	DeliveryCost(subtotal decimal.Decimal) (decimal.Decimal, bool)
}

// Offer is a discount policy evaluated against the items in the basket.
type Offer interface {
	Discount(items []Product) decimal.Decimal
}

// Item is a plain value Product.
type Item struct {
	ProductCode  string          `json:"code"`
	ProductPrice decimal.Decimal `json:"price"`
}

// NewProduct returns a value Product with the given code and price.
func NewProduct(code string, price decimal.Decimal) Item {
	return Item{ProductCode: code, ProductPrice: price}
}

// Code implements Product.
func (i Item) Code() string { return i.ProductCode }

// Price implements Product.
func (i Item) Price() decimal.Decimal { return i.ProductPrice }
