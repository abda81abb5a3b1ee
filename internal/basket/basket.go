package basket

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-basket/internal/pricing"
)

// Basket holds a product catalog, delivery rules, offers and the items added
// so far. It is not safe for concurrent use.
type Basket struct {
	catalog map[string]Product
	rules   []Rule
	offers  []Offer
	items   []Product
}

// New constructs a Basket. Any argument may be nil.
func New(products []Product, rules []Rule, offers []Offer) *Basket {
	b := &Basket{}
	b.SetProducts(products)
	b.SetRules(rules)
	b.SetOffers(offers)
	return b
}

// AddProduct inserts p into the catalog, replacing any entry with the same
// code. Items already in the basket keep the product they were added with.
func (b *Basket) AddProduct(p Product) *Basket {
	if b.catalog == nil {
		b.catalog = make(map[string]Product)
	}
	b.catalog[p.Code()] = p
	return b
}

// Products returns the catalog entries ordered by code, not by insertion.
func (b *Basket) Products() []Product {
	out := make([]Product, 0, len(b.catalog))
	for _, p := range b.catalog {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code() < out[j].Code() })
	return out
}

// SetProducts replaces the catalog. Later duplicates win.
func (b *Basket) SetProducts(products []Product) *Basket {
	b.catalog = make(map[string]Product, len(products))
	for _, p := range products {
		b.AddProduct(p)
	}
	return b
}

// ProductByCode looks up a catalog entry.
func (b *Basket) ProductByCode(code string) (Product, bool) {
	p, ok := b.catalog[code]
	return p, ok
}

// AddRule appends a delivery rule.
func (b *Basket) AddRule(r Rule) *Basket {
	b.rules = append(b.rules, r)
	return b
}

// Rules returns the delivery rules in the order they were added.
func (b *Basket) Rules() []Rule {
	return append([]Rule(nil), b.rules...)
}

// SetRules replaces the delivery rules.
func (b *Basket) SetRules(rules []Rule) *Basket {
	b.rules = nil
	for _, r := range rules {
		b.AddRule(r)
	}
	return b
}

// AddOffer appends an offer.
func (b *Basket) AddOffer(o Offer) *Basket {
	b.offers = append(b.offers, o)
	return b
}

// Offers returns the offers in the order they were added.
func (b *Basket) Offers() []Offer {
	return append([]Offer(nil), b.offers...)
}

// SetOffers replaces the offers.
func (b *Basket) SetOffers(offers []Offer) *Basket {
	b.offers = nil
	for _, o := range offers {
		b.AddOffer(o)
	}
	return b
}

// Add places the catalog product with the given code into the basket. It
// returns *UnknownProductError and leaves the basket untouched when the code
// is not in the catalog.
func (b *Basket) Add(code string) (*Basket, error) {
	p, ok := b.ProductByCode(code)
	if !ok {
		return b, &UnknownProductError{Code: code}
	}
	b.items = append(b.items, p)
	return b, nil
}

// Items returns the added products in insertion order.
func (b *Basket) Items() []Product {
	return append([]Product(nil), b.items...)
}

// SetItems replaces the item list with previously captured snapshots.
func (b *Basket) SetItems(items []Product) *Basket {
	b.items = append([]Product(nil), items...)
	return b
}

// Total returns the payable amount truncated to cents.
func (b *Basket) Total() decimal.Decimal {
	return b.Breakdown().Total
}

// Breakdown computes gross, discount, subtotal, delivery and total. Every
// offer is evaluated against the same full item list. Nil rules and offers
// are skipped.
func (b *Basket) Breakdown() pricing.Summary {
	items := b.Items()
	prices := make([]pricing.Money, 0, len(items))
	for _, it := range items {
		prices = append(prices, it.Price())
	}
	discounts := make([]pricing.Money, 0, len(b.offers))
	for _, o := range b.offers {
		if o == nil {
			continue
		}
		discounts = append(discounts, o.Discount(b.Items()))
	}
	quotes := make([]pricing.DeliveryQuote, 0, len(b.rules))
	for _, r := range b.rules {
		if r == nil {
			continue
		}
		quotes = append(quotes, r.DeliveryCost)
	}
	return pricing.Compute(prices, discounts, quotes)
}
