// Package ruleset turns stored delivery rule and offer definitions into
// policies the basket engine can evaluate.
package ruleset

import (
	"errors"
	"fmt"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-basket/internal/basket"
	"github.com/noah-isme/backend-basket/internal/delivery"
	"github.com/noah-isme/backend-basket/internal/offer"
)

// ErrUnknownKind is returned for a definition whose kind has no policy.
var ErrUnknownKind = errors.New("ruleset: unknown kind")

// Rule kinds.
const (
	KindBelow = "below"
	KindFlat  = "flat"
)

// Offer kinds.
const (
	KindSecondHalfPrice = "second_half_price"
	KindPercent         = "percent"
	KindFixed           = "fixed"
)

// Definition is the stored form of a delivery rule or an offer.
type Definition struct {
	Kind     string          `json:"kind" validate:"required"`
	Code     string          `json:"code,omitempty" validate:"required_if=Kind second_half_price"`
	Codes    []string        `json:"codes,omitempty"`
	Limit    decimal.Decimal `json:"limit"`
	Cost     decimal.Decimal `json:"cost"`
	Amount   decimal.Decimal `json:"amount"`
	MinSpend decimal.Decimal `json:"minSpend"`
	Bps      int32           `json:"bps" validate:"gte=0,lte=10000"`
}

var validate = validator.New()

// BuildRules converts definitions to delivery rules, preserving order.
func BuildRules(defs []Definition) ([]basket.Rule, error) {
	rules := make([]basket.Rule, 0, len(defs))
	for i, def := range defs {
		def.Kind = normalizeKind(def.Kind)
		if err := check(def); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		if def.Cost.IsNegative() {
			return nil, fmt.Errorf("rule %d: cost must not be negative", i)
		}
		switch def.Kind {
		case KindBelow:
			rules = append(rules, delivery.Below{Limit: def.Limit, Cost: def.Cost})
		case KindFlat:
			rules = append(rules, delivery.Flat{Cost: def.Cost})
		default:
			return nil, fmt.Errorf("rule %d: %w %q", i, ErrUnknownKind, def.Kind)
		}
	}
	return rules, nil
}

// BuildOffers converts definitions to offers, preserving order.
func BuildOffers(defs []Definition) ([]basket.Offer, error) {
	offers := make([]basket.Offer, 0, len(defs))
	for i, def := range defs {
		def.Kind = normalizeKind(def.Kind)
		if err := check(def); err != nil {
			return nil, fmt.Errorf("offer %d: %w", i, err)
		}
		switch def.Kind {
		case KindSecondHalfPrice:
			offers = append(offers, offer.SecondHalfPrice{Code: def.Code})
		case KindPercent:
			offers = append(offers, offer.PercentOff{Codes: def.Codes, Bps: def.Bps})
		case KindFixed:
			offers = append(offers, offer.FixedOff{Amount: def.Amount, MinSpend: def.MinSpend})
		default:
			return nil, fmt.Errorf("offer %d: %w %q", i, ErrUnknownKind, def.Kind)
		}
	}
	return offers, nil
}

func check(def Definition) error {
	if err := validate.Struct(def); err != nil {
		return fmt.Errorf("invalid definition: %w", err)
	}
	return nil
}

func normalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}
