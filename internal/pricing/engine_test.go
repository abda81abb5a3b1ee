package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func money(t *testing.T, v string) Money {
	t.Helper()
	d, err := decimal.NewFromString(v)
	require.NoError(t, err)
	return d
}

func fixed(cost Money) DeliveryQuote {
	return func(Money) (Money, bool) { return cost, true }
}

func notApplicable(Money) (Money, bool) { return decimal.Zero, false }

func TestComputeEmpty(t *testing.T) {
	summary := Compute(nil, nil, nil)
	require.True(t, summary.Total.IsZero())
	require.Equal(t, "0.00", summary.Total.StringFixed(2))
}

func TestComputeDeliveryTakesLargestQuote(t *testing.T) {
	prices := []Money{money(t, "10")}
	summary := Compute(prices, nil, []DeliveryQuote{
		fixed(money(t, "4.95")),
		fixed(money(t, "2.95")),
		notApplicable,
	})
	require.True(t, summary.Delivery.Equal(money(t, "4.95")), summary.Delivery.String())
	require.Equal(t, "14.95", summary.Total.StringFixed(2))
}

func TestComputeDeliveryIgnoresZeroAndNegative(t *testing.T) {
	summary := Compute([]Money{money(t, "10")}, nil, []DeliveryQuote{
		fixed(decimal.Zero),
		fixed(money(t, "-3")),
		notApplicable,
	})
	require.True(t, summary.Delivery.IsZero())
	require.Equal(t, "10.00", summary.Total.StringFixed(2))
}

func TestComputeDeliverySeesDiscountedSubtotal(t *testing.T) {
	var seen Money
	quote := func(subtotal Money) (Money, bool) {
		seen = subtotal
		return decimal.Zero, false
	}
	Compute([]Money{money(t, "100")}, []Money{money(t, "15"), money(t, "5")}, []DeliveryQuote{quote})
	require.True(t, seen.Equal(money(t, "80")), seen.String())
}

func TestComputeNegativeSubtotalIsNotClamped(t *testing.T) {
	summary := Compute([]Money{money(t, "5")}, []Money{money(t, "7.5")}, nil)
	require.True(t, summary.Subtotal.Equal(money(t, "-2.5")))
	require.Equal(t, "-2.50", summary.Total.StringFixed(2))
}

func TestFloorCents(t *testing.T) {
	cases := map[string]string{
		"54.375":  "54.37",
		"37.855":  "37.85",
		"98.275":  "98.27",
		"12.999":  "12.99",
		"7":       "7.00",
		"-0.001":  "-0.01",
		"-2.5":    "-2.50",
		"0.00999": "0.00",
	}
	for in, want := range cases {
		got := FloorCents(money(t, in))
		require.Equal(t, want, got.StringFixed(2), "input %s", in)
	}
}
