package delivery

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-basket/internal/basket"
)

var (
	_ basket.Rule = Below{}
	_ basket.Rule = Flat{}
)

func TestBelow(t *testing.T) {
	rule := Below{Limit: decimal.NewFromInt(50), Cost: decimal.RequireFromString("4.95")}

	cost, ok := rule.DeliveryCost(decimal.RequireFromString("49.99"))
	require.True(t, ok)
	require.True(t, cost.Equal(decimal.RequireFromString("4.95")))

	_, ok = rule.DeliveryCost(decimal.NewFromInt(50))
	require.False(t, ok)
}

func TestTiersThroughBasket(t *testing.T) {
	rules := []basket.Rule{
		Below{Limit: decimal.NewFromInt(50), Cost: decimal.RequireFromString("4.95")},
		Below{Limit: decimal.NewFromInt(90), Cost: decimal.RequireFromString("2.95")},
	}
	cases := []struct {
		price    string
		delivery string
	}{
		{"10", "4.95"},
		{"49.99", "4.95"},
		{"50", "2.95"},
		{"89.99", "2.95"},
		{"90", "0"},
	}
	for _, tc := range cases {
		b := basket.New([]basket.Product{basket.NewProduct("X", decimal.RequireFromString(tc.price))}, rules, nil)
		_, err := b.Add("X")
		require.NoError(t, err)
		require.True(t, b.Breakdown().Delivery.Equal(decimal.RequireFromString(tc.delivery)), "price %s", tc.price)
	}
}

func TestFlat(t *testing.T) {
	cost, ok := Flat{Cost: decimal.RequireFromString("3.50")}.DeliveryCost(decimal.NewFromInt(1000))
	require.True(t, ok)
	require.Equal(t, "3.50", cost.StringFixed(2))
}
