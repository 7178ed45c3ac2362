package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLineAmount_CoercesQuantity(t *testing.T) {
	price := decimal.NewFromInt(10)

	assert.True(t, decimal.NewFromInt(10).Equal(LineAmount(0, price)))
	assert.True(t, decimal.NewFromInt(10).Equal(LineAmount(-3, price)))
	assert.True(t, decimal.NewFromInt(20).Equal(LineAmount(2, price)))
}

func TestLineAmount_CoercesNegativePrice(t *testing.T) {
	amount := LineAmount(5, decimal.NewFromInt(-4))
	assert.True(t, amount.IsZero())
}

func TestLineAmount_EqualsCoercedProduct(t *testing.T) {
	cases := []struct {
		qty   int64
		price string
		want  string
	}{
		{2, "10", "20"},
		{0, "2.50", "2.50"},
		{-1, "-9.99", "0"},
		{3, "0.333", "0.999"},
	}
	for _, tc := range cases {
		price := decimal.RequireFromString(tc.price)
		want := decimal.RequireFromString(tc.want)
		assert.True(t, want.Equal(LineAmount(tc.qty, price)), "qty=%d price=%s", tc.qty, tc.price)
	}
}

func TestSum_RoundTrip(t *testing.T) {
	lines := []Line{
		{Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
		{Quantity: 1, UnitPrice: decimal.NewFromInt(5)},
	}

	totals := Sum(lines, decimal.NewFromInt(2))

	assert.Equal(t, "25", totals.Subtotal.String())
	assert.Equal(t, "2", totals.Tax.String())
	assert.Equal(t, "27", totals.Total.String())
}

func TestSum_NegativeTaxClamped(t *testing.T) {
	totals := Sum([]Line{{Quantity: 1, UnitPrice: decimal.NewFromInt(100)}}, decimal.NewFromInt(-5))

	assert.True(t, totals.Tax.IsZero())
	assert.True(t, totals.Total.Equal(totals.Subtotal))
}

func TestSum_RoundsToCents(t *testing.T) {
	lines := []Line{{Quantity: 3, UnitPrice: decimal.RequireFromString("0.333")}}

	totals := Sum(lines, decimal.Zero)

	assert.Equal(t, "1", totals.Subtotal.String())
}

func TestSumWithRate(t *testing.T) {
	lines := []Line{
		{Quantity: 4, UnitPrice: decimal.NewFromInt(25)},
	}

	totals := SumWithRate(lines, decimal.RequireFromString("7.5"))

	assert.Equal(t, "100", totals.Subtotal.String())
	assert.Equal(t, "7.5", totals.Tax.String())
	assert.Equal(t, "107.5", totals.Total.String())
}
