// Package money contains pure decimal arithmetic for invoice amounts.
package money

import "github.com/shopspring/decimal"

// Line is the minimal input for amount computation.
type Line struct {
	Quantity  int64
	UnitPrice decimal.Decimal
}

// Totals is the computed summary for a set of lines.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// CoerceQuantity clamps a quantity to a minimum of 1.
func CoerceQuantity(q int64) int64 {
	if q <= 0 {
		return 1
	}
	return q
}

// CoerceUnitPrice clamps a unit price to a minimum of 0.
func CoerceUnitPrice(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

// LineAmount computes quantity x unit price after coercion.
// Coercion replaces failure: there is no error path here.
func LineAmount(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	q := decimal.NewFromInt(CoerceQuantity(quantity))
	return CoerceUnitPrice(unitPrice).Mul(q)
}

// Sum computes subtotal, tax and total for a set of lines with a flat
// tax amount. Values are rounded to 2 fractional digits for currency
// display.
func Sum(lines []Line, tax decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(LineAmount(line.Quantity, line.UnitPrice))
	}
	if tax.IsNegative() {
		tax = decimal.Zero
	}
	subtotal = subtotal.Round(2)
	tax = tax.Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// SumWithRate computes totals from a percentage tax rate instead of a
// flat tax amount.
func SumWithRate(lines []Line, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(LineAmount(line.Quantity, line.UnitPrice))
	}
	if taxRate.IsNegative() {
		taxRate = decimal.Zero
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(taxRate).Div(decimal.NewFromInt(100)).Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}
