package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Percent is part/whole*100, or zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// Change is the percent change from previous to current, or zero when
// previous is zero.
func Change(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(hundred)
}

// Ratio divides with the same zero guard.
func Ratio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}

// Float renders an amount for a response at two decimals.
func Float(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
