package utils

import (
	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	thousand = decimal.NewFromInt(1000)
)

// Round2 rounds a monetary amount to cents, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Round4 is used for Valorem penalty amounts which keep four places.
func Round4(d decimal.Decimal) decimal.Decimal {
	return d.Round(4)
}

// Percent converts a percentage such as 7 into the factor 0.07.
func Percent(p decimal.Decimal) decimal.Decimal {
	return p.Div(hundred)
}

// PerMille converts a mill rate such as 12.5 into the factor 0.0125.
func PerMille(m decimal.Decimal) decimal.Decimal {
	return m.Div(thousand)
}

// FormatMoney keeps consistent decimal formatting for currency fields.
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// DecimalOrZero dereferences an optional amount.
func DecimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// SumDecimals adds amounts in order.
func SumDecimals(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
