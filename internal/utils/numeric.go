package utils

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// CoerceNumeric is the lenient numeric policy for form input: missing,
// empty or non-numeric values become zero instead of failing the request.
// Swap this for a strict parser once upstream validation exists.
func CoerceNumeric(raw any) decimal.Decimal {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero
		}
		return *v
	case float64:
		return decimal.NewFromFloat(v)
	case float32:
		return decimal.NewFromFloat32(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case json.Number:
		return parseOrZero(v.String())
	case string:
		return parseOrZero(v)
	case bool:
		return decimal.Zero
	default:
		return decimal.Zero
	}
}

// CoerceOptionalNumeric is CoerceNumeric for nullable inputs: nil and blank
// strings stay nil, everything else is coerced.
func CoerceOptionalNumeric(raw any) *decimal.Decimal {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
	}
	d := CoerceNumeric(raw)
	return &d
}

func parseOrZero(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
