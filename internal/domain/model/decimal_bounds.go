package model

import (
	"math"

	"github.com/shopspring/decimal"
)

// Bounds on decimal inputs. Checked before any arithmetic, so a short request
// cannot carry an exponent that makes decimal operations or the float
// conversion for the model degenerate.
const (
	MaxDecimalOrder    = 15  // largest accepted power of ten
	MinDecimalExponent = -32 // finest accepted scale
)

// CheckDecimal records a field failure when d is outside the accepted range
// and reports whether d may be used.
func CheckDecimal(verr *ValidationError, field string, d decimal.Decimal) bool {
	if d.Exponent() < MinDecimalExponent || (!d.IsZero() && decimalOrder(d) > MaxDecimalOrder) {
		verr.Add(field, "is out of range")
		return false
	}
	return true
}

// decimalOrder estimates floor(log10(|d|)) from the coefficient bit length
// without rescaling d.
func decimalOrder(d decimal.Decimal) int {
	digits := int(float64(d.Coefficient().BitLen())*math.Log10(2)) + 1
	return int(d.Exponent()) + digits - 1
}

// finite reports whether f is neither NaN nor infinite.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
