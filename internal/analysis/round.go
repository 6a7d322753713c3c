package analysis

import (
	"github.com/shopspring/decimal"
)

// exactExponent is below the smallest float64 exponent, so the conversion
// keeps every digit of the binary value
const exactExponent = -1100

// round rounds the exact binary value of x to the given number of decimal
// places, half to even. 76.5*0.03 is stored as 2.29499999... and rounds to 2.29.
func round(x float64, places int32) float64 {
	return exact(x).RoundBank(places).InexactFloat64()
}

// roundInt rounds x to the nearest integer, half to even
func roundInt(x float64) int64 {
	return exact(x).RoundBank(0).IntPart()
}

func exact(x float64) decimal.Decimal {
	return decimal.NewFromFloatWithExponent(x, exactExponent)
}
