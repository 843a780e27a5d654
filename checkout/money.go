package checkout

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a catalog price in dollars to integer cents the way
// the payment processor expects, rounding to the nearest cent.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits converts a processor amount in cents back to dollars for
// persistence.
func FromMinorUnits(amount int64) float64 {
	f, _ := decimal.NewFromInt(amount).Div(hundred).Float64()
	return f
}

// RoundPrice normalizes a price to two decimal places before it enters the
// catalog.
func RoundPrice(amount float64) float64 {
	f, _ := decimal.NewFromFloat(amount).Round(2).Float64()
	return f
}
