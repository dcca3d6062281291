package usecase

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MaxInputValue bounds every number entered into the form or the engine, in
// absolute value. Derived prices and profits stay finite below it.
const MaxInputValue = 1e15

var ErrInvalidValue = errors.New("invalid value")

func checkValue(values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > MaxInputValue {
			return fmt.Errorf("%w: %v", ErrInvalidValue, v)
		}
	}
	return nil
}

func checkFinite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidValue, v)
	}
	return nil
}

// toDecimal converts v exactly; NaN and infinities become zero.
func toDecimal(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// RoundPrice rounds to 2 decimal places, halves towards +Inf.
func RoundPrice(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// PriceFromProfit returns the trade price reached when price moves by
// profitPercent in the direction given by coefficient (+1 buy, -1 sell).
// Both inputs are rounded to 2 decimals first.
func PriceFromProfit(referencePrice, profitPercent, coefficient float64) float64 {
	price := RoundPrice(referencePrice)
	profit := RoundPrice(profitPercent)
	return price * (1 + profit*coefficient/100)
}

// ProfitFromPrice is the whole percentage gained when tradePrice is hit.
// It rounds the result, not the inputs, so it is not an exact inverse of PriceFromProfit.
func ProfitFromPrice(referencePrice, coefficient, tradePrice float64) float64 {
	if referencePrice == 0 {
		return 0
	}
	profit := tradePrice - referencePrice
	return math.Floor(profit*coefficient/referencePrice*100 + 0.5)
}
