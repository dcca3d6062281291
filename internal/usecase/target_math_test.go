package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vitos/crypto_take_profit/internal/usecase"
)

const epsilon = 0.000001

func TestPriceFromProfit(t *testing.T) {
	tests := []struct {
		name        string
		price       float64
		profit      float64
		coefficient float64
		want        float64
	}{
		{"Buy 10% above 100", 100, 10, 1, 110},
		{"Sell 10% below 100", 100, 10, -1, 90},
		{"Default first target", 100, 2, 1, 102},
		{"Inputs rounded to 2dp", 100.004, 2.004, 1, 102},
		{"Zero price", 0, 25, 1, 0},
		{"Loss on buy", 200, -5, 1, 190},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usecase.PriceFromProfit(tt.price, tt.profit, tt.coefficient)
			assert.InDelta(t, tt.want, got, epsilon)
		})
	}
}

func TestProfitFromPrice(t *testing.T) {
	tests := []struct {
		name        string
		price       float64
		coefficient float64
		tradePrice  float64
		want        float64
	}{
		{"Buy below reference is a loss", 100, 1, 90, -10},
		{"Buy above reference", 100, 1, 110, 10},
		{"Sell below reference is a gain", 100, -1, 90, 10},
		{"Zero reference price", 0, 1, 90, 0},
		{"Result rounded to whole percent", 100, 1, 102.4, 2},
		{"Half rounds up", 100, 1, 102.5, 3},
		{"Negative half rounds towards +Inf", 100, 1, 97.5, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usecase.ProfitFromPrice(tt.price, tt.coefficient, tt.tradePrice)
			assert.InDelta(t, tt.want, got, epsilon)
		})
	}
}

func TestProfitPriceRoundTrip(t *testing.T) {
	prices := []float64{0.5, 1, 37.42, 100, 9999.99, 64250.5}
	profits := []float64{0.01, 1, 2, 3.33, 10, 47.5, 150}

	for _, coefficient := range []float64{1, -1} {
		for _, price := range prices {
			for _, profit := range profits {
				back := usecase.ProfitFromPrice(price, coefficient, usecase.PriceFromProfit(price, profit, coefficient))
				// ProfitFromPrice rounds to a whole percent.
				assert.InDelta(t, profit, back, 0.5+epsilon, "price=%v profit=%v coefficient=%v", price, profit, coefficient)
			}
		}
	}
}

func TestRoundPrice(t *testing.T) {
	assert.InDelta(t, 1.01, usecase.RoundPrice(1.005000001), epsilon)
	assert.InDelta(t, 64250.13, usecase.RoundPrice(64250.1299), epsilon)
	assert.InDelta(t, -1.23, usecase.RoundPrice(-1.234), epsilon)
}
