package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidOrderSide = errors.New("invalid order side")

type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

func ParseOrderSide(s string) (OrderSide, error) {
	switch OrderSide(s) {
	case SideBuy, SideSell:
		return OrderSide(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOrderSide, s)
}

// Coefficient is +1 for buy orders and -1 for sell orders.
func (s OrderSide) Coefficient() float64 {
	if s == SideSell {
		return -1
	}
	return 1
}

// Opposite is the side take-profit targets trade on.
func (s OrderSide) Opposite() OrderSide {
	if s == SideSell {
		return SideBuy
	}
	return SideSell
}

// Pair is the traded symbol, e.g. BTC/USDT.
type Pair struct {
	Base  string `json:"base" yaml:"base"`
	Quote string `json:"quote" yaml:"quote"`
}

func (p Pair) String() string {
	return p.Base + "/" + p.Quote
}

// Ticket is an order accepted by the form, together with its take-profit ladder.
type Ticket struct {
	ID              string         `json:"id"`
	Pair            Pair           `json:"pair"`
	Side            OrderSide      `json:"side"`
	Price           float64        `json:"price"`
	Amount          float64        `json:"amount"`
	Total           string         `json:"total"`
	ProjectedProfit string         `json:"projected_profit"`
	Targets         []TicketTarget `json:"targets"`
	CreatedAt       time.Time      `json:"created_at"`
}

type TicketTarget struct {
	ProfitPercent float64 `json:"profit_percent"`
	TradePrice    float64 `json:"trade_price"`
	AmountPercent float64 `json:"amount_percent"`
}
