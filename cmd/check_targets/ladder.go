package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/vitos/crypto_take_profit/internal/domain"
	"github.com/vitos/crypto_take_profit/internal/usecase"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// LadderFile is an order with its take-profit targets as written by hand.
type LadderFile struct {
	Pair       domain.Pair    `yaml:"pair"`
	Side       string         `yaml:"side"`
	Price      float64        `yaml:"price"`
	Amount     *float64       `yaml:"amount"`
	Total      *float64       `yaml:"total"`
	MaxTargets *int           `yaml:"max_targets"`
	Targets    []LadderTarget `yaml:"targets"`
}

// LadderTarget fields are optional; unset ones keep the value the form
// proposes for a new target.
type LadderTarget struct {
	Profit *float64 `yaml:"profit"`
	Price  *float64 `yaml:"price"`
	Amount *float64 `yaml:"amount"`
}

func loadLadder(path string) (*LadderFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ladder LadderFile
	if err := yaml.NewDecoder(f).Decode(&ladder); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if ladder.Side == "" {
		ladder.Side = string(domain.SideBuy)
	}
	if ladder.Pair == (domain.Pair{}) {
		ladder.Pair = domain.Pair{Base: "BTC", Quote: "USDT"}
	}
	if ladder.Amount != nil && ladder.Total != nil {
		return nil, errors.New("ladder sets both amount and total")
	}
	return &ladder, nil
}

// replay feeds the ladder through an order form the way a user fills it in:
// order fields first, then one row per target, committing every edit.
func replay(ladder *LadderFile, rebalance bool, journal domain.TicketJournal, log *zap.Logger) (*usecase.OrderForm, error) {
	var opts []usecase.EngineOption
	if ladder.MaxTargets != nil {
		opts = append(opts, usecase.WithMaxTargets(*ladder.MaxTargets))
	}
	form := usecase.NewOrderForm(ladder.Pair, usecase.NewProfitTargetsEngine(opts...), journal, log)

	side, err := domain.ParseOrderSide(ladder.Side)
	if err != nil {
		return nil, err
	}
	if err := form.SetSide(side); err != nil {
		return nil, err
	}
	if err := form.SetPrice(ladder.Price); err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	switch {
	case ladder.Total != nil:
		err = form.SetTotal(*ladder.Total)
	case ladder.Amount != nil:
		err = form.SetAmount(*ladder.Amount)
	}
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}

	if len(ladder.Targets) == 0 {
		return form, nil
	}
	if err := form.SetTakeProfit(true); err != nil {
		return nil, err
	}
	for i := 1; i < len(ladder.Targets); i++ {
		if err := form.AddTarget(); err != nil {
			return nil, fmt.Errorf("target %d: %w", i+1, err)
		}
	}

	for i, t := range ladder.Targets {
		if t.Profit != nil {
			if err := form.CommitProfit(i, *t.Profit); err != nil {
				return nil, err
			}
		}
		if t.Price != nil {
			if err := form.CommitTargetPrice(i, *t.Price); err != nil {
				return nil, err
			}
		}
		if t.Amount != nil {
			if err := form.ChangeAmount(i, *t.Amount); err != nil {
				return nil, err
			}
		}
	}
	if rebalance {
		if err := form.CommitAmount(); err != nil {
			return nil, err
		}
	}

	// Tab through every field once more so each validation sees the final ladder.
	for i, t := range form.Snapshot().Targets {
		if err := form.ChangeProfit(i, t.ProfitPercent); err != nil {
			return nil, err
		}
		if err := form.ChangeTargetPrice(i, t.TradePrice); err != nil {
			return nil, err
		}
		if err := form.ChangeAmount(i, t.AmountPercent); err != nil {
			return nil, err
		}
	}
	return form, nil
}
