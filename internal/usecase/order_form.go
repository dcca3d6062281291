package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vitos/crypto_take_profit/internal/domain"
	"go.uber.org/zap"
)

var (
	ErrTakeProfitDisabled = errors.New("take profit is disabled")
	ErrTicketNotReady     = errors.New("ticket cannot be submitted")
)

// TargetView is one ladder row as the presentation layer shows it.
type TargetView struct {
	ProfitPercent    float64 `json:"profit_percent"`
	TradePrice       float64 `json:"trade_price"`
	AmountPercent    float64 `json:"amount_percent"`
	ProfitError      string  `json:"profit_error,omitempty"`
	TargetPriceError string  `json:"target_price_error,omitempty"`
	AmountError      string  `json:"amount_error,omitempty"`
}

// FormSnapshot is the read model of the order form.
type FormSnapshot struct {
	Pair            domain.Pair      `json:"pair"`
	Side            domain.OrderSide `json:"side"`
	Price           float64          `json:"price"`
	Amount          float64          `json:"amount"`
	Total           float64          `json:"total"`
	TakeProfit      bool             `json:"take_profit"`
	Targets         []TargetView     `json:"targets"`
	HasErrors       bool             `json:"has_errors"`
	ProjectedProfit string           `json:"projected_profit"`
	CanAddTarget    bool             `json:"can_add_target"`
	AddTargetLabel  string           `json:"add_target_label"`
	AmountLabel     string           `json:"amount_label"`
	CanSubmit       bool             `json:"can_submit"`
	Revision        uint64           `json:"revision"`
}

// OrderForm is the order entry of one session: side, price and amount of the
// pending order plus its take-profit ladder. Safe for concurrent use.
type OrderForm struct {
	pair       domain.Pair
	side       domain.OrderSide
	price      float64
	amount     float64
	takeProfit bool
	revision   uint64

	engine  *ProfitTargetsEngine
	journal domain.TicketJournal
	logger  *zap.Logger
	timeNow func() time.Time
	mu      sync.Mutex
}

func NewOrderForm(pair domain.Pair, engine *ProfitTargetsEngine, journal domain.TicketJournal, logger *zap.Logger) *OrderForm {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderForm{
		pair:    pair,
		side:    domain.SideBuy,
		engine:  engine,
		journal: journal,
		logger:  logger,
		timeNow: time.Now,
	}
}

func (f *OrderForm) coefficient() float64 {
	return f.side.Coefficient()
}

func (f *OrderForm) changed() {
	f.revision++
}

// --- Order fields ---

func (f *OrderForm) SetSide(side domain.OrderSide) error {
	if _, err := domain.ParseOrderSide(string(side)); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.side = side
	f.engine.UpdateTargetPrices(f.price, f.coefficient())
	f.changed()
	f.logger.Debug("Order side changed", zap.String("side", string(side)))
	return nil
}

// SetPrice stores the price rounded to 2 decimals and re-prices the ladder.
func (f *OrderForm) SetPrice(price float64) error {
	if err := checkValue(price); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.price = RoundPrice(price)
	f.engine.UpdateTargetPrices(f.price, f.coefficient())
	f.changed()
	f.logger.Debug("Order price changed", zap.Float64("price", f.price))
	return nil
}

func (f *OrderForm) SetAmount(amount float64) error {
	if err := checkValue(amount); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.amount = amount
	f.engine.UpdateTargetPrices(f.price, f.coefficient())
	f.changed()
	f.logger.Debug("Order amount changed", zap.Float64("amount", amount))
	return nil
}

// SetTotal derives the amount from a quote currency total.
func (f *OrderForm) SetTotal(total float64) error {
	if err := checkValue(total); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.price > 0 {
		f.amount = total / f.price
	} else {
		f.amount = 0
	}
	f.changed()
	f.logger.Debug("Order total changed", zap.Float64("total", total), zap.Float64("amount", f.amount))
	return nil
}

// --- Take profit ---

// SetTakeProfit switches the ladder on or off. Switching on seeds the first
// target, switching off drops them all.
func (f *OrderForm) SetTakeProfit(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.takeProfit = on
	f.changed()
	if !on {
		f.engine.CleanProfitTargets()
		f.logger.Debug("Take profit disabled")
		return nil
	}
	if f.engine.Len() == 0 {
		if err := f.engine.AddCondition(f.price, f.coefficient()); err != nil {
			return err
		}
	}
	f.logger.Debug("Take profit enabled", zap.Int("targets", f.engine.Len()))
	return nil
}

func (f *OrderForm) AddTarget() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.takeProfit {
		return ErrTakeProfitDisabled
	}
	if err := f.engine.AddCondition(f.price, f.coefficient()); err != nil {
		return err
	}
	f.changed()
	f.logger.Debug("Profit target added", zap.Int("targets", f.engine.Len()))
	return nil
}

// RemoveTarget drops a target; removing the last one switches take profit off.
func (f *OrderForm) RemoveTarget(index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.takeProfit {
		return ErrTakeProfitDisabled
	}
	err := f.engine.RemoveCondition(index, func() {
		f.takeProfit = false
	})
	if err != nil {
		return err
	}
	f.changed()
	f.logger.Debug("Profit target removed", zap.Int("index", index), zap.Bool("take_profit", f.takeProfit))
	return nil
}

// ChangeProfit and the other Change* methods handle a value still being
// typed; the Commit* methods run once the input is left.

func (f *OrderForm) ChangeProfit(index int, profit float64) error {
	return f.editTarget(func() error {
		return f.engine.SetProfit(index, profit)
	})
}

func (f *OrderForm) CommitProfit(index int, profit float64) error {
	return f.editTarget(func() error {
		return f.engine.HandleProfit(index, profit, f.price, f.coefficient())
	})
}

func (f *OrderForm) ChangeTargetPrice(index int, price float64) error {
	return f.editTarget(func() error {
		return f.engine.SetTargetPrice(index, price)
	})
}

func (f *OrderForm) CommitTargetPrice(index int, price float64) error {
	return f.editTarget(func() error {
		return f.engine.HandleTargetPrice(index, price, f.price, f.coefficient())
	})
}

func (f *OrderForm) ChangeAmount(index int, amount float64) error {
	return f.editTarget(func() error {
		return f.engine.HandleAmount(index, amount, f.side)
	})
}

// CommitAmount rebalances amounts back into the 100% budget.
func (f *OrderForm) CommitAmount() error {
	return f.editTarget(func() error {
		if excess := f.engine.CheckAmountPercentTotal(false); excess > 0 {
			f.logger.Debug("Rebalancing target amounts", zap.Float64("excess", excess))
		}
		f.engine.CheckAmountPercentTotal(true)
		return nil
	})
}

func (f *OrderForm) editTarget(edit func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.takeProfit {
		return ErrTakeProfitDisabled
	}
	if err := edit(); err != nil {
		return err
	}
	f.changed()
	return nil
}

// --- Submission ---

func (f *OrderForm) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canSubmit()
}

func (f *OrderForm) canSubmit() bool {
	return f.amount > 0 && f.price > 0 && !f.engine.HasErrors()
}

// Submit records the current order and ladder in the journal.
func (f *OrderForm) Submit(ctx context.Context) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.canSubmit() {
		f.logger.Warn("Ticket rejected",
			zap.Float64("price", f.price),
			zap.Float64("amount", f.amount),
			zap.Bool("has_errors", f.engine.HasErrors()))
		return nil, ErrTicketNotReady
	}

	targets := f.engine.Targets()
	ticket := &domain.Ticket{
		ID:              uuid.NewString(),
		Pair:            f.pair,
		Side:            f.side,
		Price:           f.price,
		Amount:          f.amount,
		Total:           decimal.NewFromFloat(f.price).Mul(decimal.NewFromFloat(f.amount)).StringFixed(2),
		ProjectedProfit: f.engine.ProjectedProfitTotal(f.price, f.amount, f.coefficient()),
		Targets:         make([]domain.TicketTarget, len(targets)),
		CreatedAt:       f.timeNow(),
	}
	for i, t := range targets {
		ticket.Targets[i] = domain.TicketTarget{
			ProfitPercent: t.ProfitPercent,
			TradePrice:    t.TradePrice,
			AmountPercent: t.AmountPercent,
		}
	}

	if err := f.journal.SaveTicket(ctx, ticket); err != nil {
		f.logger.Error("Failed to save ticket", zap.Error(err), zap.String("ticket_id", ticket.ID))
		return nil, fmt.Errorf("save ticket: %w", err)
	}

	f.logger.Info("Ticket submitted",
		zap.String("ticket_id", ticket.ID),
		zap.String("pair", f.pair.String()),
		zap.String("side", string(f.side)),
		zap.Float64("price", f.price),
		zap.Float64("amount", f.amount),
		zap.Int("targets", len(ticket.Targets)),
		zap.String("projected_profit", ticket.ProjectedProfit))
	return ticket, nil
}

// --- Read model ---

func (f *OrderForm) Snapshot() FormSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	targets := f.engine.Targets()
	views := make([]TargetView, len(targets))
	for i := range targets {
		t := &targets[i]
		views[i] = TargetView{
			ProfitPercent:    t.ProfitPercent,
			TradePrice:       t.TradePrice,
			AmountPercent:    t.AmountPercent,
			ProfitError:      t.ErrorMessage(domain.FieldProfit),
			TargetPriceError: t.ErrorMessage(domain.FieldTargetPrice),
			AmountError:      t.ErrorMessage(domain.FieldAmount),
		}
	}

	return FormSnapshot{
		Pair:            f.pair,
		Side:            f.side,
		Price:           f.price,
		Amount:          f.amount,
		Total:           f.price * f.amount,
		TakeProfit:      f.takeProfit,
		Targets:         views,
		HasErrors:       f.engine.HasErrors(),
		ProjectedProfit: f.engine.ProjectedProfitTotal(f.price, f.amount, f.coefficient()),
		CanAddTarget:    f.takeProfit && f.engine.CanAddTarget(),
		AddTargetLabel:  addTargetLabel(len(targets), f.engine.MaxTargets()),
		AmountLabel:     fmt.Sprintf("Amount to %s", f.side.Opposite()),
		CanSubmit:       f.canSubmit(),
		Revision:        f.revision,
	}
}

func addTargetLabel(n, max int) string {
	if max <= 0 {
		return "Add profit target"
	}
	return fmt.Sprintf("Add profit target %d/%d", n, max)
}
