package usecase

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vitos/crypto_take_profit/internal/domain"
)

const (
	MaxProfitTotal    = 500.0
	MaxAmountTotal    = 100.0
	DefaultMaxTargets = 5

	firstTargetProfit = 2.0
	firstTargetAmount = 100.0
	profitStep        = 2.0
	nextTargetAmount  = 20.0
	minProfit         = 0.01
)

var (
	ErrTargetLimitReached = errors.New("profit target limit reached")
	ErrTargetNotFound     = errors.New("profit target not found")
)

// totalConstraint caps the sum of one numeric field over the whole list.
type totalConstraint struct {
	max  decimal.Decimal
	kind domain.ErrorKind
	get  func(*domain.ProfitTarget) float64
	set  func(*domain.ProfitTarget, float64)
}

var (
	profitTotal = totalConstraint{
		max:  decimal.NewFromFloat(MaxProfitTotal),
		kind: domain.ErrorProfitTotal,
		get:  func(t *domain.ProfitTarget) float64 { return t.ProfitPercent },
		set:  func(t *domain.ProfitTarget, v float64) { t.ProfitPercent = v },
	}
	amountTotal = totalConstraint{
		max:  decimal.NewFromFloat(MaxAmountTotal),
		kind: domain.ErrorAmountTotal,
		get:  func(t *domain.ProfitTarget) float64 { return t.AmountPercent },
		set:  func(t *domain.ProfitTarget, v float64) { t.AmountPercent = v },
	}
)

// ProfitTargetsEngine owns the ordered take-profit ladder of one pending order.
// Reference price, amount and side are passed into each call and never stored.
// It is not safe for concurrent use.
type ProfitTargetsEngine struct {
	targets    []*domain.ProfitTarget
	maxTargets int
	revision   uint64
}

type EngineOption func(*ProfitTargetsEngine)

// WithMaxTargets caps the ladder length. n <= 0 removes the cap.
func WithMaxTargets(n int) EngineOption {
	return func(e *ProfitTargetsEngine) {
		e.maxTargets = n
	}
}

func NewProfitTargetsEngine(opts ...EngineOption) *ProfitTargetsEngine {
	e := &ProfitTargetsEngine{maxTargets: DefaultMaxTargets}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Targets returns a deep copy of the ladder.
func (e *ProfitTargetsEngine) Targets() []domain.ProfitTarget {
	out := make([]domain.ProfitTarget, len(e.targets))
	for i, t := range e.targets {
		out[i] = t.Clone()
	}
	return out
}

func (e *ProfitTargetsEngine) Len() int {
	return len(e.targets)
}

func (e *ProfitTargetsEngine) MaxTargets() int {
	return e.maxTargets
}

// CanAddTarget is false once the ladder reached its cap.
func (e *ProfitTargetsEngine) CanAddTarget() bool {
	return e.maxTargets <= 0 || len(e.targets) < e.maxTargets
}

// Revision increases with every mutation; readers compare it to skip re-rendering.
func (e *ProfitTargetsEngine) Revision() uint64 {
	return e.revision
}

func (e *ProfitTargetsEngine) HasErrors() bool {
	for _, t := range e.targets {
		if t.HasErrors() {
			return true
		}
	}
	return false
}

func (e *ProfitTargetsEngine) touch() {
	e.revision++
}

func (e *ProfitTargetsEngine) target(index int) (*domain.ProfitTarget, error) {
	if index < 0 || index >= len(e.targets) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrTargetNotFound, index, len(e.targets))
	}
	return e.targets[index], nil
}

// --- List mutation ---

// AddCondition appends a target. The first one takes 2% profit on the whole
// amount; the following ones step the profit by 2% and take 20%.
func (e *ProfitTargetsEngine) AddCondition(referencePrice, coefficient float64) error {
	if err := checkValue(referencePrice); err != nil {
		return err
	}
	if !e.CanAddTarget() {
		return fmt.Errorf("%w: %d/%d", ErrTargetLimitReached, len(e.targets), e.maxTargets)
	}

	profit, amount := firstTargetProfit, firstTargetAmount
	if n := len(e.targets); n > 0 {
		profit = e.targets[n-1].ProfitPercent + profitStep
		amount = nextTargetAmount
	}
	price := PriceFromProfit(referencePrice, profit, coefficient)
	e.targets = append(e.targets, domain.NewProfitTarget(profit, price, amount))
	e.touch()

	e.CheckAmountPercentTotal(true)
	e.ValidateProfits()
	return nil
}

// RemoveCondition drops the target at index. onListEmptied fires when the
// last target goes away. The remaining targets are not revalidated.
func (e *ProfitTargetsEngine) RemoveCondition(index int, onListEmptied func()) error {
	if _, err := e.target(index); err != nil {
		return err
	}
	emptied := len(e.targets) == 1
	e.targets = append(e.targets[:index], e.targets[index+1:]...)
	e.touch()
	if emptied && onListEmptied != nil {
		onListEmptied()
	}
	return nil
}

func (e *ProfitTargetsEngine) CleanProfitTargets() {
	e.targets = nil
	e.touch()
}

// UpdateTargetPrices re-prices every target from its profit after the order price changed.
func (e *ProfitTargetsEngine) UpdateTargetPrices(referencePrice, coefficient float64) {
	for _, t := range e.targets {
		t.TradePrice = PriceFromProfit(referencePrice, t.ProfitPercent, coefficient)
	}
	e.touch()
}

// --- Per-field edits ---

// SetProfit stores a profit that is still being typed and revalidates profits.
func (e *ProfitTargetsEngine) SetProfit(index int, profitPercent float64) error {
	if err := checkValue(profitPercent); err != nil {
		return err
	}
	t, err := e.target(index)
	if err != nil {
		return err
	}
	t.ProfitPercent = profitPercent
	e.touch()
	e.ValidateProfits()
	return nil
}

// SetTargetPrice stores a price that is still being typed and revalidates prices.
func (e *ProfitTargetsEngine) SetTargetPrice(index int, tradePrice float64) error {
	if err := checkValue(tradePrice); err != nil {
		return err
	}
	t, err := e.target(index)
	if err != nil {
		return err
	}
	t.TradePrice = tradePrice
	e.touch()
	e.ValidateTargetPrices()
	return nil
}

// HandleProfit commits a profit edit: re-prices the target, revalidates
// profits, trims the profit budget and revalidates prices.
func (e *ProfitTargetsEngine) HandleProfit(index int, profitPercent, referencePrice, coefficient float64) error {
	if err := checkValue(profitPercent, referencePrice); err != nil {
		return err
	}
	t, err := e.target(index)
	if err != nil {
		return err
	}
	price := PriceFromProfit(referencePrice, profitPercent, coefficient)
	if err := checkFinite(price); err != nil {
		return err
	}
	t.ProfitPercent = profitPercent
	t.TradePrice = price
	e.touch()

	e.ValidateProfits()
	e.CheckProfitTotal(true)
	e.ValidateTargetPrices()
	return nil
}

// HandleTargetPrice commits a price edit by deriving the profit from it.
// Nothing is revalidated here.
func (e *ProfitTargetsEngine) HandleTargetPrice(index int, tradePrice, referencePrice, coefficient float64) error {
	if err := checkValue(tradePrice, referencePrice); err != nil {
		return err
	}
	t, err := e.target(index)
	if err != nil {
		return err
	}
	profit := ProfitFromPrice(referencePrice, coefficient, tradePrice)
	if err := checkFinite(profit); err != nil {
		return err
	}
	t.TradePrice = tradePrice
	t.ProfitPercent = profit
	e.touch()
	return nil
}

// HandleAmount stores the amount and revalidates amounts. Amount errors name
// the side opposite to orderSide, the one the targets will trade on.
func (e *ProfitTargetsEngine) HandleAmount(index int, amountPercent float64, orderSide domain.OrderSide) error {
	if err := checkValue(amountPercent); err != nil {
		return err
	}
	t, err := e.target(index)
	if err != nil {
		return err
	}
	t.AmountPercent = amountPercent
	e.touch()

	e.ValidateAmount(orderSide.Opposite())
	return nil
}

// --- Validation ---

func (e *ProfitTargetsEngine) CheckProfitTotal(auto bool) float64 {
	return e.checkTotal(profitTotal, auto)
}

func (e *ProfitTargetsEngine) CheckAmountPercentTotal(auto bool) float64 {
	return e.checkTotal(amountTotal, auto)
}

// checkTotal compares the field sum against c.max. Within budget, errors of
// c.kind are cleared. Over budget in manual mode the excess is returned and
// nothing changes; in auto mode the excess is taken from the largest entries
// and the errors are cleared.
func (e *ProfitTargetsEngine) checkTotal(c totalConstraint, auto bool) float64 {
	total := decimal.Zero
	for _, t := range e.targets {
		total = total.Add(toDecimal(c.get(t)))
	}

	if total.LessThanOrEqual(c.max) {
		e.cleanErrorsByKind(c.kind)
		return 0
	}

	excess := total.Sub(c.max)
	if !auto {
		return excess.InexactFloat64()
	}

	e.reduceLargest(c, excess)
	e.cleanErrorsByKind(c.kind)
	e.touch()
	return 0
}

// reduceLargest takes excess off the largest entry (first one on ties). When
// that entry is smaller than the excess it drops to zero and the rest comes
// off the next largest, so no entry goes negative. Entries are rewritten from
// their decimal value so the new sum is exactly within budget.
func (e *ProfitTargetsEngine) reduceLargest(c totalConstraint, excess decimal.Decimal) {
	for excess.IsPositive() {
		idx := -1
		for i, t := range e.targets {
			if idx < 0 || c.get(t) > c.get(e.targets[idx]) {
				idx = i
			}
		}
		if idx < 0 {
			return
		}
		largest := toDecimal(c.get(e.targets[idx]))
		if !largest.IsPositive() {
			return
		}
		if largest.GreaterThanOrEqual(excess) {
			c.set(e.targets[idx], largest.Sub(excess).InexactFloat64())
			return
		}
		c.set(e.targets[idx], 0)
		excess = excess.Sub(largest)
	}
}

func (e *ProfitTargetsEngine) cleanErrorsByKind(kind domain.ErrorKind) {
	for _, t := range e.targets {
		t.CleanErrorsByKind(kind)
	}
}

// flag sets or clears one error on one target.
func flag(t *domain.ProfitTarget, isError bool, field domain.TargetField, kind domain.ErrorKind, param interface{}) {
	if isError {
		t.SetError(domain.NewProfitTargetError(field, kind, param))
		return
	}
	t.CleanErrorsByKind(kind)
}

// ValidateProfits flags targets below the minimum profit, targets not above
// their predecessor and, on every target, an exceeded profit budget.
func (e *ProfitTargetsEngine) ValidateProfits() {
	for i, t := range e.targets {
		flag(t, t.ProfitPercent < minProfit, domain.FieldProfit, domain.ErrorProfitMinimumValue, nil)

		notIncreasing := i > 0 && t.ProfitPercent <= e.targets[i-1].ProfitPercent
		flag(t, notIncreasing, domain.FieldProfit, domain.ErrorProfitLessThanPrevious, nil)

		excess := e.CheckProfitTotal(false)
		flag(t, excess > 0, domain.FieldProfit, domain.ErrorProfitTotal, excess)
	}
}

func (e *ProfitTargetsEngine) ValidateTargetPrices() {
	for _, t := range e.targets {
		flag(t, t.TradePrice <= 0, domain.FieldTargetPrice, domain.ErrorTargetPriceMustBePositive, nil)
	}
}

// ValidateAmount flags an exceeded amount budget and non-positive amounts.
// oppositeSide is quoted in the non-positive amount message.
func (e *ProfitTargetsEngine) ValidateAmount(oppositeSide domain.OrderSide) {
	for _, t := range e.targets {
		excess := e.CheckAmountPercentTotal(false)
		flag(t, excess > 0, domain.FieldAmount, domain.ErrorAmountTotal, excess)
		flag(t, t.AmountPercent <= 0, domain.FieldAmount, domain.ErrorAmountMustBePositive, oppositeSide)
	}
}

// --- Projection ---

// ProjectedProfit sums, in quote currency, what every target earns on its
// share of amount when hit. Non-finite inputs count as zero.
func (e *ProfitTargetsEngine) ProjectedProfit(referencePrice, amount, coefficient float64) decimal.Decimal {
	price := toDecimal(referencePrice)
	qty := toDecimal(amount)
	coef := toDecimal(coefficient)
	hundred := decimal.NewFromInt(100)

	sum := decimal.Zero
	for _, t := range e.targets {
		move := toDecimal(t.TradePrice).Sub(price)
		share := toDecimal(t.AmountPercent).Div(hundred)
		sum = sum.Add(coef.Mul(move).Mul(qty).Mul(share))
	}
	return sum
}

// ProjectedProfitTotal is ProjectedProfit formatted with 2 decimals.
func (e *ProfitTargetsEngine) ProjectedProfitTotal(referencePrice, amount, coefficient float64) string {
	return e.ProjectedProfit(referencePrice, amount, coefficient).StringFixed(2)
}
