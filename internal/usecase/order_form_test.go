package usecase_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/crypto_take_profit/internal/domain"
	"github.com/vitos/crypto_take_profit/internal/usecase"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// MockJournal keeps saved tickets in memory.
type MockJournal struct {
	Tickets []*domain.Ticket
	Err     error
}

func (m *MockJournal) SaveTicket(ctx context.Context, ticket *domain.Ticket) error {
	if m.Err != nil {
		return m.Err
	}
	m.Tickets = append(m.Tickets, ticket)
	return nil
}

func (m *MockJournal) ListTickets(ctx context.Context, limit int) ([]*domain.Ticket, error) {
	return m.Tickets, m.Err
}

var btcusdt = domain.Pair{Base: "BTC", Quote: "USDT"}

func newForm(t *testing.T, journal domain.TicketJournal) *usecase.OrderForm {
	t.Helper()
	return usecase.NewOrderForm(btcusdt, usecase.NewProfitTargetsEngine(), journal, zaptest.NewLogger(t))
}

func TestOrderForm_Defaults(t *testing.T) {
	form := newForm(t, &MockJournal{})

	snap := form.Snapshot()
	assert.Equal(t, domain.SideBuy, snap.Side)
	assert.False(t, snap.TakeProfit)
	assert.Empty(t, snap.Targets)
	assert.False(t, snap.CanSubmit)
	assert.False(t, snap.CanAddTarget)
	assert.Equal(t, "Amount to sell", snap.AmountLabel)
	assert.Equal(t, "Add profit target 0/5", snap.AddTargetLabel)
	assert.Equal(t, "0.00", snap.ProjectedProfit)
}

func TestOrderForm_PriceIsRoundedAndRepricesTargets(t *testing.T) {
	form := newForm(t, &MockJournal{})
	require.NoError(t, form.SetPrice(100))
	require.NoError(t, form.SetTakeProfit(true))

	require.NoError(t, form.SetPrice(200.004))

	snap := form.Snapshot()
	assert.Equal(t, 200.0, snap.Price)
	require.Len(t, snap.Targets, 1)
	assert.InDelta(t, 204.0, snap.Targets[0].TradePrice, epsilon)
}

func TestOrderForm_TotalAndAmount(t *testing.T) {
	form := newForm(t, &MockJournal{})

	require.NoError(t, form.SetTotal(500))
	assert.Equal(t, 0.0, form.Snapshot().Amount)

	require.NoError(t, form.SetPrice(250))
	require.NoError(t, form.SetTotal(500))
	snap := form.Snapshot()
	assert.InDelta(t, 2.0, snap.Amount, epsilon)
	assert.InDelta(t, 500.0, snap.Total, epsilon)
}

func TestOrderForm_SideFlipsTargets(t *testing.T) {
	form := newForm(t, &MockJournal{})
	require.NoError(t, form.SetPrice(100))
	require.NoError(t, form.SetTakeProfit(true))

	require.NoError(t, form.SetSide(domain.SideSell))

	snap := form.Snapshot()
	assert.InDelta(t, 98.0, snap.Targets[0].TradePrice, epsilon)
	assert.Equal(t, "Amount to buy", snap.AmountLabel)

	assert.Error(t, form.SetSide("hold"))
}

func TestOrderForm_TakeProfitToggle(t *testing.T) {
	form := newForm(t, &MockJournal{})
	require.NoError(t, form.SetPrice(100))

	assert.ErrorIs(t, form.AddTarget(), usecase.ErrTakeProfitDisabled)
	assert.ErrorIs(t, form.CommitProfit(0, 5), usecase.ErrTakeProfitDisabled)

	require.NoError(t, form.SetTakeProfit(true))
	snap := form.Snapshot()
	require.Len(t, snap.Targets, 1)
	assert.Equal(t, 2.0, snap.Targets[0].ProfitPercent)
	assert.Equal(t, 100.0, snap.Targets[0].AmountPercent)
	assert.True(t, snap.CanAddTarget)

	// Switching on again keeps the ladder.
	require.NoError(t, form.AddTarget())
	require.NoError(t, form.SetTakeProfit(true))
	assert.Len(t, form.Snapshot().Targets, 2)

	require.NoError(t, form.SetTakeProfit(false))
	snap = form.Snapshot()
	assert.False(t, snap.TakeProfit)
	assert.Empty(t, snap.Targets)
}

func TestOrderForm_AddTargetUntilCap(t *testing.T) {
	form := newForm(t, &MockJournal{})
	require.NoError(t, form.SetPrice(100))
	require.NoError(t, form.SetTakeProfit(true))

	for i := 1; i < usecase.DefaultMaxTargets; i++ {
		require.NoError(t, form.AddTarget())
	}

	snap := form.Snapshot()
	assert.False(t, snap.CanAddTarget)
	assert.Equal(t, "Add profit target 5/5", snap.AddTargetLabel)
	assert.ErrorIs(t, form.AddTarget(), usecase.ErrTargetLimitReached)
}

func TestOrderForm_RemovingLastTargetDisablesTakeProfit(t *testing.T) {
	form := newForm(t, &MockJournal{})
	require.NoError(t, form.SetPrice(100))
	require.NoError(t, form.SetTakeProfit(true))
	require.NoError(t, form.AddTarget())

	require.NoError(t, form.RemoveTarget(1))
	assert.True(t, form.Snapshot().TakeProfit)

	require.NoError(t, form.RemoveTarget(0))
	snap := form.Snapshot()
	assert.False(t, snap.TakeProfit)
	assert.Empty(t, snap.Targets)

	assert.ErrorIs(t, form.RemoveTarget(0), usecase.ErrTakeProfitDisabled)
}

func TestOrderForm_EditsAndErrorMessages(t *testing.T) {
	form := newForm(t, &MockJournal{})
	require.NoError(t, form.SetPrice(100))
	require.NoError(t, form.SetAmount(1))
	require.NoError(t, form.SetTakeProfit(true))
	require.NoError(t, form.AddTarget())

	require.NoError(t, form.ChangeProfit(1, 1))
	snap := form.Snapshot()
	assert.Equal(t, "Each target's 'Profit' should be greater than the previous one", snap.Targets[1].ProfitError)
	assert.True(t, snap.HasErrors)
	assert.False(t, snap.CanSubmit)

	require.NoError(t, form.CommitProfit(1, 5))
	snap = form.Snapshot()
	assert.Empty(t, snap.Targets[1].ProfitError)
	assert.InDelta(t, 105.0, snap.Targets[1].TradePrice, epsilon)

	require.NoError(t, form.ChangeTargetPrice(0, 0))
	assert.Equal(t, "Each target's 'Trade price' should be greatest than zero", form.Snapshot().Targets[0].TargetPriceError)

	require.NoError(t, form.CommitTargetPrice(0, 103))
	snap = form.Snapshot()
	assert.Equal(t, 3.0, snap.Targets[0].ProfitPercent)
	// Committing a price does not revalidate, the price error stays until the next pass.
	assert.NotEmpty(t, snap.Targets[0].TargetPriceError)
	require.NoError(t, form.ChangeTargetPrice(0, 103))
	assert.Empty(t, form.Snapshot().Targets[0].TargetPriceError)

	require.NoError(t, form.ChangeAmount(1, 50))
	snap = form.Snapshot()
	assert.Equal(t, "130 out of 100% selected. Please decrease by 30", snap.Targets[0].AmountError)
	assert.Equal(t, snap.Targets[0].AmountError, snap.Targets[1].AmountError)

	require.NoError(t, form.CommitAmount())
	snap = form.Snapshot()
	assert.Equal(t, 50.0, snap.Targets[0].AmountPercent)
	assert.Equal(t, 50.0, snap.Targets[1].AmountPercent)
	assert.False(t, snap.HasErrors)
	assert.True(t, snap.CanSubmit)

	assert.ErrorIs(t, form.ChangeAmount(7, 10), usecase.ErrTargetNotFound)
}

func TestOrderForm_Submit(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	journal := &MockJournal{}
	form := usecase.NewOrderForm(btcusdt, usecase.NewProfitTargetsEngine(), journal, zap.New(core))
	ctx := context.Background()

	_, err := form.Submit(ctx)
	assert.ErrorIs(t, err, usecase.ErrTicketNotReady)
	assert.Equal(t, 1, logs.FilterMessage("Ticket rejected").Len())

	require.NoError(t, form.SetPrice(100))
	require.NoError(t, form.SetAmount(2))
	require.NoError(t, form.SetTakeProfit(true))
	require.NoError(t, form.AddTarget())

	ticket, err := form.Submit(ctx)
	require.NoError(t, err)
	require.Len(t, journal.Tickets, 1)
	assert.Same(t, ticket, journal.Tickets[0])
	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, btcusdt, ticket.Pair)
	assert.Equal(t, domain.SideBuy, ticket.Side)
	assert.Equal(t, "200.00", ticket.Total)
	assert.Equal(t, "4.80", ticket.ProjectedProfit)
	require.Len(t, ticket.Targets, 2)
	assert.Equal(t, 80.0, ticket.Targets[0].AmountPercent)
	assert.Equal(t, 1, logs.FilterMessage("Ticket submitted").Len())
}

func TestOrderForm_SubmitBlockedByErrors(t *testing.T) {
	journal := &MockJournal{}
	form := newForm(t, journal)
	require.NoError(t, form.SetPrice(100))
	require.NoError(t, form.SetAmount(1))
	require.NoError(t, form.SetTakeProfit(true))
	require.NoError(t, form.ChangeAmount(0, 0))

	assert.False(t, form.CanSubmit())
	_, err := form.Submit(context.Background())
	assert.ErrorIs(t, err, usecase.ErrTicketNotReady)
	assert.Empty(t, journal.Tickets)

	// Without take profit only price and amount matter.
	require.NoError(t, form.SetTakeProfit(false))
	assert.True(t, form.CanSubmit())
}

func TestOrderForm_SubmitJournalFailure(t *testing.T) {
	journal := &MockJournal{Err: errors.New("disk full")}
	form := newForm(t, journal)
	require.NoError(t, form.SetPrice(100))
	require.NoError(t, form.SetAmount(1))

	_, err := form.Submit(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, journal.Err)
}

func TestOrderForm_RevisionAdvances(t *testing.T) {
	form := newForm(t, &MockJournal{})
	before := form.Snapshot().Revision

	require.NoError(t, form.SetPrice(10))
	assert.Greater(t, form.Snapshot().Revision, before)
}

func TestOrderForm_RejectsOverflowingInput(t *testing.T) {
	form := newForm(t, &MockJournal{})
	require.NoError(t, form.SetPrice(100))
	require.NoError(t, form.SetAmount(1))
	require.NoError(t, form.SetTakeProfit(true))
	before := form.Snapshot()

	assert.ErrorIs(t, form.SetPrice(1e307), usecase.ErrInvalidValue)
	assert.ErrorIs(t, form.SetPrice(math.Inf(1)), usecase.ErrInvalidValue)
	assert.ErrorIs(t, form.SetAmount(math.NaN()), usecase.ErrInvalidValue)
	assert.ErrorIs(t, form.SetTotal(math.Inf(-1)), usecase.ErrInvalidValue)
	assert.ErrorIs(t, form.CommitProfit(0, 1e307), usecase.ErrInvalidValue)
	assert.ErrorIs(t, form.ChangeAmount(0, math.Inf(1)), usecase.ErrInvalidValue)

	var snap usecase.FormSnapshot
	require.NotPanics(t, func() { snap = form.Snapshot() })
	assert.Equal(t, before, snap)
}
