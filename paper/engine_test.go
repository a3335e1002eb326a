package paper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binaryedge/predictbot/market"
)

const ticker = "KXBTC-26FEB14-T70000"

// yes bids 0.55x100 / 0.54x50, no bids 0.43x80
// derived: yes ask 0.57x80, no ask 0.45x100, spread 2c
func seededEngine(t *testing.T) *Engine {
	t.Helper()
	books := market.NewBookStore()
	books.UpdateSnapshot(ticker,
		[]market.PriceLevel{{Price: 0.55, Qty: 100}, {Price: 0.54, Qty: 50}},
		[]market.PriceLevel{{Price: 0.43, Qty: 80}},
	)
	return NewEngine(books)
}

func req(side market.Side, action market.Action, price market.Cents, count int, makerOnly bool) OrderRequest {
	return OrderRequest{
		OrderID:   "ord-1",
		Ticker:    ticker,
		Side:      side,
		Action:    action,
		Price:     price,
		Count:     count,
		MakerOnly: makerOnly,
	}
}

func TestTryFill_TakerCrossesAsk(t *testing.T) {
	t.Parallel()
	e := seededEngine(t)

	fill, outcome := e.TryFill(req(market.Yes, market.Buy, 58, 20, false))
	require.Equal(t, OutcomeFilled, outcome)
	assert.Equal(t, market.Cents(57), fill.Price) // fills at the touch, not the limit
	assert.Equal(t, 20, fill.Count)
	assert.True(t, fill.Taker)
	assert.NotEmpty(t, fill.ID)
}

func TestTryFill_TakerInsideSpread(t *testing.T) {
	t.Parallel()
	e := seededEngine(t)

	_, outcome := e.TryFill(req(market.Yes, market.Buy, 56, 20, false))
	assert.Equal(t, OutcomeNoFill, outcome)
	assert.Empty(t, e.RestingOrders(""))
}

func TestTryFill_TakerSellHitsBid(t *testing.T) {
	t.Parallel()
	e := seededEngine(t)

	fill, outcome := e.TryFill(req(market.Yes, market.Sell, 54, 10, false))
	require.Equal(t, OutcomeFilled, outcome)
	assert.Equal(t, market.Cents(55), fill.Price)
}

func TestTryFill_NoSide(t *testing.T) {
	t.Parallel()
	e := seededEngine(t)

	// NO ask is 0.45 (from the YES bid at 0.55).
	fill, outcome := e.TryFill(req(market.No, market.Buy, 45, 10, false))
	require.Equal(t, OutcomeFilled, outcome)
	assert.Equal(t, market.Cents(45), fill.Price)

	// NO bid is 0.43.
	fill, outcome = e.TryFill(req(market.No, market.Sell, 43, 10, false))
	require.Equal(t, OutcomeFilled, outcome)
	assert.Equal(t, market.Cents(43), fill.Price)
}

func TestTryFill_MakerRestsWithQueue(t *testing.T) {
	t.Parallel()
	e := seededEngine(t)

	_, outcome := e.TryFill(req(market.Yes, market.Buy, 55, 30, true))
	require.Equal(t, OutcomeResting, outcome)

	resting := e.RestingOrders(ticker)
	require.Len(t, resting, 1)
	assert.Equal(t, 100, resting[0].QueueAhead) // displayed volume at 0.55
	assert.Equal(t, 30, resting[0].Remaining())
}

func TestTryFill_MakerNeverFillsSynchronously(t *testing.T) {
	t.Parallel()
	e := seededEngine(t)

	// Crossing price, but maker-only: the simulator queues it.
	_, outcome := e.TryFill(req(market.Yes, market.Buy, 60, 30, true))
	assert.Equal(t, OutcomeResting, outcome)
}

func TestProcessTrade_DrainsQueueThenFills(t *testing.T) {
	t.Parallel()
	e := seededEngine(t)

	var fills []market.Fill
	e.SetFillHook(func(f market.Fill) { fills = append(fills, f) })

	_, outcome := e.TryFill(req(market.Yes, market.Buy, 55, 50, true))
	require.Equal(t, OutcomeResting, outcome)

	// A resting YES buy fills against NO-taker flow. NO price = 0.45.
	got := e.ProcessTrade(ticker, market.No, 45, 60)
	assert.Empty(t, got) // queue ahead 100 -> 40, order untouched
	assert.Empty(t, fills)

	got = e.ProcessTrade(ticker, market.No, 45, 70)
	require.Len(t, got, 1)
	assert.Equal(t, 30, got[0].Count) // 70 - 40 queue remainder
	assert.False(t, got[0].Taker)
	assert.Equal(t, market.Cents(55), got[0].Price)
	require.Len(t, fills, 1)

	resting := e.RestingOrders(ticker)
	require.Len(t, resting, 1)
	assert.Equal(t, 20, resting[0].Remaining())

	// Finish it off; order is removed exactly once.
	got = e.ProcessTrade(ticker, market.No, 45, 500)
	require.Len(t, got, 1)
	assert.Equal(t, 20, got[0].Count)
	assert.Empty(t, e.RestingOrders(ticker))
}

func TestProcessTrade_NeverOverfills(t *testing.T) {
	t.Parallel()
	e := seededEngine(t)

	// Rest a YES sell at 0.57 behind the displayed 80.
	r := req(market.Yes, market.Sell, 57, 10, true)
	_, outcome := e.TryFill(r)
	require.Equal(t, OutcomeResting, outcome)

	// Pump far more YES-taker volume through than the order size.
	total := 0
	for i := 0; i < 10; i++ {
		for _, f := range e.ProcessTrade(ticker, market.Yes, 57, 40) {
			total += f.Count
		}
	}
	assert.Equal(t, 10, total)
	assert.Empty(t, e.RestingOrders(ticker))
}

func TestProcessTrade_PriceTolerance(t *testing.T) {
	t.Parallel()
	e := seededEngine(t)

	_, outcome := e.TryFill(req(market.Yes, market.Sell, 57, 10, true))
	require.Equal(t, OutcomeResting, outcome)

	// Trades two cents away do not touch the order.
	e.ProcessTrade(ticker, market.Yes, 59, 500)
	resting := e.RestingOrders(ticker)
	require.Len(t, resting, 1)
	assert.Equal(t, 0, resting[0].Filled)
}

func TestProcessTrade_CascadesInRegistrationOrder(t *testing.T) {
	t.Parallel()
	books := market.NewBookStore()
	books.UpdateSnapshot(ticker, nil, nil) // empty book: queue_ahead seeds to 0
	e := NewEngine(books)

	first := req(market.Yes, market.Sell, 57, 10, true)
	first.OrderID = "first"
	second := req(market.Yes, market.Sell, 57, 10, true)
	second.OrderID = "second"

	_, _ = e.TryFill(first)
	_, _ = e.TryFill(second)

	fills := e.ProcessTrade(ticker, market.Yes, 57, 15)
	require.Len(t, fills, 2)
	assert.Equal(t, "first", fills[0].OrderID)
	assert.Equal(t, 10, fills[0].Count)
	assert.Equal(t, "second", fills[1].OrderID)
	assert.Equal(t, 5, fills[1].Count)
}

func TestExpireStale(t *testing.T) {
	t.Parallel()
	e := seededEngine(t)

	var canceled []string
	e.SetCancelHook(func(id, reason string) {
		assert.Equal(t, "expired", reason)
		canceled = append(canceled, id)
	})

	now := time.Now()
	e.now = func() time.Time { return now }
	_, _ = e.TryFill(req(market.Yes, market.Buy, 55, 30, true))

	// Not stale yet.
	e.now = func() time.Time { return now.Add(30 * time.Second) }
	assert.Zero(t, e.ExpireStale(DefaultTTL))

	e.now = func() time.Time { return now.Add(2 * time.Minute) }
	assert.Equal(t, 1, e.ExpireStale(DefaultTTL))
	assert.Equal(t, []string{"ord-1"}, canceled)
	assert.Empty(t, e.RestingOrders(""))
}

func TestCancelResting(t *testing.T) {
	t.Parallel()
	e := seededEngine(t)

	other := req(market.Yes, market.Buy, 55, 10, true)
	other.OrderID = "ord-2"
	other.Ticker = "KXETH-26MAR01-T3000"

	_, _ = e.TryFill(req(market.Yes, market.Buy, 55, 10, true))
	_, _ = e.TryFill(other)

	assert.Equal(t, 1, e.CancelResting(ticker))
	require.Len(t, e.RestingOrders(""), 1)
	assert.Equal(t, 1, e.CancelResting(""))
	assert.Empty(t, e.RestingOrders(""))
}

func TestAmendOrder_ReseedsQueue(t *testing.T) {
	t.Parallel()
	e := seededEngine(t)

	_, _ = e.TryFill(req(market.Yes, market.Buy, 55, 10, true))
	require.True(t, e.AmendOrder("ord-1", 54))

	resting := e.RestingOrders(ticker)
	require.Len(t, resting, 1)
	assert.Equal(t, market.Cents(54), resting[0].Price)
	assert.Equal(t, 50, resting[0].QueueAhead) // displayed volume at 0.54

	assert.False(t, e.AmendOrder("missing", 50))
}
