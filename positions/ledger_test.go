package positions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binaryedge/predictbot/market"
)

const (
	btcTicker = "KXBTC-26FEB14-T70000"
	ethTicker = "KXETH-26MAR01-T3000"
)

func fill(ticker string, side market.Side, action market.Action, count int, price market.Cents, taker bool) market.Fill {
	return market.Fill{
		ID:      "f1",
		OrderID: "o1",
		Ticker:  ticker,
		Side:    side,
		Action:  action,
		Count:   count,
		Price:   price,
		Taker:   taker,
		Time:    time.Now(),
	}
}

func TestUpdateFromFill_WeightedAverageEntry(t *testing.T) {
	t.Parallel()
	l := NewLedger(nil)

	l.UpdateFromFill(fill(btcTicker, market.Yes, market.Buy, 100, 50, true), "test")
	l.UpdateFromFill(fill(btcTicker, market.Yes, market.Buy, 100, 60, true), "test")

	pos, ok := l.Position(btcTicker)
	require.True(t, ok)
	assert.Equal(t, 200, pos.NetContracts)
	assert.InDelta(t, 0.55, pos.AvgEntryPrice, 1e-9)
	// Opening fills still pay fees: 1.75 + 1.68.
	assert.InDelta(t, 3.43, pos.FeesPaid, 1e-9)
	assert.InDelta(t, -3.43, pos.RealizedPnL, 1e-9)
	assert.Equal(t, 200, pos.TotalBought)
}

func TestUpdateFromFill_NoFillNormalizesToYes(t *testing.T) {
	t.Parallel()
	l := NewLedger(nil)

	// Buying NO at 40c is selling YES at 60c.
	l.UpdateFromFill(fill(btcTicker, market.No, market.Buy, 50, 40, true), "test")

	pos, ok := l.Position(btcTicker)
	require.True(t, ok)
	assert.Equal(t, -50, pos.NetContracts)
	assert.InDelta(t, 0.60, pos.AvgEntryPrice, 1e-9)
	assert.Equal(t, 50, pos.TotalSold)
	assert.InDelta(t, 0.84, pos.FeesPaid, 1e-9)
}

func TestUpdateFromFill_CloseLong(t *testing.T) {
	t.Parallel()
	l := NewLedger(nil)

	l.UpdateFromFill(fill(btcTicker, market.Yes, market.Buy, 100, 50, true), "test")
	l.UpdateFromFill(fill(btcTicker, market.Yes, market.Sell, 100, 60, true), "test")

	pos, _ := l.Position(btcTicker)
	assert.Equal(t, 0, pos.NetContracts)
	assert.Zero(t, pos.AvgEntryPrice)
	// 10.00 gross minus 1.75 entry fee and 1.68 exit fee.
	assert.InDelta(t, 6.57, pos.RealizedPnL, 1e-9)
	assert.InDelta(t, 6.57, l.DailyPnL(), 1e-9)
}

func TestUpdateFromFill_FlipLongToShort(t *testing.T) {
	t.Parallel()
	l := NewLedger(nil)

	l.UpdateFromFill(fill(btcTicker, market.Yes, market.Buy, 10, 50, true), "test")
	l.UpdateFromFill(fill(btcTicker, market.Yes, market.Sell, 30, 60, true), "test")

	pos, _ := l.Position(btcTicker)
	assert.Equal(t, -20, pos.NetContracts)
	// Excess short opens at the sell price.
	assert.InDelta(t, 0.60, pos.AvgEntryPrice, 1e-9)
	// 1.00 gross on the 10 closed, minus 0.18 + 0.51 in fees.
	assert.InDelta(t, 0.31, pos.RealizedPnL, 1e-9)
}

func TestUpdateFromFill_CoverShort(t *testing.T) {
	t.Parallel()
	l := NewLedger(nil)

	l.UpdateFromFill(fill(btcTicker, market.Yes, market.Sell, 20, 60, true), "test")
	l.UpdateFromFill(fill(btcTicker, market.Yes, market.Buy, 20, 40, true), "test")

	pos, _ := l.Position(btcTicker)
	assert.Equal(t, 0, pos.NetContracts)
	// 4.00 gross minus 0.34 + 0.34 in fees.
	assert.InDelta(t, 3.32, pos.RealizedPnL, 1e-9)
}

func TestUpdateFromFill_SettlementIsFeeFree(t *testing.T) {
	t.Parallel()
	l := NewLedger(nil)

	l.UpdateFromFill(fill(btcTicker, market.Yes, market.Buy, 100, 85, false), "test")
	l.UpdateFromFill(fill(btcTicker, market.Yes, market.Sell, 100, 100, true), "test")

	pos, _ := l.Position(btcTicker)
	// 15.00 settlement proceeds minus the 0.23 maker entry fee only.
	assert.InDelta(t, 14.77, pos.RealizedPnL, 1e-9)
	assert.InDelta(t, 0.23, pos.FeesPaid, 1e-9)
	assert.InDelta(t, 0.23, l.TotalFees(), 1e-9)
}

func TestMarkToMarket(t *testing.T) {
	t.Parallel()
	l := NewLedger(nil)

	l.UpdateFromFill(fill(btcTicker, market.Yes, market.Buy, 100, 50, true), "test")
	l.MarkToMarket(map[string]float64{btcTicker: 0.58, "unknown": 0.40})

	pos, _ := l.Position(btcTicker)
	assert.InDelta(t, 8.00, pos.UnrealizedPnL, 1e-9)
	assert.InDelta(t, 0.58, pos.Mark, 1e-9)

	// Flat positions always mark to zero.
	l.UpdateFromFill(fill(btcTicker, market.Yes, market.Sell, 100, 58, true), "test")
	l.MarkToMarket(map[string]float64{btcTicker: 0.90})
	pos, _ = l.Position(btcTicker)
	assert.Zero(t, pos.UnrealizedPnL)
}

func TestDailyAndWeeklyRollover(t *testing.T) {
	t.Parallel()
	l := NewLedger(nil)

	// Wednesday, mid ISO week 7.
	now := time.Date(2026, 2, 11, 15, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.UpdateFromFill(fill(btcTicker, market.Yes, market.Buy, 100, 50, true), "test")
	l.UpdateFromFill(fill(btcTicker, market.Yes, market.Sell, 100, 60, true), "test")
	require.InDelta(t, 6.57, l.DailyPnL(), 1e-9)
	require.InDelta(t, 6.57, l.WeeklyPnL(), 1e-9)

	// Next UTC day, same ISO week: daily resets, weekly survives.
	now = now.Add(24 * time.Hour)
	assert.Zero(t, l.DailyPnL())
	assert.InDelta(t, 6.57, l.WeeklyPnL(), 1e-9)

	// Following Monday: weekly resets too.
	now = time.Date(2026, 2, 16, 1, 0, 0, 0, time.UTC)
	assert.Zero(t, l.WeeklyPnL())
}

func TestReconcile_ExchangeWins(t *testing.T) {
	t.Parallel()
	l := NewLedger(nil)

	l.UpdateFromFill(fill(btcTicker, market.Yes, market.Buy, 100, 50, true), "test")

	// btc drifted, eth unknown locally, sol already agrees at zero.
	fixed := l.Reconcile(map[string]int{
		btcTicker: 90,
		ethTicker: 10,
		"KXSOL-1": 0,
	})
	assert.Equal(t, 2, fixed)
	assert.Equal(t, 90, l.NetPosition(btcTicker))
	assert.Equal(t, 10, l.NetPosition(ethTicker))

	// A second pass finds nothing to fix.
	assert.Zero(t, l.Reconcile(map[string]int{btcTicker: 90}))
}

func TestEventExposure(t *testing.T) {
	t.Parallel()
	l := NewLedger(nil)

	l.UpdateFromFill(fill("KXBTC-26FEB14-T70000", market.Yes, market.Buy, 100, 50, true), "test")
	l.UpdateFromFill(fill("KXBTC-26FEB14-T75000", market.Yes, market.Buy, 50, 40, true), "test")
	l.UpdateFromFill(fill(ethTicker, market.Yes, market.Buy, 10, 50, true), "test")

	assert.InDelta(t, 70.00, l.EventExposure("KXBTC-26FEB14"), 1e-9)
	assert.InDelta(t, 75.00, l.NetExposure(), 1e-9)
}

func TestSummary(t *testing.T) {
	t.Parallel()
	l := NewLedger(nil)

	l.UpdateFromFill(fill(btcTicker, market.Yes, market.Buy, 100, 50, true), "test")
	l.UpdateFromFill(fill(ethTicker, market.Yes, market.Buy, 10, 50, true), "test")
	l.UpdateFromFill(fill(ethTicker, market.Yes, market.Sell, 10, 50, true), "test")

	snap := l.Summary()
	assert.Equal(t, 1, snap.ActivePositions)
	assert.InDelta(t, 50.00, snap.NetExposure, 1e-9)
	assert.Len(t, l.History(), 3)
}
