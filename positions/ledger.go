// Package positions converts fills into position state: signed contract
// counts, weighted-average cost basis, realized and unrealized P&L, fee
// totals, and daily/weekly P&L windows.
//
// Everything is accounted in YES terms. A NO fill is converted to its
// YES-equivalent price ($1.00 - price) with inverted action polarity before
// the cost-basis rules run, so a single signed net_contracts value describes
// the whole position: positive = long YES, negative = short YES (long NO).
package positions

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/binaryedge/predictbot/fees"
	"github.com/binaryedge/predictbot/id"
	"github.com/binaryedge/predictbot/journal"
	"github.com/binaryedge/predictbot/market"
)

// State is the accounting for a single market.
type State struct {
	Ticker        string
	NetContracts  int     // positive = long YES, negative = short YES
	AvgEntryPrice float64 // dollars; meaningful only while NetContracts != 0
	Mark          float64 // last marked YES price, dollars
	RealizedPnL   float64
	UnrealizedPnL float64
	FeesPaid      float64
	TotalBought   int // YES-equivalent contracts bought
	TotalSold     int // YES-equivalent contracts sold
}

// Ledger is the single writer of position state and trade history. Fills are
// applied in transport-delivery order; reconciliation always defers to the
// exchange.
type Ledger struct {
	mu        sync.Mutex
	positions map[string]*State
	history   []journal.TradeRecord
	journal   journal.Journal

	dailyPnL  float64
	weeklyPnL float64
	dayKey    string
	weekKey   string
	totalFees float64

	now func() time.Time
}

func NewLedger(j journal.Journal) *Ledger {
	if j == nil {
		j = journal.Nop{}
	}
	return &Ledger{
		positions: make(map[string]*State),
		journal:   j,
		now:       time.Now,
	}
}

// UpdateFromFill folds one fill into position state. This is the only
// mutation entry point; each call touches exactly one market.
//
// The fill's fee is subtracted from realized P&L and from the daily/weekly
// accumulators whether the fill opens or closes. Settlement fills (price at
// $0.00 or $1.00) carry no fee.
func (l *Ledger) UpdateFromFill(fill market.Fill, strategy string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rolloverLocked()

	pos, ok := l.positions[fill.Ticker]
	if !ok {
		pos = &State{Ticker: fill.Ticker}
		l.positions[fill.Ticker] = pos
	}

	// Normalize to YES terms.
	price := fill.YesPrice().Dollars()
	action := fill.Action
	if fill.Side == market.No {
		if action == market.Buy {
			action = market.Sell
		} else {
			action = market.Buy
		}
	}

	fee := feeFor(fill)
	realized := 0.0
	qty := fill.Count
	net := pos.NetContracts

	if action == market.Buy {
		if net >= 0 {
			// Extend long: weighted-average cost basis.
			cost := pos.AvgEntryPrice*float64(net) + price*float64(qty)
			pos.NetContracts = net + qty
			if pos.NetContracts > 0 {
				pos.AvgEntryPrice = cost / float64(pos.NetContracts)
			} else {
				pos.AvgEntryPrice = 0
			}
		} else {
			// Cover short; any excess opens a long at the buy price.
			closing := min(qty, -net)
			realized = (pos.AvgEntryPrice - price) * float64(closing)
			pos.NetContracts = net + qty
			if pos.NetContracts > 0 {
				pos.AvgEntryPrice = price
			} else if pos.NetContracts == 0 {
				pos.AvgEntryPrice = 0
			}
		}
		pos.TotalBought += qty
	} else {
		if net > 0 {
			// Reduce long; any excess opens a short at the sell price.
			closing := min(qty, net)
			realized = (price - pos.AvgEntryPrice) * float64(closing)
			pos.NetContracts = net - qty
			if pos.NetContracts < 0 {
				pos.AvgEntryPrice = price
			} else if pos.NetContracts == 0 {
				pos.AvgEntryPrice = 0
			}
		} else {
			// Extend short: weighted-average over absolute size.
			cost := pos.AvgEntryPrice*float64(-net) + price*float64(qty)
			pos.NetContracts = net - qty
			pos.AvgEntryPrice = cost / float64(-pos.NetContracts)
		}
		pos.TotalSold += qty
	}

	pos.FeesPaid += fee
	l.totalFees += fee
	pos.RealizedPnL += realized - fee
	l.dailyPnL += realized - fee
	l.weeklyPnL += realized - fee

	rec := journal.TradeRecord{
		TradeID:  id.New(),
		Time:     fill.Time,
		Ticker:   fill.Ticker,
		Side:     string(fill.Side),
		Action:   string(fill.Action),
		Count:    fill.Count,
		Price:    fill.Price.Dollars(),
		Fee:      fee,
		Maker:    !fill.Taker,
		Strategy: strategy,
	}
	l.history = append(l.history, rec)
	if err := l.journal.RecordTrade(rec); err != nil {
		slog.Error("journal trade failed", "trade_id", rec.TradeID, "err", err)
	}

	slog.Info("fill processed",
		"ticker", fill.Ticker, "side", fill.Side, "action", fill.Action,
		"count", fill.Count, "price", price, "fee", fee,
		"net", pos.NetContracts, "realized", pos.RealizedPnL)
}

// feeFor computes the exchange fee for a fill. Settlement prices sit outside
// the tradeable band and are fee-free.
func feeFor(fill market.Fill) float64 {
	price := fill.Price.Dollars()
	if price <= 0 || price >= 1 {
		return 0
	}
	return fees.Fee(fill.Count, price, !fill.Taker)
}

// MarkToMarket recomputes unrealized P&L from current YES prices (dollars).
// Flat positions always show zero.
func (l *Ledger) MarkToMarket(prices map[string]float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for ticker, price := range prices {
		pos, ok := l.positions[ticker]
		if !ok {
			continue
		}
		pos.Mark = price
		switch {
		case pos.NetContracts > 0:
			pos.UnrealizedPnL = (price - pos.AvgEntryPrice) * float64(pos.NetContracts)
		case pos.NetContracts < 0:
			pos.UnrealizedPnL = (pos.AvgEntryPrice - price) * float64(-pos.NetContracts)
		default:
			pos.UnrealizedPnL = 0
		}
	}
}

// Reconcile overwrites local contract counts wherever the exchange snapshot
// disagrees. Exchange state always wins; each mismatch is logged. Returns the
// number of corrections applied.
func (l *Ledger) Reconcile(exchange map[string]int) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	fixed := 0
	for ticker, count := range exchange {
		pos, ok := l.positions[ticker]
		if !ok {
			pos = &State{Ticker: ticker}
			l.positions[ticker] = pos
		}
		if pos.NetContracts != count {
			slog.Warn("position mismatch, using exchange value",
				"ticker", ticker, "local", pos.NetContracts, "exchange", count)
			pos.NetContracts = count
			fixed++
		}
	}
	return fixed
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Position returns a copy of one market's state.
func (l *Ledger) Position(ticker string) (State, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.positions[ticker]
	if !ok {
		return State{}, false
	}
	return *pos, true
}

// NetPosition returns signed net contracts for a market (0 if unknown).
func (l *Ledger) NetPosition(ticker string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.positions[ticker]
	if !ok {
		return 0
	}
	return pos.NetContracts
}

// NetExposure is the total dollars at risk across all open positions.
func (l *Ledger) NetExposure() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.netExposureLocked()
}

func (l *Ledger) netExposureLocked() float64 {
	total := 0.0
	for _, pos := range l.positions {
		if pos.NetContracts != 0 {
			total += float64(abs(pos.NetContracts)) * pos.AvgEntryPrice
		}
	}
	return total
}

// EventExposure is the dollars at risk across all markets under one event
// ticker prefix.
func (l *Ledger) EventExposure(eventTicker string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := 0.0
	for ticker, pos := range l.positions {
		if pos.NetContracts != 0 && strings.HasPrefix(ticker, eventTicker) {
			total += float64(abs(pos.NetContracts)) * pos.AvgEntryPrice
		}
	}
	return total
}

// DailyPnL returns the fee-adjusted realized P&L since the last UTC midnight.
// The window resets lazily on first access after a date rollover.
func (l *Ledger) DailyPnL() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rolloverLocked()
	return l.dailyPnL
}

// WeeklyPnL returns the fee-adjusted realized P&L for the current ISO week,
// resetting lazily when the week rolls over.
func (l *Ledger) WeeklyPnL() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rolloverLocked()
	return l.weeklyPnL
}

// TotalFees returns cumulative fees paid this session.
func (l *Ledger) TotalFees() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalFees
}

// History returns a copy of the trade history.
func (l *Ledger) History() []journal.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]journal.TradeRecord, len(l.history))
	copy(out, l.history)
	return out
}

// Summary returns a read-only portfolio snapshot for dashboards and the
// journal.
func (l *Ledger) Summary() journal.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rolloverLocked()

	snap := journal.Snapshot{
		Time:        l.now(),
		NetExposure: l.netExposureLocked(),
		FeesPaid:    l.totalFees,
		DailyPnL:    l.dailyPnL,
		WeeklyPnL:   l.weeklyPnL,
	}
	for _, pos := range l.positions {
		if pos.NetContracts != 0 {
			snap.ActivePositions++
		}
		snap.RealizedPnL += pos.RealizedPnL
		snap.UnrealizedPnL += pos.UnrealizedPnL
	}
	return snap
}

// rolloverLocked zeroes the daily window on a UTC date change and the weekly
// window on an ISO-week change.
func (l *Ledger) rolloverLocked() {
	now := l.now().UTC()

	day := now.Format("2006-01-02")
	if day != l.dayKey {
		if l.dayKey != "" {
			slog.Info("daily pnl reset", "previous_day", l.dayKey, "pnl", l.dailyPnL)
		}
		l.dailyPnL = 0
		l.dayKey = day
	}

	year, week := now.ISOWeek()
	wk := fmt.Sprintf("%d-W%02d", year, week)
	if wk != l.weekKey {
		if l.weekKey != "" {
			slog.Info("weekly pnl reset", "previous_week", l.weekKey, "pnl", l.weeklyPnL)
		}
		l.weeklyPnL = 0
		l.weekKey = wk
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
