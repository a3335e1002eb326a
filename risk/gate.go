// Package risk is the only component allowed to veto a trade. Every proposal
// must pass Filter before it reaches the order ledger; the gate holds
// read-only views of positions and orders and never mutates either, with one
// exception: tripping the kill switch cancels all resting orders.
package risk

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/binaryedge/predictbot/market"
	"github.com/binaryedge/predictbot/strategy"
)

// PositionView is the read-only slice of position state the gate needs.
type PositionView interface {
	NetPosition(ticker string) int
	NetExposure() float64
	EventExposure(eventTicker string) float64
	DailyPnL() float64
	WeeklyPnL() float64
}

// OrderView exposes resting-order state plus the one mutation the kill
// switch is allowed: cancel everything.
type OrderView interface {
	RestingContracts(ticker string, price market.Cents) int
	CancelAll(ctx context.Context, ticker string) int
}

// Rejection explains why one proposal was refused. Every rejection carries a
// human-readable reason for auditability.
type Rejection struct {
	Proposal strategy.Proposal
	Reason   string
}

// Gate evaluates proposals against the capital limits and the kill switch.
type Gate struct {
	limits    Limits
	capital   float64
	positions PositionView
	orders    OrderView

	mu             sync.Mutex
	tripped        bool
	tripReason     string
	manualOverride bool
	exchangeOpen   bool
}

func NewGate(capital float64, limits Limits, positions PositionView, orders OrderView) *Gate {
	return &Gate{
		limits:       limits,
		capital:      capital,
		positions:    positions,
		orders:       orders,
		exchangeOpen: true,
	}
}

// Filter returns the approved subset of proposals, preserving relative order,
// plus a rejection with a reason for every refused proposal. With the kill
// switch active everything is rejected without per-proposal evaluation.
//
// Limits are re-checked per proposal rather than reserved: two callers that
// both read available capital before placing can still race past a shared
// limit. This is accepted soft admission control, not a reservation system.
func (g *Gate) Filter(ctx context.Context, proposals []strategy.Proposal) ([]strategy.Proposal, []Rejection) {
	if g.KillSwitchActive(ctx) {
		slog.Warn("kill switch active, all proposals rejected", "count", len(proposals))
		rejections := make([]Rejection, 0, len(proposals))
		for _, p := range proposals {
			rejections = append(rejections, Rejection{Proposal: p, Reason: "kill switch active"})
		}
		return nil, rejections
	}

	var approved []strategy.Proposal
	var rejections []Rejection
	for _, p := range proposals {
		if reason := g.check(p); reason != "" {
			slog.Warn("proposal rejected",
				"ticker", p.Ticker, "side", p.Side, "action", p.Action,
				"count", p.Count, "price", p.Price, "reason", reason)
			rejections = append(rejections, Rejection{Proposal: p, Reason: reason})
			continue
		}
		approved = append(approved, p)
	}

	if len(proposals) > 0 {
		slog.Info("risk filter", "approved", len(approved), "total", len(proposals))
	}
	return approved, rejections
}

// check runs the limit rules in order and returns the first violation.
func (g *Gate) check(p strategy.Proposal) string {
	cost := p.Notional()
	capital := g.capital

	if capital <= 0 {
		return "no capital available"
	}

	// 1. Single-trade notional.
	if limit := g.limits.MaxSingleTradePct * capital; cost > limit {
		return fmt.Sprintf("single trade $%.2f exceeds %.0f%% limit ($%.2f)",
			cost, g.limits.MaxSingleTradePct*100, limit)
	}

	// 2. Per-strike exposure: filled plus resting contracts, valued at the
	// proposal's price.
	filled := g.positions.NetPosition(p.Ticker)
	if filled < 0 {
		filled = -filled
	}
	resting := g.orders.RestingContracts(p.Ticker, 0)
	strikeExposure := float64(filled+resting)*p.Price.Dollars() + cost
	if limit := g.limits.MaxPerStrikePct * capital; strikeExposure > limit {
		return fmt.Sprintf("per-strike exposure $%.2f (filled=%d, resting=%d) exceeds %.0f%% limit",
			strikeExposure, filled, resting, g.limits.MaxPerStrikePct*100)
	}

	// 3. Per-event exposure.
	event := market.EventTicker(p.Ticker)
	eventExposure := g.positions.EventExposure(event) + cost
	if limit := g.limits.MaxPerEventPct * capital; eventExposure > limit {
		return fmt.Sprintf("per-event exposure $%.2f (%s) exceeds %.0f%% limit",
			eventExposure, event, g.limits.MaxPerEventPct*100)
	}

	// 4. Total exposure.
	total := g.positions.NetExposure()
	if limit := g.limits.MaxTotalExposurePct * capital; total+cost > limit {
		return fmt.Sprintf("total exposure $%.2f exceeds %.0f%% limit",
			total+cost, g.limits.MaxTotalExposurePct*100)
	}

	// 5. Cash buffer.
	remaining := capital - total - cost
	if buffer := g.limits.CashBufferPct * capital; remaining < buffer {
		return fmt.Sprintf("cash after trade ($%.2f) below buffer requirement ($%.2f)",
			remaining, buffer)
	}

	// 6. Daily loss limit.
	if daily := g.positions.DailyPnL(); daily < -(g.limits.DailyLossLimitPct * capital) {
		return fmt.Sprintf("daily loss $%.2f exceeds %.0f%% limit",
			-daily, g.limits.DailyLossLimitPct*100)
	}

	// 7. Weekly loss limit.
	if weekly := g.positions.WeeklyPnL(); weekly < -(g.limits.WeeklyLossLimitPct * capital) {
		return fmt.Sprintf("weekly loss $%.2f exceeds %.0f%% limit",
			-weekly, g.limits.WeeklyLossLimitPct*100)
	}

	return ""
}

// ---------------------------------------------------------------------------
// Kill switch
// ---------------------------------------------------------------------------

// KillSwitchActive evaluates the trip conditions and reports whether trading
// is halted. Once tripped the switch is sticky until Reset; there is no
// automatic recovery. Manual override halts trading without latching.
func (g *Gate) KillSwitchActive(ctx context.Context) bool {
	g.mu.Lock()
	if g.tripped {
		g.mu.Unlock()
		return true
	}
	if g.manualOverride {
		g.mu.Unlock()
		return true
	}

	var reason string
	switch {
	case !g.exchangeOpen:
		reason = "exchange not open"
	case g.capital > 0 && g.positions.DailyPnL() < -(g.limits.DailyLossLimitPct*g.capital):
		reason = fmt.Sprintf("daily loss $%.2f breached limit", -g.positions.DailyPnL())
	default:
		g.mu.Unlock()
		return false
	}

	g.tripped = true
	g.tripReason = reason
	g.mu.Unlock()

	slog.Error("kill switch tripped", "reason", reason)

	// Best-effort cancel of every resting order, exactly once per trip.
	// Failures are logged by the ledger, not retried.
	if g.orders != nil {
		n := g.orders.CancelAll(ctx, "")
		slog.Info("kill switch cancelled resting orders", "count", n)
	}
	return true
}

// Reset re-arms a tripped kill switch.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tripped = false
	g.tripReason = ""
	slog.Info("kill switch reset")
}

// TripReason returns why the switch tripped ("" while armed).
func (g *Gate) TripReason() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tripReason
}

// SetExchangeStatus records whether the exchange reports itself open.
func (g *Gate) SetExchangeStatus(open bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.exchangeOpen = open
	if !open {
		slog.Warn("exchange marked closed")
	}
}

// SetManualOverride halts (or resumes) trading by operator decision.
func (g *Gate) SetManualOverride(active bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.manualOverride = active
	if active {
		slog.Error("manual override active, all trading stopped")
	} else {
		slog.Info("manual override cleared")
	}
}

// ShouldFlattenAll reports whether every position should be liquidated now:
// daily loss beyond twice the daily limit, or manual override. Independent of
// the kill switch; the liquidation itself is a strategy concern.
func (g *Gate) ShouldFlattenAll() bool {
	g.mu.Lock()
	override := g.manualOverride
	g.mu.Unlock()
	if override {
		return true
	}

	if g.capital <= 0 {
		return false
	}
	threshold := 2 * g.limits.DailyLossLimitPct * g.capital
	if daily := g.positions.DailyPnL(); daily < -threshold {
		slog.Error("flatten all", "daily_pnl", daily, "threshold", -threshold)
		return true
	}
	return false
}

// AvailableCapital returns the dollars left for new trades after exposure and
// the cash buffer, floored at zero.
func (g *Gate) AvailableCapital() float64 {
	available := g.capital - g.positions.NetExposure() - g.limits.CashBufferPct*g.capital
	if available < 0 {
		return 0
	}
	return available
}

// Capital returns the capital baseline.
func (g *Gate) Capital() float64 { return g.capital }
