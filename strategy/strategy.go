// Package strategy defines the surface between trading strategies and the
// core: strategies read market and portfolio state through View and emit
// Proposals, which must pass the risk gate before reaching the order ledger.
package strategy

import (
	"context"

	"github.com/binaryedge/predictbot/market"
)

// Proposal is a single trade a strategy wants to make. The core never
// mutates proposals; the risk gate either approves or rejects them whole.
type Proposal struct {
	Ticker    string
	Side      market.Side
	Action    market.Action
	Price     market.Cents
	Count     int
	MakerOnly bool
	Tag       string // originating strategy name, carried through to the journal
}

// Notional is the proposal's cost in dollars.
func (p Proposal) Notional() float64 {
	return p.Price.Dollars() * float64(p.Count)
}

// View is the read-only query surface the core exposes to strategies.
type View interface {
	BestYesBid(ticker string) (market.PriceLevel, bool)
	BestYesAsk(ticker string) (market.PriceLevel, bool)
	Spread(ticker string) (float64, bool)
	NetPosition(ticker string) int
	AvailableCapital() float64
}

// Strategy proposes trades each cycle. Implementations must not block beyond
// the passed context.
type Strategy interface {
	Name() string
	Propose(ctx context.Context, view View, tickers []string) []Proposal
}
