package strategy

import (
	"context"
	"math"

	"github.com/binaryedge/predictbot/fees"
	"github.com/binaryedge/predictbot/market"
)

// SpreadCapture quotes maker orders one cent inside both sides of the book
// whenever the displayed spread is wider than the minimum profitable spread
// after fees. It is deliberately simple: the interesting signal work lives
// outside the core.
type SpreadCapture struct {
	QuoteSize   int // contracts per quote
	MaxPosition int // net contract cap per market
}

func NewSpreadCapture(quoteSize, maxPosition int) *SpreadCapture {
	return &SpreadCapture{QuoteSize: quoteSize, MaxPosition: maxPosition}
}

func (s *SpreadCapture) Name() string { return "spread_capture" }

func (s *SpreadCapture) Propose(ctx context.Context, view View, tickers []string) []Proposal {
	var out []Proposal
	for _, ticker := range tickers {
		if ctx.Err() != nil {
			return out
		}

		bid, okBid := view.BestYesBid(ticker)
		ask, okAsk := view.BestYesAsk(ticker)
		if !okBid || !okAsk {
			continue
		}

		spread, _ := view.Spread(ticker)
		mid := (bid.Price + ask.Price) / 2
		if spread < fees.MinProfitableSpread(mid, s.QuoteSize, true)+0.01 {
			continue
		}

		buyPrice := market.Cents(math.Round(bid.Price*100)) + 1
		sellPrice := market.Cents(math.Round(ask.Price*100)) - 1
		if !buyPrice.Valid() || !sellPrice.Valid() || buyPrice >= sellPrice {
			continue
		}

		net := view.NetPosition(ticker)
		if net < s.MaxPosition {
			out = append(out, Proposal{
				Ticker: ticker, Side: market.Yes, Action: market.Buy,
				Price: buyPrice, Count: s.QuoteSize, MakerOnly: true, Tag: s.Name(),
			})
		}
		if net > -s.MaxPosition {
			out = append(out, Proposal{
				Ticker: ticker, Side: market.Yes, Action: market.Sell,
				Price: sellPrice, Count: s.QuoteSize, MakerOnly: true, Tag: s.Name(),
			})
		}
	}
	return out
}
