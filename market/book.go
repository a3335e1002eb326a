package market

import (
	"log/slog"
	"math"
	"sort"
	"sync"
)

// levelTolerance is how close two float prices must be to count as the same
// book level. Exchange prices are whole cents, so a tenth of a cent is ample.
const levelTolerance = 0.001

// PriceLevel is one rung of a bid ladder: price in dollars, resting contracts.
type PriceLevel struct {
	Price float64
	Qty   int
}

// LocalOrderBook mirrors one market's displayed book. Only bids exist; asks
// are derived. Both slices are kept sorted by price descending with no
// duplicate prices.
type LocalOrderBook struct {
	Ticker  string
	YesBids []PriceLevel
	NoBids  []PriceLevel
}

// LevelDelta is a single incremental book change. Qty <= 0 removes the level.
type LevelDelta struct {
	Price float64
	Qty   int
}

// BookSide names a queryable side of the book, derived sides included.
type BookSide string

const (
	YesBid BookSide = "yes_bid"
	YesAsk BookSide = "yes_ask"
	NoBid  BookSide = "no_bid"
	NoAsk  BookSide = "no_ask"
)

// BookStore owns the local order books for all watched markets. It is the
// single writer: only market-data ingestion mutates it, everything else
// queries. Queries on unknown markets report no data rather than failing.
type BookStore struct {
	mu    sync.RWMutex
	books map[string]*LocalOrderBook
}

func NewBookStore() *BookStore {
	return &BookStore{books: make(map[string]*LocalOrderBook)}
}

// UpdateSnapshot replaces a market's book wholesale.
func (s *BookStore) UpdateSnapshot(ticker string, yesBids, noBids []PriceLevel) {
	book := &LocalOrderBook{
		Ticker:  ticker,
		YesBids: sortLevels(yesBids),
		NoBids:  sortLevels(noBids),
	}

	s.mu.Lock()
	s.books[ticker] = book
	s.mu.Unlock()

	slog.Debug("book snapshot",
		"ticker", ticker,
		"yes_levels", len(book.YesBids),
		"no_levels", len(book.NoBids))
}

// ApplyDelta applies incremental level changes to a market's book. A book is
// created lazily if no snapshot arrived yet.
func (s *BookStore) ApplyDelta(ticker string, yes, no []LevelDelta) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.books[ticker]
	if !ok {
		book = &LocalOrderBook{Ticker: ticker}
		s.books[ticker] = book
	}

	for _, d := range yes {
		book.YesBids = applyLevel(book.YesBids, d)
	}
	for _, d := range no {
		book.NoBids = applyLevel(book.NoBids, d)
	}
}

func sortLevels(levels []PriceLevel) []PriceLevel {
	out := make([]PriceLevel, len(levels))
	copy(out, levels)
	sort.Slice(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	return out
}

func applyLevel(bids []PriceLevel, d LevelDelta) []PriceLevel {
	for i := range bids {
		if math.Abs(bids[i].Price-d.Price) < levelTolerance {
			if d.Qty <= 0 {
				return append(bids[:i], bids[i+1:]...)
			}
			bids[i].Qty = d.Qty
			return bids
		}
	}
	if d.Qty <= 0 {
		return bids
	}
	bids = append(bids, PriceLevel{Price: d.Price, Qty: d.Qty})
	sort.Slice(bids, func(i, j int) bool { return bids[i].Price > bids[j].Price })
	return bids
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// BestYesBid returns the highest YES bid, if any.
func (s *BookStore) BestYesBid(ticker string) (PriceLevel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	book, ok := s.books[ticker]
	if !ok || len(book.YesBids) == 0 {
		return PriceLevel{}, false
	}
	return book.YesBids[0], true
}

// BestNoBid returns the highest NO bid, if any.
func (s *BookStore) BestNoBid(ticker string) (PriceLevel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	book, ok := s.books[ticker]
	if !ok || len(book.NoBids) == 0 {
		return PriceLevel{}, false
	}
	return book.NoBids[0], true
}

// BestYesAsk returns the lowest YES ask, derived from the best NO bid. The
// quantity is the NO bid's quantity.
func (s *BookStore) BestYesAsk(ticker string) (PriceLevel, bool) {
	lvl, ok := s.BestNoBid(ticker)
	if !ok {
		return PriceLevel{}, false
	}
	return PriceLevel{Price: roundCents(1.0 - lvl.Price), Qty: lvl.Qty}, true
}

// BestNoAsk returns the lowest NO ask, derived from the best YES bid.
func (s *BookStore) BestNoAsk(ticker string) (PriceLevel, bool) {
	lvl, ok := s.BestYesBid(ticker)
	if !ok {
		return PriceLevel{}, false
	}
	return PriceLevel{Price: roundCents(1.0 - lvl.Price), Qty: lvl.Qty}, true
}

// Spread returns yes_ask - yes_bid in dollars.
func (s *BookStore) Spread(ticker string) (float64, bool) {
	bid, ok := s.BestYesBid(ticker)
	if !ok {
		return 0, false
	}
	ask, ok := s.BestYesAsk(ticker)
	if !ok {
		return 0, false
	}
	return roundCents(ask.Price - bid.Price), true
}

// Depth returns the top n levels of a side, best first. Derived ask sides are
// reported in ask prices (ascending).
func (s *BookStore) Depth(ticker string, side BookSide, n int) []PriceLevel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	book, ok := s.books[ticker]
	if !ok {
		return nil
	}

	var raw []PriceLevel
	invert := false
	switch side {
	case YesBid:
		raw = book.YesBids
	case NoBid:
		raw = book.NoBids
	case YesAsk:
		raw = book.NoBids
		invert = true
	case NoAsk:
		raw = book.YesBids
		invert = true
	default:
		return nil
	}

	if n > len(raw) {
		n = len(raw)
	}
	out := make([]PriceLevel, 0, n)
	for _, lvl := range raw[:n] {
		if invert {
			lvl.Price = roundCents(1.0 - lvl.Price)
		}
		out = append(out, lvl)
	}
	return out
}

// VolumeAtPrice returns the contracts displayed at an exact price on a side.
func (s *BookStore) VolumeAtPrice(ticker string, side BookSide, price float64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	book, ok := s.books[ticker]
	if !ok {
		return 0
	}

	var bids []PriceLevel
	switch side {
	case YesBid:
		bids = book.YesBids
	case NoBid:
		bids = book.NoBids
	case YesAsk:
		bids = book.NoBids
		price = roundCents(1.0 - price)
	case NoAsk:
		bids = book.YesBids
		price = roundCents(1.0 - price)
	default:
		return 0
	}

	total := 0
	for _, lvl := range bids {
		if math.Abs(lvl.Price-price) < levelTolerance {
			total += lvl.Qty
		}
	}
	return total
}

// HasBook reports whether any book data exists for the ticker.
func (s *BookStore) HasBook(ticker string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.books[ticker]
	return ok
}

// Tickers returns every market with book data.
func (s *BookStore) Tickers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.books))
	for t := range s.books {
		out = append(out, t)
	}
	return out
}

func roundCents(x float64) float64 {
	return math.Round(x*100) / 100
}
