// Package paper simulates order execution against real market data without
// sending anything to the exchange.
//
// Taker orders fill synchronously off the displayed book. Maker orders join a
// simulated queue at their price level, seeded with the volume already
// displayed there, and only fill as the live trade stream reports enough
// traded volume to work through the queue ahead of them.
package paper

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/binaryedge/predictbot/id"
	"github.com/binaryedge/predictbot/market"
)

// DefaultTTL is how long a simulated resting order stays on the book before
// it is treated as implicitly canceled.
const DefaultTTL = 60 * time.Second

// matchTolerance is the maximum distance, in dollars, between a reported
// trade price and a resting order's price for the trade to count against it.
const matchTolerance = 0.005

// OrderRequest describes one order handed to the simulator.
type OrderRequest struct {
	OrderID   string
	Ticker    string
	Side      market.Side
	Action    market.Action
	Price     market.Cents
	Count     int
	MakerOnly bool
}

// Outcome reports what happened to an order synchronously. An unfilled taker
// order is an expected result, not an error.
type Outcome int

const (
	OutcomeNoFill Outcome = iota
	OutcomeFilled
	OutcomeResting
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFilled:
		return "filled"
	case OutcomeResting:
		return "resting"
	default:
		return "nofill"
	}
}

// RestingOrder is a maker order waiting for its simulated queue to drain.
type RestingOrder struct {
	OrderRequest
	Filled     int
	QueueAhead int
	Created    time.Time
}

// Remaining returns the unfilled contract count.
func (r *RestingOrder) Remaining() int { return r.Count - r.Filled }

// Engine simulates fills for paper trading. Maker fills are delivered through
// the fill hook; expired or canceled resting orders through the cancel hook.
type Engine struct {
	mu      sync.Mutex
	books   *market.BookStore
	resting []*RestingOrder

	onFill   func(market.Fill)
	onCancel func(orderID, reason string)

	now func() time.Time
}

func NewEngine(books *market.BookStore) *Engine {
	return &Engine{
		books: books,
		now:   time.Now,
	}
}

// SetFillHook registers the callback invoked for asynchronous maker fills
// produced by ProcessTrade. Synchronous taker fills are returned directly
// from TryFill instead. Must be set before orders flow.
func (e *Engine) SetFillHook(fn func(market.Fill)) { e.onFill = fn }

// SetCancelHook registers the callback invoked when a resting order leaves
// the book without filling (TTL expiry or explicit cancel).
func (e *Engine) SetCancelHook(fn func(orderID, reason string)) { e.onCancel = fn }

// TryFill attempts to execute an order against the current book state.
//
// Takers fill immediately and fully at the best opposing price when the limit
// crosses it; liquidity beyond the touched level is not modeled. Maker-only
// orders never fill synchronously: they join the back of the queue at their
// price, behind whatever volume the book currently displays there.
func (e *Engine) TryFill(req OrderRequest) (market.Fill, Outcome) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if req.MakerOnly {
		e.restLocked(req)
		return market.Fill{}, OutcomeResting
	}

	price, ok := e.crossPriceLocked(req)
	if !ok {
		slog.Debug("paper no fill",
			"ticker", req.Ticker, "side", req.Side, "action", req.Action,
			"price", req.Price)
		return market.Fill{}, OutcomeNoFill
	}

	fill := market.Fill{
		ID:      id.New(),
		OrderID: req.OrderID,
		Ticker:  req.Ticker,
		Side:    req.Side,
		Action:  req.Action,
		Count:   req.Count,
		Price:   price,
		Taker:   true,
		Time:    e.now(),
	}
	slog.Info("paper fill",
		"ticker", fill.Ticker, "side", fill.Side, "action", fill.Action,
		"count", fill.Count, "price", fill.Price, "taker", true)
	return fill, OutcomeFilled
}

// crossPriceLocked returns the execution price if the request crosses the
// opposing best price: buys must meet the ask, sells the bid.
func (e *Engine) crossPriceLocked(req OrderRequest) (market.Cents, bool) {
	var lvl market.PriceLevel
	var ok bool

	switch {
	case req.Side == market.Yes && req.Action == market.Buy:
		lvl, ok = e.books.BestYesAsk(req.Ticker)
	case req.Side == market.Yes && req.Action == market.Sell:
		lvl, ok = e.books.BestYesBid(req.Ticker)
	case req.Side == market.No && req.Action == market.Buy:
		lvl, ok = e.books.BestNoAsk(req.Ticker)
	default:
		lvl, ok = e.books.BestNoBid(req.Ticker)
	}
	if !ok {
		return 0, false
	}

	touch := market.Cents(math.Round(lvl.Price * 100))
	if req.Action == market.Buy {
		if req.Price >= touch {
			return touch, true
		}
	} else {
		if req.Price <= touch {
			return touch, true
		}
	}
	return 0, false
}

func (e *Engine) restLocked(req OrderRequest) {
	ro := &RestingOrder{
		OrderRequest: req,
		QueueAhead:   e.displayedAheadLocked(req),
		Created:      e.now(),
	}
	e.resting = append(e.resting, ro)

	slog.Debug("paper order resting",
		"ticker", req.Ticker, "side", req.Side, "action", req.Action,
		"price", req.Price, "count", req.Count, "queue_ahead", ro.QueueAhead)
}

// displayedAheadLocked seeds queue position from the volume currently shown
// at the order's price on its own queue side. New orders join at the back.
func (e *Engine) displayedAheadLocked(req OrderRequest) int {
	var side market.BookSide
	switch {
	case req.Side == market.Yes && req.Action == market.Buy:
		side = market.YesBid
	case req.Side == market.Yes && req.Action == market.Sell:
		side = market.YesAsk
	case req.Side == market.No && req.Action == market.Buy:
		side = market.NoBid
	default:
		side = market.NoAsk
	}
	return e.books.VolumeAtPrice(req.Ticker, side, req.Price.Dollars())
}

// ProcessTrade consumes one execution reported by the exchange trade stream
// and advances the simulated queues. Traded volume first drains the queue
// ahead of each compatible resting order, then fills the order itself;
// leftover volume cascades to the next resting order in registration order.
//
// Registration order approximates, but does not exactly reproduce, true
// exchange time priority when several orders share a price.
func (e *Engine) ProcessTrade(ticker string, side market.Side, price market.Cents, count int) []market.Fill {
	e.mu.Lock()
	defer e.mu.Unlock()

	yesPrice := price.Dollars()
	if side == market.No {
		yesPrice = price.Complement().Dollars()
	}

	var fills []market.Fill
	volume := count

	kept := e.resting[:0]
	for _, ro := range e.resting {
		if volume <= 0 || ro.Ticker != ticker || !compatible(side, ro) ||
			math.Abs(ro.yesQueuePrice()-yesPrice) > matchTolerance {
			kept = append(kept, ro)
			continue
		}

		if ro.QueueAhead > 0 {
			drained := min(volume, ro.QueueAhead)
			ro.QueueAhead -= drained
			volume -= drained
		}

		if volume > 0 && ro.QueueAhead == 0 {
			qty := min(volume, ro.Remaining())
			ro.Filled += qty
			volume -= qty

			fill := market.Fill{
				ID:      id.New(),
				OrderID: ro.OrderID,
				Ticker:  ro.Ticker,
				Side:    ro.Side,
				Action:  ro.Action,
				Count:   qty,
				Price:   ro.Price,
				Taker:   false,
				Time:    e.now(),
			}
			fills = append(fills, fill)
			e.emitLocked(fill)
		}

		if ro.Remaining() > 0 {
			kept = append(kept, ro)
		}
	}
	e.resting = kept

	return fills
}

// compatible reports whether a resting maker order is on the passive side of
// a trade whose taker side is takerSide: YES takers fill resting YES sellers
// and NO buyers, NO takers the reverse.
func compatible(takerSide market.Side, ro *RestingOrder) bool {
	if takerSide == market.Yes {
		return (ro.Side == market.Yes && ro.Action == market.Sell) ||
			(ro.Side == market.No && ro.Action == market.Buy)
	}
	return (ro.Side == market.No && ro.Action == market.Sell) ||
		(ro.Side == market.Yes && ro.Action == market.Buy)
}

// yesQueuePrice is the order's queue price expressed in YES terms.
func (r *RestingOrder) yesQueuePrice() float64 {
	if r.Side == market.Yes {
		return r.Price.Dollars()
	}
	return r.Price.Complement().Dollars()
}

// ExpireStale removes resting orders older than ttl. Expiry is an implicit
// cancel, never a fill. Returns the number of orders expired.
func (e *Engine) ExpireStale(ttl time.Duration) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-ttl)
	n := 0
	kept := e.resting[:0]
	for _, ro := range e.resting {
		if ro.Created.Before(cutoff) {
			n++
			e.cancelLocked(ro.OrderID, "expired")
			continue
		}
		kept = append(kept, ro)
	}
	e.resting = kept

	if n > 0 {
		slog.Info("paper orders expired", "count", n, "ttl", ttl)
	}
	return n
}

// CancelResting removes resting orders as explicit cancels. An empty ticker
// cancels across all markets. Returns the number canceled.
func (e *Engine) CancelResting(ticker string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	kept := e.resting[:0]
	for _, ro := range e.resting {
		if ticker == "" || ro.Ticker == ticker {
			n++
			e.cancelLocked(ro.OrderID, "canceled")
			continue
		}
		kept = append(kept, ro)
	}
	e.resting = kept
	return n
}

// CancelOrder removes one resting order by ID.
func (e *Engine) CancelOrder(orderID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, ro := range e.resting {
		if ro.OrderID == orderID {
			e.resting = append(e.resting[:i], e.resting[i+1:]...)
			e.cancelLocked(orderID, "canceled")
			return true
		}
	}
	return false
}

// AmendOrder moves a resting order to a new price. Queue position re-seeds
// from the displayed volume at the new level.
func (e *Engine) AmendOrder(orderID string, newPrice market.Cents) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ro := range e.resting {
		if ro.OrderID == orderID {
			ro.Price = newPrice
			ro.QueueAhead = e.displayedAheadLocked(ro.OrderRequest)
			return true
		}
	}
	return false
}

// RestingOrders returns a snapshot of resting orders, optionally filtered by
// ticker ("" for all).
func (e *Engine) RestingOrders(ticker string) []RestingOrder {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]RestingOrder, 0, len(e.resting))
	for _, ro := range e.resting {
		if ticker == "" || ro.Ticker == ticker {
			out = append(out, *ro)
		}
	}
	return out
}

func (e *Engine) emitLocked(fill market.Fill) {
	slog.Info("paper fill",
		"ticker", fill.Ticker, "side", fill.Side, "action", fill.Action,
		"count", fill.Count, "price", fill.Price, "taker", fill.Taker)
	if e.onFill != nil {
		e.onFill(fill)
	}
}

func (e *Engine) cancelLocked(orderID, reason string) {
	if e.onCancel != nil {
		e.onCancel(orderID, reason)
	}
}
