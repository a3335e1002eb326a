package orders

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/binaryedge/predictbot/market"
	"github.com/binaryedge/predictbot/paper"
)

var (
	ErrNoTicker     = errors.New("ticker required")
	ErrInvalidPrice = errors.New("price out of range")
	ErrInvalidCount = errors.New("count must be positive")
	ErrUnknownOrder = errors.New("order not found")
)

// Ledger tracks every order the bot has placed and routes new ones to the
// paper engine or the live transport.
//
// Locking: the ledger never calls into the paper engine while holding its own
// mutex; the engine's hooks call back into the ledger.
type Ledger struct {
	mode      Mode
	engine    *paper.Engine
	transport Transport

	mu     sync.Mutex
	orders map[string]*Order
	byTag  map[string]string // order ID -> strategy tag (denormalized for fills)

	onFill func(market.Fill, string)

	now func() time.Time
}

// NewLedger wires a ledger for the given mode. engine may be nil in live
// mode, transport may be nil in paper mode.
func NewLedger(mode Mode, engine *paper.Engine, transport Transport) *Ledger {
	l := &Ledger{
		mode:      mode,
		engine:    engine,
		transport: transport,
		orders:    make(map[string]*Order),
		byTag:     make(map[string]string),
		now:       time.Now,
	}
	if engine != nil {
		engine.SetFillHook(l.handleEngineFill)
		engine.SetCancelHook(l.handleEngineCancel)
	}
	return l
}

// SetFillHandler registers the downstream consumer of fills (position
// accounting). Called with the originating strategy tag.
func (l *Ledger) SetFillHandler(fn func(market.Fill, string)) { l.onFill = fn }

// Place submits one order. The returned order is nil when the trade did not
// happen: a taker order that found no crossing liquidity, or a live transport
// failure. Validation failures return an error.
func (l *Ledger) Place(ctx context.Context, req Request) (*Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if l.mode == Live {
		return l.placeLive(ctx, req), nil
	}
	return l.placePaper(req), nil
}

func (l *Ledger) placePaper(req Request) *Order {
	ord := &Order{
		ID:            "paper-" + uuid.NewString()[:12],
		ClientID:      uuid.NewString(),
		Ticker:        req.Ticker,
		Side:          req.Side,
		Action:        req.Action,
		Price:         req.Price,
		Count:         req.Count,
		Remaining:     req.Count,
		MakerOnly:     req.MakerOnly,
		CancelOnPause: req.CancelOnPause,
		Status:        StatusPending,
		Tag:           req.Tag,
		Created:       l.now(),
	}

	fill, outcome := l.engine.TryFill(paper.OrderRequest{
		OrderID:   ord.ID,
		Ticker:    req.Ticker,
		Side:      req.Side,
		Action:    req.Action,
		Price:     req.Price,
		Count:     req.Count,
		MakerOnly: req.MakerOnly,
	})

	switch outcome {
	case paper.OutcomeFilled:
		ord.Status = StatusExecuted
		ord.Remaining = 0
		ord.Price = fill.Price // takers execute at the touched price
	case paper.OutcomeResting:
		ord.Status = StatusResting
	default:
		slog.Info("order not placed: no crossing liquidity",
			"ticker", req.Ticker, "side", req.Side, "action", req.Action,
			"price", req.Price)
		return nil
	}

	l.track(ord)
	slog.Info("paper order placed",
		"order_id", ord.ID, "ticker", ord.Ticker, "side", ord.Side,
		"action", ord.Action, "price", ord.Price, "count", ord.Count,
		"status", ord.Status)

	if outcome == paper.OutcomeFilled && l.onFill != nil {
		l.onFill(fill, req.Tag)
	}
	return ord
}

func (l *Ledger) placeLive(ctx context.Context, req Request) *Order {
	clientID := uuid.NewString()
	ord, err := l.transport.CreateOrder(ctx, req, clientID)
	if err != nil {
		slog.Error("live order failed", "ticker", req.Ticker, "err", err)
		return nil
	}
	ord.Tag = req.Tag
	l.track(&ord)
	slog.Info("live order placed",
		"order_id", ord.ID, "ticker", ord.Ticker, "status", ord.Status)
	return &ord
}

// BatchPlace submits several orders. Paper mode places sequentially with no
// cross-leg atomicity. Live mode submits one atomic exchange batch: legs the
// exchange does not return are reported as failed, with no retry.
func (l *Ledger) BatchPlace(ctx context.Context, reqs []Request) []*Order {
	if l.mode == Paper {
		var out []*Order
		for _, req := range reqs {
			ord, err := l.Place(ctx, req)
			if err != nil {
				slog.Error("batch leg invalid", "ticker", req.Ticker, "err", err)
				continue
			}
			if ord != nil {
				out = append(out, ord)
			}
		}
		return out
	}

	clientIDs := make([]string, len(reqs))
	for i := range reqs {
		clientIDs[i] = uuid.NewString()
	}
	placed, err := l.transport.BatchCreate(ctx, reqs, clientIDs)
	if err != nil {
		slog.Error("batch place failed", "legs", len(reqs), "err", err)
		return nil
	}
	if len(placed) < len(reqs) {
		slog.Warn("batch place partial", "requested", len(reqs), "placed", len(placed))
	}

	out := make([]*Order, 0, len(placed))
	for i := range placed {
		ord := placed[i]
		l.track(&ord)
		out = append(out, &ord)
	}
	return out
}

// Cancel cancels one order. Paper mode flips local state directly; live mode
// updates local state only after the exchange confirms.
func (l *Ledger) Cancel(ctx context.Context, orderID string) bool {
	if l.mode == Paper {
		if l.engine.CancelOrder(orderID) {
			return true
		}
		// Not resting in the engine: an already-executed taker or a
		// pending order. Flip directly if we still consider it open.
		l.mu.Lock()
		defer l.mu.Unlock()
		ord, ok := l.orders[orderID]
		if !ok || !ord.open() {
			return false
		}
		ord.Status = StatusCanceled
		return true
	}

	if err := l.transport.CancelOrder(ctx, orderID); err != nil {
		slog.Error("cancel failed", "order_id", orderID, "err", err)
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if ord, ok := l.orders[orderID]; ok {
		ord.Status = StatusCanceled
	}
	return true
}

// CancelAll cancels every open order, optionally restricted to one ticker
// ("" for all markets). Returns the number canceled.
func (l *Ledger) CancelAll(ctx context.Context, ticker string) int {
	if l.mode == Paper {
		n := l.engine.CancelResting(ticker)
		slog.Info("paper cancel all", "ticker", ticker, "count", n)
		return n
	}

	open := l.OpenOrders(ticker)
	if len(open) == 0 {
		return 0
	}
	ids := make([]string, 0, len(open))
	for _, ord := range open {
		ids = append(ids, ord.ID)
	}
	if err := l.transport.BatchCancel(ctx, ids); err != nil {
		slog.Error("batch cancel failed", "count", len(ids), "err", err)
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, oid := range ids {
		if ord, ok := l.orders[oid]; ok {
			ord.Status = StatusCanceled
		}
	}
	slog.Info("cancelled orders", "ticker", ticker, "count", len(ids))
	return len(ids)
}

// Amend changes an order's price. Paper mode mutates in place (queue position
// re-seeds); live mode re-syncs from the exchange response.
func (l *Ledger) Amend(ctx context.Context, orderID string, newPrice market.Cents) *Order {
	if !newPrice.Valid() {
		slog.Error("amend rejected", "order_id", orderID, "price", newPrice)
		return nil
	}

	if l.mode == Paper {
		if !l.engine.AmendOrder(orderID, newPrice) {
			return nil
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		ord, ok := l.orders[orderID]
		if !ok {
			return nil
		}
		ord.Price = newPrice
		cp := *ord
		return &cp
	}

	updated, err := l.transport.AmendOrder(ctx, orderID, newPrice)
	if err != nil {
		slog.Error("amend failed", "order_id", orderID, "err", err)
		return nil
	}
	l.track(&updated)
	return &updated
}

// HandleFill applies an exchange fill notification to local order state and
// forwards it downstream. Live mode only; paper fills arrive via the engine.
func (l *Ledger) HandleFill(fill market.Fill) {
	l.applyFill(fill)
}

// ExpireStale sweeps paper resting orders older than ttl. No-op in live mode
// (the exchange owns live order expiry, if any).
func (l *Ledger) ExpireStale(ttl time.Duration) int {
	if l.mode != Paper {
		return 0
	}
	return l.engine.ExpireStale(ttl)
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Get returns a copy of one tracked order.
func (l *Ledger) Get(orderID string) (Order, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ord, ok := l.orders[orderID]
	if !ok {
		return Order{}, false
	}
	return *ord, true
}

// OpenOrders returns copies of all resting/pending orders, optionally
// filtered by ticker ("" for all).
func (l *Ledger) OpenOrders(ticker string) []Order {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Order
	for _, ord := range l.orders {
		if ord.open() && (ticker == "" || ord.Ticker == ticker) {
			out = append(out, *ord)
		}
	}
	return out
}

// RestingContracts returns the unfilled contracts resting in one market at a
// given price (0 for any price). The risk gate counts these toward per-strike
// exposure.
func (l *Ledger) RestingContracts(ticker string, price market.Cents) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := 0
	for _, ord := range l.orders {
		if ord.open() && ord.Ticker == ticker && (price == 0 || ord.Price == price) {
			total += ord.Remaining
		}
	}
	return total
}

func (o *Order) open() bool {
	return o.Status == StatusResting || o.Status == StatusPending
}

// ---------------------------------------------------------------------------
// Internal
// ---------------------------------------------------------------------------

func (l *Ledger) track(ord *Order) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders[ord.ID] = ord
	if ord.Tag != "" {
		l.byTag[ord.ID] = ord.Tag
	}
}

func (l *Ledger) applyFill(fill market.Fill) {
	l.mu.Lock()
	tag := l.byTag[fill.OrderID]
	if ord, ok := l.orders[fill.OrderID]; ok {
		ord.Remaining -= fill.Count
		if ord.Remaining <= 0 {
			ord.Remaining = 0
			ord.Status = StatusExecuted
		}
	}
	onFill := l.onFill
	l.mu.Unlock()

	if onFill != nil {
		onFill(fill, tag)
	}
}

// handleEngineFill delivers async maker fills from the paper engine.
func (l *Ledger) handleEngineFill(fill market.Fill) {
	l.applyFill(fill)
}

// handleEngineCancel marks paper orders canceled on expiry/cancel. The reason
// is logged for auditability; expiry is never a fill.
func (l *Ledger) handleEngineCancel(orderID, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ord, ok := l.orders[orderID]; ok && ord.open() {
		ord.Status = StatusCanceled
		slog.Debug("paper order closed", "order_id", orderID, "reason", reason)
	}
}
