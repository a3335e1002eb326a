// Package orders owns the order lifecycle across paper and live modes:
// placement, cancellation, amendment, and local tracking.
//
// In paper mode orders route to the fill simulator. In live mode they go to
// the exchange transport, and local state mirrors whatever the exchange
// confirms; there are no optimistic updates. Transport failures are logged
// and surfaced as absent results; callers must treat a nil order as "did not
// happen".
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/binaryedge/predictbot/market"
)

// Mode selects where orders are routed.
type Mode string

const (
	Paper Mode = "paper"
	Live  Mode = "live"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusResting  Status = "resting"
	StatusExecuted Status = "executed"
	StatusCanceled Status = "canceled"
)

// Request describes one order to place.
type Request struct {
	Ticker        string
	Side          market.Side
	Action        market.Action
	Price         market.Cents
	Count         int
	MakerOnly     bool
	CancelOnPause bool
	Tag           string
}

// Validate rejects malformed requests before they reach matching. These are
// programming errors, not business outcomes.
func (r Request) Validate() error {
	if r.Ticker == "" {
		return fmt.Errorf("place order: %w", ErrNoTicker)
	}
	if err := r.Side.Validate(); err != nil {
		return fmt.Errorf("place order: %w", err)
	}
	if err := r.Action.Validate(); err != nil {
		return fmt.Errorf("place order: %w", err)
	}
	if !r.Price.Valid() {
		return fmt.Errorf("place order: %w: %d", ErrInvalidPrice, r.Price)
	}
	if r.Count <= 0 {
		return fmt.Errorf("place order: %w: %d", ErrInvalidCount, r.Count)
	}
	return nil
}

// Order is the locally tracked state of one placed order.
type Order struct {
	ID            string
	ClientID      string
	Ticker        string
	Side          market.Side
	Action        market.Action
	Price         market.Cents
	Count         int
	Remaining     int
	MakerOnly     bool
	CancelOnPause bool
	Status        Status
	Tag           string
	Created       time.Time
}

// Transport is the exchange collaborator for live mode: request signing,
// retry/backoff and reconnection live behind this interface, outside the
// core.
type Transport interface {
	CreateOrder(ctx context.Context, req Request, clientID string) (Order, error)
	BatchCreate(ctx context.Context, reqs []Request, clientIDs []string) ([]Order, error)
	CancelOrder(ctx context.Context, orderID string) error
	BatchCancel(ctx context.Context, orderIDs []string) error
	AmendOrder(ctx context.Context, orderID string, newPrice market.Cents) (Order, error)
}
