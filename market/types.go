// Package market holds the core domain types for binary prediction markets:
// YES/NO sides, integer-cent prices, fills, and the local order book.
//
// Prediction-market order books only contain bids. The ask on one side is
// derived from the best bid on the other: yes_ask = $1.00 - best NO bid.
package market

import (
	"fmt"
	"strings"
	"time"
)

// Side identifies which contract of a binary market an order trades.
type Side string

const (
	Yes Side = "yes"
	No  Side = "no"
)

// Opposite returns the other contract side.
func (s Side) Opposite() Side {
	if s == Yes {
		return No
	}
	return Yes
}

func (s Side) Validate() error {
	switch s {
	case Yes, No:
		return nil
	}
	return fmt.Errorf("unknown side %q", string(s))
}

// Action is the order direction.
type Action string

const (
	Buy  Action = "buy"
	Sell Action = "sell"
)

func (a Action) Validate() error {
	switch a {
	case Buy, Sell:
		return nil
	}
	return fmt.Errorf("unknown action %q", string(a))
}

// Cents is a contract price in integer cents. Tradeable prices are 1..99;
// settlement pays 100 for the winning side and 0 for the losing side.
type Cents int

// Dollars converts a cent price to dollars.
func (c Cents) Dollars() float64 { return float64(c) / 100 }

// Complement returns the price of the opposite contract ($1.00 - price).
func (c Cents) Complement() Cents { return 100 - c }

// Valid reports whether the price is inside the tradeable band.
func (c Cents) Valid() bool { return c >= 1 && c <= 99 }

// Fill is an immutable record of a single execution. Price is quoted in the
// fill's own side; use YesPrice to normalize for position accounting.
type Fill struct {
	ID      string
	OrderID string
	Ticker  string
	Side    Side
	Action  Action
	Count   int
	Price   Cents
	Taker   bool
	Time    time.Time
}

// YesPrice returns the fill price expressed in YES terms.
func (f Fill) YesPrice() Cents {
	if f.Side == Yes {
		return f.Price
	}
	return f.Price.Complement()
}

// EventTicker derives the event ticker from a market ticker by keeping the
// leading two dash-separated segments. Markets under the same event (for
// example different strike thresholds that settle together) share it.
//
//	"KXBTC-26FEB14-T70000" -> "KXBTC-26FEB14"
func EventTicker(marketTicker string) string {
	parts := strings.SplitN(marketTicker, "-", 3)
	if len(parts) < 2 {
		return marketTicker
	}
	return parts[0] + "-" + parts[1]
}
