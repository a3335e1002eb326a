package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/binaryedge/predictbot/market"
)

// feedEvent is one line of a recorded market-data feed (JSONL). Snapshots and
// deltas carry [price_dollars, qty] level pairs; trades carry cent prices.
type feedEvent struct {
	Type   string       `json:"type"` // "snapshot", "delta", "trade", "status"
	Ticker string       `json:"ticker,omitempty"`
	Yes    [][2]float64 `json:"yes,omitempty"`
	No     [][2]float64 `json:"no,omitempty"`
	Side   string       `json:"side,omitempty"`
	Price  int          `json:"price,omitempty"`
	Count  int          `json:"count,omitempty"`
	Open   *bool        `json:"open,omitempty"`
}

func (e feedEvent) yesLevels() []market.PriceLevel { return toLevels(e.Yes) }
func (e feedEvent) noLevels() []market.PriceLevel  { return toLevels(e.No) }

func (e feedEvent) yesDeltas() []market.LevelDelta { return toDeltas(e.Yes) }
func (e feedEvent) noDeltas() []market.LevelDelta  { return toDeltas(e.No) }

func toLevels(pairs [][2]float64) []market.PriceLevel {
	out := make([]market.PriceLevel, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, market.PriceLevel{Price: p[0], Qty: int(p[1])})
	}
	return out
}

func toDeltas(pairs [][2]float64) []market.LevelDelta {
	out := make([]market.LevelDelta, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, market.LevelDelta{Price: p[0], Qty: int(p[1])})
	}
	return out
}

// readFeed parses a JSONL feed, invoking fn per event.
func readFeed(r io.Reader, fn func(feedEvent) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev feedEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("feed line %d: %w", line, err)
		}
		if err := fn(ev); err != nil {
			return fmt.Errorf("feed line %d: %w", line, err)
		}
	}
	return scanner.Err()
}
