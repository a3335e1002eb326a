// Package journal persists trade history and portfolio snapshots for later
// review and export. Backends: SQLite for queryable storage, CSV for quick
// spreadsheet analysis.
package journal

import "time"

// TradeRecord is the append-only audit entry written for every fill,
// tagged with the strategy that originated the trade.
type TradeRecord struct {
	TradeID  string
	Time     time.Time
	Ticker   string
	Side     string
	Action   string
	Count    int
	Price    float64 // dollars, in the fill's own side
	Fee      float64 // dollars
	Maker    bool
	Strategy string
}

// Snapshot is a point-in-time portfolio summary.
type Snapshot struct {
	Time            time.Time
	ActivePositions int
	NetExposure     float64
	RealizedPnL     float64
	UnrealizedPnL   float64
	FeesPaid        float64
	DailyPnL        float64
	WeeklyPnL       float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordSnapshot(Snapshot) error
	Close() error
}

// Nop discards everything. Useful default for tests and dry runs.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error { return nil }
func (Nop) RecordSnapshot(Snapshot) error { return nil }
func (Nop) Close() error                  { return nil }
