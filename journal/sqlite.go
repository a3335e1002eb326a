package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, time, ticker, side, action, count, price, fee, maker, strategy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Time, t.Ticker, t.Side, t.Action,
		t.Count, t.Price, t.Fee, t.Maker, t.Strategy,
	)
	return err
}

func (j *SQLite) RecordSnapshot(s Snapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO snapshots
		(time, active_positions, net_exposure, realized_pnl, unrealized_pnl, fees_paid, daily_pnl, weekly_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Time, s.ActivePositions, s.NetExposure, s.RealizedPnL,
		s.UnrealizedPnL, s.FeesPaid, s.DailyPnL, s.WeeklyPnL,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
