package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	var rec TradeRecord

	row := j.db.QueryRow(`
		SELECT trade_id, time, ticker, side, action, count, price, fee, maker, strategy
		FROM trades
		WHERE trade_id = ?`, tradeID)

	err := row.Scan(
		&rec.TradeID,
		&rec.Time,
		&rec.Ticker,
		&rec.Side,
		&rec.Action,
		&rec.Count,
		&rec.Price,
		&rec.Fee,
		&rec.Maker,
		&rec.Strategy,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesBetween returns trades executed within [start, end).
func (j *SQLite) ListTradesBetween(start, end time.Time) ([]TradeRecord, error) {
	return j.listTrades(`
		SELECT trade_id, time, ticker, side, action, count, price, fee, maker, strategy
		FROM trades
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
}

// ListTradesByTicker returns all trades for one market, oldest first.
func (j *SQLite) ListTradesByTicker(ticker string) ([]TradeRecord, error) {
	return j.listTrades(`
		SELECT trade_id, time, ticker, side, action, count, price, fee, maker, strategy
		FROM trades
		WHERE ticker = ?
		ORDER BY time ASC`, ticker)
}

// ListTradesByStrategy returns all trades tagged with one strategy.
func (j *SQLite) ListTradesByStrategy(strategy string) ([]TradeRecord, error) {
	return j.listTrades(`
		SELECT trade_id, time, ticker, side, action, count, price, fee, maker, strategy
		FROM trades
		WHERE strategy = ?
		ORDER BY time ASC`, strategy)
}

func (j *SQLite) listTrades(query string, args ...any) ([]TradeRecord, error) {
	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.TradeID,
			&rec.Time,
			&rec.Ticker,
			&rec.Side,
			&rec.Action,
			&rec.Count,
			&rec.Price,
			&rec.Fee,
			&rec.Maker,
			&rec.Strategy,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
