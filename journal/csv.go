package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSVJournal struct {
	trades *csv.Writer
	snaps  *csv.Writer
	tf, sf *os.File
}

func NewCSV(tradesPath, snapshotsPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	sf, err := os.Create(snapshotsPath)
	if err != nil {
		return nil, err
	}

	tw := csv.NewWriter(tf)
	sw := csv.NewWriter(sf)

	if err := tw.Write([]string{"trade_id", "time", "ticker", "side", "action", "count", "price", "fee", "maker", "strategy"}); err != nil {
		return nil, err
	}
	if err := sw.Write([]string{"time", "active_positions", "net_exposure", "realized_pnl", "unrealized_pnl", "fees_paid", "daily_pnl", "weekly_pnl"}); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	sw.Flush()
	if err := sw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{tw, sw, tf, sf}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	j.trades.Write([]string{
		t.TradeID,
		t.Time.Format(time.RFC3339),
		t.Ticker,
		t.Side,
		t.Action,
		strconv.Itoa(t.Count),
		f(t.Price),
		f(t.Fee),
		strconv.FormatBool(t.Maker),
		t.Strategy,
	})
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordSnapshot(s Snapshot) error {
	err := j.snaps.Write([]string{
		s.Time.Format(time.RFC3339),
		strconv.Itoa(s.ActivePositions),
		f(s.NetExposure),
		f(s.RealizedPnL),
		f(s.UnrealizedPnL),
		f(s.FeesPaid),
		f(s.DailyPnL),
		f(s.WeeklyPnL),
	})
	if err != nil {
		return err
	}

	j.snaps.Flush()
	return j.snaps.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.snaps.Flush()
	if err := j.snaps.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	if err := j.sf.Close(); err != nil {
		return err
	}
	return nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 4, 64)
}
