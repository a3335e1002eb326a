package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	ticker TEXT NOT NULL,
	side TEXT NOT NULL,
	action TEXT NOT NULL,
	count INTEGER NOT NULL,
	price REAL NOT NULL,
	fee REAL NOT NULL DEFAULT 0,
	maker INTEGER NOT NULL DEFAULT 0,
	strategy TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS snapshots (
	time DATETIME NOT NULL,
	active_positions INTEGER NOT NULL,
	net_exposure REAL NOT NULL,
	realized_pnl REAL NOT NULL,
	unrealized_pnl REAL NOT NULL,
	fees_paid REAL NOT NULL,
	daily_pnl REAL NOT NULL,
	weekly_pnl REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_ticker ON trades(ticker);
CREATE INDEX IF NOT EXISTS idx_trades_time ON trades(time);
CREATE INDEX IF NOT EXISTS idx_trades_strategy ON trades(strategy);
CREATE INDEX IF NOT EXISTS idx_snapshots_time ON snapshots(time);
`
