package tradelog

// position keeps the ledger's canonical order across a reload; close_date
// alone cannot, since trades closed on the same day keep insertion order.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS trades (
	position    INTEGER NOT NULL,
	id          TEXT PRIMARY KEY,
	ticker      TEXT NOT NULL DEFAULT '',
	strategy    TEXT NOT NULL DEFAULT '',
	open_date   TEXT NOT NULL DEFAULT '',
	close_date  TEXT NOT NULL,
	strike      REAL,
	premium     REAL,
	buyback     REAL NOT NULL DEFAULT 0,
	qty         INTEGER NOT NULL DEFAULT 1,
	commissions REAL NOT NULL DEFAULT 0,
	net         REAL,
	percent     REAL,
	saved_time  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_position ON trades(position);
CREATE INDEX IF NOT EXISTS idx_trades_close ON trades(close_date);
CREATE INDEX IF NOT EXISTS idx_trades_ticker ON trades(ticker);
`
