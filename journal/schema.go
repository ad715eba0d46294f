package journal

const Schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	time DATETIME NOT NULL,
	order_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	size REAL NOT NULL,
	price REAL NOT NULL,
	order_type TEXT NOT NULL,
	position_size_before REAL NOT NULL,
	position_size_after REAL NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	realized_pnl REAL NOT NULL,
	balance_before REAL NOT NULL,
	balance_after REAL NOT NULL,
	leverage INTEGER NOT NULL,
	trade_type TEXT NOT NULL,
	notes TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_order ON events(order_id);
CREATE INDEX IF NOT EXISTS idx_events_symbol_time ON events(symbol, time);
`
