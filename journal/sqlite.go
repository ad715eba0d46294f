package journal

import (
	"database/sql"
	"fmt"

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
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordEvent(e Event) error {
	_, err := j.db.Exec(`
		INSERT INTO events
		(time, order_id, symbol, side, size, price, order_type,
		 position_size_before, position_size_after, entry_price, exit_price,
		 realized_pnl, balance_before, balance_after, leverage, trade_type, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Time.UTC(), e.OrderID, e.Symbol, string(e.Side), e.Size, e.Price, e.OrderType,
		e.PositionSizeBefore, e.PositionSizeAfter, e.EntryPrice, e.ExitPrice,
		e.RealizedPnL, e.BalanceBefore, e.BalanceAfter, e.Leverage, string(e.TradeType), e.Notes,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
