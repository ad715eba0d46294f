package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/leverbot/market"
)

const eventColumns = `time, order_id, symbol, side, size, price, order_type,
	position_size_before, position_size_after, entry_price, exit_price,
	realized_pnl, balance_before, balance_after, leverage, trade_type, notes`

// Filter narrows ListEvents. Zero values match everything.
type Filter struct {
	Symbol string
	Since  time.Time
	Limit  int
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (Event, error) {
	var (
		e         Event
		side      string
		tradeType string
	)
	err := s.Scan(
		&e.Time, &e.OrderID, &e.Symbol, &side, &e.Size, &e.Price, &e.OrderType,
		&e.PositionSizeBefore, &e.PositionSizeAfter, &e.EntryPrice, &e.ExitPrice,
		&e.RealizedPnL, &e.BalanceBefore, &e.BalanceAfter, &e.Leverage, &tradeType, &e.Notes,
	)
	e.Side = market.OrderSide(side)
	e.TradeType = TradeType(tradeType)
	return e, err
}

// GetEvents returns every event produced by one order, in insertion order.
// A flip produces two.
func (j *SQLite) GetEvents(orderID string) ([]Event, error) {
	rows, err := j.db.Query(`SELECT `+eventColumns+` FROM events WHERE order_id = ? ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("order %q: %w", orderID, ErrNotFound)
	}
	return out, nil
}

// ListEvents returns events in time order.
func (j *SQLite) ListEvents(f Filter) ([]Event, error) {
	var (
		where []string
		args  []any
	)
	if f.Symbol != "" {
		where = append(where, "symbol = ?")
		args = append(args, f.Symbol)
	}
	if !f.Since.IsZero() {
		where = append(where, "time >= ?")
		args = append(args, f.Since.UTC())
	}

	q := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY time ASC, id ASC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Summary aggregates realized results over a set of events.
type Summary struct {
	Events      int
	Closes      int
	Wins        int
	Losses      int
	GrossProfit float64
	GrossLoss   float64
	NetPnL      float64
}

func (s Summary) ProfitFactor() float64 {
	if s.GrossLoss == 0 {
		return 0
	}
	return s.GrossProfit / s.GrossLoss
}

func Summarize(events []Event) Summary {
	var s Summary
	for _, e := range events {
		s.Events++
		if e.TradeType == TradeClose {
			s.Closes++
		}
		switch {
		case e.RealizedPnL > 0:
			s.Wins++
			s.GrossProfit += e.RealizedPnL
		case e.RealizedPnL < 0:
			s.Losses++
			s.GrossLoss -= e.RealizedPnL
		}
		s.NetPnL += e.RealizedPnL
	}
	return s
}
