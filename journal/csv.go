package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// TimeLayout is how event times are written to CSV.
const TimeLayout = "2006-01-02 15:04:05"

var csvHeader = []string{
	"timestamp",
	"order_id",
	"symbol",
	"side",
	"size",
	"price",
	"order_type",
	"position_size_before",
	"position_size_after",
	"entry_price",
	"exit_price",
	"realized_pnl",
	"balance_before",
	"balance_after",
	"leverage",
	"trade_type",
	"notes",
}

// CSV appends events to a file. The header is written only when the file is
// new or empty, so restarts keep extending the same log.
type CSV struct {
	mu sync.Mutex
	w  *csv.Writer
	f  *os.File
}

func NewCSV(path string) (*CSV, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open csv journal: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, err
		}
	}

	return &CSV{w: w, f: f}, nil
}

func (j *CSV) RecordEvent(e Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.w.Write(csvRow(e)); err != nil {
		return err
	}
	j.w.Flush()
	return j.w.Error()
}

func (j *CSV) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	return j.f.Close()
}

func csvRow(e Event) []string {
	return []string{
		e.Time.Format(TimeLayout),
		e.OrderID,
		e.Symbol,
		strings.ToUpper(string(e.Side)),
		qty(e.Size),
		money(e.Price),
		e.OrderType,
		qty(e.PositionSizeBefore),
		qty(e.PositionSizeAfter),
		positive(e.EntryPrice),
		positive(e.ExitPrice),
		nonzero(e.RealizedPnL),
		money(e.BalanceBefore),
		money(e.BalanceAfter),
		strconv.Itoa(e.Leverage),
		string(e.TradeType),
		e.Notes,
	}
}

func qty(x float64) string   { return strconv.FormatFloat(x, 'f', 8, 64) }
func money(x float64) string { return strconv.FormatFloat(x, 'f', 2, 64) }

// Entry and exit prices are blank when unset.
func positive(x float64) string {
	if x > 0 {
		return money(x)
	}
	return ""
}

func nonzero(x float64) string {
	if x != 0 {
		return money(x)
	}
	return ""
}
