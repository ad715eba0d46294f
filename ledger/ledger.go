// Package ledger tracks the position and account of one symbol and applies
// exchange fills to them.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/leverbot/journal"
	"github.com/rustyeddy/leverbot/market"
	"github.com/rustyeddy/leverbot/metrics"
)

var ErrInvalidFill = errors.New("invalid fill")

// Fill is an executed order as reported by an exchange.
type Fill struct {
	OrderID   string
	Symbol    string
	Side      market.OrderSide
	Size      float64
	Price     float64
	OrderType string
	Time      time.Time
	Notes     string
}

func (f Fill) validate(symbol string) error {
	switch {
	case f.Symbol != symbol:
		return fmt.Errorf("%w: symbol %q, ledger is %q", ErrInvalidFill, f.Symbol, symbol)
	case !f.Side.Valid():
		return fmt.Errorf("%w: side %q", ErrInvalidFill, f.Side)
	case math.IsNaN(f.Size) || math.IsInf(f.Size, 0) || f.Size <= 0:
		return fmt.Errorf("%w: size %v", ErrInvalidFill, f.Size)
	case math.IsNaN(f.Price) || math.IsInf(f.Price, 0) || f.Price <= 0:
		return fmt.Errorf("%w: price %v", ErrInvalidFill, f.Price)
	}
	return nil
}

type Ledger struct {
	mu       sync.Mutex
	wmu      sync.Mutex // serializes sink writes
	symbol   string
	leverage int
	pos      Position
	acct     Account
	journal  journal.Journal
	gauge    bool
	log      zerolog.Logger
	now      func() time.Time
}

type Option func(*Ledger)

// WithJournal records every emitted event to j.
func WithJournal(j journal.Journal) Option {
	return func(l *Ledger) { l.journal = j }
}

func WithLogger(log zerolog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// WithBalanceGauge controls whether Apply publishes the balance metric.
// It is on by default.
func WithBalanceGauge(on bool) Option {
	return func(l *Ledger) { l.gauge = on }
}

// WithClock sets the time used for fills that carry none.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(symbol string, initialBalance float64, leverage int, opts ...Option) *Ledger {
	l := &Ledger{
		symbol:   symbol,
		leverage: leverage,
		pos:      Position{Symbol: symbol},
		acct: Account{
			InitialBalance: initialBalance,
			Balance:        initialBalance,
		},
		journal: journal.Nop{},
		gauge:   true,
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Ledger) Symbol() string { return l.symbol }

func (l *Ledger) Leverage() int { return l.leverage }

func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{Position: l.pos, Account: l.acct, Leverage: l.leverage}
}

func (l *Ledger) Position() Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pos
}

func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acct.Balance
}

// Unrealized is the mark-to-market P&L of the open position. It is never
// booked into the balance.
func (l *Ledger) Unrealized(mark float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.pos.IsOpen() {
		return 0
	}
	return realized(l.pos.Side, l.pos.EntryPrice, mark, l.pos.Size, l.leverage)
}

// Apply books one fill and returns the events it produced, in order. An
// invalid fill changes nothing.
//
// A fill on the position's side adds at the volume weighted price. An
// opposite fill smaller than the position realizes P&L on the reduced
// quantity and keeps the entry price. An exact opposite fill closes. A larger
// one closes and opens the remainder on the other side.
func (l *Ledger) Apply(f Fill) ([]journal.Event, error) {
	if err := f.validate(l.symbol); err != nil {
		return nil, err
	}
	if f.Time.IsZero() {
		f.Time = l.now()
	}
	if f.OrderType == "" {
		f.OrderType = "market"
	}

	// wmu is taken before mu is released so sinks see events in apply
	// order while readers are not held up by a slow sink.
	l.mu.Lock()
	events := l.book(f)
	balance := l.acct.Balance
	l.wmu.Lock()
	l.mu.Unlock()
	defer l.wmu.Unlock()

	for _, e := range events {
		l.log.Info().
			Str("order_id", e.OrderID).
			Str("symbol", e.Symbol).
			Str("side", string(e.Side)).
			Str("type", string(e.TradeType)).
			Float64("size", e.Size).
			Float64("price", e.Price).
			Float64("position", e.PositionSizeAfter).
			Float64("realized_pnl", e.RealizedPnL).
			Float64("balance", e.BalanceAfter).
			Msg("fill applied")

		if err := l.journal.RecordEvent(e); err != nil {
			metrics.IncJournalError()
			l.log.Error().Err(err).Str("order_id", e.OrderID).Msg("journal write failed")
		}
	}
	if l.gauge {
		metrics.SetBalance(balance)
	}

	return events, nil
}

// book mutates the position and account. The caller holds mu.
func (l *Ledger) book(f Fill) []journal.Event {
	side := f.Side.Side()
	var events []journal.Event

	switch {
	case !l.pos.IsOpen():
		events = append(events, l.open(f, side, f.Size))

	case l.pos.Side == side:
		events = append(events, l.add(f))

	default:
		remaining := f.Size - l.pos.Size
		switch {
		case nearZero(remaining):
			events = append(events, l.close(f, l.pos.Size))
		case remaining < 0:
			events = append(events, l.reduce(f))
		default:
			events = append(events, l.close(f, l.pos.Size))
			events = append(events, l.open(f, side, remaining))
		}
	}
	return events
}

func (l *Ledger) event(f Fill, size float64, tt journal.TradeType, note string) journal.Event {
	return journal.Event{
		Time:               f.Time,
		OrderID:            f.OrderID,
		Symbol:             f.Symbol,
		Side:               f.Side,
		Size:               size,
		Price:              f.Price,
		OrderType:          f.OrderType,
		PositionSizeBefore: l.pos.Signed(),
		BalanceBefore:      l.acct.Balance,
		Leverage:           l.leverage,
		TradeType:          tt,
		Notes:              notes(note, f.Notes),
	}
}

func (l *Ledger) open(f Fill, side market.Side, qty float64) journal.Event {
	e := l.event(f, qty, journal.TradeOpen, "")

	l.pos = Position{Symbol: l.symbol, Side: side, Size: qty, EntryPrice: f.Price}

	e.EntryPrice = f.Price
	e.PositionSizeAfter = l.pos.Signed()
	e.BalanceAfter = l.acct.Balance
	return e
}

func (l *Ledger) add(f Fill) journal.Event {
	e := l.event(f, f.Size, journal.TradePartial, "add")

	l.pos.EntryPrice = vwap(l.pos.Size, l.pos.EntryPrice, f.Size, f.Price)
	l.pos.Size += f.Size

	e.EntryPrice = l.pos.EntryPrice
	e.PositionSizeAfter = l.pos.Signed()
	e.BalanceAfter = l.acct.Balance
	return e
}

func (l *Ledger) reduce(f Fill) journal.Event {
	e := l.event(f, f.Size, journal.TradePartial, "reduce")

	pnl := realized(l.pos.Side, l.pos.EntryPrice, f.Price, f.Size, l.leverage)
	l.acct.Balance += pnl
	l.acct.RealizedPnL += pnl
	l.pos.Size -= f.Size

	e.EntryPrice = l.pos.EntryPrice
	e.ExitPrice = f.Price
	e.RealizedPnL = pnl
	e.PositionSizeAfter = l.pos.Signed()
	e.BalanceAfter = l.acct.Balance
	return e
}

func (l *Ledger) close(f Fill, qty float64) journal.Event {
	e := l.event(f, qty, journal.TradeClose, "")

	entry := l.pos.EntryPrice
	pnl := realized(l.pos.Side, entry, f.Price, qty, l.leverage)
	l.acct.Balance += pnl
	l.acct.RealizedPnL += pnl
	l.pos = Position{Symbol: l.symbol}

	e.EntryPrice = entry
	e.ExitPrice = f.Price
	e.RealizedPnL = pnl
	e.PositionSizeAfter = 0
	e.BalanceAfter = l.acct.Balance
	return e
}

func notes(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "; ")
}
