// Package journal records ledger events to append-only audit sinks.
package journal

import (
	"errors"
	"time"

	"github.com/rustyeddy/leverbot/market"
)

// TradeType classifies a ledger event.
type TradeType string

const (
	TradeOpen    TradeType = "open"
	TradePartial TradeType = "partial"
	TradeClose   TradeType = "close"
)

var ErrNotFound = errors.New("journal: not found")

// Event is one row of the audit trail. Position sizes are signed, negative
// for short.
type Event struct {
	Time      time.Time
	OrderID   string
	Symbol    string
	Side      market.OrderSide
	Size      float64
	Price     float64
	OrderType string

	PositionSizeBefore float64
	PositionSizeAfter  float64
	EntryPrice         float64
	ExitPrice          float64
	RealizedPnL        float64
	BalanceBefore      float64
	BalanceAfter       float64
	Leverage           int

	TradeType TradeType
	Notes     string
}

type Journal interface {
	RecordEvent(Event) error
	Close() error
}

// Multi fans an event out to every journal. All journals are attempted and
// their errors joined.
type Multi []Journal

func (m Multi) RecordEvent(e Event) error {
	var errs []error
	for _, j := range m {
		if err := j.RecordEvent(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, j := range m {
		if err := j.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards every event.
type Nop struct{}

func (Nop) RecordEvent(Event) error { return nil }
func (Nop) Close() error            { return nil }

// Memory keeps events in order. Used for dry runs and tests.
type Memory struct {
	Events []Event
}

func (m *Memory) RecordEvent(e Event) error {
	m.Events = append(m.Events, e)
	return nil
}

func (m *Memory) Close() error { return nil }
