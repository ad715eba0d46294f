package strategy

import (
	"github.com/rustyeddy/leverbot/ledger"
	"github.com/rustyeddy/leverbot/risk"
)

// Plan holds the exit prices fixed when a position was opened.
type Plan struct {
	TakeProfit float64
	HardStop   float64
}

// PlanFor derives exit prices for an open position.
func PlanFor(m *risk.Model, pos ledger.Position) Plan {
	return Plan{
		TakeProfit: m.TakeProfitPrice(pos.EntryPrice, pos.Side, pos.Size),
		HardStop:   m.HardStopPrice(pos.EntryPrice, pos.Side, pos.Size),
	}
}

type Action int

const (
	ActionNone Action = iota
	ActionOpen
	ActionClose
)

func (a Action) String() string {
	switch a {
	case ActionOpen:
		return "open"
	case ActionClose:
		return "close"
	default:
		return "none"
	}
}

// ExitReason says why a position was closed.
type ExitReason string

const (
	ExitHardStop      ExitReason = "hard_stop"
	ExitTakeProfit    ExitReason = "take_profit"
	ExitReverseSignal ExitReason = "reverse_signal"
)
