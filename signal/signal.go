// Package signal turns an indicator frame into at most one directional
// entry signal. A signal is only emitted when an EMA crossover is confirmed
// by both MACD momentum and a volume surge.
package signal

import (
	"fmt"
	"time"

	"github.com/rustyeddy/leverbot/market"
)

type Confidence int

const (
	Medium Confidence = iota + 1
	High
)

func (c Confidence) String() string {
	switch c {
	case High:
		return "high"
	case Medium:
		return "medium"
	default:
		return "unknown"
	}
}

// Signal is produced fresh on each evaluation and never stored.
type Signal struct {
	Direction  market.Side // Long or Short
	Price      float64     // close of the signal candle
	Confidence Confidence
	Time       time.Time
}

func (s Signal) String() string {
	return fmt.Sprintf("%s @ %.2f (%s)", s.Direction, s.Price, s.Confidence)
}

// Cross is the outcome of the EMA crossover stage.
type Cross int

const (
	NoCross Cross = iota
	Bullish
	Bearish
)

func (c Cross) String() string {
	switch c {
	case Bullish:
		return "bullish"
	case Bearish:
		return "bearish"
	default:
		return "none"
	}
}

// Side maps a crossover to the position side it would open.
func (c Cross) Side() market.Side {
	switch c {
	case Bullish:
		return market.Long
	case Bearish:
		return market.Short
	default:
		return market.Flat
	}
}

// Stage names the step at which an evaluation stopped.
type Stage int

const (
	StageHistory Stage = iota
	StageCross
	StageMACD
	StageVolume
	StageConfirmed
)

func (s Stage) String() string {
	switch s {
	case StageHistory:
		return "history"
	case StageCross:
		return "ema-cross"
	case StageMACD:
		return "macd"
	case StageVolume:
		return "volume"
	case StageConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}
