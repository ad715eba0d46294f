package risk

import (
	"errors"
	"fmt"
)

const (
	// TargetMoveFraction is the price move, as a fraction of entry, that a
	// sized position needs to reach the profit target.
	TargetMoveFraction = 0.015

	// MaxBalanceFraction caps notional exposure to this share of the
	// leveraged balance.
	MaxBalanceFraction = 0.8

	MinLeverage = 1
	MaxLeverage = 125
)

var ErrInvalidParams = errors.New("invalid risk parameters")

// Params are fixed for the lifetime of a run.
type Params struct {
	Leverage        int
	ProfitTargetUSD float64
	HardStopLossUSD float64

	TargetMoveFraction float64
	MaxBalanceFraction float64
}

// NewParams fills the fixed fractions with their defaults.
func NewParams(leverage int, profitTargetUSD, hardStopLossUSD float64) Params {
	return Params{
		Leverage:           leverage,
		ProfitTargetUSD:    profitTargetUSD,
		HardStopLossUSD:    hardStopLossUSD,
		TargetMoveFraction: TargetMoveFraction,
		MaxBalanceFraction: MaxBalanceFraction,
	}
}

func (p Params) Validate() error {
	if p.Leverage < MinLeverage || p.Leverage > MaxLeverage {
		return fmt.Errorf("%w: leverage must be between %d and %d, got %d",
			ErrInvalidParams, MinLeverage, MaxLeverage, p.Leverage)
	}
	if p.ProfitTargetUSD <= 0 {
		return fmt.Errorf("%w: profit target must be positive", ErrInvalidParams)
	}
	if p.HardStopLossUSD <= 0 {
		return fmt.Errorf("%w: hard stop loss must be positive", ErrInvalidParams)
	}
	if p.TargetMoveFraction <= 0 {
		return fmt.Errorf("%w: target move fraction must be positive", ErrInvalidParams)
	}
	if p.MaxBalanceFraction <= 0 || p.MaxBalanceFraction > 1 {
		return fmt.Errorf("%w: max balance fraction must be in (0, 1]", ErrInvalidParams)
	}
	return nil
}
