package risk

import (
	"math"

	"github.com/rustyeddy/leverbot/market"
)

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// RR is the reward to risk ratio of a trade plan. Zero when risk is zero.
func RR(entry, stop, takeProfit float64) float64 {
	risk := abs(entry - stop)
	reward := abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// Model sizes positions and derives exit prices. It holds no mutable state.
type Model struct {
	p Params
}

func New(p Params) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Model{p: p}, nil
}

func (m *Model) Params() Params { return m.p }

func (m *Model) lev() float64 { return float64(m.p.Leverage) }

// PositionSize returns the contract size whose TargetMoveFraction move at the
// configured leverage earns ProfitTargetUSD, capped so notional never exceeds
// MaxBalanceFraction of the leveraged balance.
func (m *Model) PositionSize(entryPrice, balance float64) float64 {
	if entryPrice <= 0 || balance <= 0 || m.p.ProfitTargetUSD <= 0 {
		return 0
	}

	size := m.p.ProfitTargetUSD / (m.p.TargetMoveFraction * entryPrice * m.lev())
	maxSize := (balance * m.p.MaxBalanceFraction * m.lev()) / entryPrice

	size = math.Min(size, maxSize)
	if size < 0 || math.IsNaN(size) {
		return 0
	}
	return size
}

// TakeProfitPrice is the price at which size contracts earn ProfitTargetUSD.
// With no size there is no move to compute and entryPrice is returned.
func (m *Model) TakeProfitPrice(entryPrice float64, side market.Side, size float64) float64 {
	if size == 0 {
		return entryPrice
	}
	move := m.p.ProfitTargetUSD / (size * m.lev())
	if side == market.Short {
		return entryPrice - move
	}
	return entryPrice + move
}

// HardStopPrice is the price at which size contracts lose HardStopLossUSD.
// The result is not clamped and may be zero or negative for small sizes.
func (m *Model) HardStopPrice(entryPrice float64, side market.Side, size float64) float64 {
	if size == 0 {
		return entryPrice
	}
	move := m.p.HardStopLossUSD / (size * m.lev())
	if side == market.Short {
		return entryPrice + move
	}
	return entryPrice - move
}

// CheckHardStop reports whether currentPrice has reached the hard stop in
// the adverse direction.
func (m *Model) CheckHardStop(entryPrice, currentPrice float64, side market.Side, size float64) bool {
	stop := m.HardStopPrice(entryPrice, side, size)
	return HitStop(side, currentPrice, stop)
}

// HitStop: long stops trigger at or below stop, shorts at or above.
func HitStop(side market.Side, price, stop float64) bool {
	switch side {
	case market.Long:
		return price <= stop
	case market.Short:
		return price >= stop
	default:
		return false
	}
}

// HitTakeProfit: long targets trigger at or above tp, shorts at or below.
func HitTakeProfit(side market.Side, price, tp float64) bool {
	switch side {
	case market.Long:
		return price >= tp
	case market.Short:
		return price <= tp
	default:
		return false
	}
}

// UnrealizedPnL is the leveraged mark-to-market P&L of size contracts.
func UnrealizedPnL(entryPrice, currentPrice float64, side market.Side, size float64, leverage int) float64 {
	diff := currentPrice - entryPrice
	if side == market.Short {
		diff = -diff
	}
	return diff * size * float64(leverage)
}
