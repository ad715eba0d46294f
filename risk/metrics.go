package risk

import "github.com/rustyeddy/leverbot/market"

// Metrics is a point-in-time view of an open position.
type Metrics struct {
	Entry         float64
	Current       float64
	TakeProfit    float64
	HardStop      float64
	UnrealizedPnL float64
	PnLPct        float64 // percent of entry notional
	PriceToTP     float64
	PriceToSL     float64
	RR            float64
}

func (m *Model) Metrics(entryPrice, currentPrice float64, side market.Side, size float64) Metrics {
	tp := m.TakeProfitPrice(entryPrice, side, size)
	sl := m.HardStopPrice(entryPrice, side, size)
	pnl := UnrealizedPnL(entryPrice, currentPrice, side, size, m.p.Leverage)

	pct := 0.0
	if notional := entryPrice * size; notional > 0 {
		pct = pnl / notional * 100
	}

	return Metrics{
		Entry:         entryPrice,
		Current:       currentPrice,
		TakeProfit:    tp,
		HardStop:      sl,
		UnrealizedPnL: pnl,
		PnLPct:        pct,
		PriceToTP:     abs(currentPrice - tp),
		PriceToSL:     abs(currentPrice - sl),
		RR:            RR(entryPrice, sl, tp),
	}
}
