package ledger

import "github.com/rustyeddy/leverbot/market"

const sizeEpsilon = 1e-12

// realized is the leveraged P&L of closing qty contracts of a side position
// opened at entry.
func realized(side market.Side, entry, exit, qty float64, leverage int) float64 {
	diff := exit - entry
	if side == market.Short {
		diff = -diff
	}
	return diff * qty * float64(leverage)
}

// vwap is the volume weighted entry after adding qty at price.
func vwap(size, entry, qty, price float64) float64 {
	return (size*entry + qty*price) / (size + qty)
}

func nearZero(x float64) bool {
	return x < sizeEpsilon && x > -sizeEpsilon
}
