package ledger

import "github.com/rustyeddy/leverbot/market"

// Position is the net exposure on one symbol. Size is always non-negative;
// direction lives in Side.
type Position struct {
	Symbol     string
	Side       market.Side
	Size       float64
	EntryPrice float64
}

func (p Position) IsOpen() bool {
	return p.Side != market.Flat && p.Size > sizeEpsilon
}

// Entry returns the entry price, or false when flat.
func (p Position) Entry() (float64, bool) {
	if !p.IsOpen() {
		return 0, false
	}
	return p.EntryPrice, true
}

// Signed returns the size with shorts negative.
func (p Position) Signed() float64 {
	if p.Side == market.Short {
		return -p.Size
	}
	return p.Size
}

type Account struct {
	InitialBalance float64
	Balance        float64
	RealizedPnL    float64
}

// Snapshot is a consistent copy of ledger state.
type Snapshot struct {
	Position Position
	Account  Account
	Leverage int
}
