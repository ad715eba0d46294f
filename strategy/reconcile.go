package strategy

import (
	"context"
	"fmt"
	"math"

	"github.com/rustyeddy/leverbot/broker"
	"github.com/rustyeddy/leverbot/journal"
	"github.com/rustyeddy/leverbot/ledger"
	"github.com/rustyeddy/leverbot/market"
)

// syncTolerance is the largest size difference treated as in sync.
const syncTolerance = 1e-9

// Sync books the difference between the exchange's position and the ledger
// as a single fill, so the ledger matches the exchange. It is used at
// startup and after an order whose outcome is unknown. price marks the fill
// when the exchange reports no usable entry.
func (o *Orchestrator) Sync(ctx context.Context, price float64) ([]journal.Event, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reconcile(ctx, price, "sync")
}

// resolve retries the cancel of the pending order and then reconciles. The
// pending mark is cleared only once the ledger matches the exchange.
func (o *Orchestrator) resolve(ctx context.Context, price float64) error {
	id := o.pending
	if err := o.exchange.CancelOrder(ctx, id, o.symbol); err != nil {
		o.log.Warn().Err(err).Str("order_id", id).Msg("cancel retry failed")
	}
	if _, err := o.reconcile(ctx, price, id); err != nil {
		return err
	}
	o.pending = ""
	o.log.Info().Str("order_id", id).Msg("order resolved")
	return nil
}

func (o *Orchestrator) reconcile(ctx context.Context, price float64, orderID string) ([]journal.Event, error) {
	positions, err := o.exchange.GetPositions(ctx, o.symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: get positions: %w", ErrUnresolved, err)
	}
	ex := broker.Net(positions, o.symbol)
	held := o.ledger.Position()

	f, ok := syncFill(held, ex, price)
	if !ok {
		return nil, nil
	}
	f.OrderID = orderID
	f.Symbol = o.symbol
	f.OrderType = string(broker.Market)
	f.Notes = "reconciled"

	events, err := o.ledger.Apply(f)
	if err != nil {
		return nil, fmt.Errorf("%w: book difference: %w", ErrUnresolved, err)
	}
	o.plan.Store(nil)
	o.log.Warn().
		Str("order_id", orderID).
		Float64("ledger", held.Signed()).
		Float64("exchange", signed(ex)).
		Str("side", string(f.Side)).
		Float64("size", f.Size).
		Float64("price", f.Price).
		Msg("ledger reconciled to exchange position")
	return events, nil
}

// syncFill returns the fill that moves held to ex. Opening from flat uses
// the exchange entry. Growing a position uses the entry implied by the two
// averages. Anything else is priced at price.
func syncFill(held ledger.Position, ex broker.Position, price float64) (ledger.Fill, bool) {
	have, want := held.Signed(), signed(ex)
	delta := want - have
	if math.Abs(delta) <= syncTolerance {
		return ledger.Fill{}, false
	}

	f := ledger.Fill{Side: market.Buy, Size: math.Abs(delta)}
	if delta < 0 {
		f.Side = market.Sell
	}

	switch {
	case !held.IsOpen():
		f.Price = ex.EntryPrice
	case held.Side == ex.Side && math.Abs(want) > math.Abs(have):
		f.Price = (ex.EntryPrice*math.Abs(want) - held.EntryPrice*math.Abs(have)) / f.Size
	default:
		f.Price = price
	}

	for _, p := range []float64{price, ex.MarkPrice, ex.EntryPrice, held.EntryPrice} {
		if f.Price > 0 {
			break
		}
		f.Price = p
	}
	return f, true
}

func signed(p broker.Position) float64 {
	switch p.Side {
	case market.Long:
		return p.Size
	case market.Short:
		return -p.Size
	}
	return 0
}
