// Package strategy runs one evaluate-and-act cycle: exit checks when a
// position is open, signal detection and sizing when flat.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/leverbot/broker"
	"github.com/rustyeddy/leverbot/journal"
	"github.com/rustyeddy/leverbot/ledger"
	"github.com/rustyeddy/leverbot/market"
	"github.com/rustyeddy/leverbot/metrics"
	"github.com/rustyeddy/leverbot/risk"
	"github.com/rustyeddy/leverbot/signal"
)

var (
	ErrOrderFailed = errors.New("order failed")
	// ErrUnresolved means an order's outcome is unknown and entries are
	// blocked until the ledger matches the exchange position again.
	ErrUnresolved = errors.New("order unresolved")
)

// Result describes what a cycle did.
type Result struct {
	Action     Action
	Reason     ExitReason
	Signal     *signal.Signal
	Evaluation signal.Evaluation
	Order      *broker.Order
	Events     []journal.Event
	Plan       Plan
}

type Orchestrator struct {
	mu       sync.Mutex
	symbol   string
	exchange broker.Exchange
	detector *signal.Detector
	risk     *risk.Model
	ledger   *ledger.Ledger
	plan     atomic.Pointer[Plan]

	// pending is the id of an order whose cancel failed. Guarded by mu.
	pending string
	log     zerolog.Logger
}

type Option func(*Orchestrator)

func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

func New(ex broker.Exchange, det *signal.Detector, model *risk.Model, led *ledger.Ledger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		symbol:   led.Symbol(),
		exchange: ex,
		detector: det,
		risk:     model,
		ledger:   led,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Ledger() *ledger.Ledger { return o.ledger }

func (o *Orchestrator) Risk() *risk.Model { return o.risk }

// Plan returns the stored exit plan of the open position. It does not wait
// for a running cycle.
func (o *Orchestrator) Plan() (Plan, bool) {
	p := o.plan.Load()
	if p == nil {
		return Plan{}, false
	}
	return *p, true
}

// Unresolved returns the id of an order whose outcome is not yet known.
func (o *Orchestrator) Unresolved() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending, o.pending != ""
}

// Evaluate runs one cycle at currentPrice. At most one order is placed. A
// failed order leaves the ledger unchanged and returns ErrOrderFailed. While
// an order is unresolved the cycle first reconciles the ledger with the
// exchange and returns ErrUnresolved if that fails.
func (o *Orchestrator) Evaluate(ctx context.Context, currentPrice float64, candles []market.Candle) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pending != "" {
		if err := o.resolve(ctx, currentPrice); err != nil {
			return Result{}, err
		}
	}

	pos := o.ledger.Position()
	if pos.IsOpen() {
		return o.manage(ctx, pos, currentPrice, candles)
	}
	o.plan.Store(nil)
	return o.enter(ctx, currentPrice, candles)
}

// manage checks exits in priority order: hard stop, take profit, then a
// confirmed signal against the position.
func (o *Orchestrator) manage(ctx context.Context, pos ledger.Position, price float64, candles []market.Candle) (Result, error) {
	plan := o.plan.Load()
	if plan == nil {
		p := PlanFor(o.risk, pos)
		plan = &p
		o.plan.Store(plan)
		o.log.Info().Float64("take_profit", p.TakeProfit).Float64("hard_stop", p.HardStop).Msg("exit plan derived from ledger")
	}
	res := Result{Plan: *plan}

	switch {
	case risk.HitStop(pos.Side, price, plan.HardStop):
		res.Reason = ExitHardStop
		o.log.Warn().Float64("price", price).Float64("hard_stop", plan.HardStop).Msg("hard stop hit")
	case risk.HitTakeProfit(pos.Side, price, plan.TakeProfit):
		res.Reason = ExitTakeProfit
		o.log.Info().Float64("price", price).Float64("take_profit", plan.TakeProfit).Msg("take profit hit")
	default:
		res.Evaluation = o.detector.Evaluate(candles)
		sig := res.Evaluation.Signal
		if sig == nil || sig.Direction != pos.Side.Opposite() {
			return res, nil
		}
		res.Signal = sig
		res.Reason = ExitReverseSignal
		o.log.Info().Str("signal", sig.String()).Msg("reverse signal")
	}

	req := broker.OrderRequest{
		Symbol: o.symbol,
		Side:   pos.Side.Opposite().OrderSide(),
		Size:   pos.Size,
		Type:   broker.Market,
		Notes:  string(res.Reason),
	}
	order, events, err := o.execute(ctx, req, price)
	if err != nil {
		return res, err
	}

	metrics.IncExit(string(res.Reason))
	res.Action = ActionClose
	res.Order = &order
	res.Events = events
	if !o.ledger.Position().IsOpen() {
		o.plan.Store(nil)
	}
	return res, nil
}

func (o *Orchestrator) enter(ctx context.Context, price float64, candles []market.Candle) (Result, error) {
	res := Result{Evaluation: o.detector.Evaluate(candles)}
	sig := res.Evaluation.Signal
	if sig == nil {
		o.log.Debug().Str("stage", res.Evaluation.Stage.String()).Str("reason", res.Evaluation.Reason).Msg("no signal")
		return res, nil
	}
	res.Signal = sig
	metrics.IncSignal(sig.Direction.String())
	o.log.Info().Str("signal", sig.String()).Msg("signal confirmed")

	entry := price
	if entry <= 0 {
		entry = sig.Price
	}

	balance := o.ledger.Balance()
	if acct, err := o.exchange.GetAccount(ctx); err != nil {
		o.log.Warn().Err(err).Float64("balance", balance).Msg("account unavailable, sizing from ledger balance")
	} else if acct.Available > 0 {
		balance = acct.Available
	}

	size := o.risk.PositionSize(entry, balance)
	if size <= 0 {
		o.log.Warn().Float64("balance", balance).Float64("price", entry).Msg("position size is zero")
		return res, nil
	}

	req := broker.OrderRequest{
		Symbol: o.symbol,
		Side:   sig.Direction.OrderSide(),
		Size:   size,
		Type:   broker.Market,
		Notes:  "signal " + sig.Confidence.String(),
	}
	order, events, err := o.execute(ctx, req, entry)
	if err != nil {
		return res, err
	}

	pos := o.ledger.Position()
	p := PlanFor(o.risk, pos)
	o.plan.Store(&p)

	res.Action = ActionOpen
	res.Order = &order
	res.Events = events
	res.Plan = p
	o.log.Info().
		Str("side", pos.Side.String()).
		Float64("size", pos.Size).
		Float64("entry", pos.EntryPrice).
		Float64("take_profit", p.TakeProfit).
		Float64("hard_stop", p.HardStop).
		Msg("position opened")
	return res, nil
}

// execute places req and books the fill. An order that comes back without a
// fill is cancelled and reported as failed. If the cancel fails the order
// may still fill, so it is kept pending and ErrUnresolved is returned.
func (o *Orchestrator) execute(ctx context.Context, req broker.OrderRequest, price float64) (broker.Order, []journal.Event, error) {
	order, err := o.exchange.PlaceOrder(ctx, req)
	if err != nil {
		metrics.IncOrder(string(req.Side), "rejected")
		o.log.Error().Err(err).Str("side", string(req.Side)).Float64("size", req.Size).Msg("order failed")
		return order, nil, fmt.Errorf("%w: %w", ErrOrderFailed, err)
	}

	if order.Price <= 0 && order.Status == broker.StatusFilled {
		order.Price = price
	}
	if !order.Filled() {
		metrics.IncOrder(string(req.Side), "unfilled")
		if order.ID != "" {
			if cerr := o.exchange.CancelOrder(ctx, order.ID, req.Symbol); cerr != nil {
				o.pending = order.ID
				o.log.Error().Err(cerr).Str("order_id", order.ID).Msg("cancel failed, order outcome unknown")
				return order, nil, fmt.Errorf("%w: order %s (%s), cancel failed: %w", ErrUnresolved, order.ID, order.Status, cerr)
			}
		}
		return order, nil, fmt.Errorf("%w: order %s not filled (%s)", ErrOrderFailed, order.ID, order.Status)
	}
	metrics.IncOrder(string(req.Side), "filled")

	events, err := o.ledger.Apply(ledger.Fill{
		OrderID:   order.ID,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Size:      order.Size,
		Price:     order.Price,
		OrderType: string(broker.Market),
		Time:      order.Time,
		Notes:     req.Notes,
	})
	if err != nil {
		return order, nil, fmt.Errorf("%w: %w", ErrOrderFailed, err)
	}
	return order, events, nil
}
