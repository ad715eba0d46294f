// Package bot drives the orchestrator on a fixed schedule.
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/leverbot/broker"
	"github.com/rustyeddy/leverbot/market"
	"github.com/rustyeddy/leverbot/metrics"
	"github.com/rustyeddy/leverbot/strategy"
)

// ErrSkipped is returned by RunOnce when market data was missing.
var ErrSkipped = errors.New("cycle skipped")

type Config struct {
	Mode     string // shown in the startup banner
	Symbol   string
	Interval string // candle interval, e.g. "1h"
	Limit    int
	Every    time.Duration
}

type Runner struct {
	cfg  Config
	data broker.MarketData
	orch *strategy.Orchestrator
	log  zerolog.Logger
}

type Option func(*Runner)

func WithLogger(log zerolog.Logger) Option {
	return func(r *Runner) { r.log = log }
}

func New(cfg Config, data broker.MarketData, orch *strategy.Orchestrator, opts ...Option) *Runner {
	if cfg.Every <= 0 {
		cfg.Every = 5 * time.Minute
	}
	r := &Runner{cfg: cfg, data: data, orch: orch, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a cycle immediately and then every cfg.Every until ctx is
// done. Cycle errors are logged and the loop carries on.
func (r *Runner) Run(ctx context.Context) error {
	r.banner()

	tick := time.NewTicker(r.cfg.Every)
	defer tick.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.log.Error().Err(err).Msg("cycle failed")
		}
		select {
		case <-ctx.Done():
			r.log.Info().Msg("runner stopped")
			return nil
		case <-tick.C:
		}
	}
}

func (r *Runner) banner() {
	led := r.orch.Ledger()
	p := r.orch.Risk().Params()
	r.log.Info().
		Str("mode", r.cfg.Mode).
		Str("symbol", r.cfg.Symbol).
		Float64("balance", led.Balance()).
		Int("leverage", led.Leverage()).
		Float64("profit_target_usd", p.ProfitTargetUSD).
		Float64("hard_stop_loss_usd", p.HardStopLossUSD).
		Str("interval", r.cfg.Interval).
		Dur("every", r.cfg.Every).
		Msg("leverbot starting")
}

// RunOnce fetches candles and a price and runs one orchestrator cycle.
func (r *Runner) RunOnce(ctx context.Context) (strategy.Result, error) {
	candles, err := r.data.GetCandles(ctx, r.cfg.Symbol, r.cfg.Interval, r.cfg.Limit)
	if err != nil {
		metrics.IncCycle("skip")
		r.log.Warn().Err(err).Msg("candles unavailable, skipping cycle")
		return strategy.Result{}, fmt.Errorf("%w: %w", ErrSkipped, err)
	}
	last, ok := market.Series(candles).Last()
	if !ok {
		metrics.IncCycle("skip")
		r.log.Warn().Msg("no candles, skipping cycle")
		return strategy.Result{}, fmt.Errorf("%w: no candles", ErrSkipped)
	}

	price := r.currentPrice(ctx, last)
	if price <= 0 {
		metrics.IncCycle("skip")
		r.log.Warn().Msg("no usable price, skipping cycle")
		return strategy.Result{}, fmt.Errorf("%w: no price", ErrSkipped)
	}

	res, err := r.orch.Evaluate(ctx, price, candles)
	if err != nil {
		metrics.IncCycle("error")
		return res, err
	}
	metrics.IncCycle(res.Action.String())
	r.status(price, res)
	return res, nil
}

// currentPrice prefers the ticker's last trade, then its mark price, then
// the close of the newest candle.
func (r *Runner) currentPrice(ctx context.Context, last market.Candle) float64 {
	t, err := r.data.GetTicker(ctx, r.cfg.Symbol)
	if err != nil {
		r.log.Warn().Err(err).Msg("ticker unavailable, using last candle close")
	} else if p := t.Price(); p > 0 {
		return p
	}
	return last.Close
}

func (r *Runner) status(price float64, res strategy.Result) {
	led := r.orch.Ledger()
	pos := led.Position()
	unrealized := led.Unrealized(price)
	metrics.SetUnrealizedPnL(unrealized)

	ev := r.log.Info().
		Float64("price", price).
		Str("action", res.Action.String()).
		Str("position", pos.Side.String()).
		Float64("size", pos.Size).
		Float64("balance", led.Balance()).
		Float64("unrealized", unrealized)
	if res.Reason != "" {
		ev = ev.Str("reason", string(res.Reason))
	}
	if pos.IsOpen() {
		m := r.orch.Risk().Metrics(pos.EntryPrice, price, pos.Side, pos.Size)
		ev = ev.Float64("entry", pos.EntryPrice).
			Float64("pnl_pct", m.PnLPct).
			Float64("to_tp", m.PriceToTP).
			Float64("to_sl", m.PriceToSL)
		if plan, ok := r.orch.Plan(); ok {
			ev = ev.Float64("take_profit", plan.TakeProfit).Float64("hard_stop", plan.HardStop)
		}
	}
	ev.Msg("cycle")
}
