// Package sim is a simulated exchange. It reads real market data from a
// wrapped connector and fills market orders locally against per-symbol
// ledgers.
package sim

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/leverbot/broker"
	"github.com/rustyeddy/leverbot/ledger"
	"github.com/rustyeddy/leverbot/market"
	"github.com/rustyeddy/leverbot/metrics"
	"github.com/rustyeddy/leverbot/pkg/id"
)

type Engine struct {
	mu       sync.Mutex
	data     broker.MarketData
	balance  float64
	leverage int
	ledgers  map[string]*ledger.Ledger
	prices   *market.PriceCache
	fallback float64
	log      zerolog.Logger
	now      func() time.Time
}

type Option func(*Engine)

func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithFallbackPrice lets orders fill at p when neither the feed nor the
// cache has a price. Zero disables it.
func WithFallbackPrice(p float64) Option {
	return func(e *Engine) { e.fallback = p }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine returns a simulated exchange. Each symbol traded gets its own
// ledger capitalized with initialBalance.
func NewEngine(data broker.MarketData, initialBalance float64, leverage int, opts ...Option) *Engine {
	e := &Engine{
		data:     data,
		balance:  initialBalance,
		leverage: leverage,
		ledgers:  make(map[string]*ledger.Ledger),
		prices:   market.NewPriceCache(),
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) GetTicker(ctx context.Context, symbol string) (market.Ticker, error) {
	t, err := e.data.GetTicker(ctx, symbol)
	if err == nil && t.Price() > 0 {
		e.prices.Set(symbol, t.Price())
		return t, nil
	}

	if p, cerr := e.prices.Get(symbol); cerr == nil {
		age, _ := e.prices.Age(symbol)
		e.log.Warn().Err(err).Str("symbol", symbol).Float64("price", p).Dur("age", age).Msg("ticker unavailable, using cached price")
		return market.Ticker{Symbol: symbol, Last: p}, nil
	}
	if err == nil {
		err = fmt.Errorf("%w: ticker for %s has no price", broker.ErrDataUnavailable, symbol)
	}
	return market.Ticker{}, err
}

func (e *Engine) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	return e.data.GetCandles(ctx, symbol, interval, limit)
}

// GetAccount sums every symbol's ledger. Unrealized P&L is marked at the
// last cached price. Before any trade it reports the initial balance.
func (e *Engine) GetAccount(ctx context.Context) (broker.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.ledgers) == 0 {
		return broker.Account{Total: e.balance, Available: e.balance}, nil
	}

	var acct broker.Account
	for sym, l := range e.ledgers {
		bal := l.Balance()
		upl := 0.0
		if p, err := e.prices.Get(sym); err == nil {
			upl = l.Unrealized(p)
		}
		acct.Available += bal
		acct.UnrealisedPnL += upl
		acct.Total += bal + upl
	}
	return acct, nil
}

func (e *Engine) PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.Order, error) {
	if err := req.Validate(); err != nil {
		return broker.Order{}, err
	}

	price := req.Price
	if price <= 0 {
		p, err := e.marketPrice(ctx, req.Symbol)
		if err != nil {
			return broker.Order{}, fmt.Errorf("%w: %w", broker.ErrOrderRejected, err)
		}
		price = p
	}

	orderType := req.Type
	if orderType == "" {
		orderType = broker.Market
	}

	order := broker.Order{
		ID:     id.NewOrderID("sim"),
		Symbol: req.Symbol,
		Side:   req.Side,
		Size:   req.Size,
		Price:  price,
		Type:   orderType,
		Status: broker.StatusFilled,
		Time:   e.now(),
	}

	l := e.ledgerFor(req.Symbol)
	if _, err := l.Apply(ledger.Fill{
		OrderID:   order.ID,
		Symbol:    order.Symbol,
		Side:      order.Side,
		Size:      order.Size,
		Price:     order.Price,
		OrderType: string(order.Type),
		Time:      order.Time,
		Notes:     req.Notes,
	}); err != nil {
		return broker.Order{}, fmt.Errorf("%w: %w", broker.ErrOrderRejected, err)
	}

	e.log.Info().
		Str("order_id", order.ID).
		Str("symbol", order.Symbol).
		Str("side", string(order.Side)).
		Float64("size", order.Size).
		Float64("price", order.Price).
		Msg("[SIM] order filled")

	return order, nil
}

// CancelOrder is a no-op: simulated market orders fill immediately.
func (e *Engine) CancelOrder(ctx context.Context, orderID, symbol string) error {
	e.log.Info().Str("order_id", orderID).Str("symbol", symbol).Msg("[SIM] cancel order")
	return nil
}

// Positions returns the open simulated positions ordered by symbol.
func (e *Engine) Positions() []ledger.Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	syms := make([]string, 0, len(e.ledgers))
	for s := range e.ledgers {
		syms = append(syms, s)
	}
	sort.Strings(syms)

	var out []ledger.Position
	for _, s := range syms {
		if p := e.ledgers[s].Position(); p.IsOpen() {
			out = append(out, p)
		}
	}
	return out
}

// GetPositions reports the simulated position in symbol, marked at the
// last cached price.
func (e *Engine) GetPositions(ctx context.Context, symbol string) ([]broker.Position, error) {
	l := e.Ledger(symbol)
	if l == nil {
		return nil, nil
	}
	p := l.Position()
	if !p.IsOpen() {
		return nil, nil
	}

	out := broker.Position{
		Symbol:     symbol,
		Side:       p.Side,
		Size:       p.Size,
		EntryPrice: p.EntryPrice,
		Leverage:   l.Leverage(),
	}
	if mark, err := e.prices.Get(symbol); err == nil {
		out.MarkPrice = mark
		out.UnrealisedPnL = l.Unrealized(mark)
	}
	return []broker.Position{out}, nil
}

// Ledger returns the ledger for symbol, or nil if it has never traded.
func (e *Engine) Ledger(symbol string) *ledger.Ledger {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledgers[symbol]
}

func (e *Engine) ledgerFor(symbol string) *ledger.Ledger {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.ledgers[symbol]
	if !ok {
		// The bot's own ledger logs fills and owns the balance gauge.
		l = ledger.New(symbol, e.balance, e.leverage, ledger.WithBalanceGauge(false))
		e.ledgers[symbol] = l
	}
	return l
}

// marketPrice tries the feed, then the cache, then the fallback.
func (e *Engine) marketPrice(ctx context.Context, symbol string) (float64, error) {
	t, err := e.GetTicker(ctx, symbol)
	if err == nil && t.Price() > 0 {
		return t.Price(), nil
	}

	if e.fallback > 0 {
		metrics.IncFallbackPrice()
		e.log.Warn().Err(err).Str("symbol", symbol).Float64("price", e.fallback).Msg("no market price, filling at fallback price")
		return e.fallback, nil
	}
	if err == nil {
		err = broker.ErrDataUnavailable
	}
	return 0, fmt.Errorf("no price for %s: %w", symbol, err)
}
