// Package binance is a live connector for Binance USDⓈ-M futures built on
// go-binance.
package binance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/leverbot/broker"
	"github.com/rustyeddy/leverbot/market"
	"github.com/rustyeddy/leverbot/pkg/id"
)

// DefaultQuantityPrecision matches BTCUSDT's lot step of 0.001.
const DefaultQuantityPrecision = 3

type Config struct {
	APIKey            string
	APISecret         string
	Testnet           bool
	QuantityPrecision int32
}

type Client struct {
	client    *futures.Client
	precision int32
	cache     *market.PriceCache
	log       zerolog.Logger
}

type Option func(*Client)

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithBaseURL points the client at another endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.client.BaseURL = u }
}

func NewClient(cfg Config, opts ...Option) *Client {
	// go-binance reads the testnet switch when the client is built.
	futures.UseTestnet = cfg.Testnet

	prec := cfg.QuantityPrecision
	if prec <= 0 {
		prec = DefaultQuantityPrecision
	}
	c := &Client{
		client:    futures.NewClient(cfg.APIKey, cfg.APISecret),
		precision: prec,
		cache:     market.NewPriceCache(),
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Symbol converts "BTC_USDT" to Binance's "BTCUSDT".
func Symbol(s string) string {
	return strings.ReplaceAll(strings.ToUpper(s), "_", "")
}

func (c *Client) GetTicker(ctx context.Context, symbol string) (market.Ticker, error) {
	sym := Symbol(symbol)

	stats, err := c.client.NewListPriceChangeStatsService().Symbol(sym).Do(ctx)
	if err == nil && len(stats) == 0 {
		err = fmt.Errorf("no ticker for %s", sym)
	}
	if err != nil {
		if p, cerr := c.cache.Get(symbol); cerr == nil {
			age, _ := c.cache.Age(symbol)
			c.log.Warn().Err(err).Str("symbol", symbol).Float64("price", p).Dur("age", age).Msg("ticker failed, using cached price")
			return market.Ticker{Symbol: symbol, Last: p, MarkPrice: p, IndexPrice: p}, nil
		}
		return market.Ticker{}, fmt.Errorf("%w: ticker %s: %w", broker.ErrDataUnavailable, sym, err)
	}

	tk := market.Ticker{
		Symbol:    symbol,
		Last:      parseNum(stats[0].LastPrice),
		Volume24h: parseNum(stats[0].Volume),
	}

	// Mark and index prices are informational; a failure here is not fatal.
	if idx, err := c.client.NewPremiumIndexService().Symbol(sym).Do(ctx); err == nil && len(idx) > 0 {
		tk.MarkPrice = parseNum(idx[0].MarkPrice)
		tk.IndexPrice = parseNum(idx[0].IndexPrice)
	} else if err != nil {
		c.log.Debug().Err(err).Str("symbol", sym).Msg("premium index unavailable")
	}

	c.cache.Set(symbol, tk.Price())
	return tk, nil
}

func (c *Client) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	klines, err := c.client.NewKlinesService().
		Symbol(Symbol(symbol)).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: candles %s: %w", broker.ErrDataUnavailable, symbol, err)
	}

	candles, err := convertKlines(klines)
	if err != nil {
		return nil, fmt.Errorf("%w: candles %s: %w", broker.ErrDataUnavailable, symbol, err)
	}
	return candles, nil
}

func convertKlines(klines []*futures.Kline) ([]market.Candle, error) {
	candles := make([]market.Candle, 0, len(klines))
	for _, k := range klines {
		cd := market.Candle{Timestamp: k.OpenTime / 1000}
		var err error
		if cd.Open, err = parseDecimal(k.Open); err != nil {
			return nil, fmt.Errorf("parse open: %w", err)
		}
		if cd.High, err = parseDecimal(k.High); err != nil {
			return nil, fmt.Errorf("parse high: %w", err)
		}
		if cd.Low, err = parseDecimal(k.Low); err != nil {
			return nil, fmt.Errorf("parse low: %w", err)
		}
		if cd.Close, err = parseDecimal(k.Close); err != nil {
			return nil, fmt.Errorf("parse close: %w", err)
		}
		if cd.Volume, err = parseDecimal(k.Volume); err != nil {
			return nil, fmt.Errorf("parse volume: %w", err)
		}
		candles = append(candles, cd)
	}
	return market.NewSeries(candles)
}

func (c *Client) GetAccount(ctx context.Context) (broker.Account, error) {
	a, err := c.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return broker.Account{}, fmt.Errorf("get account: %w", err)
	}
	return broker.Account{
		Total:          parseNum(a.TotalMarginBalance),
		Available:      parseNum(a.AvailableBalance),
		UnrealisedPnL:  parseNum(a.TotalUnrealizedProfit),
		PositionMargin: parseNum(a.TotalPositionInitialMargin),
		OrderMargin:    parseNum(a.TotalOpenOrderInitialMargin),
	}, nil
}

func (c *Client) PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.Order, error) {
	if err := req.Validate(); err != nil {
		return broker.Order{}, err
	}

	qty := c.Quantity(req.Size)
	if qty.IsZero() {
		return broker.Order{}, fmt.Errorf("%w: size %v is below the lot step", broker.ErrOrderRejected, req.Size)
	}

	side := futures.SideTypeBuy
	if req.Side == market.Sell {
		side = futures.SideTypeSell
	}

	svc := c.client.NewCreateOrderService().
		Symbol(Symbol(req.Symbol)).
		Side(side).
		Quantity(qty.String()).
		NewClientOrderID(id.ClientOrderID("lb-")).
		NewOrderResponseType(futures.NewOrderRespTypeRESULT)

	orderType := broker.Market
	if req.IsMarket() {
		svc = svc.Type(futures.OrderTypeMarket)
	} else {
		orderType = broker.Limit
		svc = svc.Type(futures.OrderTypeLimit).
			TimeInForce(futures.TimeInForceTypeGTC).
			Price(decimal.NewFromFloat(req.Price).String())
	}

	res, err := svc.Do(ctx)
	if err != nil {
		return broker.Order{}, fmt.Errorf("%w: %w", broker.ErrOrderRejected, err)
	}

	o := broker.Order{
		ID:       strconv.FormatInt(res.OrderID, 10),
		ClientID: res.ClientOrderID,
		Symbol:   req.Symbol,
		Side:     req.Side,
		Size:     parseNum(res.ExecutedQuantity),
		Price:    parseNum(res.AvgPrice),
		Type:     orderType,
		Status:   orderStatus(res.Status),
		Time:     time.UnixMilli(res.UpdateTime).UTC(),
	}
	if o.Status == broker.StatusCancelled {
		return o, fmt.Errorf("%w: order %s %s", broker.ErrOrderRejected, o.ID, res.Status)
	}
	return o, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID, symbol string) error {
	oid, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return fmt.Errorf("cancel order: bad id %q: %w", orderID, err)
	}
	if _, err := c.client.NewCancelOrderService().Symbol(Symbol(symbol)).OrderID(oid).Do(ctx); err != nil {
		return fmt.Errorf("cancel order %s (%s): %w", orderID, symbol, err)
	}
	return nil
}

// GetPositions reports the one-way position in symbol. Binance signs
// positionAmt, negative for shorts.
func (c *Client) GetPositions(ctx context.Context, symbol string) ([]broker.Position, error) {
	risks, err := c.client.NewGetPositionRiskService().Symbol(Symbol(symbol)).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("get position %s: %w", symbol, err)
	}
	return convertPositions(symbol, risks)
}

func convertPositions(symbol string, risks []*futures.PositionRisk) ([]broker.Position, error) {
	var out []broker.Position
	for _, r := range risks {
		amt, err := decimal.NewFromString(r.PositionAmt)
		if err != nil {
			return nil, fmt.Errorf("parse position amount %q: %w", r.PositionAmt, err)
		}
		if amt.IsZero() {
			continue
		}
		side := market.Long
		if amt.IsNegative() {
			side = market.Short
		}
		size, _ := amt.Abs().Float64()
		lev, _ := strconv.Atoi(r.Leverage)
		out = append(out, broker.Position{
			Symbol:        symbol,
			Side:          side,
			Size:          size,
			EntryPrice:    parseNum(r.EntryPrice),
			MarkPrice:     parseNum(r.MarkPrice),
			UnrealisedPnL: parseNum(r.UnRealizedProfit),
			Leverage:      lev,
		})
	}
	return out, nil
}

// Quantity truncates size to the configured lot precision.
func (c *Client) Quantity(size float64) decimal.Decimal {
	return decimal.NewFromFloat(size).Truncate(c.precision)
}

func orderStatus(s futures.OrderStatusType) broker.OrderStatus {
	switch s {
	case futures.OrderStatusTypeFilled, futures.OrderStatusTypePartiallyFilled:
		return broker.StatusFilled
	case futures.OrderStatusTypeCanceled, futures.OrderStatusTypeExpired, futures.OrderStatusTypeRejected:
		return broker.StatusCancelled
	default:
		return broker.StatusOpen
	}
}

func parseDecimal(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

func parseNum(s string) float64 {
	f, err := parseDecimal(s)
	if err != nil {
		return 0
	}
	return f
}
