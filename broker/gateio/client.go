// Package gateio is a REST connector for Gate.io USDT-settled perpetual
// futures (APIv4).
package gateio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jpillora/backoff"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/leverbot/broker"
	"github.com/rustyeddy/leverbot/market"
	"github.com/rustyeddy/leverbot/pkg/id"
)

const (
	LiveURL    = "https://api.gateio.ws/api/v4"
	TestnetURL = "https://fx-api-testnet.gateio.ws/api/v4"

	// DefaultContractSize is BTC_USDT's multiplier: one contract is 0.0001 BTC.
	DefaultContractSize = 0.0001

	settle = "usdt"
)

// Config holds credentials and contract details. Public endpoints work
// without keys.
type Config struct {
	APIKey       string
	APISecret    string
	Testnet      bool
	ContractSize float64
	Timeout      time.Duration
}

type Client struct {
	baseURL      string
	key          string
	secret       string
	contractSize decimal.Decimal
	httpClient   *http.Client
	retries      int
	backoff      backoff.Backoff
	cache        *market.PriceCache
	log          zerolog.Logger
	now          func() time.Time
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRetries sets how many times a failed public GET is retried.
func WithRetries(n int, min, max time.Duration) Option {
	return func(c *Client) {
		c.retries = n
		c.backoff = backoff.Backoff{Min: min, Max: max, Factor: 2, Jitter: true}
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	baseURL := LiveURL
	if cfg.Testnet {
		baseURL = TestnetURL
	}
	cs := cfg.ContractSize
	if cs <= 0 {
		cs = DefaultContractSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:      baseURL,
		key:          cfg.APIKey,
		secret:       cfg.APISecret,
		contractSize: decimal.NewFromFloat(cs),
		httpClient:   &http.Client{Timeout: timeout},
		retries:      2,
		backoff:      backoff.Backoff{Min: 500 * time.Millisecond, Max: 5 * time.Second, Factor: 2, Jitter: true},
		cache:        market.NewPriceCache(),
		log:          zerolog.Nop(),
		now:          time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// apiError is the body Gate.io returns with non-2xx responses.
type apiError struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	var ae apiError
	if json.Unmarshal([]byte(e.body), &ae) == nil && ae.Label != "" {
		return fmt.Sprintf("gateio: status %d: %s: %s", e.code, ae.Label, ae.Message)
	}
	return fmt.Sprintf("gateio: status %d: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code >= 500 || e.code == http.StatusTooManyRequests
}

// do sends one request. Signed requests carry the APIv4 headers.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, signed bool, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if signed {
		if c.key == "" || c.secret == "" {
			return errors.New("gateio: api key and secret required")
		}
		c.signRequest(req, payload)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &statusError{code: resp.StatusCode, body: string(data)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// get retries transient failures of unsigned GETs with exponential backoff.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	b := c.backoff
	var err error
	for attempt := 0; ; attempt++ {
		err = c.do(ctx, http.MethodGet, path, query, nil, false, out)
		if err == nil {
			return nil
		}

		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			return err
		}
		if attempt >= c.retries || ctx.Err() != nil {
			return err
		}

		d := b.Duration()
		c.log.Debug().Err(err).Str("path", path).Dur("wait", d).Msg("retrying request")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
}

type ticker struct {
	Contract    string `json:"contract"`
	Last        string `json:"last"`
	MarkPrice   string `json:"mark_price"`
	IndexPrice  string `json:"index_price"`
	TotalVolume string `json:"total_volume"`
}

// GetTicker returns the contract's ticker. When the request fails and a
// price was seen before, the cached price is returned instead.
func (c *Client) GetTicker(ctx context.Context, symbol string) (market.Ticker, error) {
	var out []ticker
	err := c.get(ctx, "/futures/"+settle+"/tickers", url.Values{"contract": {symbol}}, &out)
	if err == nil && len(out) == 0 {
		err = fmt.Errorf("no ticker for %s", symbol)
	}
	if err != nil {
		if p, cerr := c.cache.Get(symbol); cerr == nil {
			age, _ := c.cache.Age(symbol)
			c.log.Warn().Err(err).Str("symbol", symbol).Float64("price", p).Dur("age", age).Msg("ticker failed, using cached price")
			return market.Ticker{Symbol: symbol, Last: p, MarkPrice: p, IndexPrice: p}, nil
		}
		return market.Ticker{}, fmt.Errorf("%w: ticker %s: %w", broker.ErrDataUnavailable, symbol, err)
	}

	t := out[0]
	tk := market.Ticker{
		Symbol:     symbol,
		Last:       parseNum(t.Last),
		MarkPrice:  parseNum(t.MarkPrice),
		IndexPrice: parseNum(t.IndexPrice),
		Volume24h:  parseNum(t.TotalVolume),
	}
	c.cache.Set(symbol, tk.Price())
	return tk, nil
}

type candlestick struct {
	T int64   `json:"t"`
	V float64 `json:"v"`
	O string  `json:"o"`
	H string  `json:"h"`
	L string  `json:"l"`
	C string  `json:"c"`
}

// GetCandles returns up to limit candles, oldest first.
func (c *Client) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	q := url.Values{
		"contract": {symbol},
		"interval": {interval},
		"limit":    {strconv.Itoa(limit)},
	}

	var out []candlestick
	if err := c.get(ctx, "/futures/"+settle+"/candlesticks", q, &out); err != nil {
		return nil, fmt.Errorf("%w: candles %s: %w", broker.ErrDataUnavailable, symbol, err)
	}

	candles := make([]market.Candle, 0, len(out))
	for _, k := range out {
		cd, err := k.candle()
		if err != nil {
			return nil, fmt.Errorf("%w: candles %s: %w", broker.ErrDataUnavailable, symbol, err)
		}
		candles = append(candles, cd)
	}

	series, err := market.NewSeries(candles)
	if err != nil {
		return nil, fmt.Errorf("%w: candles %s: %w", broker.ErrDataUnavailable, symbol, err)
	}
	return series, nil
}

func (k candlestick) candle() (market.Candle, error) {
	var (
		cd  = market.Candle{Timestamp: k.T, Volume: k.V}
		err error
	)
	if cd.Open, err = parseDecimal(k.O); err != nil {
		return cd, fmt.Errorf("parse open: %w", err)
	}
	if cd.High, err = parseDecimal(k.H); err != nil {
		return cd, fmt.Errorf("parse high: %w", err)
	}
	if cd.Low, err = parseDecimal(k.L); err != nil {
		return cd, fmt.Errorf("parse low: %w", err)
	}
	if cd.Close, err = parseDecimal(k.C); err != nil {
		return cd, fmt.Errorf("parse close: %w", err)
	}
	return cd, nil
}

type account struct {
	Total          string `json:"total"`
	Available      string `json:"available"`
	UnrealisedPnL  string `json:"unrealised_pnl"`
	PositionMargin string `json:"position_margin"`
	OrderMargin    string `json:"order_margin"`
	Currency       string `json:"currency"`
}

func (c *Client) GetAccount(ctx context.Context) (broker.Account, error) {
	var a account
	if err := c.do(ctx, http.MethodGet, "/futures/"+settle+"/accounts", nil, nil, true, &a); err != nil {
		return broker.Account{}, fmt.Errorf("get account: %w", err)
	}
	return broker.Account{
		Total:          parseNum(a.Total),
		Available:      parseNum(a.Available),
		UnrealisedPnL:  parseNum(a.UnrealisedPnL),
		PositionMargin: parseNum(a.PositionMargin),
		OrderMargin:    parseNum(a.OrderMargin),
	}, nil
}

type orderRequest struct {
	Contract string `json:"contract"`
	Size     int64  `json:"size"`
	Price    string `json:"price"`
	Tif      string `json:"tif"`
	Text     string `json:"text"`
}

type orderResponse struct {
	ID         int64   `json:"id"`
	Contract   string  `json:"contract"`
	Size       int64   `json:"size"`
	Left       int64   `json:"left"`
	Price      string  `json:"price"`
	FillPrice  string  `json:"fill_price"`
	Status     string  `json:"status"`
	FinishAs   string  `json:"finish_as"`
	Text       string  `json:"text"`
	CreateTime float64 `json:"create_time"`
}

// PlaceOrder submits a market (ioc, price 0) or limit (gtc) order. Size is
// in base currency and is converted to whole contracts.
func (c *Client) PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.Order, error) {
	if err := req.Validate(); err != nil {
		return broker.Order{}, err
	}

	contracts := c.Contracts(req.Size)
	if contracts == 0 {
		return broker.Order{}, fmt.Errorf("%w: size %v is below one contract (%s)",
			broker.ErrOrderRejected, req.Size, c.contractSize)
	}
	if req.Side == market.Sell {
		contracts = -contracts
	}

	body := orderRequest{
		Contract: req.Symbol,
		Size:     contracts,
		Price:    "0",
		Tif:      "ioc",
		Text:     id.ClientOrderID("t-"),
	}
	orderType := broker.Market
	if !req.IsMarket() {
		body.Price = decimal.NewFromFloat(req.Price).String()
		body.Tif = "gtc"
		orderType = broker.Limit
	}

	var out orderResponse
	if err := c.do(ctx, http.MethodPost, "/futures/"+settle+"/orders", nil, body, true, &out); err != nil {
		return broker.Order{}, fmt.Errorf("%w: %w", broker.ErrOrderRejected, err)
	}

	filled := abs64(out.Size) - abs64(out.Left)
	o := broker.Order{
		ID:       strconv.FormatInt(out.ID, 10),
		ClientID: out.Text,
		Symbol:   out.Contract,
		Side:     req.Side,
		Size:     c.fromContracts(filled),
		Price:    parseNum(out.FillPrice),
		Type:     orderType,
		Status:   orderStatus(out.Status, filled),
		Time:     c.now(),
	}
	if o.Price == 0 {
		o.Price = parseNum(out.Price)
	}
	if out.CreateTime > 0 {
		sec := int64(out.CreateTime)
		o.Time = time.Unix(sec, int64((out.CreateTime-float64(sec))*1e9)).UTC()
	}
	if o.Status == broker.StatusCancelled {
		return o, fmt.Errorf("%w: order %s finished as %s", broker.ErrOrderRejected, o.ID, out.FinishAs)
	}
	return o, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID, symbol string) error {
	path := "/futures/" + settle + "/orders/" + url.PathEscape(orderID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, true, nil); err != nil {
		return fmt.Errorf("cancel order %s (%s): %w", orderID, symbol, err)
	}
	c.log.Info().Str("order_id", orderID).Str("symbol", symbol).Msg("order cancelled")
	return nil
}

type position struct {
	Contract      string `json:"contract"`
	Size          int64  `json:"size"`
	Leverage      string `json:"leverage"`
	EntryPrice    string `json:"entry_price"`
	MarkPrice     string `json:"mark_price"`
	UnrealisedPnL string `json:"unrealised_pnl"`
}

// GetPositions returns the net position in symbol. A flat contract yields
// an empty slice.
func (c *Client) GetPositions(ctx context.Context, symbol string) ([]broker.Position, error) {
	var p position
	path := "/futures/" + settle + "/positions/" + url.PathEscape(symbol)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, true, &p); err != nil {
		return nil, fmt.Errorf("get position %s: %w", symbol, err)
	}
	if p.Size == 0 {
		return nil, nil
	}

	side := market.Long
	if p.Size < 0 {
		side = market.Short
	}
	lev, _ := strconv.Atoi(p.Leverage)
	return []broker.Position{{
		Symbol:        symbol,
		Side:          side,
		Size:          c.fromContracts(abs64(p.Size)),
		EntryPrice:    parseNum(p.EntryPrice),
		MarkPrice:     parseNum(p.MarkPrice),
		UnrealisedPnL: parseNum(p.UnrealisedPnL),
		Leverage:      lev,
	}}, nil
}

// Contracts converts a base-currency size to whole contracts, rounding to
// the nearest contract.
func (c *Client) Contracts(size float64) int64 {
	return decimal.NewFromFloat(size).Div(c.contractSize).Round(0).IntPart()
}

func (c *Client) fromContracts(n int64) float64 {
	f, _ := decimal.NewFromInt(n).Mul(c.contractSize).Float64()
	return f
}

// An ioc order that finished without a fill was cancelled by the engine.
func orderStatus(status string, filled int64) broker.OrderStatus {
	if status != "finished" {
		return broker.StatusOpen
	}
	if filled > 0 {
		return broker.StatusFilled
	}
	return broker.StatusCancelled
}

func parseDecimal(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

// parseNum treats empty or malformed amounts as zero.
func parseNum(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := parseDecimal(s)
	if err != nil {
		return 0
	}
	return f
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
