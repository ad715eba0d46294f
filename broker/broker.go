// Package broker defines what the bot needs from an exchange.
package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/leverbot/market"
)

var (
	// ErrDataUnavailable means a market data request could not be served.
	ErrDataUnavailable = errors.New("market data unavailable")
	// ErrOrderRejected means the exchange refused an order or the request
	// failed before a fill.
	ErrOrderRejected = errors.New("order rejected")
)

type MarketData interface {
	GetTicker(ctx context.Context, symbol string) (market.Ticker, error)
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error)
}

type Exchange interface {
	MarketData
	GetAccount(ctx context.Context) (Account, error)
	PlaceOrder(ctx context.Context, req OrderRequest) (Order, error)
	CancelOrder(ctx context.Context, orderID, symbol string) error
	GetPositions(ctx context.Context, symbol string) ([]Position, error)
}

// Position is the exchange's net position in one contract. Size is in base
// currency and always positive; Side carries the direction.
type Position struct {
	Symbol        string
	Side          market.Side
	Size          float64
	EntryPrice    float64
	MarkPrice     float64
	UnrealisedPnL float64
	Leverage      int
}

// Net returns the first open position for symbol, or a flat one.
func Net(positions []Position, symbol string) Position {
	for _, p := range positions {
		if p.Symbol == symbol && p.Side != market.Flat && p.Size > 0 {
			return p
		}
	}
	return Position{Symbol: symbol}
}

// Account is the futures account summary in the settlement currency.
type Account struct {
	Total          float64
	Available      float64
	UnrealisedPnL  float64
	PositionMargin float64
	OrderMargin    float64
}

type OrderType string

const (
	Market OrderType = "market"
	Limit  OrderType = "limit"
)

type OrderStatus string

const (
	StatusFilled    OrderStatus = "filled"
	StatusOpen      OrderStatus = "open"
	StatusCancelled OrderStatus = "cancelled"
)

// OrderRequest asks for size contracts of symbol. Price zero means market.
type OrderRequest struct {
	Symbol string
	Side   market.OrderSide
	Size   float64
	Price  float64
	Type   OrderType
	Notes  string
}

func (r OrderRequest) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("%w: missing symbol", ErrOrderRejected)
	}
	if !r.Side.Valid() {
		return fmt.Errorf("%w: side %q", ErrOrderRejected, r.Side)
	}
	if !(r.Size > 0) {
		return fmt.Errorf("%w: size %v", ErrOrderRejected, r.Size)
	}
	if r.Price < 0 {
		return fmt.Errorf("%w: price %v", ErrOrderRejected, r.Price)
	}
	return nil
}

// IsMarket reports whether r executes at the prevailing price.
func (r OrderRequest) IsMarket() bool {
	return r.Type == Market || r.Type == "" || r.Price == 0
}

// Order is the exchange's view of a placed order. Price is the average fill
// price when Status is StatusFilled.
type Order struct {
	ID       string
	ClientID string
	Symbol   string
	Side     market.OrderSide
	Size     float64
	Price    float64
	Type     OrderType
	Status   OrderStatus
	Time     time.Time
}

func (o Order) Filled() bool {
	return o.Status == StatusFilled && o.Size > 0 && o.Price > 0
}
