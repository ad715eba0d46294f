package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/rustyeddy/leverbot/broker"
	"github.com/rustyeddy/leverbot/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbol(t *testing.T) {
	assert.Equal(t, "BTCUSDT", Symbol("BTC_USDT"))
	assert.Equal(t, "ETHUSDT", Symbol("eth_usdt"))
	assert.Equal(t, "BTCUSDT", Symbol("BTCUSDT"))
}

func TestConvertKlines(t *testing.T) {
	klines := []*futures.Kline{
		{OpenTime: 1700000000000, Open: "100.5", High: "101", Low: "99.5", Close: "100.75", Volume: "12.345"},
		{OpenTime: 1700003600000, Open: "100.75", High: "102", Low: "100", Close: "101.25", Volume: "3"},
	}

	got, err := convertKlines(klines)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, market.Candle{Timestamp: 1700000000, Open: 100.5, High: 101, Low: 99.5, Close: 100.75, Volume: 12.345}, got[0])
	assert.Equal(t, int64(1700003600), got[1].Timestamp)

	_, err = convertKlines([]*futures.Kline{{OpenTime: 1, Open: "1", High: "1", Low: "1", Close: "nan?", Volume: "1"}})
	assert.ErrorContains(t, err, "parse close")
}

func TestGetCandles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/klines", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "BTCUSDT", q.Get("symbol"))
		assert.Equal(t, "1h", q.Get("interval"))
		assert.Equal(t, "2", q.Get("limit"))
		w.Write([]byte(`[
			[1700000000000,"100.5","101","99.5","100.75","12.5",1700003599999,"1250",10,"6","600","0"],
			[1700003600000,"100.75","102","100","101.25","3",1700007199999,"300",4,"1","100","0"]
		]`))
	}))
	defer server.Close()

	c := NewClient(Config{}, WithBaseURL(server.URL))
	got, err := c.GetCandles(context.Background(), "BTC_USDT", "1h", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 100.75, got[0].Close)
	assert.Equal(t, 12.5, got[0].Volume)
	assert.Equal(t, 101.25, got[1].Close)
}

func TestGetCandles_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"code":-1000,"msg":"unknown"}`))
	}))
	defer server.Close()

	c := NewClient(Config{}, WithBaseURL(server.URL))
	_, err := c.GetCandles(context.Background(), "BTC_USDT", "1h", 2)
	assert.ErrorIs(t, err, broker.ErrDataUnavailable)
}

func TestQuantity(t *testing.T) {
	c := NewClient(Config{})
	assert.Equal(t, "0.066", c.Quantity(0.0666667).String())
	assert.True(t, c.Quantity(0.0009).IsZero())

	c = NewClient(Config{QuantityPrecision: 1})
	assert.Equal(t, "12.3", c.Quantity(12.36).String())
}

func TestOrderStatus(t *testing.T) {
	assert.Equal(t, broker.StatusFilled, orderStatus(futures.OrderStatusTypeFilled))
	assert.Equal(t, broker.StatusFilled, orderStatus(futures.OrderStatusTypePartiallyFilled))
	assert.Equal(t, broker.StatusCancelled, orderStatus(futures.OrderStatusTypeExpired))
	assert.Equal(t, broker.StatusOpen, orderStatus(futures.OrderStatusTypeNew))
}

func TestPlaceOrderValidates(t *testing.T) {
	c := NewClient(Config{})
	_, err := c.PlaceOrder(context.Background(), broker.OrderRequest{Symbol: "BTC_USDT", Side: market.Buy, Size: 0.0001})
	assert.ErrorIs(t, err, broker.ErrOrderRejected)
	assert.Contains(t, err.Error(), "lot step")
}

func TestCancelOrderBadID(t *testing.T) {
	c := NewClient(Config{})
	err := c.CancelOrder(context.Background(), "sim_abc", "BTC_USDT")
	assert.ErrorContains(t, err, "bad id")
}

func TestConvertPositions(t *testing.T) {
	risks := []*futures.PositionRisk{
		{Symbol: "BTCUSDT", PositionAmt: "-0.066", EntryPrice: "50010.5", MarkPrice: "49990", UnRealizedProfit: "1.353", Leverage: "10"},
		{Symbol: "BTCUSDT", PositionAmt: "0.000", EntryPrice: "0.0", Leverage: "10"},
	}

	got, err := convertPositions("BTC_USDT", risks)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, broker.Position{
		Symbol:        "BTC_USDT",
		Side:          market.Short,
		Size:          0.066,
		EntryPrice:    50010.5,
		MarkPrice:     49990,
		UnrealisedPnL: 1.353,
		Leverage:      10,
	}, got[0])

	_, err = convertPositions("BTC_USDT", []*futures.PositionRisk{{PositionAmt: "n/a"}})
	assert.ErrorContains(t, err, "parse position amount")
}

func TestGetPositions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`[{"symbol":"BTCUSDT","positionAmt":"0.010","entryPrice":"50000.0","markPrice":"50100.0","unRealizedProfit":"1.0","leverage":"20","positionSide":"BOTH"}]`))
	}))
	defer server.Close()

	c := NewClient(Config{APIKey: "key", APISecret: "secret"}, WithBaseURL(server.URL))
	got, err := c.GetPositions(context.Background(), "BTC_USDT")
	require.NoError(t, err)
	p := broker.Net(got, "BTC_USDT")
	assert.Equal(t, market.Long, p.Side)
	assert.Equal(t, 0.01, p.Size)
	assert.Equal(t, 50000.0, p.EntryPrice)
	assert.Equal(t, 20, p.Leverage)
}

var _ broker.Exchange = (*Client)(nil)
