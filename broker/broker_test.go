package broker

import (
	"testing"

	"github.com/rustyeddy/leverbot/market"
	"github.com/stretchr/testify/assert"
)

func TestOrderRequestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  OrderRequest
		ok   bool
	}{
		{"market buy", OrderRequest{Symbol: "BTC_USDT", Side: market.Buy, Size: 0.1}, true},
		{"limit sell", OrderRequest{Symbol: "BTC_USDT", Side: market.Sell, Size: 0.1, Price: 50000, Type: Limit}, true},
		{"no symbol", OrderRequest{Side: market.Buy, Size: 0.1}, false},
		{"bad side", OrderRequest{Symbol: "BTC_USDT", Side: "long", Size: 0.1}, false},
		{"zero size", OrderRequest{Symbol: "BTC_USDT", Side: market.Buy}, false},
		{"negative price", OrderRequest{Symbol: "BTC_USDT", Side: market.Buy, Size: 1, Price: -1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrOrderRejected)
			}
		})
	}
}

func TestOrderRequestIsMarket(t *testing.T) {
	t.Parallel()

	assert.True(t, OrderRequest{}.IsMarket())
	assert.True(t, OrderRequest{Type: Limit}.IsMarket())
	assert.False(t, OrderRequest{Type: Limit, Price: 10}.IsMarket())
}

func TestOrderFilled(t *testing.T) {
	t.Parallel()

	assert.True(t, Order{Status: StatusFilled, Size: 1, Price: 10}.Filled())
	assert.False(t, Order{Status: StatusOpen, Size: 1, Price: 10}.Filled())
	assert.False(t, Order{Status: StatusFilled, Size: 1}.Filled())
}
