package status

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rustyeddy/leverbot/journal"
	"github.com/rustyeddy/leverbot/ledger"
	"github.com/rustyeddy/leverbot/market"
	"github.com/rustyeddy/leverbot/metrics"
	"github.com/rustyeddy/leverbot/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plans struct{ p *strategy.Plan }

func (p plans) Plan() (strategy.Plan, bool) {
	if p.p == nil {
		return strategy.Plan{}, false
	}
	return *p.p, true
}

type store map[string][]journal.Event

func (s store) GetEvents(id string) ([]journal.Event, error) {
	if id == "broken" {
		return nil, errors.New("disk on fire")
	}
	ev, ok := s[id]
	if !ok {
		return nil, journal.ErrNotFound
	}
	return ev, nil
}

func openLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l := ledger.New("BTC_USDT", 10000, 3)
	_, err := l.Apply(ledger.Fill{OrderID: "o1", Symbol: "BTC_USDT", Side: market.Sell, Size: 0.1, Price: 50000})
	require.NoError(t, err)
	return l
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	s := New(":0", ledger.New("BTC_USDT", 10000, 3))
	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestStatus(t *testing.T) {
	s := New(":0", openLedger(t), WithPlans(plans{&strategy.Plan{TakeProfit: 49500, HardStop: 50500}}))

	rec := get(t, s, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var v statusView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "short", v.Position.Side)
	assert.Equal(t, 0.1, v.Position.Size)
	assert.Equal(t, 50000.0, v.Position.EntryPrice)
	assert.Equal(t, 10000.0, v.Account.Balance)
	assert.Equal(t, 3, v.Leverage)
	require.NotNil(t, v.Plan)
	assert.Equal(t, 49500.0, v.Plan.TakeProfit)
}

func TestStatusFlatHasNoPlan(t *testing.T) {
	s := New(":0", ledger.New("BTC_USDT", 10000, 3), WithPlans(plans{}))

	rec := get(t, s, "/status")
	assert.NotContains(t, rec.Body.String(), `"plan"`)
	assert.Contains(t, rec.Body.String(), `"side":"flat"`)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.IncCycle("none")
	s := New(":0", ledger.New("BTC_USDT", 10000, 3))

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "leverbot_cycles_total")
}

func TestOrders(t *testing.T) {
	l := openLedger(t)
	events := store{"o1": {{OrderID: "o1", Symbol: "BTC_USDT", Side: market.Sell, TradeType: journal.TradeOpen}}}
	s := New(":0", l, WithEvents(events))

	rec := get(t, s, "/orders/o1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "** OPEN BTC_USDT SELL"))

	assert.Equal(t, http.StatusNotFound, get(t, s, "/orders/nope").Code)
	assert.Equal(t, http.StatusInternalServerError, get(t, s, "/orders/broken").Code)
}

func TestOrdersDisabledWithoutStore(t *testing.T) {
	s := New(":0", ledger.New("BTC_USDT", 10000, 3))
	assert.Equal(t, http.StatusNotFound, get(t, s, "/orders/o1").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	s := New(":0", ledger.New("BTC_USDT", 10000, 3))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
