package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/leverbot/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name = 'events'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "events", name)
}

func TestSQLiteRecordEvent(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	want := closeEvent()
	require.NoError(t, j.RecordEvent(want))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var (
		gotTime   time.Time
		orderID   string
		side      string
		size      float64
		pnl       float64
		leverage  int
		tradeType string
	)
	err = db.QueryRow(`
		SELECT time, order_id, side, size, realized_pnl, leverage, trade_type
		FROM events LIMIT 1`).Scan(&gotTime, &orderID, &side, &size, &pnl, &leverage, &tradeType)
	require.NoError(t, err)

	assert.True(t, gotTime.Equal(want.Time))
	assert.Equal(t, want.OrderID, orderID)
	assert.Equal(t, "sell", side)
	assert.InDelta(t, 0.1, size, 1e-12)
	assert.InDelta(t, 300, pnl, 1e-9)
	assert.Equal(t, 3, leverage)
	assert.Equal(t, "close", tradeType)
}

func TestGetEvents(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	require.NoError(t, j.RecordEvent(openEvent()))
	require.NoError(t, j.RecordEvent(closeEvent()))

	got, err := j.GetEvents(closeEvent().OrderID)
	require.NoError(t, err)
	require.Len(t, got, 1)

	e := got[0]
	assert.Equal(t, market.Sell, e.Side)
	assert.Equal(t, TradeClose, e.TradeType)
	assert.Equal(t, "BTC_USDT", e.Symbol)
	assert.InDelta(t, 51000, e.ExitPrice, 1e-9)
	assert.InDelta(t, 10300, e.BalanceAfter, 1e-9)
	assert.Equal(t, "take profit", e.Notes)
	assert.True(t, e.Time.Equal(closeEvent().Time))
}

func TestGetEvents_FlipKeepsOrder(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	c := closeEvent()
	o := openEvent()
	o.OrderID = c.OrderID
	o.Time = c.Time
	o.Side = market.Sell
	o.PositionSizeAfter = -0.05

	require.NoError(t, j.RecordEvent(c))
	require.NoError(t, j.RecordEvent(o))

	got, err := j.GetEvents(c.OrderID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, TradeClose, got[0].TradeType)
	assert.Equal(t, TradeOpen, got[1].TradeType)
	assert.InDelta(t, -0.05, got[1].PositionSizeAfter, 1e-12)
}

func TestGetEvents_NotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetEvents("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), `"missing"`)
}

func TestListEvents(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	eth := openEvent()
	eth.Symbol = "ETH_USDT"
	eth.OrderID = "sim_eth"
	eth.Time = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// inserted out of time order on purpose
	require.NoError(t, j.RecordEvent(closeEvent()))
	require.NoError(t, j.RecordEvent(openEvent()))
	require.NoError(t, j.RecordEvent(eth))

	all, err := j.ListEvents(Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "sim_eth", all[0].OrderID)
	assert.Equal(t, TradeOpen, all[1].TradeType)
	assert.Equal(t, TradeClose, all[2].TradeType)

	btc, err := j.ListEvents(Filter{Symbol: "BTC_USDT"})
	require.NoError(t, err)
	assert.Len(t, btc, 2)

	since, err := j.ListEvents(Filter{Since: time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, TradeClose, since[0].TradeType)

	limited, err := j.ListEvents(Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := j.ListEvents(Filter{Symbol: "SOL_USDT"})
	require.NoError(t, err)
	assert.Empty(t, none)
}
