package journal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatEventOrg(t *testing.T) {
	t.Parallel()

	result := FormatEventOrg(closeEvent())

	assert.True(t, strings.HasPrefix(result, "** CLOSE BTC_USDT SELL (sim_01HQ0000)\n"))
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":ORDER_ID: sim_01HQ0000000000000000000002")
	assert.Contains(t, result, ":TIME: 2024-01-02T09:00:00Z")
	assert.Contains(t, result, ":SIZE: 0.10000000")
	assert.Contains(t, result, ":PRICE: 51000.00")
	assert.Contains(t, result, ":POSITION: 0.10000000 -> 0.00000000")
	assert.Contains(t, result, ":ENTRY_PRICE: 50000.00")
	assert.Contains(t, result, ":EXIT_PRICE: 51000.00")
	assert.Contains(t, result, ":REALIZED_PNL: 300.00")
	assert.Contains(t, result, ":BALANCE: 10000.00 -> 10300.00")
	assert.Contains(t, result, ":LEVERAGE: 3")
	assert.Contains(t, result, ":END:")
	assert.Contains(t, result, "*** Notes\n- take profit\n")
}

func TestFormatEventOrg_OmitsUnsetPrices(t *testing.T) {
	t.Parallel()

	e := openEvent()
	e.EntryPrice = 0
	result := FormatEventOrg(e)

	assert.NotContains(t, result, ":ENTRY_PRICE:")
	assert.NotContains(t, result, ":EXIT_PRICE:")
	assert.Contains(t, result, "*** Notes\n- \n")
}

func TestFormatEventOrg_ShortID(t *testing.T) {
	t.Parallel()

	e := openEvent()
	e.OrderID = "abc"
	assert.Contains(t, FormatEventOrg(e), "(abc)")
}

func TestFormatEventsOrg(t *testing.T) {
	t.Parallel()

	assert.Empty(t, FormatEventsOrg(nil))

	result := FormatEventsOrg([]Event{openEvent(), closeEvent()})
	assert.Equal(t, 2, strings.Count(result, ":PROPERTIES:"))
	assert.Contains(t, result, ":END:\n\n*** Notes\n- \n\n\n** CLOSE")
}
