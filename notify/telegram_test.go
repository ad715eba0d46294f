package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/rustyeddy/leverbot/journal"
	"github.com/rustyeddy/leverbot/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
)

type sent struct {
	to   tele.Recipient
	what interface{}
	opts []interface{}
}

type fakeSender struct {
	msgs []sent
	err  error
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.msgs = append(f.msgs, sent{to, what, opts})
	return &tele.Message{}, nil
}

func closeEvent() journal.Event {
	return journal.Event{
		Time:               time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC),
		OrderID:            "sim_01HXYZ",
		Symbol:             "BTC_USDT",
		Side:               market.Sell,
		Size:               0.1,
		Price:              51000,
		PositionSizeBefore: 0.1,
		PositionSizeAfter:  0,
		EntryPrice:         50000,
		ExitPrice:          51000,
		RealizedPnL:        300,
		BalanceBefore:      10000,
		BalanceAfter:       10300,
		Leverage:           3,
		TradeType:          journal.TradeClose,
		Notes:              "take_profit",
	}
}

func TestRecordEventSendsToChat(t *testing.T) {
	f := &fakeSender{}
	tg := NewTelegramWith(f, -1001)

	require.NoError(t, tg.RecordEvent(closeEvent()))
	require.Len(t, f.msgs, 1)
	assert.Equal(t, "-1001", f.msgs[0].to.Recipient())
	assert.Equal(t, []interface{}{tele.ModeHTML}, f.msgs[0].opts)
	assert.Equal(t, Format(closeEvent()), f.msgs[0].what)
	assert.NoError(t, tg.Close())
}

func TestRecordEventError(t *testing.T) {
	tg := NewTelegramWith(&fakeSender{err: errors.New("blocked")}, 1)
	err := tg.RecordEvent(closeEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestFormat(t *testing.T) {
	want := "<b>CLOSE BTC_USDT SELL</b>\n" +
		"size 0.10000000 @ 51000.00\n" +
		"position 0.10000000 → 0.00000000\n" +
		"pnl +300.00 USDT\n" +
		"balance 10300.00\n" +
		"<i>take_profit</i>\n" +
		"<code>sim_01HXYZ</code> 2024-05-01T13:00:00Z"
	assert.Equal(t, want, Format(closeEvent()))

	e := closeEvent()
	e.TradeType = journal.TradeOpen
	e.RealizedPnL = 0
	e.Notes = "a<b"
	got := Format(e)
	assert.NotContains(t, got, "pnl")
	assert.Contains(t, got, "<i>a&lt;b</i>")
}

func TestMultiJournalWithTelegram(t *testing.T) {
	f := &fakeSender{}
	mem := &journal.Memory{}
	j := journal.Multi{mem, NewTelegramWith(f, 7)}

	require.NoError(t, j.RecordEvent(closeEvent()))
	assert.Len(t, mem.Events, 1)
	assert.Len(t, f.msgs, 1)
}
