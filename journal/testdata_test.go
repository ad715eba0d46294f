package journal

import (
	"time"

	"github.com/rustyeddy/leverbot/market"
)

func openEvent() Event {
	return Event{
		Time:               time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		OrderID:            "sim_01HQ0000000000000000000001",
		Symbol:             "BTC_USDT",
		Side:               market.Buy,
		Size:               0.1,
		Price:              50000,
		OrderType:          "market",
		PositionSizeBefore: 0,
		PositionSizeAfter:  0.1,
		EntryPrice:         50000,
		BalanceBefore:      10000,
		BalanceAfter:       10000,
		Leverage:           3,
		TradeType:          TradeOpen,
	}
}

func closeEvent() Event {
	return Event{
		Time:               time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		OrderID:            "sim_01HQ0000000000000000000002",
		Symbol:             "BTC_USDT",
		Side:               market.Sell,
		Size:               0.1,
		Price:              51000,
		OrderType:          "market",
		PositionSizeBefore: 0.1,
		PositionSizeAfter:  0,
		EntryPrice:         50000,
		ExitPrice:          51000,
		RealizedPnL:        300,
		BalanceBefore:      10000,
		BalanceAfter:       10300,
		Leverage:           3,
		TradeType:          TradeClose,
		Notes:              "take profit",
	}
}
