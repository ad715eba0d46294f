// Package metrics holds the Prometheus collectors updated by the bot.
//
//   - leverbot_orders_total{side,result}     orders sent to the exchange (result: filled|rejected|unfilled)
//   - leverbot_signals_total{direction}      confirmed entry signals (long|short)
//   - leverbot_cycles_total{action}          evaluation cycles by outcome (none|open|close|skip|error)
//   - leverbot_exits_total{reason}           position exits (hard_stop|take_profit|reverse_signal)
//   - leverbot_balance_usd                   ledger balance
//   - leverbot_unrealized_pnl_usd            mark-to-market P&L of the open position
//   - leverbot_fallback_price_total          cycles priced from the configured fallback price
//   - leverbot_journal_errors_total          audit sink write failures
//
// Collectors are registered with the default registry in init() and served
// at /metrics by the status server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leverbot_orders_total",
			Help: "Orders sent to the exchange",
		},
		[]string{"side", "result"},
	)

	Signals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leverbot_signals_total",
			Help: "Confirmed entry signals",
		},
		[]string{"direction"},
	)

	Cycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leverbot_cycles_total",
			Help: "Evaluation cycles by outcome",
		},
		[]string{"action"},
	)

	Exits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leverbot_exits_total",
			Help: "Position exits by reason",
		},
		[]string{"reason"},
	)

	Balance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "leverbot_balance_usd",
			Help: "Ledger balance in USD",
		},
	)

	UnrealizedPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "leverbot_unrealized_pnl_usd",
			Help: "Unrealized P&L of the open position in USD",
		},
	)

	FallbackPrice = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leverbot_fallback_price_total",
			Help: "Times the simulated exchange priced from the configured fallback",
		},
	)

	JournalErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leverbot_journal_errors_total",
			Help: "Audit journal write failures",
		},
	)
)

func init() {
	prometheus.MustRegister(Orders, Signals, Cycles, Exits)
	prometheus.MustRegister(Balance, UnrealizedPnL)
	prometheus.MustRegister(FallbackPrice, JournalErrors)
}

func IncOrder(side, result string) { Orders.WithLabelValues(side, result).Inc() }
func IncSignal(direction string)   { Signals.WithLabelValues(direction).Inc() }
func IncCycle(action string)       { Cycles.WithLabelValues(action).Inc() }
func IncExit(reason string)        { Exits.WithLabelValues(reason).Inc() }
func SetBalance(v float64)         { Balance.Set(v) }
func SetUnrealizedPnL(v float64)   { UnrealizedPnL.Set(v) }
func IncFallbackPrice()            { FallbackPrice.Inc() }
func IncJournalError()             { JournalErrors.Inc() }
