package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/leverbot/broker"
	"github.com/rustyeddy/leverbot/broker/binance"
	"github.com/rustyeddy/leverbot/broker/gateio"
	"github.com/rustyeddy/leverbot/config"
	"github.com/rustyeddy/leverbot/journal"
	"github.com/rustyeddy/leverbot/notify"
	"github.com/rustyeddy/leverbot/sim"
	"github.com/rustyeddy/leverbot/strategy"
)

// publicData returns a connector for market data only. Simulation always
// reads the production feed, as testnet prices are not representative.
func publicData(cfg *config.Config, log zerolog.Logger) (broker.Exchange, error) {
	timeout, err := cfg.Exchange.RequestTimeout()
	if err != nil {
		return nil, err
	}
	switch cfg.Exchange.Name {
	case "gateio":
		return gateio.NewClient(gateio.Config{
			ContractSize: cfg.Exchange.ContractSize,
			Timeout:      timeout,
		}, gateio.WithLogger(log)), nil
	case "binance":
		return binance.NewClient(binance.Config{}, binance.WithLogger(log)), nil
	}
	return nil, fmt.Errorf("unknown exchange %q", cfg.Exchange.Name)
}

// buildExchange picks the simulated or live connector. Nothing past this
// point knows which one it got.
func buildExchange(cfg *config.Config, log zerolog.Logger) (broker.Exchange, string, error) {
	if !cfg.Exchange.Live() {
		data, err := publicData(cfg, log)
		if err != nil {
			return nil, "", err
		}
		opts := []sim.Option{sim.WithLogger(log)}
		if cfg.Exchange.FallbackPrice > 0 {
			opts = append(opts, sim.WithFallbackPrice(cfg.Exchange.FallbackPrice))
		}
		return sim.NewEngine(data, cfg.Trading.InitialBalance, cfg.Trading.Leverage, opts...), "simulation", nil
	}

	timeout, err := cfg.Exchange.RequestTimeout()
	if err != nil {
		return nil, "", err
	}
	mode := "live"
	if cfg.Exchange.Testnet {
		mode = "live-testnet"
	}
	switch cfg.Exchange.Name {
	case "gateio":
		return gateio.NewClient(gateio.Config{
			APIKey:       cfg.Exchange.APIKey,
			APISecret:    cfg.Exchange.APISecret,
			Testnet:      cfg.Exchange.Testnet,
			ContractSize: cfg.Exchange.ContractSize,
			Timeout:      timeout,
		}, gateio.WithLogger(log)), mode, nil
	case "binance":
		return binance.NewClient(binance.Config{
			APIKey:    cfg.Exchange.APIKey,
			APISecret: cfg.Exchange.APISecret,
			Testnet:   cfg.Exchange.Testnet,
		}, binance.WithLogger(log)), mode, nil
	}
	return nil, "", fmt.Errorf("unknown exchange %q", cfg.Exchange.Name)
}

// openJournal builds the configured audit sinks. The SQLite store is also
// returned so the status server can query it; it is nil for other types.
func openJournal(cfg *config.Config, log zerolog.Logger) (journal.Journal, *journal.SQLite, error) {
	var (
		sinks journal.Multi
		store *journal.SQLite
	)
	switch cfg.Journal.Type {
	case "csv":
		j, err := journal.NewCSV(cfg.Journal.CSVPath)
		if err != nil {
			return nil, nil, fmt.Errorf("create journal: %w", err)
		}
		sinks = append(sinks, j)
	case "sqlite":
		j, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("create journal: %w", err)
		}
		sinks = append(sinks, j)
		store = j
	}

	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, notify.WithLogger(log))
		if err != nil {
			_ = sinks.Close()
			return nil, nil, err
		}
		sinks = append(sinks, tg)
	}

	switch len(sinks) {
	case 0:
		return journal.Nop{}, nil, nil
	case 1:
		return sinks[0], store, nil
	}
	return sinks, store, nil
}

// syncPosition adopts a position already held on the exchange, booked at
// the exchange's entry price.
func syncPosition(ctx context.Context, orch *strategy.Orchestrator, log zerolog.Logger) error {
	events, err := orch.Sync(ctx, 0)
	if err != nil {
		return fmt.Errorf("sync position: %w", err)
	}
	if len(events) > 0 {
		pos := orch.Ledger().Position()
		log.Warn().
			Str("side", pos.Side.String()).
			Float64("size", pos.Size).
			Float64("entry", pos.EntryPrice).
			Msg("adopted open position from exchange")
	}
	return nil
}
