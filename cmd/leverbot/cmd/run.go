package cmd

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/leverbot/bot"
	"github.com/rustyeddy/leverbot/internal/logging"
	"github.com/rustyeddy/leverbot/ledger"
	"github.com/rustyeddy/leverbot/risk"
	"github.com/rustyeddy/leverbot/signal"
	"github.com/rustyeddy/leverbot/status"
	"github.com/rustyeddy/leverbot/strategy"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading loop until interrupted",
	Long: `Validate the configuration, connect to the exchange (or the simulator),
and evaluate the market every check_interval until SIGINT or SIGTERM.

Example:
  leverbot run -f leverbot.yaml`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Pretty, os.Stderr)

	ctx, stop := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	j, store, err := openJournal(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := j.Close(); err != nil {
			log.Error().Err(err).Msg("close journal")
		}
	}()

	ex, mode, err := buildExchange(cfg, log)
	if err != nil {
		return err
	}

	model, err := risk.New(cfg.RiskParams())
	if err != nil {
		return err
	}

	balance := cfg.Trading.InitialBalance
	if cfg.Exchange.Live() {
		acct, err := ex.GetAccount(ctx)
		if err != nil {
			return fmt.Errorf("fetch account: %w", err)
		}
		if acct.Total > 0 {
			balance = acct.Total
		}
	}

	led := ledger.New(cfg.Trading.Symbol, balance, cfg.Trading.Leverage,
		ledger.WithJournal(j), ledger.WithLogger(log))
	orch := strategy.New(ex, signal.NewDetector(cfg.SignalConfig()), model, led, strategy.WithLogger(log))
	if err := syncPosition(ctx, orch, log); err != nil {
		return err
	}

	if cfg.Status.Addr != "" {
		opts := []status.Option{status.WithLogger(log), status.WithPlans(orch)}
		if store != nil {
			opts = append(opts, status.WithEvents(store))
		}
		srv := status.New(cfg.Status.Addr, led, opts...)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	every, err := cfg.Trading.CheckEvery()
	if err != nil {
		return err
	}
	runner := bot.New(bot.Config{
		Mode:     mode,
		Symbol:   cfg.Trading.Symbol,
		Interval: cfg.Trading.CandleInterval,
		Limit:    cfg.Trading.CandleLimit,
		Every:    every,
	}, ex, orch, bot.WithLogger(log))

	return runner.Run(ctx)
}
