package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/leverbot/config"
)

var rootCmd = &cobra.Command{
	Use:   "leverbot",
	Short: "Leveraged futures trading bot",
	Long: `Leverbot trades one USDT-margined perpetual contract on an EMA crossover
confirmed by MACD momentum and a volume surge.

Positions are sized so a 1.5% move reaches a fixed dollar profit target,
and closed on that target, a fixed dollar hard stop, or a reverse signal.
By default it runs in simulation against live public market data.`,
	SilenceUsage: true,
}

var cfgFile string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "f", "", "config file (YAML or JSON); defaults plus .env and environment when empty")
}

// loadConfig reads and validates the configuration named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
