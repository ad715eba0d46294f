package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/leverbot/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage configuration files.

Examples:
  leverbot config init -o leverbot.yaml
  leverbot config validate -f leverbot.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file with environment overrides applied",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var configInitOutput string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "leverbot.yaml", "output config file path")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created default configuration: %s\n", configInitOutput)
	fmt.Fprintf(out, "\nEdit the file and run with:\n  leverbot run -f %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	mode := "simulation"
	if cfg.Exchange.Live() {
		mode = "live"
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration valid: %s\n", cfgFile)
	fmt.Fprintf(out, "  Exchange: %s (%s, testnet=%v)\n", cfg.Exchange.Name, mode, cfg.Exchange.Testnet)
	fmt.Fprintf(out, "  Trading: %s at %dx, balance $%.2f\n", cfg.Trading.Symbol, cfg.Trading.Leverage, cfg.Trading.InitialBalance)
	fmt.Fprintf(out, "  Targets: +$%.2f / -$%.2f\n", cfg.Trading.ProfitTargetUSD, cfg.Trading.HardStopLossUSD)
	fmt.Fprintf(out, "  Journal: %s\n", cfg.Journal.Type)
	return nil
}
