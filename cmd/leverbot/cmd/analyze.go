package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/leverbot/indicators"
	"github.com/rustyeddy/leverbot/internal/logging"
	"github.com/rustyeddy/leverbot/signal"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one detection pass on current market data",
	Long: `Fetch recent candles, compute indicators, and report how far the newest
candle got through the crossover, MACD and volume stages.

Example:
  leverbot analyze -f leverbot.yaml --rows 5`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

var analyzeRows int

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().IntVar(&analyzeRows, "rows", 3, "number of indicator rows to print")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Pretty, os.Stderr)

	data, err := publicData(cfg, log)
	if err != nil {
		return err
	}
	candles, err := data.GetCandles(cmd.Context(), cfg.Trading.Symbol, cfg.Trading.CandleInterval, cfg.Trading.CandleLimit)
	if err != nil {
		return fmt.Errorf("fetch candles: %w", err)
	}

	sc := cfg.SignalConfig()
	frames := indicators.Compute(candles, sc.Periods)
	ev := signal.NewDetector(sc).Evaluate(candles)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s: %d candles\n\n", cfg.Trading.Symbol, cfg.Trading.CandleInterval, len(candles))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "close\tema_fast\tema_slow\tmacd\tsignal\thist\tvolume\tvol_sma\t")
	start := len(frames) - analyzeRows
	if start < 0 {
		start = 0
	}
	for _, f := range frames[start:] {
		fmt.Fprintf(tw, "%.2f\t%.2f\t%.2f\t%.4f\t%.4f\t%.4f\t%.2f\t%.2f\t\n",
			f.Close, f.EMAFast, f.EMASlow, f.MACD, f.MACDSignal, f.MACDHistogram, f.Volume, f.VolumeSMA)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nstage: %s  cross: %s\n", ev.Stage, ev.Cross)
	if ev.Signal != nil {
		fmt.Fprintf(out, "signal: %s\n", ev.Signal)
	} else if ev.Reason != "" {
		fmt.Fprintf(out, "no signal: %s\n", ev.Reason)
	}
	return nil
}
