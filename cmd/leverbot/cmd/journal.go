package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/leverbot/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the SQLite audit journal",
	Long: `Query and display journaled ledger events.

Examples:
  leverbot journal list --symbol BTC_USDT --since 2024-05-01
  leverbot journal show sim_01HXZ3Q8Y4N7`,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events with a realized P&L summary",
	Args:  cobra.NoArgs,
	RunE:  runJournalList,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <order-id>",
	Short: "Show the events of one order",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var (
	journalDBPath string
	journalSymbol string
	journalSince  string
	journalLimit  int
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalShowCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "data/leverbot.sqlite", "path to SQLite journal DB")
	journalListCmd.Flags().StringVar(&journalSymbol, "symbol", "", "only this symbol")
	journalListCmd.Flags().StringVar(&journalSince, "since", "", "only events on or after YYYY-MM-DD (local time)")
	journalListCmd.Flags().IntVar(&journalLimit, "limit", 0, "maximum number of events")
}

func runJournalList(cmd *cobra.Command, args []string) error {
	f := journal.Filter{Symbol: journalSymbol, Limit: journalLimit}
	if journalSince != "" {
		t, err := time.ParseInLocation("2006-01-02", journalSince, time.Local)
		if err != nil {
			return fmt.Errorf("since: %w", err)
		}
		f.Since = t
	}

	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	events, err := j.ListEvents(f)
	if err != nil {
		return fmt.Errorf("query events: %w", err)
	}

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTYPE\tSYMBOL\tSIDE\tSIZE\tPRICE\tPNL\tBALANCE\tORDER")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.8f\t%.2f\t%.2f\t%.2f\t%s\n",
			e.Time.Local().Format(journal.TimeLayout), e.TradeType, e.Symbol, e.Side,
			e.Size, e.Price, e.RealizedPnL, e.BalanceAfter, e.OrderID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := journal.Summarize(events)
	fmt.Fprintf(out, "\n%d events, %d closes, %d wins / %d losses, net %.2f, profit factor %.2f\n",
		s.Events, s.Closes, s.Wins, s.Losses, s.NetPnL, s.ProfitFactor())
	return nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	events, err := j.GetEvents(args[0])
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatEventsOrg(events))
	return nil
}
