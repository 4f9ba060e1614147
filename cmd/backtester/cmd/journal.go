package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the backtest journal",
	Long: `Query and display backtest runs stored in a SQLite journal.

Subcommands:
  runs    - List stored runs, newest first
  trades  - List the closed trades of a run
  org     - Export a run summary and its trades as Org mode

Examples:
  backtester journal runs
  backtester journal trades <run-id>
  backtester journal org <run-id> -o run.org`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades <run-id>",
	Short: "List the trades of a run in Org format",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrades,
}

var journalOrgCmd = &cobra.Command{
	Use:   "org <run-id>",
	Short: "Export a run as an Org document",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalOrg,
}

var (
	journalDBPath string
	journalOrgOut string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalTradesCmd)
	journalCmd.AddCommand(journalOrgCmd)

	journalCmd.PersistentFlags().StringVar(&journalDBPath, "db", "", "path to SQLite journal DB (default journal.db_path)")
	journalOrgCmd.Flags().StringVarP(&journalOrgOut, "output", "o", "", "write to file instead of stdout")
}

func openSQLite() (*journal.SQLite, error) {
	path := journalDBPath
	if path == "" {
		path = cfg.Journal.DBPath
	}
	if path == "" {
		return nil, fmt.Errorf("no journal DB: use --db or journal.db_path")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	j, err := journal.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns(ctxOf(cmd))
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Run", "Created", "Instrument", "Dataset", "Bars", "Trades", "Net P/L", "Return %", "Max DD %"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.RunID,
			r.Created.Format("2006-01-02 15:04"),
			r.Instrument,
			r.Dataset,
			r.Bars,
			r.Trades,
			fmt.Sprintf("%.2f", r.NetPL),
			fmt.Sprintf("%.2f", r.ReturnPct),
			fmt.Sprintf("%.2f", r.MaxDDPct),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := ctxOf(cmd)
	if _, err := j.GetRun(ctx, args[0]); err != nil {
		return err
	}
	recs, err := j.ListTradesByRunID(ctx, args[0])
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(recs))
	return nil
}

func runJournalOrg(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	org, err := j.ExportRunOrg(ctxOf(cmd), args[0])
	if err != nil {
		return err
	}
	if journalOrgOut == "" {
		fmt.Fprint(cmd.OutOrStdout(), org)
		return nil
	}
	if err := os.WriteFile(journalOrgOut, []byte(org), 0644); err != nil {
		return fmt.Errorf("write org: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", journalOrgOut)
	return nil
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
