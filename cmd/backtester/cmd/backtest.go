package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/analysis"
	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/internal/id"
	"github.com/rustyeddy/backtester/internal/monitoring"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/report"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a backtest over a CSV file of bars",
	Long: `Backtest loads OHLCV bars from a CSV file, runs the MA/RSI analyzer over
every bar and simulates the approved signals.

The CSV needs a header row with time, close and volume columns; high and
low are required for stop and target checks.

Example:
  backtester backtest --data data/spy.csv --instrument SPY --journal sqlite --db runs.sqlite`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

var (
	btDataPath    string
	btInstrument  string
	btJournal     string
	btDBPath      string
	btTradesCSV   string
	btEquityCSV   string
	btXLSXPath    string
	btJSONPath    string
	btMetricsFile string
	btShowTrades  int

	btCapital       float64
	btMinConfidence float64
	btMaxPositions  int
	btStopLoss      float64
	btTakeProfit    float64
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	f := backtestCmd.Flags()
	f.StringVarP(&btDataPath, "data", "d", "", "path to bar CSV (time,open,high,low,close,volume)")
	f.StringVarP(&btInstrument, "instrument", "i", "", "instrument symbol")
	f.StringVarP(&btJournal, "journal", "j", "", "journal type: none, csv or sqlite")
	f.StringVar(&btDBPath, "db", "", "path to SQLite journal DB")
	f.StringVar(&btTradesCSV, "trades-csv", "", "CSV journal trades file")
	f.StringVar(&btEquityCSV, "equity-csv", "", "CSV journal equity file")
	f.StringVar(&btXLSXPath, "xlsx", "", "write an Excel report to this path")
	f.StringVar(&btJSONPath, "json", "", "write the JSON report to this path")
	f.StringVar(&btMetricsFile, "metrics-file", "", "write Prometheus metrics in textfile format")
	f.IntVar(&btShowTrades, "show-trades", 10, "print the last n trades (-1 for all)")

	f.Float64Var(&btCapital, "capital", 0, "initial capital")
	f.Float64Var(&btMinConfidence, "min-confidence", 0, "minimum signal confidence to trade")
	f.IntVar(&btMaxPositions, "max-positions", 0, "maximum concurrent open positions")
	f.Float64Var(&btStopLoss, "stop-loss", 0, "stop loss as a fraction of entry (0.02 = 2%)")
	f.Float64Var(&btTakeProfit, "take-profit", 0, "take profit as a fraction of entry (0.03 = 3%)")
}

// applyBacktestFlags copies the flags the user set onto the loaded config.
func applyBacktestFlags(cmd *cobra.Command) error {
	f := cmd.Flags()
	set := func(name string, apply func()) {
		if f.Changed(name) {
			apply()
		}
	}
	set("data", func() { cfg.Instrument.DataFile = btDataPath })
	set("instrument", func() { cfg.Instrument.Symbol = btInstrument })
	set("journal", func() { cfg.Journal.Type = btJournal })
	set("db", func() { cfg.Journal.DBPath = btDBPath })
	set("trades-csv", func() { cfg.Journal.TradesFile = btTradesCSV })
	set("equity-csv", func() { cfg.Journal.EquityFile = btEquityCSV })
	set("capital", func() { cfg.Backtest.InitialCapital = btCapital })
	set("min-confidence", func() { cfg.Backtest.MinConfidence = btMinConfidence })
	set("max-positions", func() { cfg.Backtest.MaxPositions = btMaxPositions })
	set("stop-loss", func() { cfg.Backtest.StopLossPct = btStopLoss })
	set("take-profit", func() { cfg.Backtest.TakeProfitPct = btTakeProfit })

	if cfg.Instrument.DataFile == "" {
		return errors.New("no data file: use --data or instrument.data_file")
	}
	return cfg.Validate()
}

func openJournal() (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "csv":
		return journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	}
	return journal.Nop{}, nil
}

func runBacktest(cmd *cobra.Command, args []string) error {
	if err := applyBacktestFlags(cmd); err != nil {
		return err
	}

	bars, err := market.LoadCSV(cfg.Instrument.DataFile)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}

	symbol := cfg.Instrument.Symbol
	log := logger.With(zap.String("instrument", symbol))
	metrics := monitoring.NewMetrics(symbol)

	analyzer := analysis.New(cfg.AnalyzerConfig(), analysis.WithLogger(log))
	engine := backtest.New(cfg.BacktestConfig(), cfg.RiskPolicy(), analyzer,
		backtest.WithLogger(log),
		backtest.WithObserver(backtest.Observers(monitoring.NewLogObserver(log), metrics)),
	)

	rep, err := engine.Run(bars)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	out := cmd.OutOrStdout()
	title := fmt.Sprintf("BACKTEST %s (%s)", symbol, filepath.Base(cfg.Instrument.DataFile))
	if err := report.WriteConsole(out, rep, report.ConsoleOptions{Title: title, MaxTrades: btShowTrades}); err != nil {
		return err
	}

	if btJSONPath != "" {
		if err := writeJSONReport(btJSONPath, rep); err != nil {
			return err
		}
		fmt.Fprintf(out, "JSON report: %s\n", btJSONPath)
	}
	if btXLSXPath != "" {
		if err := report.WriteXLSX(btXLSXPath, rep); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
		fmt.Fprintf(out, "Excel report: %s\n", btXLSXPath)
	}
	if btMetricsFile != "" {
		if err := metrics.WriteTextfile(btMetricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		fmt.Fprintf(out, "Metrics: %s\n", btMetricsFile)
	}

	if cfg.Journal.Type == "" || cfg.Journal.Type == "none" {
		return nil
	}
	return saveRun(cmd, rep, bars)
}

func writeJSONReport(path string, rep *backtest.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	if err := report.WriteJSON(f, rep); err != nil {
		_ = f.Close()
		return fmt.Errorf("write json: %w", err)
	}
	return f.Close()
}

func saveRun(cmd *cobra.Command, rep *backtest.Report, bars market.Series) error {
	j, err := openJournal()
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	info := journal.RunInfo{
		RunID:      id.New(),
		Created:    time.Now().UTC(),
		Instrument: cfg.Instrument.Symbol,
		Dataset:    filepath.Base(cfg.Instrument.DataFile),
		Strategy:   "ma-rsi",
		Config:     raw,
	}
	if err := journal.Save(ctxOf(cmd), j, journal.FromReport(info, rep, bars)); err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Journal (%s): run %s\n", cfg.Journal.Type, info.RunID)
	return nil
}
