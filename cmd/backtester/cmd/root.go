package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "Replay price history through a signal analyzer and risk controller",
	Long: `Backtester simulates a rule based strategy over historical OHLCV bars.

Each bar is analyzed with moving averages, RSI, volatility and volume
indicators. Actionable signals are sized and vetted by a risk controller,
then opened at the next bar and closed on stop loss or take profit.

Results are printed as tables and can be written to JSON, Excel, CSV or a
SQLite journal for later queries.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = logger.Sync()
	},
}

var (
	cfgFile  string
	envFile  string
	logLevel string

	cfg    *config.Config
	logger = zap.NewNop()
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "env file with BACKTESTER_* overrides")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// setup loads, in order: the env file, the config file or defaults, then
// BACKTESTER_* overrides. Command flags are applied later by each command.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnv(envFile); err != nil {
		return err
	}

	if cfgFile != "" {
		c, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return err
		}
		cfg = c
	} else {
		cfg = config.Default()
	}
	if err := cfg.ApplyEnv(); err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	l, err := logging.New(level, cfg.Logging.Development)
	if err != nil {
		return err
	}
	logger = l
	return nil
}
