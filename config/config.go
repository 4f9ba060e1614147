package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/backtester/analysis"
	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/risk"
)

// Config represents a complete backtest configuration
type Config struct {
	Instrument InstrumentConfig `json:"instrument" yaml:"instrument"`
	Backtest   RunConfig        `json:"backtest" yaml:"backtest"`
	Risk       RiskConfig       `json:"risk" yaml:"risk"`
	Indicators IndicatorConfig  `json:"indicators" yaml:"indicators"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
}

// InstrumentConfig names the traded symbol and where its bars come from
type InstrumentConfig struct {
	Symbol   string `json:"symbol" yaml:"symbol"`
	DataFile string `json:"data_file,omitempty" yaml:"data_file,omitempty"`
}

// RunConfig contains simulation parameters
type RunConfig struct {
	InitialCapital   float64 `json:"initial_capital" yaml:"initial_capital"`
	RiskPerTrade     float64 `json:"risk_per_trade" yaml:"risk_per_trade"`
	StopLossPct      float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	TakeProfitPct    float64 `json:"take_profit_pct" yaml:"take_profit_pct"`
	MaxPositions     int     `json:"max_positions" yaml:"max_positions"`
	MinConfidence    float64 `json:"min_confidence" yaml:"min_confidence"`
	RiskFreeRate     float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
	VaRConfidence    float64 `json:"var_confidence" yaml:"var_confidence"`
	ResetDailyLosses bool    `json:"reset_daily_losses" yaml:"reset_daily_losses"`
	ProgressEvery    int     `json:"progress_every" yaml:"progress_every"`
	Seed             int64   `json:"seed" yaml:"seed"`
}

// RiskConfig contains the risk controller policy
type RiskConfig struct {
	MaxDailyLossPct   float64 `json:"max_daily_loss_pct" yaml:"max_daily_loss_pct"`
	MaxDrawdownPct    float64 `json:"max_drawdown_pct" yaml:"max_drawdown_pct"`
	PositionSizingPct float64 `json:"position_sizing_pct" yaml:"position_sizing_pct"`
	MaxPositionSize   float64 `json:"max_position_size" yaml:"max_position_size"`
	KellyWinRate      float64 `json:"kelly_win_rate" yaml:"kelly_win_rate"`
	KellyWinLossRatio float64 `json:"kelly_win_loss_ratio" yaml:"kelly_win_loss_ratio"`
	KellyFromHistory  bool    `json:"kelly_from_history" yaml:"kelly_from_history"`
	KellyMinTrades    int     `json:"kelly_min_trades" yaml:"kelly_min_trades"`
}

// IndicatorConfig contains analyzer periods and thresholds
type IndicatorConfig struct {
	MinDataPoints    int     `json:"min_data_points" yaml:"min_data_points"`
	RSIPeriod        int     `json:"rsi_period" yaml:"rsi_period"`
	ShortMAPeriod    int     `json:"short_ma_period" yaml:"short_ma_period"`
	LongMAPeriod     int     `json:"long_ma_period" yaml:"long_ma_period"`
	ROCWindow        int     `json:"roc_window" yaml:"roc_window"`
	VolatilityWindow int     `json:"volatility_window" yaml:"volatility_window"`
	VolumeWindow     int     `json:"volume_window" yaml:"volume_window"`
	ATRPeriod        int     `json:"atr_period" yaml:"atr_period"`
	BollingerPeriod  int     `json:"bollinger_period" yaml:"bollinger_period"`
	BollingerK       float64 `json:"bollinger_k" yaml:"bollinger_k"`
	Overbought       float64 `json:"overbought" yaml:"overbought"`
	Oversold         float64 `json:"oversold" yaml:"oversold"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type LoggingConfig struct {
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

// LoadFromFile loads configuration from a YAML or JSON file. Fields the
// file leaves out keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", jerr)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and JSON otherwise
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	b := c.Backtest
	switch {
	case c.Instrument.Symbol == "":
		return fmt.Errorf("instrument.symbol is required")
	case b.InitialCapital <= 0:
		return fmt.Errorf("backtest.initial_capital must be positive")
	case b.StopLossPct <= 0 || b.StopLossPct >= 1:
		return fmt.Errorf("backtest.stop_loss_pct must be between 0 and 1")
	case b.TakeProfitPct <= 0 || b.TakeProfitPct >= 1:
		return fmt.Errorf("backtest.take_profit_pct must be between 0 and 1")
	case b.MaxPositions < 0:
		return fmt.Errorf("backtest.max_positions must not be negative")
	case b.MinConfidence < 0 || b.MinConfidence > 1:
		return fmt.Errorf("backtest.min_confidence must be between 0 and 1")
	case b.VaRConfidence <= 0 || b.VaRConfidence >= 1:
		return fmt.Errorf("backtest.var_confidence must be between 0 and 1")
	case b.RiskPerTrade < 0 || b.RiskPerTrade > 1:
		return fmt.Errorf("backtest.risk_per_trade must be between 0 and 1")
	}

	r := c.Risk
	switch {
	case r.MaxDailyLossPct <= 0:
		return fmt.Errorf("risk.max_daily_loss_pct must be positive")
	case r.MaxDrawdownPct <= 0 || r.MaxDrawdownPct > 100:
		return fmt.Errorf("risk.max_drawdown_pct must be between 0 and 100")
	case r.PositionSizingPct <= 0:
		return fmt.Errorf("risk.position_sizing_pct must be positive")
	case b.RiskPerTrade > 0 && math.Abs(b.RiskPerTrade*100-r.PositionSizingPct) > 1e-9:
		return fmt.Errorf("backtest.risk_per_trade must match risk.position_sizing_pct/100, or be 0")
	case r.MaxPositionSize <= 0:
		return fmt.Errorf("risk.max_position_size must be positive")
	case r.KellyWinRate < 0 || r.KellyWinRate > 1:
		return fmt.Errorf("risk.kelly_win_rate must be between 0 and 1")
	case r.KellyWinLossRatio <= 0:
		return fmt.Errorf("risk.kelly_win_loss_ratio must be positive")
	}

	i := c.Indicators
	switch {
	case i.RSIPeriod < 0 || i.ShortMAPeriod < 0 || i.LongMAPeriod < 0:
		return fmt.Errorf("indicators periods must not be negative")
	case i.ShortMAPeriod > 0 && i.LongMAPeriod > 0 && i.ShortMAPeriod >= i.LongMAPeriod:
		return fmt.Errorf("indicators.short_ma_period must be less than long_ma_period")
	case i.Oversold <= 0 || i.Overbought <= 0 || i.Overbought >= 100:
		return fmt.Errorf("indicators.oversold and overbought must be between 0 and 100")
	case i.Oversold >= i.Overbought:
		return fmt.Errorf("indicators.oversold must be less than overbought")
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	return nil
}

// Default returns a configuration with the stock engine, risk and analyzer
// settings.
func Default() *Config {
	bt := backtest.DefaultConfig()
	rp := risk.DefaultPolicy()
	an := analysis.DefaultConfig()

	return &Config{
		Instrument: InstrumentConfig{Symbol: "SPY"},
		Backtest: RunConfig{
			InitialCapital:   bt.InitialCapital,
			RiskPerTrade:     bt.RiskPerTrade,
			StopLossPct:      bt.StopLossPct,
			TakeProfitPct:    bt.TakeProfitPct,
			MaxPositions:     bt.MaxPositions,
			MinConfidence:    bt.MinConfidence,
			RiskFreeRate:     bt.RiskFreeRate,
			VaRConfidence:    bt.VaRConfidence,
			ResetDailyLosses: bt.ResetDailyLosses,
			ProgressEvery:    bt.ProgressEvery,
			Seed:             bt.Seed,
		},
		Risk: RiskConfig{
			MaxDailyLossPct:   rp.MaxDailyLossPct,
			MaxDrawdownPct:    rp.MaxDrawdownPct,
			PositionSizingPct: rp.PositionSizingPct,
			MaxPositionSize:   rp.MaxPositionSize,
			KellyWinRate:      rp.KellyWinRate,
			KellyWinLossRatio: rp.KellyWinLossRatio,
			KellyFromHistory:  rp.KellyFromHistory,
			KellyMinTrades:    rp.KellyMinTrades,
		},
		Indicators: IndicatorConfig{
			MinDataPoints:    an.MinDataPoints,
			RSIPeriod:        an.RSIPeriod,
			ShortMAPeriod:    an.ShortMAPeriod,
			LongMAPeriod:     an.LongMAPeriod,
			ROCWindow:        an.ROCWindow,
			VolatilityWindow: an.VolatilityWindow,
			VolumeWindow:     an.VolumeWindow,
			ATRPeriod:        an.ATRPeriod,
			BollingerPeriod:  an.BollingerPeriod,
			BollingerK:       an.BollingerK,
			Overbought:       an.Overbought,
			Oversold:         an.Oversold,
		},
		Journal: JournalConfig{Type: "none"},
		Logging: LoggingConfig{Level: "info"},
	}
}

func (c *Config) BacktestConfig() backtest.Config {
	b := c.Backtest
	return backtest.Config{
		InitialCapital:   b.InitialCapital,
		RiskPerTrade:     b.RiskPerTrade,
		StopLossPct:      b.StopLossPct,
		TakeProfitPct:    b.TakeProfitPct,
		MaxPositions:     b.MaxPositions,
		MinConfidence:    b.MinConfidence,
		RiskFreeRate:     b.RiskFreeRate,
		VaRConfidence:    b.VaRConfidence,
		ResetDailyLosses: b.ResetDailyLosses,
		ProgressEvery:    b.ProgressEvery,
		Seed:             b.Seed,
	}
}

func (c *Config) RiskPolicy() risk.Policy {
	r := c.Risk
	return risk.Policy{
		MaxDailyLossPct:   r.MaxDailyLossPct,
		MaxDrawdownPct:    r.MaxDrawdownPct,
		PositionSizingPct: r.PositionSizingPct,
		MaxPositionSize:   r.MaxPositionSize,
		KellyWinRate:      r.KellyWinRate,
		KellyWinLossRatio: r.KellyWinLossRatio,
		KellyFromHistory:  r.KellyFromHistory,
		KellyMinTrades:    r.KellyMinTrades,
	}
}

// AnalyzerConfig returns the indicator settings; zero fields fall back to
// the analyzer defaults when the analyzer is built.
func (c *Config) AnalyzerConfig() analysis.Config {
	i := c.Indicators
	return analysis.Config{
		MinDataPoints:    i.MinDataPoints,
		RSIPeriod:        i.RSIPeriod,
		ShortMAPeriod:    i.ShortMAPeriod,
		LongMAPeriod:     i.LongMAPeriod,
		ROCWindow:        i.ROCWindow,
		VolatilityWindow: i.VolatilityWindow,
		VolumeWindow:     i.VolumeWindow,
		ATRPeriod:        i.ATRPeriod,
		BollingerPeriod:  i.BollingerPeriod,
		BollingerK:       i.BollingerK,
		Overbought:       i.Overbought,
		Oversold:         i.Oversold,
	}
}
