package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const envPrefix = "BACKTESTER_"

// LoadEnv loads a .env file into the process environment. A missing file
// is not an error. Variables already set are left alone.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides c from BACKTESTER_* variables.
func (c *Config) ApplyEnv() error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	float := func(name string, dst *float64) error {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok || v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = f
		return nil
	}
	integer := func(name string, dst *int) error {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("INSTRUMENT", &c.Instrument.Symbol)
	str("DATA_FILE", &c.Instrument.DataFile)
	str("JOURNAL", &c.Journal.Type)
	str("DB_PATH", &c.Journal.DBPath)
	str("LOG_LEVEL", &c.Logging.Level)

	if err := float("INITIAL_CAPITAL", &c.Backtest.InitialCapital); err != nil {
		return err
	}
	if err := float("MIN_CONFIDENCE", &c.Backtest.MinConfidence); err != nil {
		return err
	}
	return integer("MAX_POSITIONS", &c.Backtest.MaxPositions)
}
