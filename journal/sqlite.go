package journal

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// nullInf stores infinite ratios as NULL.
func nullInf(v float64) sql.NullFloat64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func infNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.Inf(1)
	}
	return v.Float64
}

func insertRun(ctx context.Context, x execer, r RunRecord) error {
	config := string(r.Config)
	if config == "" {
		config = "{}"
	}
	_, err := x.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, instrument, dataset, strategy, config, start_time, end_time, bars,
		 trades, wins, losses, open_positions, rejected, start_balance, end_balance,
		 net_pl, return_pct, win_rate, profit_factor, max_dd_pct, sharpe, sortino, var, es)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Instrument, r.Dataset, r.Strategy, config, r.Start, r.End, r.Bars,
		r.Trades, r.Wins, r.Losses, r.OpenPositions, r.Rejected, r.StartBalance, r.EndBalance,
		r.NetPL, r.ReturnPct, r.WinRate, nullInf(r.ProfitFactor), r.MaxDDPct, r.Sharpe,
		nullInf(r.Sortino), r.VaR, r.ES,
	)
	return err
}

func insertTrade(ctx context.Context, x execer, t TradeRecord) error {
	_, err := x.ExecContext(ctx, `
		INSERT INTO trades
		(run_id, trade_id, instrument, side, size, entry_price, exit_price, open_time, close_time,
		 realized_pl, return_pct, reason, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.TradeID, t.Instrument, t.Side, t.Size, t.EntryPrice, t.ExitPrice,
		t.OpenTime, t.CloseTime, t.RealizedPL, t.ReturnPct, t.Reason, t.Confidence,
	)
	return err
}

func insertEquity(ctx context.Context, x execer, e EquitySnapshot) error {
	_, err := x.ExecContext(ctx, `
		INSERT INTO equity (run_id, bar, time, equity, drawdown)
		VALUES (?, ?, ?, ?, ?)`,
		e.RunID, e.Bar, e.Time, e.Equity, e.Drawdown,
	)
	return err
}

func (j *SQLite) RecordRun(r RunRecord) error {
	return insertRun(context.Background(), j.db, r)
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	return insertTrade(context.Background(), j.db, t)
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	return insertEquity(context.Background(), j.db, e)
}

// Save writes a whole run in one transaction.
func (j *SQLite) Save(ctx context.Context, r Records) (err error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertRun(ctx, tx, r.Run); err != nil {
		return fmt.Errorf("record run %s: %w", r.Run.RunID, err)
	}
	for _, t := range r.Trades {
		if err = insertTrade(ctx, tx, t); err != nil {
			return fmt.Errorf("record trade %s: %w", t.TradeID, err)
		}
	}
	for _, e := range r.Equity {
		if err = insertEquity(ctx, tx, e); err != nil {
			return fmt.Errorf("record equity bar %d: %w", e.Bar, err)
		}
	}
	return tx.Commit()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
