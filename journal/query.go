package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("journal: not found")

type scanner interface {
	Scan(dest ...any) error
}

const runColumns = `run_id, created, instrument, dataset, strategy, config, start_time, end_time, bars,
	trades, wins, losses, open_positions, rejected, start_balance, end_balance,
	net_pl, return_pct, win_rate, profit_factor, max_dd_pct, sharpe, sortino, var, es`

func scanRun(s scanner) (RunRecord, error) {
	var (
		r       RunRecord
		config  string
		pf, sor sql.NullFloat64
	)
	err := s.Scan(
		&r.RunID, &r.Created, &r.Instrument, &r.Dataset, &r.Strategy, &config,
		&r.Start, &r.End, &r.Bars,
		&r.Trades, &r.Wins, &r.Losses, &r.OpenPositions, &r.Rejected,
		&r.StartBalance, &r.EndBalance,
		&r.NetPL, &r.ReturnPct, &r.WinRate, &pf, &r.MaxDDPct, &r.Sharpe, &sor, &r.VaR, &r.ES,
	)
	if err != nil {
		return RunRecord{}, err
	}
	r.Config = []byte(config)
	r.ProfitFactor = infNull(pf)
	r.Sortino = infNull(sor)
	return r, nil
}

const tradeColumns = `run_id, trade_id, instrument, side, size, entry_price, exit_price, open_time, close_time,
	realized_pl, return_pct, reason, confidence`

func scanTrade(s scanner) (TradeRecord, error) {
	var rec TradeRecord
	err := s.Scan(
		&rec.RunID,
		&rec.TradeID,
		&rec.Instrument,
		&rec.Side,
		&rec.Size,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.OpenTime,
		&rec.CloseTime,
		&rec.RealizedPL,
		&rec.ReturnPct,
		&rec.Reason,
		&rec.Confidence,
	)
	return rec, err
}

func (j *SQLite) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("run %q %w", runID, ErrNotFound)
	}
	return r, err
}

// ListRuns returns every run, newest first.
func (j *SQLite) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created DESC, run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTrade returns a single trade record of a run.
func (j *SQLite) GetTrade(ctx context.Context, runID, tradeID string) (TradeRecord, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE run_id = ? AND trade_id = ?`, runID, tradeID)

	rec, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TradeRecord{}, fmt.Errorf("trade %q %w", tradeID, ErrNotFound)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesByRunID returns the trades of a run in close order.
func (j *SQLite) ListTradesByRunID(ctx context.Context, runID string) ([]TradeRecord, error) {
	return j.queryTrades(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE run_id = ?
		ORDER BY close_time ASC, rowid ASC`, runID)
}

// ListTradesClosedBetween returns trades of any run whose close_time is
// within [start, end).
func (j *SQLite) ListTradesClosedBetween(ctx context.Context, start, end time.Time) ([]TradeRecord, error) {
	return j.queryTrades(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC, rowid ASC`, start, end)
}

func (j *SQLite) queryTrades(ctx context.Context, q string, args ...any) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLite) ListEquityByRunID(ctx context.Context, runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, bar, time, equity, drawdown
		FROM equity
		WHERE run_id = ?
		ORDER BY bar ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(&e.RunID, &e.Bar, &e.Time, &e.Equity, &e.Drawdown); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ExportRunOrg loads a run and its trades and renders the Org summary.
func (j *SQLite) ExportRunOrg(ctx context.Context, runID string) (string, error) {
	run, err := j.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRunID(ctx, runID)
	if err != nil {
		return "", err
	}
	return FormatRunOrg(run, trades)
}
