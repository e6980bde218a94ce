package recorder

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"MotoTrader/internal/model"
)

// SQLiteRecorder persists cycle reports and trades to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while cycles write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id     TEXT NOT NULL UNIQUE,
			timestamp    INTEGER NOT NULL,
			cash         REAL,
			market_value REAL,
			equity       REAL,
			w_tech       REAL,
			w_macro      REAL,
			w_fund       REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON cycles(timestamp)`,

		`CREATE TABLE IF NOT EXISTS cycle_reports (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id        TEXT NOT NULL,
			timestamp       INTEGER NOT NULL,
			symbol          TEXT NOT NULL,
			tech_signal     INTEGER,
			macro_signal    INTEGER,
			fund_signal     INTEGER,
			w_tech          REAL,
			w_macro         REAL,
			w_fund          REAL,
			combined_score  REAL,
			target_exposure REAL,
			last_price      REAL,
			quantity        INTEGER,
			current_weight  REAL,
			action          TEXT,
			action_qty      INTEGER,
			skipped         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_symbol_ts ON cycle_reports(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			cycle_id  TEXT,
			symbol    TEXT NOT NULL,
			side      TEXT NOT NULL,
			quantity  INTEGER NOT NULL,
			price     REAL NOT NULL,
			source    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(s *model.CycleSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ts := s.StartedAt.Unix()
	if _, err := tx.Exec(`INSERT INTO cycles
		(cycle_id, timestamp, cash, market_value, equity, w_tech, w_macro, w_fund)
		VALUES (?,?,?,?,?,?,?,?)`,
		s.ID, ts, s.Cash, s.MarketValue, s.Equity,
		s.Weights[model.FactorTech], s.Weights[model.FactorMacro], s.Weights[model.FactorFund],
	); err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}

	for _, rep := range s.Reports {
		action, actionQty := "", int64(0)
		if rep.Action != nil {
			action, actionQty = string(rep.Action.Kind), rep.Action.Quantity
		}
		if _, err := tx.Exec(`INSERT INTO cycle_reports
			(cycle_id, timestamp, symbol, tech_signal, macro_signal, fund_signal,
			 w_tech, w_macro, w_fund, combined_score, target_exposure,
			 last_price, quantity, current_weight, action, action_qty, skipped)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			s.ID, ts, rep.Symbol,
			int(rep.Signals.Tech), int(rep.Signals.Macro), int(rep.Signals.Fund),
			rep.Weights[model.FactorTech], rep.Weights[model.FactorMacro], rep.Weights[model.FactorFund],
			rep.CombinedScore, rep.TargetExposure,
			rep.LastPrice, rep.Position.Quantity, rep.CurrentWeight,
			action, actionQty, rep.Skipped,
		); err != nil {
			return fmt.Errorf("insert report %s: %w", rep.Symbol, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordTrade(evt *TradeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO trades
		(timestamp, cycle_id, symbol, side, quantity, price, source)
		VALUES (?,?,?,?,?,?,?)`,
		evt.Time.Unix(), evt.CycleID, evt.Symbol, string(evt.Side),
		evt.Quantity, evt.Price, evt.Source,
	)
	return err
}

// CountRows returns the number of rows in table. Used for diagnostics.
func (r *SQLiteRecorder) CountRows(table string) (int, error) {
	switch table {
	case "cycles", "cycle_reports", "trades":
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
