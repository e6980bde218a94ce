package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"MotoTrader/internal/model"
)

// SQLiteStore keeps portfolios for one or more accounts in SQLite.
// Each Save runs in a single transaction.
type SQLiteStore struct {
	db           *sql.DB
	account      string
	startingCash float64
	log          zerolog.Logger
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath, account string, startingCash float64, log zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, account: account, startingCash: startingCash, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Str("account", account).Msg("sqlite ledger store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			account    TEXT PRIMARY KEY,
			cash       TEXT NOT NULL, -- exact decimal
			updated_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS positions (
			account      TEXT NOT NULL,
			symbol       TEXT NOT NULL,
			quantity     INTEGER NOT NULL,
			average_cost REAL NOT NULL,
			PRIMARY KEY (account, symbol)
		)`,

		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			account  TEXT NOT NULL,
			seq      INTEGER NOT NULL,
			time     TEXT NOT NULL,
			symbol   TEXT NOT NULL,
			side     TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			price    REAL NOT NULL,
			reason   TEXT NOT NULL DEFAULT '',
			UNIQUE (account, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_account_seq ON ledger_entries(account, seq)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (model.Portfolio, error) {
	var cash decimal.Decimal
	err := s.db.QueryRowContext(ctx,
		`SELECT cash FROM accounts WHERE account = ?`, s.account).Scan(&cash)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewPortfolio(s.startingCash), nil
	}
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("load account: %w", err)
	}

	p := model.NewPortfolio(0)
	p.Cash = cash

	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, quantity, average_cost FROM positions WHERE account = ?`, s.account)
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("load positions: %w", err)
	}
	for rows.Next() {
		var sym string
		var pos model.Position
		if err := rows.Scan(&sym, &pos.Quantity, &pos.AverageCost); err != nil {
			rows.Close()
			return model.Portfolio{}, fmt.Errorf("scan position: %w", err)
		}
		p.Positions[sym] = pos
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return model.Portfolio{}, fmt.Errorf("load positions: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT time, symbol, side, quantity, price, reason
		 FROM ledger_entries WHERE account = ? ORDER BY seq`, s.account)
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			ts   string
			side string
			e    model.LedgerEntry
		)
		if err := rows.Scan(&ts, &e.Symbol, &side, &e.Quantity, &e.Price, &e.Reason); err != nil {
			return model.Portfolio{}, fmt.Errorf("scan entry: %w", err)
		}
		e.Side = model.Side(side)
		if e.Time, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return model.Portfolio{}, fmt.Errorf("parse entry time %q: %w", ts, err)
		}
		p.History = append(p.History, e)
	}
	if err := rows.Err(); err != nil {
		return model.Portfolio{}, fmt.Errorf("load history: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) Save(ctx context.Context, p model.Portfolio) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (account, cash, updated_at) VALUES (?,?,?)
		 ON CONFLICT(account) DO UPDATE SET cash = excluded.cash, updated_at = excluded.updated_at`,
		s.account, p.Cash.String(), time.Now().Unix()); err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM positions WHERE account = ?`, s.account); err != nil {
		return fmt.Errorf("clear positions: %w", err)
	}
	for sym, pos := range p.Positions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO positions (account, symbol, quantity, average_cost) VALUES (?,?,?,?)`,
			s.account, sym, pos.Quantity, pos.AverageCost); err != nil {
			return fmt.Errorf("insert position %s: %w", sym, err)
		}
	}

	var stored int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entries WHERE account = ?`, s.account).Scan(&stored); err != nil {
		return fmt.Errorf("count history: %w", err)
	}
	if len(p.History) < stored {
		return ErrHistoryRewritten
	}
	for i := stored; i < len(p.History); i++ {
		e := p.History[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ledger_entries (account, seq, time, symbol, side, quantity, price, reason)
			 VALUES (?,?,?,?,?,?,?,?)`,
			s.account, i, e.Time.UTC().Format(time.RFC3339Nano), e.Symbol, string(e.Side),
			e.Quantity, e.Price, e.Reason); err != nil {
			return fmt.Errorf("insert entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.log.Info().Msg("closing sqlite ledger store")
	return s.db.Close()
}
