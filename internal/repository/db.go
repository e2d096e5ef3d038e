package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/transactionprocessing/estatereporting/internal/domain"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Every pooled connection to ":memory:" would otherwise see its own
	// empty database.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// WAL gives readers a stable snapshot while a rollup transaction commits.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS merchants (
			estate_id TEXT NOT NULL,
			merchant_id TEXT NOT NULL,
			reporting_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (estate_id, merchant_id),
			UNIQUE (estate_id, reporting_id)
		)`,
		`CREATE TABLE IF NOT EXISTS operators (
			estate_id TEXT NOT NULL,
			operator_id TEXT NOT NULL,
			reporting_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (estate_id, operator_id),
			UNIQUE (estate_id, reporting_id)
		)`,
		`CREATE TABLE IF NOT EXISTS contracts (
			estate_id TEXT NOT NULL,
			contract_id TEXT NOT NULL,
			reporting_id INTEGER NOT NULL,
			operator_id TEXT NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (estate_id, contract_id),
			UNIQUE (estate_id, reporting_id)
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			estate_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			reporting_id INTEGER NOT NULL,
			contract_id TEXT NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (estate_id, product_id),
			UNIQUE (estate_id, reporting_id)
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			transaction_report_id INTEGER PRIMARY KEY AUTOINCREMENT,
			transaction_id TEXT NOT NULL UNIQUE,
			estate_id TEXT NOT NULL,
			merchant_id TEXT NOT NULL,
			operator_id TEXT NOT NULL,
			contract_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			transaction_date TEXT NOT NULL,
			transaction_time TEXT NOT NULL,
			transaction_hour INTEGER NOT NULL,
			amount REAL NOT NULL,
			response_code TEXT NOT NULL,
			is_authorised INTEGER NOT NULL,
			auth_code TEXT NOT NULL DEFAULT '',
			transaction_number TEXT NOT NULL DEFAULT '',
			transaction_source INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_estate_date ON transactions(estate_id, transaction_date)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_merchant ON transactions(estate_id, merchant_id)`,

		`CREATE TABLE IF NOT EXISTS summary_buckets (
			estate_id TEXT NOT NULL,
			summary_date TEXT NOT NULL,
			scope TEXT NOT NULL,
			scope_key TEXT NOT NULL,
			txn_count INTEGER NOT NULL,
			txn_value TEXT NOT NULL,
			built_at DATETIME NOT NULL,
			PRIMARY KEY (estate_id, summary_date, scope, scope_key)
		)`,

		`CREATE TABLE IF NOT EXISTS merchant_activity (
			estate_id TEXT NOT NULL,
			merchant_id TEXT NOT NULL,
			last_sale_date_time DATETIME NOT NULL,
			PRIMARY KEY (estate_id, merchant_id)
		)`,

		`CREATE TABLE IF NOT EXISTS settlements (
			settlement_id TEXT PRIMARY KEY,
			estate_id TEXT NOT NULL,
			merchant_id TEXT NOT NULL,
			settlement_date TEXT NOT NULL,
			processing_started INTEGER NOT NULL,
			processing_started_date_time DATETIME,
			is_completed INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_settlements_estate_date ON settlements(estate_id, settlement_date)`,

		`CREATE TABLE IF NOT EXISTS settlement_fees (
			settlement_id TEXT NOT NULL,
			estate_id TEXT NOT NULL,
			merchant_id TEXT NOT NULL,
			transaction_id TEXT NOT NULL,
			fee_source_id TEXT NOT NULL,
			fee_value REAL NOT NULL,
			calculated_value REAL NOT NULL,
			fee_calculated_date TEXT NOT NULL,
			is_settled INTEGER NOT NULL,
			PRIMARY KEY (settlement_id, transaction_id, fee_source_id),
			FOREIGN KEY (settlement_id) REFERENCES settlements(settlement_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_settlement_fees_estate ON settlement_fees(estate_id, is_settled)`,

		`CREATE TABLE IF NOT EXISTS calendar (
			estate_id TEXT NOT NULL,
			date TEXT NOT NULL,
			day_of_week TEXT NOT NULL,
			day_of_week_number INTEGER NOT NULL,
			month_name TEXT NOT NULL,
			month_number INTEGER NOT NULL,
			week_number INTEGER NOT NULL,
			year INTEGER NOT NULL,
			PRIMARY KEY (estate_id, date)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}

// withPragmas adds per-connection pragmas to a file DSN so every pooled
// connection gets them, not only the one that ran the PRAGMA statements.
func withPragmas(dsn string) string {
	if dsn == ":memory:" {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// storeErr classifies a driver error. Cancellation passes through untouched
// so callers can tell it apart from an unreachable store.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrUpstreamUnavailable, err)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
