package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	domain "github.com/donaldgifford/shopping-notifier/pkg/types"
)

// SQLiteLedger implements Ledger on an embedded SQLite table. It suits a
// single long-running process where no Postgres server is available.
type SQLiteLedger struct {
	db      *sql.DB
	table   string
	queries ledgerQueries
	nowFunc func() time.Time

	mu      sync.Mutex
	created bool
}

// SQLiteOption configures a SQLiteLedger.
type SQLiteOption func(*SQLiteLedger)

// WithSQLiteTable sets the ledger table name.
func WithSQLiteTable(name string) SQLiteOption {
	return func(l *SQLiteLedger) {
		if name != "" {
			l.table = name
		}
	}
}

// WithSQLiteNowFunc overrides the notified_at clock.
func WithSQLiteNowFunc(f func() time.Time) SQLiteOption {
	return func(l *SQLiteLedger) {
		l.nowFunc = f
	}
}

// OpenSQLiteLedger opens (creating if needed) the database at path. Use
// ":memory:" for a throwaway ledger.
func OpenSQLiteLedger(path string, opts ...SQLiteOption) (*SQLiteLedger, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite ledger: %w", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	l := &SQLiteLedger{
		db:      db,
		table:   DefaultLedgerName,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.queries = newSQLiteQueries(l.table)
	return l, nil
}

// Close closes the database.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

// Ping verifies the database is usable.
func (l *SQLiteLedger) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

func (l *SQLiteLedger) ensureTable(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.created {
		return nil
	}
	if _, err := l.db.ExecContext(ctx, l.queries.create); err != nil {
		return fmt.Errorf("creating ledger %s: %w", l.table, err)
	}
	l.created = true
	return nil
}

// Load returns every URL in the table, creating it on first use.
func (l *SQLiteLedger) Load(ctx context.Context) (domain.StringSet, error) {
	if err := l.ensureTable(ctx); err != nil {
		return nil, err
	}

	query, args, err := sq.Select("item_url").From(l.queries.table).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building ledger query: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ledger %s: %w", l.table, err)
	}
	defer rows.Close()

	set := domain.NewStringSet()
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scanning ledger %s: %w", l.table, err)
		}
		set.Add(u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ledger %s: %w", l.table, err)
	}
	return set, nil
}

// Append inserts every URL in one transaction. Duplicates are ignored.
func (l *SQLiteLedger) Append(ctx context.Context, urls []string) (err error) {
	if len(urls) == 0 {
		return nil
	}
	if err := l.ensureTable(ctx); err != nil {
		return err
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning ledger transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := l.nowFunc().UTC().Format(time.RFC3339Nano)
	for chunk := range slices.Chunk(urls, sqliteInsertChunk) {
		ins := sq.Insert(l.queries.table).
			Options("OR IGNORE").
			Columns("item_url", "notified_at")
		for _, u := range chunk {
			ins = ins.Values(u, now)
		}

		query, args, err := ins.ToSql()
		if err != nil {
			return fmt.Errorf("building ledger insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting %d urls into ledger %s: %w", len(chunk), l.table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing ledger transaction: %w", err)
	}
	return nil
}
