package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/donaldgifford/shopping-notifier/pkg/types"
)

const (
	defaultPoolSize = 4

	// pgUndefinedTable is SQLSTATE 42P01.
	pgUndefinedTable = "42P01"
)

// PostgresLedger implements Ledger on a PostgreSQL table.
//
// TODO(test): PostgresLedger methods require live Postgres, tested via integration tests.
type PostgresLedger struct {
	pool    *pgxpool.Pool
	table   string
	queries ledgerQueries
	nowFunc func() time.Time
	log     *slog.Logger
}

// PostgresOption configures a PostgresLedger.
type PostgresOption func(*PostgresLedger)

// WithTable sets the ledger table name. Deployments sharing one database
// use different tables.
func WithTable(name string) PostgresOption {
	return func(l *PostgresLedger) {
		if name != "" {
			l.table = name
		}
	}
}

// WithPostgresNowFunc overrides the notified_at clock.
func WithPostgresNowFunc(f func() time.Time) PostgresOption {
	return func(l *PostgresLedger) {
		l.nowFunc = f
	}
}

// WithPostgresLogger sets a custom logger.
func WithPostgresLogger(log *slog.Logger) PostgresOption {
	return func(l *PostgresLedger) {
		l.log = log
	}
}

// NewPostgresLedger connects a pooled ledger.
func NewPostgresLedger(ctx context.Context, connString string, opts ...PostgresOption) (*PostgresLedger, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	if !strings.Contains(connString, "pool_max_conns") {
		cfg.MaxConns = defaultPoolSize
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	l := &PostgresLedger{
		pool:    pool,
		table:   DefaultLedgerName,
		nowFunc: time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.queries = newPostgresQueries(l.table)
	return l, nil
}

// Close gracefully shuts down the connection pool.
func (l *PostgresLedger) Close() {
	l.pool.Close()
}

// Ping verifies the database connection is alive.
func (l *PostgresLedger) Ping(ctx context.Context) error {
	return l.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (l *PostgresLedger) Migrate(ctx context.Context) ([]string, error) {
	return RunMigrations(ctx, l.pool)
}

// Load scans the whole table. A missing table is created and reads as empty.
func (l *PostgresLedger) Load(ctx context.Context) (domain.StringSet, error) {
	rows, err := l.pool.Query(ctx, l.queries.load)
	if err != nil {
		if isUndefinedTable(err) {
			return l.createEmpty(ctx)
		}
		return nil, fmt.Errorf("querying ledger %s: %w", l.table, err)
	}

	urls, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		if isUndefinedTable(err) {
			return l.createEmpty(ctx)
		}
		return nil, fmt.Errorf("scanning ledger %s: %w", l.table, err)
	}

	return domain.NewStringSet(urls...), nil
}

func (l *PostgresLedger) createEmpty(ctx context.Context) (domain.StringSet, error) {
	l.log.Info("ledger table missing, creating", "table", l.table)
	if _, err := l.pool.Exec(ctx, l.queries.create); err != nil {
		return nil, fmt.Errorf("creating ledger %s: %w", l.table, err)
	}
	return domain.NewStringSet(), nil
}

// Append inserts every URL in one batch. Duplicates are ignored.
func (l *PostgresLedger) Append(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	now := l.nowFunc().UTC()
	batch := &pgx.Batch{}
	for _, u := range urls {
		batch.Queue(l.queries.insert, pgx.NamedArgs{
			"item_url":    u,
			"notified_at": now,
		})
	}

	err := l.pool.SendBatch(ctx, batch).Close()
	if isUndefinedTable(err) {
		if _, err = l.createEmpty(ctx); err != nil {
			return err
		}
		err = l.pool.SendBatch(ctx, batch).Close()
	}
	if err != nil {
		return fmt.Errorf("appending %d urls to ledger %s: %w", len(urls), l.table, err)
	}
	return nil
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable
}
