package store

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
)

// SQL templates; %s is the quoted ledger table name. SQLite reads and
// writes are built with squirrel in sqlite.go.

// Postgres ledger queries.
const (
	pgCreateLedger = `
		CREATE TABLE IF NOT EXISTS %s (
			item_url    TEXT PRIMARY KEY,
			notified_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	pgSelectLedger = `SELECT item_url FROM %s`

	pgInsertLedger = `
		INSERT INTO %s (item_url, notified_at)
		VALUES (@item_url, @notified_at)
		ON CONFLICT (item_url) DO NOTHING`
)

// SQLite ledger queries.
const (
	sqliteCreateLedger = `
		CREATE TABLE IF NOT EXISTS %s (
			item_url    TEXT PRIMARY KEY,
			notified_at TEXT NOT NULL
		)`

	// sqliteInsertChunk bounds rows per INSERT statement, keeping bound
	// parameters well under SQLite's variable limit.
	sqliteInsertChunk = 500
)

// ledgerNamePattern restricts ledger names to something that is also a safe
// object key stem.
var ledgerNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_\-.]*$`)

// ValidateLedgerName reports whether name can be used as a table name and
// an object key stem.
func ValidateLedgerName(name string) error {
	if !ledgerNamePattern.MatchString(name) {
		return fmt.Errorf("invalid ledger name %q", name)
	}
	return nil
}

// ledgerQueries holds the SQL for one ledger table.
type ledgerQueries struct {
	table  string
	create string
	load   string
	insert string
}

// quoteIdent quotes a possibly schema-qualified identifier.
func quoteIdent(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

func newPostgresQueries(table string) ledgerQueries {
	q := quoteIdent(table)
	return ledgerQueries{
		table:  q,
		create: fmt.Sprintf(pgCreateLedger, q),
		load:   fmt.Sprintf(pgSelectLedger, q),
		insert: fmt.Sprintf(pgInsertLedger, q),
	}
}

func newSQLiteQueries(table string) ledgerQueries {
	// SQLite has no schemas here, so the whole name is one identifier.
	q := pgx.Identifier{table}.Sanitize()
	return ledgerQueries{
		table:  q,
		create: fmt.Sprintf(sqliteCreateLedger, q),
	}
}
