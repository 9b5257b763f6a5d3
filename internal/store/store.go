// Package store defines the de-duplication ledger abstraction and its
// backends. Business logic depends on the Ledger and BlobStore interfaces,
// never on concrete implementations, so the batch engine can be tested with
// mocks and no running database.
package store

import (
	"context"
	"errors"

	domain "github.com/donaldgifford/shopping-notifier/pkg/types"
)

// ErrNotFound is returned by a BlobStore when the key does not exist.
var ErrNotFound = errors.New("object not found")

// DefaultLedgerName is the table or object stem used when none is configured.
const DefaultLedgerName = "notified_items"

// Ledger is the persistent set of item URLs that have already been notified.
// It only grows: entries are never removed.
type Ledger interface {
	// Load returns every URL in the ledger. A ledger that does not exist yet
	// is created where the backend allows it and reads as empty.
	Load(ctx context.Context) (domain.StringSet, error)
	// Append records urls. Existing URLs are ignored. An empty slice is a
	// no-op.
	Append(ctx context.Context, urls []string) error
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

// BlobStore is a flat key/value object store with whole-object writes.
type BlobStore interface {
	// Get returns the object at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the object at key.
	Put(ctx context.Context, key string, data []byte) error
}
