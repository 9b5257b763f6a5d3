package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	domain "github.com/donaldgifford/shopping-notifier/pkg/types"
)

const (
	csvURLColumn  = "itemUrl"
	csvTimeColumn = "notifiedAt"
)

// CSVLedger implements Ledger as one CSV object in a BlobStore. The object
// is rewritten whole on every Append, so concurrent writers to the same key
// can lose each other's entries; give each deployment its own key.
type CSVLedger struct {
	blobs   BlobStore
	key     string
	nowFunc func() time.Time
}

// CSVLedgerOption configures a CSVLedger.
type CSVLedgerOption func(*CSVLedger)

// WithCSVNowFunc overrides the notifiedAt clock.
func WithCSVNowFunc(f func() time.Time) CSVLedgerOption {
	return func(l *CSVLedger) {
		l.nowFunc = f
	}
}

// NewCSVLedger creates a ledger stored at key.
func NewCSVLedger(blobs BlobStore, key string, opts ...CSVLedgerOption) *CSVLedger {
	l := &CSVLedger{
		blobs:   blobs,
		key:     key,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Ping reads the object; a missing object counts as reachable.
func (l *CSVLedger) Ping(ctx context.Context) error {
	_, err := l.blobs.Get(ctx, l.key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// Load reads the ledger object. A missing object reads as empty.
func (l *CSVLedger) Load(ctx context.Context) (domain.StringSet, error) {
	entries, err := l.entries(ctx)
	if err != nil {
		return nil, err
	}
	set := make(domain.StringSet, len(entries))
	for _, e := range entries {
		set.Add(e.ItemURL)
	}
	return set, nil
}

// Append re-reads the object, adds the URLs not already present and writes
// the result back.
func (l *CSVLedger) Append(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	entries, err := l.entries(ctx)
	if err != nil {
		return err
	}

	seen := make(domain.StringSet, len(entries)+len(urls))
	for _, e := range entries {
		seen.Add(e.ItemURL)
	}

	now := l.nowFunc().UTC()
	added := 0
	for _, u := range urls {
		if seen.Contains(u) {
			continue
		}
		seen.Add(u)
		entries = append(entries, domain.LedgerEntry{ItemURL: u, NotifiedAt: now})
		added++
	}
	if added == 0 {
		return nil
	}

	data, err := encodeLedgerCSV(entries)
	if err != nil {
		return err
	}
	if err := l.blobs.Put(ctx, l.key, data); err != nil {
		return fmt.Errorf("writing ledger %s: %w", l.key, err)
	}
	return nil
}

func (l *CSVLedger) entries(ctx context.Context) ([]domain.LedgerEntry, error) {
	data, err := l.blobs.Get(ctx, l.key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", l.key, err)
	}
	entries, err := decodeLedgerCSV(data)
	if err != nil {
		return nil, fmt.Errorf("parsing ledger %s: %w", l.key, err)
	}
	return entries, nil
}

// decodeLedgerCSV accepts files with only an itemUrl column.
func decodeLedgerCSV(data []byte) ([]domain.LedgerEntry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff"))))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	urlIdx := slices.Index(header, csvURLColumn)
	if urlIdx < 0 {
		return nil, fmt.Errorf("missing %s column", csvURLColumn)
	}
	timeIdx := slices.Index(header, csvTimeColumn)

	var entries []domain.LedgerEntry
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record: %w", err)
		}
		if urlIdx >= len(rec) || rec[urlIdx] == "" {
			continue
		}
		e := domain.LedgerEntry{ItemURL: rec[urlIdx]}
		if timeIdx >= 0 && timeIdx < len(rec) {
			if t, err := time.Parse(time.RFC3339Nano, rec[timeIdx]); err == nil {
				e.NotifiedAt = t
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func encodeLedgerCSV(entries []domain.LedgerEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{csvURLColumn, csvTimeColumn}); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	for _, e := range entries {
		ts := ""
		if !e.NotifiedAt.IsZero() {
			ts = e.NotifiedAt.UTC().Format(time.RFC3339Nano)
		}
		if err := w.Write([]string{e.ItemURL, ts}); err != nil {
			return nil, fmt.Errorf("writing record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing ledger csv: %w", err)
	}
	return buf.Bytes(), nil
}
