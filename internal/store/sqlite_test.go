package store

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemoryLedger(t *testing.T, opts ...SQLiteOption) *SQLiteLedger {
	t.Helper()
	l, err := OpenSQLiteLedger(":memory:", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestSQLiteLedger_LoadEmpty(t *testing.T) {
	t.Parallel()

	l := openMemoryLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Ping(ctx))

	set, err := l.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestSQLiteLedger_AppendAndLoad(t *testing.T) {
	t.Parallel()

	l := openMemoryLedger(t, WithSQLiteTable("yahoo-notified.even"))
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, []string{"https://a", "https://b"}))
	require.NoError(t, l.Append(ctx, []string{"https://b", "https://c", "https://c"}))
	require.NoError(t, l.Append(ctx, nil))

	set, err := l.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a", "https://b", "https://c"}, set.Sorted())
}

func TestSQLiteLedger_AppendLargeBatch(t *testing.T) {
	t.Parallel()

	l := openMemoryLedger(t)
	ctx := context.Background()

	urls := make([]string, 0, 1203)
	for i := range 1203 {
		urls = append(urls, "https://item/"+strconv.Itoa(i))
	}
	require.NoError(t, l.Append(ctx, urls))

	set, err := l.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1203, set.Len())
}

func TestSQLiteLedger_PersistsAcrossOpen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	ctx := context.Background()

	first, err := OpenSQLiteLedger(path)
	require.NoError(t, err)
	require.NoError(t, first.Append(ctx, []string{"https://persisted"}))
	require.NoError(t, first.Close())

	second, err := OpenSQLiteLedger(path)
	require.NoError(t, err)
	defer second.Close()

	set, err := second.Load(ctx)
	require.NoError(t, err)
	assert.True(t, set.Contains("https://persisted"))
}

func TestSQLiteLedger_CancelledContext(t *testing.T) {
	t.Parallel()

	l := openMemoryLedger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Load(ctx)
	require.Error(t, err)

	// A failed first use does not poison later calls.
	set, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}
