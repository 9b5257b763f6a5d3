package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/shopping-notifier/internal/store"
	"github.com/donaldgifford/shopping-notifier/internal/store/mocks"
)

func TestCSVLedger_AppendAndLoad(t *testing.T) {
	t.Parallel()

	blobs, err := store.NewFSBlobStore(t.TempDir())
	require.NoError(t, err)

	now := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	l := store.NewCSVLedger(blobs, "ledger/odd.csv", store.WithCSVNowFunc(func() time.Time { return now }))
	ctx := context.Background()

	set, err := l.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	require.NoError(t, l.Ping(ctx))

	require.NoError(t, l.Append(ctx, []string{"https://a", "https://b"}))
	require.NoError(t, l.Append(ctx, []string{"https://b", "https://c"}))

	set, err = l.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a", "https://b", "https://c"}, set.Sorted())

	raw, err := blobs.Get(ctx, "ledger/odd.csv")
	require.NoError(t, err)
	assert.Equal(t,
		"itemUrl,notifiedAt\n"+
			"https://a,2026-05-01T09:30:00Z\n"+
			"https://b,2026-05-01T09:30:00Z\n"+
			"https://c,2026-05-01T09:30:00Z\n",
		string(raw))
}

func TestCSVLedger_LegacySingleColumn(t *testing.T) {
	t.Parallel()

	blobs := mocks.NewMockBlobStore(t)
	blobs.EXPECT().
		Get(mock.Anything, "notifiedlist.csv").
		Return([]byte("\ufeffitemUrl\nhttps://old-1\n\nhttps://old-2\n"), nil)

	set, err := store.NewCSVLedger(blobs, "notifiedlist.csv").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://old-1", "https://old-2"}, set.Sorted())
}

func TestCSVLedger_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(m *mocks.MockBlobStore)
		op      func(l *store.CSVLedger) error
		wantErr string
	}{
		{
			name: "read failure on load",
			setup: func(m *mocks.MockBlobStore) {
				m.EXPECT().Get(mock.Anything, "k").Return(nil, errors.New("disk gone"))
			},
			op: func(l *store.CSVLedger) error {
				_, err := l.Load(context.Background())
				return err
			},
			wantErr: "disk gone",
		},
		{
			name: "missing url column",
			setup: func(m *mocks.MockBlobStore) {
				m.EXPECT().Get(mock.Anything, "k").Return([]byte("url\nx\n"), nil)
			},
			op: func(l *store.CSVLedger) error {
				_, err := l.Load(context.Background())
				return err
			},
			wantErr: "missing itemUrl column",
		},
		{
			name: "write failure on append",
			setup: func(m *mocks.MockBlobStore) {
				m.EXPECT().Get(mock.Anything, "k").Return(nil, store.ErrNotFound)
				m.EXPECT().Put(mock.Anything, "k", mock.Anything).Return(errors.New("read-only"))
			},
			op: func(l *store.CSVLedger) error {
				return l.Append(context.Background(), []string{"https://a"})
			},
			wantErr: "read-only",
		},
		{
			name: "ping propagates non-missing errors",
			setup: func(m *mocks.MockBlobStore) {
				m.EXPECT().Get(mock.Anything, "k").Return(nil, errors.New("denied"))
			},
			op: func(l *store.CSVLedger) error {
				return l.Ping(context.Background())
			},
			wantErr: "denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := mocks.NewMockBlobStore(t)
			tt.setup(m)
			err := tt.op(store.NewCSVLedger(m, "k"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCSVLedger_AppendNothingNewSkipsWrite(t *testing.T) {
	t.Parallel()

	m := mocks.NewMockBlobStore(t)
	m.EXPECT().Get(mock.Anything, "k").Return([]byte("itemUrl,notifiedAt\nhttps://a,\n"), nil)

	l := store.NewCSVLedger(m, "k")
	require.NoError(t, l.Append(context.Background(), []string{"https://a"}))
	require.NoError(t, l.Append(context.Background(), nil))
}
