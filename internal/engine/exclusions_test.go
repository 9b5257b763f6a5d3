package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/shopping-notifier/internal/exclusions"
	exclusionsMocks "github.com/donaldgifford/shopping-notifier/internal/exclusions/mocks"
	"github.com/donaldgifford/shopping-notifier/internal/store"
	domain "github.com/donaldgifford/shopping-notifier/pkg/types"
)

func newCache(t *testing.T) *exclusions.Cache {
	t.Helper()
	blobs, err := store.NewFSBlobStore(t.TempDir())
	require.NoError(t, err)
	return exclusions.NewCache(blobs, "")
}

var fixedNow = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

// globalItem matches "foo bar" rules with the "other" tag and comes from a
// shop that only the global list excludes.
var globalItem = domain.CandidateItem{Name: "foo bar used", URL: "https://g/1", Shop: "Global Shop"}

func TestGlobalExclusions_BatchZeroFetchesAndCaches(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	cache := newCache(t)
	src := exclusionsMocks.NewMockSource(t)
	src.EXPECT().Fetch(mock.Anything).Return([]string{"global shop"}, nil).Once()

	f.ledger.EXPECT().Load(mock.Anything).Return(domain.NewStringSet(), nil).Once()
	f.search.EXPECT().Search(mock.Anything, mock.Anything).Return([]domain.CandidateItem{globalItem}, nil).Once()

	eng := f.engine(staticRules{fooBarRule(0, "other")},
		WithExclusions(src, cache),
		WithNowFunc(func() time.Time { return fixedNow }),
	)
	res, err := eng.RunBatch(context.Background(), Payload{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped[domain.SkipExcludedShop])

	entry, err := cache.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", entry.RunID)
	assert.True(t, fixedNow.Equal(entry.WrittenAt))
	assert.Equal(t, []string{"global shop"}, entry.Shops)
}

func TestGlobalExclusions_LaterBatchReadsCache(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry *exclusions.CacheEntry
		runID string
		skips int
	}{
		{
			name:  "same run",
			entry: &exclusions.CacheEntry{RunID: "run-9", Shops: []string{"global shop"}},
			runID: "run-9",
			skips: 1,
		},
		{
			name:  "other run is used with a warning",
			entry: &exclusions.CacheEntry{RunID: "stale", Shops: []string{"global shop"}},
			runID: "run-9",
			skips: 1,
		},
		{
			name:  "missing cache",
			runID: "run-9",
			skips: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			cache := newCache(t)
			if tt.entry != nil {
				require.NoError(t, cache.Write(context.Background(), *tt.entry))
			}

			// The source is only consulted at batch 0.
			src := exclusionsMocks.NewMockSource(t)

			f.ledger.EXPECT().Load(mock.Anything).Return(domain.NewStringSet(), nil).Once()
			f.search.EXPECT().Search(mock.Anything, mock.Anything).Return([]domain.CandidateItem{globalItem}, nil).Once()
			if tt.skips == 0 {
				f.notifier.EXPECT().Send(mock.Anything, mock.Anything).Return(nil).Once()
				f.ledger.EXPECT().Append(mock.Anything, []string{globalItem.URL}).Return(nil).Once()
			}

			rules := staticRules{{Row: 0, Keyword: "x"}, fooBarRule(1, "other")}
			eng := f.engine(rules, WithExclusions(src, cache), WithBatchSize(1))
			res, err := eng.RunBatch(context.Background(), Payload{CurrentBatch: 1, RunID: tt.runID})
			require.NoError(t, err)
			assert.Equal(t, tt.skips, res.Skipped[domain.SkipExcludedShop])
		})
	}
}

func TestGlobalExclusions_SourceFailureDegrades(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	cache := newCache(t)
	require.NoError(t, cache.Write(context.Background(), exclusions.CacheEntry{
		RunID: "previous", Shops: []string{"global shop"},
	}))

	src := exclusionsMocks.NewMockSource(t)
	src.EXPECT().Fetch(mock.Anything).Return(nil, errors.New("sheets down")).Once()

	f.ledger.EXPECT().Load(mock.Anything).Return(domain.NewStringSet(), nil).Once()

	eng := f.engine(staticRules{{Row: 0, Keyword: "x"}}, WithExclusions(src, cache))
	_, err := eng.RunBatch(context.Background(), Payload{})
	require.NoError(t, err)

	// The previous run's list is replaced even though the fetch failed.
	entry, err := cache.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", entry.RunID)
	assert.Empty(t, entry.Shops)
}

func TestGlobalExclusions_UnconfiguredSource(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	cache := newCache(t)
	f.ledger.EXPECT().Load(mock.Anything).Return(domain.NewStringSet(), nil).Once()

	eng := f.engine(staticRules{}, WithExclusions(nil, cache))
	res, err := eng.RunBatch(context.Background(), Payload{RunID: "given"})
	require.NoError(t, err)
	assert.Equal(t, "given", res.RunID)

	entry, err := cache.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "given", entry.RunID)
}

func TestGlobalExclusions_NoCache(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.ledger.EXPECT().Load(mock.Anything).Return(domain.NewStringSet(), nil).Once()

	_, err := f.engine(staticRules{}).RunBatch(context.Background(), Payload{CurrentBatch: 3})
	require.NoError(t, err)
}
