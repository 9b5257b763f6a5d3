package exclusions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/shopping-notifier/pkg/matcher"
	domain "github.com/donaldgifford/shopping-notifier/pkg/types"
)

func TestStaticSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  StaticSource
		want []string
	}{
		{name: "already normalized", src: StaticSource{"a", "b"}, want: []string{"a", "b"}},
		{name: "mixed case and padding", src: StaticSource{"ShopB", "  Store-C "}, want: []string{"shopb", "store-c"}},
		{name: "blank entries dropped", src: StaticSource{"", "   ", "x"}, want: []string{"x"}},
		{name: "empty", src: nil, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.src.Fetch(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStaticSource_ExcludesMixedCaseShop(t *testing.T) {
	t.Parallel()

	shops, err := StaticSource{"ShopB"}.Fetch(context.Background())
	require.NoError(t, err)

	got := matcher.New().Evaluate(
		&domain.Rule{Keyword: "foo bar"},
		&domain.CandidateItem{Name: "Foo Bar", Shop: "ShopB", URL: "https://example.com/1"},
		domain.NewStringSet(shops...),
		domain.NewStringSet(),
	)
	assert.False(t, got.Notify)
	assert.Equal(t, domain.SkipExcludedShop, got.Reason)
}
