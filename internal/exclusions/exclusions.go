// Package exclusions provides the run-wide list of shops whose listings are
// never notified: the Google Sheets source that is read once at the start of
// a run, and the cache object later batches read it back from.
package exclusions

import (
	"context"

	"github.com/donaldgifford/shopping-notifier/pkg/matcher"
)

// DefaultSheetName is the sheet holding the shop list in column A.
const DefaultSheetName = "除外店舗_Yahoo"

// DefaultCacheKey is the blob key of the per-run cache object.
const DefaultCacheKey = "temp_excluded_shops.json"

// Source fetches the global exclusion list. Names are returned lowercased
// and trimmed.
type Source interface {
	Fetch(ctx context.Context) ([]string, error)
}

// StaticSource is a fixed list, used when shops are configured inline.
type StaticSource []string

// Fetch returns the normalized list, without blank entries.
func (s StaticSource) Fetch(context.Context) ([]string, error) {
	shops := make([]string, 0, len(s))
	for _, name := range s {
		if n := matcher.NormalizeShop(name); n != "" {
			shops = append(shops, n)
		}
	}
	return shops, nil
}
