package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/donaldgifford/shopping-notifier/internal/exclusions"
	domain "github.com/donaldgifford/shopping-notifier/pkg/types"
)

// globalExclusions returns the run-wide exclusion set. Batch 0 fetches it
// from the source and always rewrites the cache, so later batches never see
// a previous run's list. Later batches read the cache; batch 0 of the same
// run must have completed first. Every failure here degrades to a smaller
// set.
func (eng *Engine) globalExclusions(
	ctx context.Context,
	log *slog.Logger,
	batch int,
	runID string,
) domain.StringSet {
	if batch == 0 {
		return eng.refreshExclusions(ctx, log, runID)
	}

	if eng.cache == nil {
		return domain.NewStringSet()
	}

	entry, err := eng.cache.Read(ctx)
	switch {
	case errors.Is(err, exclusions.ErrCacheMissing):
		log.Warn("exclusion cache missing, using per-rule exclusions only")
		return domain.NewStringSet()
	case err != nil:
		log.Warn("reading exclusion cache, using per-rule exclusions only", "error", err)
		return domain.NewStringSet()
	}

	if runID != "" && entry.RunID != runID {
		log.Warn("exclusion cache written by another run",
			"cache_run_id", entry.RunID,
			"written_at", entry.WrittenAt,
		)
	}
	log.Info("global exclusions loaded from cache", "count", len(entry.Shops))
	return domain.NewStringSet(entry.Shops...)
}

func (eng *Engine) refreshExclusions(ctx context.Context, log *slog.Logger, runID string) domain.StringSet {
	var shops []string
	if eng.exclusions == nil {
		log.Info("global exclusion source not configured, skipping")
	} else {
		fetched, err := eng.exclusions.Fetch(ctx)
		if err != nil {
			log.Warn("fetching global exclusions, using per-rule exclusions only", "error", err)
		} else {
			shops = fetched
			log.Info("global exclusions fetched", "count", len(shops))
		}
	}

	if eng.cache != nil {
		entry := exclusions.CacheEntry{RunID: runID, WrittenAt: eng.now().UTC(), Shops: shops}
		if err := eng.cache.Write(ctx, entry); err != nil {
			log.Warn("writing exclusion cache", "error", err)
		}
	}

	return domain.NewStringSet(shops...)
}
