package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/donaldgifford/shopping-notifier/internal/metrics"
	"github.com/donaldgifford/shopping-notifier/internal/notify"
	"github.com/donaldgifford/shopping-notifier/internal/yahoo"
	"github.com/donaldgifford/shopping-notifier/pkg/matcher"
	domain "github.com/donaldgifford/shopping-notifier/pkg/types"
)

// processRules searches and notifies for every rule in the batch and
// returns the URLs notified successfully. Notified URLs are also added to
// ledger so later rules in the batch do not notify them again. Errors stop
// at the rule or item that caused them.
func (eng *Engine) processRules(
	ctx context.Context,
	log *slog.Logger,
	batch []domain.Rule,
	global domain.StringSet,
	ledger domain.StringSet,
	res *BatchResult,
) []string {
	var fresh []string

	for i := range batch {
		if ctx.Err() != nil {
			log.Warn("batch interrupted", "error", ctx.Err(), "processed", i)
			break
		}

		r := &batch[i]
		rlog := log.With("row", r.Row+1, "keyword", r.Keyword)
		metrics.RulesProcessedTotal.Inc()

		if !r.Valid() {
			metrics.RuleErrorsTotal.Inc()
			rlog.Warn("skipping invalid row", "error", r.Err)
			continue
		}

		query, ok := matcher.SearchQuery(r.Keyword)
		if !ok {
			res.Skipped[domain.SkipAllTokensTooShort]++
			metrics.ItemsSkippedTotal.WithLabelValues(string(domain.SkipAllTokensTooShort)).Inc()
			rlog.Info("every keyword token is a single character, not searching")
			continue
		}

		excluded := matcher.BuildExclusionSet(global, r.ExcludedShops)
		items, err := eng.search.Search(ctx, yahoo.SearchRequest{
			Query:    query,
			MinPrice: r.MinPrice,
			MaxPrice: r.MaxPrice,
		})
		res.Searched++
		if err != nil {
			metrics.RuleErrorsTotal.Inc()
			switch {
			case errors.Is(err, yahoo.ErrNonRetryable):
				rlog.Error("search rejected", "error", err)
			default:
				rlog.Error("search failed", "error", err)
			}
			continue
		}
		if len(items) == 0 {
			rlog.Info("no items found", "query", query)
			continue
		}

		for j := range items {
			if url, ok := eng.processItem(ctx, rlog, r, &items[j], excluded, ledger, res); ok {
				fresh = append(fresh, url)
			}
		}
	}

	return fresh
}

func (eng *Engine) processItem(
	ctx context.Context,
	log *slog.Logger,
	r *domain.Rule,
	item *domain.CandidateItem,
	excluded domain.StringSet,
	ledger domain.StringSet,
	res *BatchResult,
) (string, bool) {
	d := eng.evaluator.Evaluate(r, item, excluded, ledger)
	if !d.Notify {
		res.Skipped[d.Reason]++
		metrics.ItemsSkippedTotal.WithLabelValues(string(d.Reason)).Inc()
		log.Debug("item skipped", "item", item.Name, "url", item.URL, "reason", d.Reason)
		return "", false
	}

	msg := &notify.Notification{
		Shop:     matcher.NormalizeShop(item.Shop),
		ItemName: item.Name,
		Price:    d.FormattedPrice,
		URL:      item.URL,
		Label:    d.Label,
	}
	err := eng.notifier.Send(ctx, msg)

	// Rate limit between notification attempts, successful or not.
	if serr := eng.sleeper.Sleep(ctx, eng.notifyInterval); serr != nil {
		log.Debug("notify interval interrupted", "error", serr)
	}

	if err != nil {
		res.Failed++
		log.Error("notification failed", "item", item.Name, "url", item.URL, "error", err)
		return "", false
	}

	ledger.Add(item.URL)
	res.Notified++
	log.Info("notified", "item", item.Name, "url", item.URL, "price", d.FormattedPrice)
	return item.URL, true
}
