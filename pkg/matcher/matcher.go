// Package matcher decides whether a marketplace search result should trigger
// a notification for a configured rule. Everything here is pure: no I/O, no
// clocks, safe to call from tests without fakes.
package matcher

import (
	"strings"

	domain "github.com/donaldgifford/shopping-notifier/pkg/types"
)

const (
	// DefaultNewOnlyTag is the condition tag meaning "new, unused".
	DefaultNewOnlyTag = "新品、未使用"
	// DefaultUsedMarker is the substring marking a used listing in an item name.
	DefaultUsedMarker = "中古"
	// DefaultShopName is used when a search hit carries no seller name.
	DefaultShopName = "不明"
)

// Evaluator applies the notification rules. The zero value is not usable;
// construct with New.
type Evaluator struct {
	newOnlyTag string
	usedMarker string
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithNewOnlyTag overrides the condition tag that means "new only".
func WithNewOnlyTag(tag string) Option {
	return func(e *Evaluator) {
		if tag != "" {
			e.newOnlyTag = tag
		}
	}
}

// WithUsedMarker overrides the item-name substring that marks a used listing.
func WithUsedMarker(marker string) Option {
	return func(e *Evaluator) {
		if marker != "" {
			e.usedMarker = marker
		}
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		newOnlyTag: DefaultNewOnlyTag,
		usedMarker: DefaultUsedMarker,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate decides notify/skip for one rule and one item. Checks run in a
// fixed order and the first failing check wins:
//
//  1. shop in the exclusion set
//  2. URL already in the ledger
//  3. every keyword token is a single character
//  4. a keyword token is missing from the item name
//  5. a negative keyword token is present in the item name
//  6. the rule's condition policy rejects the item
func (e *Evaluator) Evaluate(
	rule *domain.Rule,
	item *domain.CandidateItem,
	excluded domain.StringSet,
	ledger domain.StringSet,
) domain.Decision {
	if excluded.Contains(NormalizeShop(item.Shop)) {
		return domain.Skip(domain.SkipExcludedShop)
	}

	if ledger.Contains(item.URL) {
		return domain.Skip(domain.SkipAlreadyNotified)
	}

	tokens := KeywordTokens(rule.Keyword)
	if len(tokens) == 0 {
		return domain.Skip(domain.SkipAllTokensTooShort)
	}

	name := lower(item.Name)
	for _, tok := range tokens {
		if !strings.Contains(name, lower(tok)) {
			return domain.Skip(domain.SkipKeywordMismatch)
		}
	}

	for _, ng := range NegativeTokens(rule.NegativeKeyword) {
		if strings.Contains(name, lower(ng)) {
			return domain.Skip(domain.SkipNegativeKeyword)
		}
	}

	used := strings.Contains(item.Name, e.usedMarker)
	switch e.Policy(rule.Conditions) {
	case domain.PolicyExcludeUsed:
		if used {
			return domain.Skip(domain.SkipUsedExcluded)
		}
	case domain.PolicyUsedOnly:
		if !used {
			return domain.Skip(domain.SkipNotUsed)
		}
	case domain.PolicyIncludeAll:
	}

	return domain.Decision{
		Notify:         true,
		FormattedPrice: FormatPrice(item.Price),
		Label:          strings.Trim(rule.Label, `"`),
	}
}
