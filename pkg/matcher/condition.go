package matcher

import (
	"strings"

	domain "github.com/donaldgifford/shopping-notifier/pkg/types"
)

// ParseConditions splits a pipe-delimited condition field into trimmed tags.
func ParseConditions(raw string) []string {
	parts := strings.Split(strings.TrimSpace(raw), "|")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		tags = append(tags, strings.TrimSpace(p))
	}
	return tags
}

// Policy classifies condition tags:
//
//	exactly [new-only]        -> PolicyExcludeUsed
//	new-only plus other tags  -> PolicyIncludeAll
//	no new-only tag           -> PolicyUsedOnly
func (e *Evaluator) Policy(tags []string) domain.ConditionPolicy {
	hasNewOnly := false
	for _, t := range tags {
		if strings.TrimSpace(t) == e.newOnlyTag {
			hasNewOnly = true
			break
		}
	}

	switch {
	case hasNewOnly && len(tags) == 1:
		return domain.PolicyExcludeUsed
	case hasNewOnly:
		return domain.PolicyIncludeAll
	default:
		return domain.PolicyUsedOnly
	}
}
