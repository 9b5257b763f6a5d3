// Package domain defines the core business types for the shopping notifier.
package domain

import (
	"slices"
	"time"
)

// SkipReason explains why a candidate item did not produce a notification.
type SkipReason string

// Skip reason constants, in evaluation order.
const (
	SkipNone              SkipReason = ""
	SkipExcludedShop      SkipReason = "excluded_shop"
	SkipAlreadyNotified   SkipReason = "already_notified"
	SkipAllTokensTooShort SkipReason = "all_tokens_too_short"
	SkipKeywordMismatch   SkipReason = "keyword_mismatch"
	SkipNegativeKeyword   SkipReason = "negative_keyword_hit"
	SkipUsedExcluded      SkipReason = "used_excluded"
	SkipNotUsed           SkipReason = "not_used"
)

// ConditionPolicy is derived from a rule's condition tags and decides whether
// used, new, or all listings qualify.
type ConditionPolicy string

// Condition policy constants.
const (
	PolicyExcludeUsed ConditionPolicy = "exclude_used"
	PolicyIncludeAll  ConditionPolicy = "include_all"
	PolicyUsedOnly    ConditionPolicy = "used_only"
)

// Partition selects which rows of the full config sequence a deployment owns.
type Partition string

// Partition constants. Even and odd deployments never claim the same row.
const (
	PartitionAll  Partition = "all"
	PartitionEven Partition = "even"
	PartitionOdd  Partition = "odd"
)

// Owns reports whether the partition owns the row at index i of the full,
// unfiltered config sequence.
func (p Partition) Owns(i int) bool {
	switch p {
	case PartitionEven:
		return i%2 == 0
	case PartitionOdd:
		return i%2 == 1
	default:
		return true
	}
}

// Valid reports whether p is a known partition.
func (p Partition) Valid() bool {
	switch p {
	case PartitionAll, PartitionEven, PartitionOdd:
		return true
	}
	return false
}

// Rule is one row of configuration. It is immutable once loaded for a batch.
type Rule struct {
	// Row is the 0-based position of the rule in the full config sequence.
	Row             int      `json:"row"`
	Keyword         string   `json:"product_keyword"`
	NegativeKeyword string   `json:"ng_keyword,omitempty"`
	MinPrice        *int     `json:"lowest_price,omitempty"`
	MaxPrice        *int     `json:"highest_price,omitempty"`
	Conditions      []string `json:"product_condition"`
	ExcludedShops   string   `json:"sellerIdExs,omitempty"`
	Label           string   `json:"name"`

	// Err is set when the row failed validation at parse time. Invalid rows
	// keep their place in the sequence but are never searched.
	Err error `json:"-"`
}

// Valid reports whether the rule passed validation.
func (r *Rule) Valid() bool {
	return r.Err == nil
}

// CandidateItem is a single search result considered for notification.
type CandidateItem struct {
	Name string `json:"name"`
	// URL is the canonical item URL and the de-duplication key.
	URL   string `json:"url"`
	Price Price  `json:"price"`
	Shop  string `json:"shop"`
}

// Price keeps the raw price value as returned by the marketplace. Numeric
// reports whether the raw value was a JSON number.
type Price struct {
	Raw     string `json:"raw"`
	Numeric bool   `json:"numeric"`
}

// Decision is the outcome of evaluating one rule against one item.
type Decision struct {
	Notify         bool       `json:"notify"`
	Reason         SkipReason `json:"reason,omitempty"`
	FormattedPrice string     `json:"formatted_price,omitempty"`
	Label          string     `json:"label,omitempty"`
}

// Skip builds a negative decision.
func Skip(reason SkipReason) Decision {
	return Decision{Reason: reason}
}

// LedgerEntry is one persisted notification record.
type LedgerEntry struct {
	ItemURL    string    `json:"item_url"    db:"item_url"`
	NotifiedAt time.Time `json:"notified_at" db:"notified_at"`
}

// StringSet is a set of strings.
type StringSet map[string]struct{}

// NewStringSet returns a set holding values.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Contains reports whether v is in the set. A nil set contains nothing.
func (s StringSet) Contains(v string) bool {
	_, ok := s[v]
	return ok
}

// Add inserts v.
func (s StringSet) Add(v string) {
	s[v] = struct{}{}
}

// Len returns the number of members.
func (s StringSet) Len() int {
	return len(s)
}

// Union returns a new set holding the members of s and other.
func (s StringSet) Union(other StringSet) StringSet {
	out := make(StringSet, len(s)+len(other))
	for v := range s {
		out[v] = struct{}{}
	}
	for v := range other {
		out[v] = struct{}{}
	}
	return out
}

// Sorted returns the members in lexical order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
