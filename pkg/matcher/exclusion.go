package matcher

import (
	"strings"

	domain "github.com/donaldgifford/shopping-notifier/pkg/types"
)

// NormalizeShop lowercases and trims a shop name for exclusion lookups.
func NormalizeShop(name string) string {
	return lower(strings.TrimSpace(name))
}

// ParseShopList parses a comma-delimited, optionally double-quoted shop
// field. Empty fields and the literal "nan" produce an empty list.
func ParseShopList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "nan") {
		return nil
	}

	parts := strings.Split(strings.Trim(raw, `"`), ",")
	shops := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := NormalizeShop(p); s != "" {
			shops = append(shops, s)
		}
	}
	return shops
}

// BuildExclusionSet unions the global exclusion set with the shops listed in
// a rule's raw exclusion field. The global set is not modified.
func BuildExclusionSet(global domain.StringSet, ruleField string) domain.StringSet {
	return global.Union(domain.NewStringSet(ParseShopList(ruleField)...))
}
