package matcher

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	domain "github.com/donaldgifford/shopping-notifier/pkg/types"
)

// FormatPrice renders a price with thousands separators. Integral values are
// grouped, fractional JSON numbers are truncated toward zero first, and
// anything that is not a number is returned as-is.
func FormatPrice(p domain.Price) string {
	n, ok := priceValue(p)
	if !ok {
		return p.Raw
	}
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

func priceValue(p domain.Price) (int64, bool) {
	raw := strings.TrimSpace(p.Raw)
	if raw == "" {
		return 0, false
	}

	if n, err := strconv.ParseInt(strings.ReplaceAll(raw, "_", ""), 10, 64); err == nil {
		return n, true
	}

	if !p.Numeric {
		return 0, false
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) ||
		f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
