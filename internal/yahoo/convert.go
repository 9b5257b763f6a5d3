package yahoo

import (
	"github.com/donaldgifford/shopping-notifier/pkg/matcher"
	domain "github.com/donaldgifford/shopping-notifier/pkg/types"
)

// ToItems converts search hits into candidate items.
func ToItems(hits []Hit) []domain.CandidateItem {
	items := make([]domain.CandidateItem, 0, len(hits))
	for i := range hits {
		items = append(items, toItem(&hits[i]))
	}
	return items
}

func toItem(h *Hit) domain.CandidateItem {
	shop := matcher.DefaultShopName
	if h.Seller != nil && h.Seller.Name != nil {
		shop = *h.Seller.Name
	}
	return domain.CandidateItem{
		Name:  h.Name,
		URL:   h.URL,
		Price: domain.Price{Raw: h.Price.Raw, Numeric: h.Price.Numeric},
		Shop:  shop,
	}
}
