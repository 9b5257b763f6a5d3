package yahoo

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// searchAPIResponse is the subset of the itemSearch response that is used.
type searchAPIResponse struct {
	TotalResultsAvailable int   `json:"totalResultsAvailable"`
	TotalResultsReturned  int   `json:"totalResultsReturned"`
	FirstResultsPosition  int   `json:"firstResultsPosition"`
	Hits                  []Hit `json:"hits"`
}

// Hit is one item in a search response.
type Hit struct {
	Name   string  `json:"name"`
	URL    string  `json:"url"`
	Price  Price   `json:"price"`
	Seller *Seller `json:"seller,omitempty"`
}

// Seller identifies the store selling an item.
type Seller struct {
	SellerID string  `json:"sellerId"`
	Name     *string `json:"name"`
	URL      string  `json:"url,omitempty"`
}

// Price holds the price exactly as the API sent it. The field is normally a
// JSON number but strings are accepted.
type Price struct {
	Raw     string
	Numeric bool
}

// UnmarshalJSON keeps the literal text of numbers and the contents of strings.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*p = Price{}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding price string: %w", err)
		}
		*p = Price{Raw: s}
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("decoding price number: %w", err)
		}
		*p = Price{Raw: n.String(), Numeric: true}
	}
	return nil
}

// MarshalJSON writes numeric prices as numbers and everything else as strings.
func (p Price) MarshalJSON() ([]byte, error) {
	if p.Numeric {
		return []byte(p.Raw), nil
	}
	return json.Marshal(p.Raw)
}
