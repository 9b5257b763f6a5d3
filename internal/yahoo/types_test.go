package yahoo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/shopping-notifier/pkg/matcher"
)

func TestPrice_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want Price
	}{
		{name: "integer", in: `1280`, want: Price{Raw: "1280", Numeric: true}},
		{name: "float", in: `1280.5`, want: Price{Raw: "1280.5", Numeric: true}},
		{name: "string", in: `"1280"`, want: Price{Raw: "1280"}},
		{name: "null", in: `null`, want: Price{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var p Price
			require.NoError(t, json.Unmarshal([]byte(tt.in), &p))
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestPrice_UnmarshalJSON_Invalid(t *testing.T) {
	t.Parallel()

	var p Price
	assert.Error(t, json.Unmarshal([]byte(`{"value":1}`), &p))
}

func TestToItems(t *testing.T) {
	t.Parallel()

	name := "Shop A"
	empty := ""
	items := ToItems([]Hit{
		{Name: "a", URL: "u1", Price: Price{Raw: "100", Numeric: true}, Seller: &Seller{Name: &name}},
		{Name: "b", URL: "u2"},
		{Name: "c", URL: "u3", Seller: &Seller{SellerID: "x"}},
		{Name: "d", URL: "u4", Seller: &Seller{Name: &empty}},
	})

	require.Len(t, items, 4)
	assert.Equal(t, "Shop A", items[0].Shop)
	assert.True(t, items[0].Price.Numeric)
	assert.Equal(t, matcher.DefaultShopName, items[1].Shop)
	assert.Equal(t, matcher.DefaultShopName, items[2].Shop)
	assert.Empty(t, items[3].Shop)
}
