// Package rules loads notification rules from the CSV configuration object.
package rules

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/donaldgifford/shopping-notifier/internal/store"
	"github.com/donaldgifford/shopping-notifier/pkg/matcher"
	domain "github.com/donaldgifford/shopping-notifier/pkg/types"
)

// Column names of the configuration CSV.
const (
	ColKeyword         = "product_keyword"
	ColNegativeKeyword = "ng_keyword"
	ColMinPrice        = "lowest_price"
	ColMaxPrice        = "highest_price"
	ColExcludedShops   = "sellerIdExs"
	ColConditions      = "product_condition"
	ColLabel           = "name"
)

// RequiredColumns must all be present in the header row.
var RequiredColumns = []string{
	ColKeyword,
	ColNegativeKeyword,
	ColMinPrice,
	ColMaxPrice,
	ColExcludedShops,
	ColConditions,
	ColLabel,
}

var (
	// ErrMissingColumn is returned when the header lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
	// ErrMissingKeyword marks a row with an empty keyword.
	ErrMissingKeyword = errors.New("missing product_keyword")
	// ErrInvalidPrice marks a row whose price bound is not a number.
	ErrInvalidPrice = errors.New("invalid price")
)

// Parse reads every data row. Header or syntax problems fail the whole
// parse; per-row problems are recorded in Rule.Err so every rule keeps its
// position in the sequence.
func Parse(r io.Reader) ([]domain.Rule, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty config", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}

	var missing []error
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, fmt.Errorf("%w: %s", ErrMissingColumn, col))
		}
	}
	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}

	var rules []domain.Rule
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(rules)+1, err)
		}

		cell := func(col string) string {
			i := idx[col]
			if i >= len(rec) {
				return ""
			}
			return normalizeCell(rec[i])
		}
		rules = append(rules, parseRow(len(rules), cell))
	}
	return rules, nil
}

func parseRow(row int, cell func(string) string) domain.Rule {
	r := domain.Rule{
		Row:             row,
		Keyword:         cell(ColKeyword),
		NegativeKeyword: cell(ColNegativeKeyword),
		Conditions:      matcher.ParseConditions(cell(ColConditions)),
		ExcludedShops:   cell(ColExcludedShops),
		Label:           cell(ColLabel),
	}

	var errs []error
	if r.Keyword == "" {
		errs = append(errs, ErrMissingKeyword)
	}

	var err error
	if r.MinPrice, err = parsePrice(cell(ColMinPrice)); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", ColMinPrice, err))
	}
	if r.MaxPrice, err = parsePrice(cell(ColMaxPrice)); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", ColMaxPrice, err))
	}

	r.Err = errors.Join(errs...)
	return r
}

// normalizeCell trims a cell and maps the spreadsheet placeholder "nan" to
// an absent value.
func normalizeCell(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}

// parsePrice accepts integers, integral decimals such as "1000.0" and
// digit-group commas. Empty means no bound.
func parsePrice(v string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	v = strings.ReplaceAll(v, ",", "")

	if n, err := strconv.Atoi(v); err == nil {
		return &n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) ||
		f < math.MinInt32 || f > math.MaxInt32 {
		return nil, fmt.Errorf("%w %q", ErrInvalidPrice, v)
	}
	n := int(f)
	return &n, nil
}

// Partition returns the rules owned by p, keeping their relative order.
func Partition(rules []domain.Rule, p domain.Partition) []domain.Rule {
	out := make([]domain.Rule, 0, len(rules))
	for i := range rules {
		if p.Owns(rules[i].Row) {
			out = append(out, rules[i])
		}
	}
	return out
}

// Source reads the configuration CSV from a blob store.
type Source struct {
	blobs store.BlobStore
	key   string
}

// NewSource creates a Source reading key from blobs.
func NewSource(blobs store.BlobStore, key string) *Source {
	return &Source{blobs: blobs, key: key}
}

// Load fetches and parses the configuration.
func (s *Source) Load(ctx context.Context) ([]domain.Rule, error) {
	data, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", s.key, err)
	}
	rules, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", s.key, err)
	}
	return rules, nil
}
