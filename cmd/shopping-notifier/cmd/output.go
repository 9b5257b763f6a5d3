package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	domain "github.com/donaldgifford/shopping-notifier/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printRuleTable(w io.Writer, rules []domain.Rule) error {
	tw := newTabWriter(w)
	tw.writef("ROW\tLABEL\tKEYWORD\tPRICE\tCONDITIONS\tSTATUS\n")
	for i := range rules {
		r := &rules[i]
		status := "ok"
		if !r.Valid() {
			status = r.Err.Error()
		}
		tw.writef("%d\t%s\t%s\t%s\t%s\t%s\n",
			r.Row,
			r.Label,
			r.Keyword,
			priceRange(r.MinPrice, r.MaxPrice),
			strings.Join(r.Conditions, ","),
			status,
		)
	}
	return tw.finish()
}

func priceRange(lo, hi *int) string {
	bound := func(p *int) string {
		if p == nil {
			return ""
		}
		return fmt.Sprint(*p)
	}
	if lo == nil && hi == nil {
		return "-"
	}
	return bound(lo) + ".." + bound(hi)
}
