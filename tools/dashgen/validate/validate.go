// Package validate checks generated dashboards and rule files: every
// PromQL expression must parse and reference only known metrics.
package validate

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/prometheus/prometheus/promql/parser"

	"github.com/donaldgifford/shopping-notifier/tools/dashgen/rules"
)

// Result collects validation findings.
type Result struct {
	Errors   []error
	Warnings []string
}

// Ok reports whether there were no errors.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

// Expr parses expr and checks every selected metric name against known.
func Expr(expr string, known map[string]bool) Result {
	var res Result

	node, err := parser.ParseExpr(expr)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Errorf("parsing %q: %w", expr, err))
		return res
	}

	parser.Inspect(node, func(n parser.Node, _ []parser.Node) error {
		vs, ok := n.(*parser.VectorSelector)
		if !ok {
			return nil
		}
		if vs.Name == "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("selector without metric name in %q", expr))
			return nil
		}
		if !known[vs.Name] {
			res.Errors = append(res.Errors, fmt.Errorf("unknown metric %q in %q", vs.Name, expr))
		}
		return nil
	})

	return res
}

// Dashboard validates every "expr" field in an encoded dashboard.
func Dashboard(dashboardJSON []byte, known map[string]bool) (Result, error) {
	var doc any
	if err := json.Unmarshal(dashboardJSON, &doc); err != nil {
		return Result{}, fmt.Errorf("decoding dashboard: %w", err)
	}

	var exprs []string
	collectExprs(doc, &exprs)
	sort.Strings(exprs)

	var res Result
	for _, e := range exprs {
		res.merge(Expr(e, known))
	}
	return res, nil
}

// Rules validates every rule expression. Record names count as known for
// the rules that follow, matching how Prometheus evaluates a group.
func Rules(cr rules.PrometheusRule, known map[string]bool) Result {
	names := make(map[string]bool, len(known))
	for k, v := range known {
		names[k] = v
	}

	var res Result
	for _, g := range cr.Spec.Groups {
		for _, r := range g.Rules {
			if r.Record == "" && r.Alert == "" {
				res.Errors = append(res.Errors, fmt.Errorf("group %s: rule has neither record nor alert", g.Name))
			}
			res.merge(Expr(r.Expr, names))
			if r.Record != "" {
				names[r.Record] = true
			}
		}
	}
	return res
}

func (r *Result) merge(o Result) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

func collectExprs(v any, out *[]string) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if s, ok := child.(string); ok && k == "expr" {
				*out = append(*out, s)
				continue
			}
			collectExprs(child, out)
		}
	case []any:
		for _, child := range t {
			collectExprs(child, out)
		}
	}
}
