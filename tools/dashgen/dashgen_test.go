package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/shopping-notifier/tools/dashgen/dashboards"
	"github.com/donaldgifford/shopping-notifier/tools/dashgen/rules"
	"github.com/donaldgifford/shopping-notifier/tools/dashgen/validate"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "default", cfg: DefaultConfig()},
		{name: "empty output dir", cfg: Config{DashboardEnabled: true}, wantErr: true},
		{name: "nothing enabled", cfg: Config{OutputDir: "/tmp"}, wantErr: true},
		{name: "rules only", cfg: Config{OutputDir: "/tmp", RulesEnabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBuildOverviewDashboard(t *testing.T) {
	t.Parallel()

	dash, err := dashboards.BuildOverview().Build()
	require.NoError(t, err)

	require.NotNil(t, dash.Uid)
	assert.Equal(t, "snotify-overview", *dash.Uid)
	require.NotNil(t, dash.Title)
	assert.Equal(t, "Shopping Notifier Overview", *dash.Title)

	require.NotNil(t, dash.Templating)
	require.Len(t, dash.Templating.List, 1)
	assert.Equal(t, "datasource", dash.Templating.List[0].Name)

	assert.Len(t, dash.Panels, 6)
	total := 0
	for _, p := range dash.Panels {
		if p.RowPanel != nil {
			total += len(p.RowPanel.Panels)
		}
	}
	assert.Equal(t, 19, total)

	data, err := json.Marshal(dash)
	require.NoError(t, err)
	for _, row := range []string{"Overview", "HTTP", "Batches", "Search API", "Notifications", "Ledger"} {
		assert.Contains(t, string(data), `"title":"`+row+`"`)
	}
	res, err := validate.Dashboard(data, KnownMetrics)
	require.NoError(t, err)
	assert.True(t, res.Ok(), "validation errors: %v", res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestRecordingRules(t *testing.T) {
	t.Parallel()

	cr := rules.RecordingRules()
	assert.Equal(t, "monitoring.coreos.com/v1", cr.APIVersion)
	assert.Equal(t, "PrometheusRule", cr.Kind)
	assert.Equal(t, "snotify-recording-rules", cr.Metadata.Name)

	require.Len(t, cr.Spec.Groups, 1)
	assert.Equal(t, "snotify-recording", cr.Spec.Groups[0].Name)

	var records []string
	for _, r := range cr.Rules() {
		records = append(records, r.Record)
		assert.Empty(t, r.Alert)
		assert.True(t, KnownMetrics[r.Record], "record %s missing from KnownMetrics", r.Record)
	}
	assert.Equal(t, []string{
		"snotify:http_requests:rate5m",
		"snotify:http_errors:rate5m",
		"snotify:batches:rate5m",
		"snotify:notifications_sent:rate5m",
		"snotify:notification_failures:rate5m",
		"snotify:search_api_calls:rate5m",
	}, records)

	res := validate.Rules(cr, KnownMetrics)
	assert.True(t, res.Ok(), "validation errors: %v", res.Errors)
}

func TestAlertRules(t *testing.T) {
	t.Parallel()

	cr := rules.AlertRules()
	assert.Equal(t, "snotify-alerts", cr.Metadata.Name)
	assert.Equal(t, "system-rules-prometheus", cr.Metadata.Labels["prometheus"])

	alerts := cr.Rules()
	require.Len(t, alerts, 9)
	for _, r := range alerts {
		assert.True(t, strings.HasPrefix(r.Alert, "Snotify"), r.Alert)
		assert.Contains(t, []string{"warning", "critical"}, r.Labels["severity"], r.Alert)
		assert.NotEmpty(t, r.Annotations["summary"], r.Alert)
		assert.NotEmpty(t, r.Annotations["description"], r.Alert)
		assert.NotEmpty(t, r.For, r.Alert)
	}

	res := validate.Rules(cr, KnownMetrics)
	assert.True(t, res.Ok(), "validation errors: %v", res.Errors)
}

func TestValidateExpr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expr     string
		wantErrs int
		wantWarn int
	}{
		{name: "known metric", expr: `rate(snotify_batches_total[5m])`},
		{name: "recording rule", expr: `snotify:http_errors:rate5m / snotify:http_requests:rate5m`},
		{name: "unknown metric", expr: `rate(snotify_listings_total[5m])`, wantErrs: 1},
		{name: "parse error", expr: `sum(rate(snotify_batches_total[5m]`, wantErrs: 1},
		{name: "selector without name", expr: `{job="shopping-notifier"}`, wantWarn: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := validate.Expr(tt.expr, KnownMetrics)
			assert.Len(t, res.Errors, tt.wantErrs)
			assert.Len(t, res.Warnings, tt.wantWarn)
		})
	}
}

func TestValidateRules_RecordBeforeUse(t *testing.T) {
	t.Parallel()

	cr := rules.PrometheusRule{Spec: rules.PrometheusRuleSpec{Groups: []rules.RuleGroup{{
		Name: "g",
		Rules: []rules.Rule{
			{Alert: "A", Expr: `custom:rate5m > 0`},
			{Record: "custom:rate5m", Expr: `rate(snotify_batches_total[5m])`},
			{Alert: "B", Expr: `custom:rate5m > 0`},
			{Expr: `up`},
		},
	}}}}

	res := validate.Rules(cr, KnownMetrics)
	// The first alert references the record before it exists; the last rule
	// has neither record nor alert.
	assert.Len(t, res.Errors, 2)
}

func TestRun_WritesArtifacts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := Config{OutputDir: dir, DashboardEnabled: true, RulesEnabled: true}
	require.NoError(t, run(cfg, false))

	dash, err := os.ReadFile(filepath.Join(dir, "grafana", "data", "snotify-overview.json"))
	require.NoError(t, err)
	assert.Contains(t, string(dash), `"uid": "snotify-overview"`)

	for _, name := range []string{"snotify-recording-rules.yaml", "snotify-alerts.yaml"} {
		data, err := os.ReadFile(filepath.Join(dir, "prometheus", name))
		require.NoError(t, err, name)
		assert.True(t, strings.HasPrefix(string(data), generatedHeader), name)

		var cr rules.PrometheusRule
		require.NoError(t, yaml.Unmarshal(data, &cr), name)
		assert.Equal(t, "PrometheusRule", cr.Kind)
	}
}

func TestRun_ValidateOnlyWritesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, run(Config{OutputDir: dir, RulesEnabled: true}, true))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
