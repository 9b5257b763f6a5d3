package main

import "errors"

// KnownMetrics is the set of metric names exported by shopping-notifier
// plus recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"snotify_http_request_duration_seconds":        true,
	"snotify_http_request_duration_seconds_bucket": true,
	"snotify_http_requests_total":                  true,

	// Health metrics.
	"snotify_healthz_up": true,
	"snotify_readyz_up":  true,

	// Batch metrics.
	"snotify_batches_total":                 true,
	"snotify_batch_duration_seconds_bucket": true,
	"snotify_rules_processed_total":         true,
	"snotify_rule_errors_total":             true,
	"snotify_items_skipped_total":           true,
	"snotify_trigger_failures_total":        true,

	// Search API metrics.
	"snotify_search_api_calls_total":        true,
	"snotify_search_daily_usage":            true,
	"snotify_search_daily_limit_hits_total": true,

	// Notification metrics.
	"snotify_notifications_sent_total":    true,
	"snotify_notification_failures_total": true,

	// Ledger metrics.
	"snotify_ledger_size":           true,
	"snotify_ledger_appended_total": true,
	"snotify_ledger_errors_total":   true,

	// Recording rules.
	"snotify:http_requests:rate5m":         true,
	"snotify:http_errors:rate5m":           true,
	"snotify:batches:rate5m":               true,
	"snotify:notifications_sent:rate5m":    true,
	"snotify:notification_failures:rate5m": true,
	"snotify:search_api_calls:rate5m":      true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
