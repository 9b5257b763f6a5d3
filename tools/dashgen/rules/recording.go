package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return newRule("snotify-recording-rules", RuleGroup{
		Name: "snotify-recording",
		Rules: []Rule{
			{
				Record: "snotify:http_requests:rate5m",
				Expr:   `sum(rate(snotify_http_requests_total[5m]))`,
			},
			{
				Record: "snotify:http_errors:rate5m",
				Expr:   `sum(rate(snotify_http_requests_total{status=~"5.."}[5m]))`,
			},
			{
				Record: "snotify:batches:rate5m",
				Expr:   `sum(rate(snotify_batches_total[5m])) by (status)`,
			},
			{
				Record: "snotify:notifications_sent:rate5m",
				Expr:   `rate(snotify_notifications_sent_total[5m])`,
			},
			{
				Record: "snotify:notification_failures:rate5m",
				Expr:   `rate(snotify_notification_failures_total[5m])`,
			},
			{
				Record: "snotify:search_api_calls:rate5m",
				Expr:   `sum(rate(snotify_search_api_calls_total[5m]))`,
			},
		},
	})
}
