package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// shopping-notifier operational monitoring.
func AlertRules() PrometheusRule {
	return newRule("snotify-alerts", RuleGroup{
		Name: "snotify-alerts",
		Rules: []Rule{
			alert("SnotifyDown",
				`absent(up{job="shopping-notifier"})`, "2m", "critical",
				"Shopping Notifier is down",
				"The shopping-notifier job has been absent for more than 2 minutes."),
			alert("SnotifyReadinessDown",
				`snotify_readyz_up == 0`, "2m", "critical",
				"Shopping Notifier readiness check is failing",
				"The ledger has been unreachable for more than 2 minutes."),
			alert("SnotifyHighErrorRate",
				`snotify:http_errors:rate5m / snotify:http_requests:rate5m > 0.05`, "5m", "warning",
				"High HTTP error rate on Shopping Notifier",
				"More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes."),
			alert("SnotifyBatchFailures",
				`snotify:batches:rate5m{status=~".*error"} > 0`, "10m", "warning",
				"Batches are failing",
				"Batches have been aborting on config load or trigger errors for more than 10 minutes."),
			alert("SnotifyTriggerFailures",
				`increase(snotify_trigger_failures_total[15m]) > 0`, "0m", "critical",
				"A run stopped before its last batch",
				"The next batch could not be started, so the rest of the run was skipped."),
			alert("SnotifySearchQuotaHigh",
				`snotify_search_daily_usage > 40000`, "5m", "warning",
				"Search API daily usage is above 80% of the quota",
				"Daily search API usage has exceeded 40000 calls (limit is 50000)."),
			alert("SnotifySearchLimitReached",
				`increase(snotify_search_daily_limit_hits_total[5m]) > 0`, "0m", "critical",
				"Search API daily limit has been reached",
				"The daily search quota has been exhausted. Rules are skipped until the window rolls over."),
			alert("SnotifyNotificationFailures",
				`snotify:notification_failures:rate5m > 0`, "5m", "warning",
				"Chat notification failures detected",
				"Chatwork messages have been failing to send for more than 5 minutes."),
			alert("SnotifyLedgerErrors",
				`increase(snotify_ledger_errors_total[15m]) > 0`, "0m", "warning",
				"Ledger errors detected",
				"Loading or appending to the notified-items ledger failed. Duplicates may be sent."),
		},
	})
}
