package panels

import "github.com/grafana/grafana-foundation-sdk/go/timeseries"

// NotificationsRate returns a timeseries panel showing delivered and failed
// chat notifications per second.
func NotificationsRate() *timeseries.PanelBuilder {
	return rateSeries("Notifications", "Notifications delivered and failed per second", TSWidth).
		WithTarget(PromQuery(`snotify:notifications_sent:rate5m`, "sent", "A")).
		WithTarget(PromQuery(`snotify:notification_failures:rate5m`, "failed", "B")).
		Unit("ops").
		Legend(TableLegend("mean", "max")).
		Thresholds(ThresholdsGreenOnly())
}

// SkippedByReason returns a timeseries panel showing why candidate items
// were not notified.
func SkippedByReason() *timeseries.PanelBuilder {
	return rateSeries("Skipped Items", "Candidate items skipped per second by reason", TSWidth).
		WithTarget(PromQuery(
			`sum(rate(`+jobSel("snotify_items_skipped_total")+`[5m])) by (reason)`,
			"{{reason}}", "A",
		)).
		Unit("ops").
		Legend(TableLegend("mean", "max")).
		Thresholds(ThresholdsGreenOnly())
}
