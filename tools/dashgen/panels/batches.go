package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

func rateSeries(title, desc string, span uint32) *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title(title).
		Description(desc).
		Datasource(DSRef()).
		Height(TSHeight).
		Span(span).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// BatchRate returns a timeseries panel showing batch invocations per second
// split by response status.
func BatchRate() *timeseries.PanelBuilder {
	return rateSeries("Batch Rate", "Batch invocations per second by outcome", StatWidth).
		WithTarget(PromQuery(
			`sum(rate(`+jobSel("snotify_batches_total")+`[5m])) by (status)`,
			"{{status}}", "A",
		)).
		Unit("ops").
		Legend(TableLegend("mean", "max")).
		Thresholds(ThresholdsGreenOnly())
}

// BatchDuration returns a timeseries panel showing p50 and p95 batch
// duration.
func BatchDuration() *timeseries.PanelBuilder {
	const bucket = "snotify_batch_duration_seconds_bucket"
	return rateSeries("Batch Duration", "Batch duration percentiles", StatWidth).
		WithTarget(PromQuery(quantile(0.50, bucket), "p50", "A")).
		WithTarget(PromQuery(quantile(0.95, bucket), "p95", "B")).
		Unit("s").
		Legend(TableLegend("mean", "max")).
		Thresholds(ThresholdsGreenYellowRed(300, 600))
}

// RulesRate returns a timeseries panel showing processed and failed rules.
func RulesRate() *timeseries.PanelBuilder {
	return rateSeries("Rules", "Rules processed and rules failed per second", StatWidth).
		WithTarget(PromQuery(`rate(`+jobSel("snotify_rules_processed_total")+`[5m])`, "processed", "A")).
		WithTarget(PromQuery(`rate(`+jobSel("snotify_rule_errors_total")+`[5m])`, "failed", "B")).
		Unit("ops").
		Legend(TableLegend("mean", "max")).
		Thresholds(ThresholdsGreenOnly())
}

// TriggerFailures returns a stat panel counting failed chain triggers over
// the last 24 hours.
func TriggerFailures() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Trigger Failures (24h)").
		Description("Failures to start the next batch in a run").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`increase(`+jobSel("snotify_trigger_failures_total")+`[24h])`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}
