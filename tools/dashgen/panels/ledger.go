package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// LedgerSize returns a stat panel showing how many URLs the dedup ledger
// held at the last load.
func LedgerSize() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Ledger Size").
		Description("URLs in the dedup ledger at the last load").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(StatWidth).
		WithTarget(PromQuery(jobSel("snotify_ledger_size"), "", "A")).
		Unit("short").
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemeThresholds()).
		GraphMode(common.BigValueGraphModeArea)
}

// LedgerAppended returns a timeseries panel showing ledger appends.
func LedgerAppended() *timeseries.PanelBuilder {
	return rateSeries("Ledger Appends", "URLs appended to the ledger per second", TSWidth).
		WithTarget(PromQuery(`rate(`+jobSel("snotify_ledger_appended_total")+`[5m])`, "appended", "A")).
		Unit("ops").
		Legend(TableLegend("mean", "max")).
		Thresholds(ThresholdsGreenOnly())
}

// LedgerErrors returns a stat panel counting ledger failures by operation.
func LedgerErrors() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Ledger Errors (24h)").
		Description("Ledger load and append failures").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(StatWidth).
		WithTarget(PromQuery(
			`sum(increase(`+jobSel("snotify_ledger_errors_total")+`[24h])) by (op)`,
			"{{op}}", "A",
		)).
		Thresholds(ThresholdsGreenYellowRed(1, 10)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone).
		TextMode(common.BigValueTextModeValueAndName)
}
