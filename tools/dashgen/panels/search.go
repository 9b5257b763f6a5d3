package panels

import (
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// APICallsRate returns a timeseries panel showing search API calls per
// second by HTTP status.
func APICallsRate() *timeseries.PanelBuilder {
	return rateSeries("Search API Calls", "Search API calls per second by HTTP status", 8).
		WithTarget(PromQuery(
			`sum(rate(`+jobSel("snotify_search_api_calls_total")+`[5m])) by (status)`,
			"{{status}}", "A",
		)).
		WithTarget(PromQuery(`snotify:search_api_calls:rate5m`, "total", "B")).
		Unit("reqps").
		Legend(TableLegend("mean", "max")).
		Thresholds(ThresholdsGreenOnly())
}

// DailyUsage returns a timeseries panel plotting the rolling daily call
// count against the limit.
func DailyUsage() *timeseries.PanelBuilder {
	return rateSeries("Daily Usage", "Search API calls in the rolling 24h window", 8).
		WithTarget(PromQuery(jobSel("snotify_search_daily_usage"), "usage", "A")).
		WithTarget(PromQuery(fmt.Sprintf("vector(%d)", SearchDailyLimit), "limit", "B")).
		Unit("short").
		Legend(TableLegend("last", "max")).
		Thresholds(ThresholdsGreenYellowRed(SearchDailyLimit*0.8, SearchDailyLimit*0.95))
}

// LimitHits returns a stat panel counting daily limit hits over 24 hours.
func LimitHits() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Limit Hits (24h)").
		Description("Times the daily search limit was reached").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`increase(`+jobSel("snotify_search_daily_limit_hits_total")+`[24h])`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 1)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone)
}
