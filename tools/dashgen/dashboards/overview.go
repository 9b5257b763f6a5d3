// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/shopping-notifier/tools/dashgen/panels"
)

// UID is the stable dashboard identifier.
const UID = "snotify-overview"

// BuildOverview constructs the Shopping Notifier Overview dashboard.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Shopping Notifier Overview").
		Uid(UID).
		Tags([]string{"snotify", "shopping-notifier"}).
		Refresh("1m").
		Time("now-24h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.QuotaGauge()).
		WithPanel(panels.UptimeStat()))

	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	b.WithRow(dashboard.NewRowBuilder("Batches").
		WithPanel(panels.BatchRate()).
		WithPanel(panels.BatchDuration()).
		WithPanel(panels.RulesRate()).
		WithPanel(panels.TriggerFailures()))

	b.WithRow(dashboard.NewRowBuilder("Search API").
		WithPanel(panels.APICallsRate()).
		WithPanel(panels.DailyUsage()).
		WithPanel(panels.LimitHits()))

	b.WithRow(dashboard.NewRowBuilder("Notifications").
		WithPanel(panels.NotificationsRate()).
		WithPanel(panels.SkippedByReason()))

	b.WithRow(dashboard.NewRowBuilder("Ledger").
		WithPanel(panels.LedgerSize()).
		WithPanel(panels.LedgerAppended()).
		WithPanel(panels.LedgerErrors()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
