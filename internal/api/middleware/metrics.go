// Package middleware provides Echo middleware for the shopping notifier API.
package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/donaldgifford/shopping-notifier/internal/metrics"
)

// unmatchedRoute labels requests that matched no registered route, so
// arbitrary URLs cannot grow the label set.
const unmatchedRoute = "unmatched"

// healthGauges maps probe paths to their up/down gauge. Probes and the
// scrape endpoint are left out of the request histogram.
var healthGauges = map[string]prometheus.Gauge{
	"/healthz": metrics.HealthzUp,
	"/readyz":  metrics.ReadyzUp,
}

// Metrics returns Echo middleware that records request duration and count
// by method, route template and status.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok && !c.Response().Committed {
				status = he.Code
			}

			path := c.Request().URL.Path
			if g, ok := healthGauges[path]; ok {
				g.Set(boolGauge(status < 300 && status >= 200))
				return err
			}
			if path == "/metrics" {
				return err
			}

			route := c.Path()
			if route == "" || status == 404 && route == "/*" {
				route = unmatchedRoute
			}

			labels := []string{c.Request().Method, route, strconv.Itoa(status)}
			metrics.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.WithLabelValues(labels...).Inc()

			return err
		}
	}
}

func boolGauge(up bool) float64 {
	if up {
		return 1
	}
	return 0
}
