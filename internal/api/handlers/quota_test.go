package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/shopping-notifier/internal/api/handlers"
	"github.com/donaldgifford/shopping-notifier/internal/yahoo"
)

func TestGetQuota(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rl       *yahoo.RateLimiter
		preCalls int
		want     []string
	}{
		{
			name: "no limiter configured",
			want: []string{`"daily_limit":0`, `"daily_used":0`, `"remaining":0`},
		},
		{
			name:     "usage counted against the limit",
			rl:       yahoo.NewRateLimiter(100, 10, 100),
			preCalls: 3,
			want:     []string{`"daily_limit":100`, `"daily_used":3`, `"remaining":97`, `"exhausted":false`},
		},
		{
			name:     "limit reached",
			rl:       yahoo.NewRateLimiter(100, 10, 2),
			preCalls: 2,
			want:     []string{`"remaining":0`, `"exhausted":true`},
		},
		{
			name:     "unlimited quota",
			rl:       yahoo.NewRateLimiter(100, 10, 0),
			preCalls: 2,
			want:     []string{`"daily_limit":0`, `"daily_used":2`, `"remaining":-1`, `"exhausted":false`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var q handlers.QuotaReporter
			if tt.rl != nil {
				for range tt.preCalls {
					require.NoError(t, tt.rl.Wait(t.Context()))
				}
				q = tt.rl
			}

			_, api := humatest.New(t)
			handlers.RegisterQuotaRoutes(api, handlers.NewQuotaHandler(q))

			resp := api.Get("/api/v1/quota")
			require.Equal(t, http.StatusOK, resp.Code)

			body := resp.Body.String()
			for _, w := range tt.want {
				assert.Contains(t, body, w)
			}
			assert.Contains(t, body, `"reset_at"`)
		})
	}
}

func TestGetQuota_ResetAtValue(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 15, 14, 30, 0, 0, time.UTC)
	rl := yahoo.NewRateLimiter(
		5, 10, 50000,
		yahoo.WithRateLimiterNowFunc(func() time.Time { return now }),
	)

	_, api := humatest.New(t)
	handlers.RegisterQuotaRoutes(api, handlers.NewQuotaHandler(rl))

	resp := api.Get("/api/v1/quota")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "2026-06-16T14:30:00Z")
}
