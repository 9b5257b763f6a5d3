package yahoo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/shopping-notifier/internal/yahoo"
)

func TestRateLimiter_Wait(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		daily   int64
		calls   int
		wantErr bool
	}{
		{name: "allows calls within quota", daily: 5, calls: 3},
		{name: "zero quota is unlimited", daily: 0, calls: 20},
		{name: "rejects when daily limit reached", daily: 2, calls: 3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rl := yahoo.NewRateLimiter(1000, 100, tt.daily)

			var lastErr error
			for range tt.calls {
				if lastErr = rl.Wait(context.Background()); lastErr != nil {
					break
				}
			}

			if tt.wantErr {
				require.ErrorIs(t, lastErr, yahoo.ErrDailyLimitReached)
				return
			}
			require.NoError(t, lastErr)
		})
	}
}

func TestRateLimiter_DailyReset(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := yahoo.NewRateLimiter(1000, 10, 1,
		yahoo.WithRateLimiterNowFunc(func() time.Time { return now }))

	require.NoError(t, rl.Wait(context.Background()))
	require.ErrorIs(t, rl.Wait(context.Background()), yahoo.ErrDailyLimitReached)
	assert.Equal(t, int64(0), rl.Remaining())

	now = now.Add(25 * time.Hour)
	require.NoError(t, rl.Wait(context.Background()))
	assert.Equal(t, int64(1), rl.DailyCount())
	assert.Equal(t, now.Add(24*time.Hour), rl.ResetAt())
}

func TestRateLimiter_Remaining_Unlimited(t *testing.T) {
	t.Parallel()

	rl := yahoo.NewRateLimiter(10, 1, 0)
	assert.Equal(t, int64(-1), rl.Remaining())
	assert.Equal(t, int64(0), rl.MaxDaily())
}

func TestRateLimiter_ContextCancelled(t *testing.T) {
	t.Parallel()

	rl := yahoo.NewRateLimiter(0.001, 1, 0)
	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, rl.Wait(ctx))
}
