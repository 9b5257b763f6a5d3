package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/shopping-notifier/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		envVars   map[string]string
		wantErr   string
		checkFunc func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid minimal config",
			yaml: `
yahoo:
  app_id: my-app
chatwork:
  room_id: "123"
  api_token: tok
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "my-app", cfg.Yahoo.AppID)
				assert.Equal(t, "123", cfg.Chatwork.RoomID)
				assert.Equal(t, "tok", cfg.Chatwork.APIToken)
			},
		},
		{
			name: "defaults applied for optional fields",
			yaml: `
yahoo:
  app_id: my-app
chatwork:
  dry_run: true
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "-score", cfg.Yahoo.Sort)
				assert.Equal(t, 10, cfg.Yahoo.Results)
				require.NotNil(t, cfg.Yahoo.InStock)
				assert.True(t, *cfg.Yahoo.InStock)
				assert.Equal(t, time.Second, cfg.Yahoo.CallInterval)
				assert.Equal(t, 3, cfg.Yahoo.Retry.MaxAttempts)
				assert.Equal(t, 2*time.Second, cfg.Yahoo.Retry.Backoff)
				assert.Equal(t, 5*time.Second, cfg.Chatwork.Retry.RateLimitBackoff)
				assert.Equal(t, "https://api.chatwork.com/v2", cfg.Chatwork.BaseURL)
				assert.Equal(t, time.Second, cfg.Chatwork.SuccessDelay)
				assert.Equal(t, "data", cfg.Storage.Bucket)
				assert.Equal(t, "config.csv", cfg.Storage.ConfigKey)
				assert.Equal(t, LedgerSQLite, cfg.Ledger.Backend)
				assert.Equal(t, "notified_items", cfg.Ledger.Name)
				assert.Equal(t, "notified_items.csv", cfg.Ledger.CSV.Key)
				assert.Equal(t, 10, cfg.Batch.Size)
				assert.Equal(t, domain.PartitionAll, cfg.Batch.Partition)
				assert.Equal(t, time.Second, cfg.Batch.NotifyInterval)
				assert.Equal(t, TriggerQueue, cfg.Batch.Trigger)
				assert.Equal(t, "除外店舗_Yahoo", cfg.Exclusions.SheetName)
				assert.Equal(t, "temp_excluded_shops.json", cfg.Exclusions.CacheKey)
				assert.False(t, cfg.Exclusions.SheetsEnabled())
				assert.Equal(t, "新品、未使用", cfg.Matcher.NewOnlyTag)
				assert.Equal(t, "中古", cfg.Matcher.UsedMarker)
				assert.Equal(t, time.Hour, cfg.Schedule.Interval)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "text", cfg.Logging.Format)
			},
		},
		{
			name: "env var substitution",
			yaml: `
yahoo:
  app_id: "${TEST_YAHOO_APP_ID}"
chatwork:
  dry_run: true
`,
			envVars: map[string]string{
				"TEST_YAHOO_APP_ID": "from-env",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "from-env", cfg.Yahoo.AppID)
			},
		},
		{
			name: "deployment env overrides win over file values",
			yaml: `
yahoo:
  app_id: file-app
chatwork:
  room_id: "1"
  api_token: file-token
ledger:
  name: file_ledger
batch:
  size: 5
`,
			envVars: map[string]string{
				"YAHOO_APPLICATION_ID": "env-app",
				"CHATWORK_API_TOKEN":   "env-token",
				"LEDGER_NAME":          "notified_odd",
				"BATCH_SIZE":           "25",
				"PARTITION":            "odd",
				"SPREADSHEET_ID":       "sheet-1",
				"GOOGLE_SECRET_NAME":   "sa-key",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "env-app", cfg.Yahoo.AppID)
				assert.Equal(t, "env-token", cfg.Chatwork.APIToken)
				assert.Equal(t, "1", cfg.Chatwork.RoomID)
				assert.Equal(t, "notified_odd", cfg.Ledger.Name)
				assert.Equal(t, "notified_odd.csv", cfg.Ledger.CSV.Key)
				assert.Equal(t, 25, cfg.Batch.Size)
				assert.Equal(t, domain.PartitionOdd, cfg.Batch.Partition)
				assert.True(t, cfg.Exclusions.SheetsEnabled())
			},
		},
		{
			name: "non-numeric BATCH_SIZE",
			yaml: `
yahoo:
  app_id: a
chatwork:
  dry_run: true
`,
			envVars: map[string]string{"BATCH_SIZE": "ten"},
			wantErr: `BATCH_SIZE "ten"`,
		},
		{
			name: "missing required yahoo.app_id",
			yaml: `
chatwork:
  dry_run: true
`,
			wantErr: "yahoo.app_id is required",
		},
		{
			name: "chatwork credentials required without dry run",
			yaml: `
yahoo:
  app_id: a
`,
			wantErr: "chatwork.room_id is required unless dry_run is set",
		},
		{
			name: "invalid ledger backend",
			yaml: `
yahoo:
  app_id: a
chatwork:
  dry_run: true
ledger:
  backend: dynamodb
`,
			wantErr: `ledger.backend must be one of: postgres, sqlite, csv (got "dynamodb")`,
		},
		{
			name: "postgres backend missing host",
			yaml: `
yahoo:
  app_id: a
chatwork:
  dry_run: true
ledger:
  backend: postgres
  postgres:
    name: notifier
    user: app
`,
			wantErr: "ledger.postgres.host is required when backend is postgres",
		},
		{
			name: "invalid ledger name",
			yaml: `
yahoo:
  app_id: a
chatwork:
  dry_run: true
ledger:
  name: "drop table; --"
`,
			wantErr: "ledger.name",
		},
		{
			name: "invalid partition",
			yaml: `
yahoo:
  app_id: a
chatwork:
  dry_run: true
batch:
  partition: thirds
`,
			wantErr: `batch.partition must be one of: all, even, odd (got "thirds")`,
		},
		{
			name: "http trigger needs a url",
			yaml: `
yahoo:
  app_id: a
chatwork:
  dry_run: true
batch:
  trigger: http
`,
			wantErr: "batch.trigger_url is required when trigger is http",
		},
		{
			name: "negative batch size",
			yaml: `
yahoo:
  app_id: a
chatwork:
  dry_run: true
batch:
  size: -1
`,
			wantErr: "batch.size must be positive",
		},
		{
			name:    "invalid YAML",
			yaml:    `{{{not valid yaml`,
			wantErr: "parsing config YAML",
		},
		{
			name: "full config with overrides",
			yaml: `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 60s
yahoo:
  app_id: my-app
  results: 20
  in_stock: false
  call_interval: 2s
  rate_limit:
    per_second: 2
    burst: 4
    daily_limit: 1000
  retry:
    max_attempts: 5
chatwork:
  room_id: "42"
  api_token: tok
  success_delay: 500ms
ledger:
  backend: postgres
  name: notified_even
  postgres:
    host: db.example.com
    name: notifier
    user: app
    password: pass
    sslmode: require
batch:
  size: 3
  partition: even
  trigger: http
  trigger_url: http://notifier:8080
exclusions:
  secret_name: sa-key
  spreadsheet_id: sheet-1
  secrets:
    dir: /var/run/secrets
  shops: [shopa]
matcher:
  new_only_tag: new
  used_marker: used
schedule:
  enabled: true
  interval: 30m
logging:
  level: debug
  format: json
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 20, cfg.Yahoo.Results)
				require.NotNil(t, cfg.Yahoo.InStock)
				assert.False(t, *cfg.Yahoo.InStock)
				assert.Equal(t, 2*time.Second, cfg.Yahoo.CallInterval)
				assert.InDelta(t, 2.0, cfg.Yahoo.RateLimit.PerSecond, 0.001)
				assert.Equal(t, int64(1000), cfg.Yahoo.RateLimit.DailyLimit)
				assert.Equal(t, 5, cfg.Yahoo.Retry.MaxAttempts)
				assert.Equal(t, 2*time.Second, cfg.Yahoo.Retry.Backoff)
				assert.Equal(t, 500*time.Millisecond, cfg.Chatwork.SuccessDelay)
				assert.Equal(t, LedgerPostgres, cfg.Ledger.Backend)
				assert.Equal(t, 5432, cfg.Ledger.Postgres.Port)
				assert.Equal(t, "require", cfg.Ledger.Postgres.SSLMode)
				assert.Equal(t, 3, cfg.Batch.Size)
				assert.Equal(t, domain.PartitionEven, cfg.Batch.Partition)
				assert.Equal(t, TriggerHTTP, cfg.Batch.Trigger)
				assert.Equal(t, "/var/run/secrets", cfg.Exclusions.Secrets.Dir)
				assert.Equal(t, []string{"shopa"}, cfg.Exclusions.Shops)
				assert.Equal(t, "new", cfg.Matcher.NewOnlyTag)
				assert.True(t, cfg.Schedule.Enabled)
				assert.Equal(t, 30*time.Minute, cfg.Schedule.Interval)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			cfg, err := Load(path)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"CHATWORK_ROOM_ID": "99",
		"CONFIG_BUCKET":    "/srv/bucket",
		"CONFIG_KEY":       "rules/prod.csv",
		"LEDGER_NAME":      "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := &Config{Ledger: LedgerConfig{Name: "kept"}}
	require.NoError(t, applyEnvOverrides(cfg, lookup))

	assert.Equal(t, "99", cfg.Chatwork.RoomID)
	assert.Equal(t, "/srv/bucket", cfg.Storage.Bucket)
	assert.Equal(t, "rules/prod.csv", cfg.Storage.ConfigKey)
	assert.Equal(t, "kept", cfg.Ledger.Name, "empty variables do not override")
}

func TestPostgresConfig_DSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  PostgresConfig
		want string
	}{
		{
			name: "basic DSN",
			cfg: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Name:     "testdb",
				User:     "testuser",
				Password: "testpass",
				SSLMode:  "disable",
				PoolSize: 4,
			},
			want: "host=localhost port=5432 dbname=testdb user=testuser password=testpass sslmode=disable pool_max_conns=4",
		},
		{
			name: "production DSN",
			cfg: PostgresConfig{
				Host:     "db.example.com",
				Port:     5433,
				Name:     "notifier",
				User:     "admin",
				Password: "s3cret",
				SSLMode:  "require",
				PoolSize: 10,
			},
			want: "host=db.example.com port=5433 dbname=notifier user=admin password=s3cret sslmode=require pool_max_conns=10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cfg.DSN())
		})
	}
}
