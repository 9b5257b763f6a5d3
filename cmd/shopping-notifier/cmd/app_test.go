package cmd

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/shopping-notifier/internal/config"
	"github.com/donaldgifford/shopping-notifier/internal/exclusions"
	"github.com/donaldgifford/shopping-notifier/internal/notify"
	"github.com/donaldgifford/shopping-notifier/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadTestConfig(t *testing.T, extra string) *config.Config {
	t.Helper()

	dir := t.TempDir()
	yaml := `
yahoo:
  app_id: test-app
chatwork:
  dry_run: true
storage:
  bucket: ` + filepath.Join(dir, "bucket") + `
ledger:
  backend: csv
` + extra
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestNewApp_Wiring(t *testing.T) {
	cfg := loadTestConfig(t, `
exclusions:
  shops: [shopa]
`)

	a, err := newApp(context.Background(), cfg, quietLogger(), true)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	assert.IsType(t, &store.CSVLedger{}, a.ledger)
	assert.IsType(t, &notify.NoOpNotifier{}, a.notifier())
	assert.Equal(t, exclusions.StaticSource{"shopa"}, a.exclusionSource())
	assert.NotNil(t, a.engine)
	assert.NotNil(t, a.driver)
}

func TestApp_ExclusionSource(t *testing.T) {
	tests := []struct {
		name  string
		extra string
		check func(t *testing.T, src exclusions.Source)
	}{
		{
			name: "sheets when secret and spreadsheet are set",
			extra: `
exclusions:
  secret_name: sa
  spreadsheet_id: sheet-1
  shops: [ignored]
`,
			check: func(t *testing.T, src exclusions.Source) {
				t.Helper()
				assert.IsType(t, &exclusions.SheetsSource{}, src)
			},
		},
		{
			name: "nothing configured skips the fetch",
			check: func(t *testing.T, src exclusions.Source) {
				t.Helper()
				assert.Nil(t, src)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &app{cfg: loadTestConfig(t, tt.extra), log: quietLogger()}
			tt.check(t, a.exclusionSource())
		})
	}
}

func TestNewServer_Routes(t *testing.T) {
	cfg := loadTestConfig(t, "")

	a, err := newApp(context.Background(), cfg, quietLogger(), true)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	e := newServer(a)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
		wantBody string
	}{
		{name: "liveness", method: http.MethodGet, path: "/healthz", wantCode: http.StatusOK, wantBody: `"ok"`},
		{name: "readiness pings the ledger", method: http.MethodGet, path: "/readyz", wantCode: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantCode: http.StatusOK, wantBody: "snotify_"},
		{name: "quota", method: http.MethodGet, path: "/api/v1/quota", wantCode: http.StatusOK, wantBody: `"daily_limit":50000`},
		{
			name:     "invoke without a rules object is a config failure",
			method:   http.MethodPost,
			path:     "/api/v1/invoke",
			body:     `{"current_batch":0}`,
			wantCode: http.StatusInternalServerError,
			wantBody: `"statusCode":500`,
		},
		{name: "openapi document", method: http.MethodGet, path: "/openapi.json", wantCode: http.StatusOK, wantBody: "/api/v1/invoke"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader = http.NoBody
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}
