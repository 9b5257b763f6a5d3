package openapi_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/donaldgifford/shopping-notifier/api/openapi"
)

func TestRegisterRoutes(t *testing.T) {
	t.Parallel()

	e := echo.New()
	openapi.RegisterRoutes(e)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantBody string
		wantLoc  string
	}{
		{
			name:     "swagger ui points at the openapi document",
			path:     "/swagger/index.html",
			wantCode: http.StatusOK,
			wantBody: `url: "/openapi.json"`,
		},
		{
			name:     "bare path redirects",
			path:     "/swagger",
			wantCode: http.StatusMovedPermanently,
			wantLoc:  "/swagger/index.html",
		},
		{
			name:     "trailing slash redirects",
			path:     "/swagger/",
			wantCode: http.StatusMovedPermanently,
			wantLoc:  "/swagger/index.html",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			if tt.wantLoc != "" {
				assert.Equal(t, tt.wantLoc, rec.Header().Get(echo.HeaderLocation))
			}
		})
	}
}
