package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func loadTestFixture(t *testing.T) *searchResponse {
	t.Helper()
	fixture, err := loadFixture(filepath.Join("testdata", "search_response.json"))
	if err != nil {
		t.Fatalf("loading fixture: %v", err)
	}
	return fixture
}

func search(t *testing.T, fixture *searchResponse, query url.Values) (*httptest.ResponseRecorder, searchResponse) {
	t.Helper()
	handler := searchHandler(testLogger(), fixture)
	req := httptest.NewRequest(http.MethodGet, "/ShoppingWebService/V3/itemSearch?"+query.Encode(), http.NoBody)
	w := httptest.NewRecorder()

	handler(w, req)

	var resp searchResponse
	if w.Code == http.StatusOK {
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
	return w, resp
}

func TestLoadFixture(t *testing.T) {
	fixture := loadTestFixture(t)
	if len(fixture.Hits) == 0 {
		t.Fatal("expected hits in fixture")
	}
	if fixture.TotalResultsAvailable != len(fixture.Hits) {
		t.Errorf("total=%d, want %d", fixture.TotalResultsAvailable, len(fixture.Hits))
	}
}

func TestSearchHandler_AllItems(t *testing.T) {
	fixture := loadTestFixture(t)
	w, resp := search(t, fixture, url.Values{"appid": {"a"}, "results": {"50"}})

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusOK)
	}
	if resp.TotalResultsAvailable != len(fixture.Hits) {
		t.Errorf("total=%d, want %d", resp.TotalResultsAvailable, len(fixture.Hits))
	}
	if len(resp.Hits) != len(fixture.Hits) {
		t.Errorf("hits=%d, want %d", len(resp.Hits), len(fixture.Hits))
	}
}

func TestSearchHandler_MissingAppID(t *testing.T) {
	w, _ := search(t, loadTestFixture(t), url.Values{"query": {"switch"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSearchHandler_Filters(t *testing.T) {
	fixture := loadTestFixture(t)

	tests := []struct {
		name      string
		query     url.Values
		wantTotal int
		wantHits  int
	}{
		{
			name:      "every term must match",
			query:     url.Values{"query": {"Switch 有機EL"}},
			wantTotal: 3,
			wantHits:  3,
		},
		{
			name:      "lower price bound drops cheaper items",
			query:     url.Values{"query": {"switch 有機el"}, "price_from": {"1000"}},
			wantTotal: 2,
			wantHits:  2,
		},
		{
			name:      "both bounds",
			query:     url.Values{"query": {"switch 有機el"}, "price_from": {"1000"}, "price_to": {"30000"}},
			wantTotal: 1,
			wantHits:  1,
		},
		{
			name:      "results caps hits but not the total",
			query:     url.Values{"query": {"switch"}, "results": {"2"}},
			wantTotal: 4,
			wantHits:  2,
		},
		{
			name:      "no results",
			query:     url.Values{"query": {"nonexistent_xyz_product"}},
			wantTotal: 0,
			wantHits:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.query.Set("appid", "a")
			w, resp := search(t, fixture, tt.query)

			if w.Code != http.StatusOK {
				t.Fatalf("status=%d, want %d", w.Code, http.StatusOK)
			}
			if resp.TotalResultsAvailable != tt.wantTotal {
				t.Errorf("total=%d, want %d", resp.TotalResultsAvailable, tt.wantTotal)
			}
			if resp.Hits == nil {
				t.Error("expected empty array, got nil")
			}
			if len(resp.Hits) != tt.wantHits {
				t.Errorf("hits=%d, want %d", len(resp.Hits), tt.wantHits)
			}
		})
	}
}

func postMessage(rooms *roomLog, room, token, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v2/rooms/{room}/messages", postMessageHandler(testLogger(), rooms))

	form := url.Values{}
	if body != "" {
		form.Set("body", body)
	}
	req := httptest.NewRequest(http.MethodPost, "/v2/rooms/"+room+"/messages", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("X-ChatWorkToken", token)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestPostMessage(t *testing.T) {
	rooms := newRoomLog()

	if w := postMessage(rooms, "42", "", "hello"); w.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status=%d, want %d", w.Code, http.StatusUnauthorized)
	}
	if w := postMessage(rooms, "42", "tok", ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing body: status=%d, want %d", w.Code, http.StatusBadRequest)
	}
	if w := postMessage(rooms, "42", "tok", "[info]new item[/info]"); w.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusOK)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v2/rooms/{room}/messages", listMessagesHandler(rooms))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v2/rooms/42/messages", http.NoBody))

	var msgs []message
	if err := json.NewDecoder(w.Body).Decode(&msgs); err != nil {
		t.Fatalf("decoding messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Body != "[info]new item[/info]" {
		t.Errorf("messages=%+v, want the one posted message", msgs)
	}
	if other := rooms.list("7"); len(other) != 0 {
		t.Errorf("room 7 has %d messages, want 0", len(other))
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
