// Package main implements a mock Yahoo! Shopping and Chatwork server for
// local development. Searches are answered from a JSON fixture and posted
// messages are kept in memory so a run can be inspected without credentials.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

type searchResponse struct {
	TotalResultsAvailable int               `json:"totalResultsAvailable"`
	TotalResultsReturned  int               `json:"totalResultsReturned"`
	FirstResultsPosition  int               `json:"firstResultsPosition"`
	Hits                  []json.RawMessage `json:"hits"`
}

type hit struct {
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "tools/mock-server/testdata/search_response.json", "path to search response fixture")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fixture, err := loadFixture(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture", "items", len(fixture.Hits))

	rooms := newRoomLog()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ShoppingWebService/V3/itemSearch", searchHandler(logger, fixture))
	mux.HandleFunc("POST /v2/rooms/{room}/messages", postMessageHandler(logger, rooms))
	mux.HandleFunc("GET /v2/rooms/{room}/messages", listMessagesHandler(rooms))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock server", "addr", addr,
		"search_url", "http://localhost"+addr+"/ShoppingWebService/V3/itemSearch",
		"chatwork_url", "http://localhost"+addr+"/v2",
	)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadFixture(path string) (*searchResponse, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var resp searchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &resp, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}

// searchHandler answers itemSearch. Every whitespace-separated query term
// must appear in the item name; price_from and price_to bound numeric prices.
func searchHandler(logger *slog.Logger, fixture *searchResponse) http.HandlerFunc {
	type indexedHit struct {
		raw   json.RawMessage
		name  string
		price int64
		known bool
	}
	hits := make([]indexedHit, 0, len(fixture.Hits))
	for _, raw := range fixture.Hits {
		var h hit
		//nolint:errcheck,gosec // fixture data is trusted; extraction is best-effort
		json.Unmarshal(raw, &h)
		p, err := h.Price.Int64()
		hits = append(hits, indexedHit{raw: raw, name: strings.ToLower(h.Name), price: p, known: err == nil})
	}

	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("appid") == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"Error": map[string]string{"Message": "appid is required"},
			})
			return
		}

		terms := strings.Fields(strings.ToLower(q.Get("query")))
		from, hasFrom := intParam(q.Get("price_from"))
		to, hasTo := intParam(q.Get("price_to"))
		results := 10
		if v, ok := intParam(q.Get("results")); ok && v > 0 {
			results = int(v)
		}

		matched := []json.RawMessage{}
		total := 0
		for _, h := range hits {
			if !containsAll(h.name, terms) {
				continue
			}
			if h.known && ((hasFrom && h.price < from) || (hasTo && h.price > to)) {
				continue
			}
			total++
			if len(matched) < results {
				matched = append(matched, h.raw)
			}
		}

		writeJSON(w, http.StatusOK, searchResponse{
			TotalResultsAvailable: total,
			TotalResultsReturned:  len(matched),
			FirstResultsPosition:  1,
			Hits:                  matched,
		})
		logger.Info("search", "query", q.Get("query"), "matched", total, "returned", len(matched))
	}
}

func intParam(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	return v, err == nil
}

func containsAll(name string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(name, t) {
			return false
		}
	}
	return true
}

type message struct {
	ID   int    `json:"message_id"`
	Body string `json:"body"`
}

// roomLog records posted messages per room.
type roomLog struct {
	mu     sync.Mutex
	nextID int
	rooms  map[string][]message
}

func newRoomLog() *roomLog {
	return &roomLog{rooms: make(map[string][]message)}
}

func (l *roomLog) add(room, body string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	l.rooms[room] = append(l.rooms[room], message{ID: l.nextID, Body: body})
	return l.nextID
}

func (l *roomLog) list(room string) []message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]message{}, l.rooms[room]...)
}

func postMessageHandler(logger *slog.Logger, rooms *roomLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-ChatWorkToken") == "" {
			logger.Warn("message post missing token header")
			writeJSON(w, http.StatusUnauthorized, map[string][]string{
				"errors": {"Invalid API token"},
			})
			return
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("body") == "" {
			writeJSON(w, http.StatusBadRequest, map[string][]string{
				"errors": {"Parameter body is required"},
			})
			return
		}

		room := r.PathValue("room")
		id := rooms.add(room, r.PostForm.Get("body"))
		writeJSON(w, http.StatusOK, map[string]string{"message_id": strconv.Itoa(id)})
		logger.Info("message posted", "room", room, "message_id", id)
	}
}

func listMessagesHandler(rooms *roomLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, rooms.list(r.PathValue("room")))
	}
}
