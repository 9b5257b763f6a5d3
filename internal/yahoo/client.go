// Package yahoo provides a Yahoo! Shopping item search client abstracted
// behind an interface for testability.
package yahoo

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/donaldgifford/shopping-notifier/internal/retry"
	domain "github.com/donaldgifford/shopping-notifier/pkg/types"
)

const (
	defaultSearchURL    = "https://shopping.yahooapis.jp/ShoppingWebService/V3/itemSearch"
	defaultSort         = "-score"
	defaultResults      = 10
	defaultCallInterval = time.Second
)

var (
	// ErrNonRetryable is returned for client errors and unparseable bodies.
	ErrNonRetryable = errors.New("search request rejected")
	// ErrExhausted is returned when every attempt failed transiently.
	ErrExhausted = retry.ErrExhausted
)

// SearchRequest defines the parameters for one item search.
type SearchRequest struct {
	Query    string
	MinPrice *int
	MaxPrice *int
	// SellerID restricts results to one store.
	SellerID string
}

// Searcher defines the interface for searching the marketplace.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) ([]domain.CandidateItem, error)
}

// Client implements Searcher using the Yahoo! Shopping V3 itemSearch API.
type Client struct {
	appID        string
	searchURL    string
	sort         string
	results      int
	inStock      bool
	callInterval time.Duration
	client       *http.Client
	rateLimiter  *RateLimiter
	policy       retry.Policy
	sleeper      retry.Sleeper
	retrier      *retry.Retrier
	log          *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithSearchURL overrides the default itemSearch endpoint.
func WithSearchURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.searchURL = u
		}
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithRateLimiter injects a rate limiter that gates every attempt.
func WithRateLimiter(r *RateLimiter) Option {
	return func(c *Client) {
		c.rateLimiter = r
	}
}

// WithRetryPolicy overrides attempts and backoff durations.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithSleeper replaces the sleeper used for backoff and the call interval.
func WithSleeper(s retry.Sleeper) Option {
	return func(c *Client) {
		c.sleeper = s
	}
}

// WithCallInterval sets the pause after every successful search.
func WithCallInterval(d time.Duration) Option {
	return func(c *Client) {
		c.callInterval = d
	}
}

// WithInStock restricts results to items in stock.
func WithInStock(v bool) Option {
	return func(c *Client) {
		c.inStock = v
	}
}

// WithSort overrides the result ordering.
func WithSort(s string) Option {
	return func(c *Client) {
		if s != "" {
			c.sort = s
		}
	}
}

// WithResults overrides the number of hits requested.
func WithResults(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.results = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a new search client for the given application ID.
func NewClient(appID string, opts ...Option) *Client {
	c := &Client{
		appID:        appID,
		searchURL:    defaultSearchURL,
		sort:         defaultSort,
		results:      defaultResults,
		callInterval: defaultCallInterval,
		client:       &http.Client{Timeout: 30 * time.Second},
		policy:       retry.DefaultPolicy(),
		sleeper:      retry.ContextSleeper,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.retrier = retry.New(c.policy,
		retry.WithSleeper(c.sleeper),
		retry.WithOnRetry(func(attempt int, err error, wait time.Duration) {
			c.log.Warn("retrying search",
				"attempt", attempt,
				"max_attempts", c.retrier.Policy().MaxAttempts,
				"wait", wait,
				"error", err,
			)
		}),
	)
	return c
}
