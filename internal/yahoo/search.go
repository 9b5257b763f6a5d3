package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/donaldgifford/shopping-notifier/internal/metrics"
	"github.com/donaldgifford/shopping-notifier/internal/retry"
	domain "github.com/donaldgifford/shopping-notifier/pkg/types"
)

// maxErrorBody bounds how much of an error response is kept in the error text.
const maxErrorBody = 512

// Search implements Searcher.Search. A 400 response or an unparseable body
// fails immediately with ErrNonRetryable. A 429 waits the rate-limit backoff
// and other failures wait the regular backoff before the next attempt. After
// a successful call the client pauses for the call interval so consecutive
// searches respect the API's per-second limit.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]domain.CandidateItem, error) {
	u := c.buildSearchURL(req)

	var hits []Hit
	err := c.retrier.Do(ctx, func(ctx context.Context, _ int) retry.Attempt {
		if c.rateLimiter != nil {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				if errors.Is(err, ErrDailyLimitReached) {
					metrics.SearchDailyLimitHits.Inc()
				}
				return retry.Fatal(fmt.Errorf("rate limit: %w", err))
			}
			metrics.SearchDailyUsage.Set(float64(c.rateLimiter.DailyCount()))
		}

		var attemptErr retry.Attempt
		hits, attemptErr = c.do(ctx, u)
		return attemptErr
	})
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", req.Query, err)
	}

	if err := c.sleeper.Sleep(ctx, c.callInterval); err != nil {
		c.log.Debug("call interval interrupted", "error", err)
	}

	return ToItems(hits), nil
}

func (c *Client) do(ctx context.Context, u string) ([]Hit, retry.Attempt) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, retry.Fatal(fmt.Errorf("creating HTTP request: %w", err))
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		metrics.SearchAPICallsTotal.WithLabelValues("error").Inc()
		if ctx.Err() != nil {
			return nil, retry.Fatal(fmt.Errorf("executing search request: %w", err))
		}
		return nil, retry.Transient(fmt.Errorf("executing search request: %w", err))
	}
	defer resp.Body.Close()

	metrics.SearchAPICallsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("reading response body: %w", err))
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		return nil, retry.Fatal(fmt.Errorf("%w (status %d): %s",
			ErrNonRetryable, resp.StatusCode, truncate(body)))
	case http.StatusTooManyRequests:
		return nil, retry.After(fmt.Errorf("search API rate limited (status %d)", resp.StatusCode),
			c.retrier.Policy().RateLimitBackoff)
	default:
		return nil, retry.Transient(fmt.Errorf("search API error (status %d): %s",
			resp.StatusCode, truncate(body)))
	}

	var apiResp searchAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, retry.Fatal(fmt.Errorf("%w: parsing search response: %w", ErrNonRetryable, err))
	}

	c.log.Debug("search completed",
		"available", apiResp.TotalResultsAvailable,
		"returned", len(apiResp.Hits),
	)
	return apiResp.Hits, retry.Success()
}

func (c *Client) buildSearchURL(req SearchRequest) string {
	params := url.Values{}
	params.Set("appid", c.appID)
	params.Set("query", req.Query)
	params.Set("sort", c.sort)
	params.Set("results", strconv.Itoa(c.results))
	params.Set("start", "1")

	if req.MinPrice != nil {
		params.Set("price_from", strconv.Itoa(*req.MinPrice))
	}
	if req.MaxPrice != nil {
		params.Set("price_to", strconv.Itoa(*req.MaxPrice))
	}
	if req.SellerID != "" {
		params.Set("seller_id", req.SellerID)
	}
	if c.inStock {
		params.Set("in_stock", "true")
	}

	return c.searchURL + "?" + params.Encode()
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
