package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/donaldgifford/shopping-notifier/internal/metrics"
	"github.com/donaldgifford/shopping-notifier/internal/retry"
)

const (
	defaultChatworkURL  = "https://api.chatwork.com/v2"
	defaultSuccessDelay = time.Second
	// maxRetryAfter bounds the wait a Retry-After header can request.
	maxRetryAfter = 5 * time.Minute
)

// ChatworkNotifier implements Notifier by posting room messages through the
// Chatwork REST API.
type ChatworkNotifier struct {
	roomID       string
	token        string
	baseURL      string
	client       *http.Client
	policy       retry.Policy
	sleeper      retry.Sleeper
	retrier      *retry.Retrier
	successDelay time.Duration
	nowFunc      func() time.Time
	log          *slog.Logger
}

// ChatworkOption configures a ChatworkNotifier.
type ChatworkOption func(*ChatworkNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ChatworkOption {
	return func(n *ChatworkNotifier) {
		n.client = c
	}
}

// WithBaseURL overrides the API root, e.g. for tests.
func WithBaseURL(u string) ChatworkOption {
	return func(n *ChatworkNotifier) {
		if u != "" {
			n.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithRetryPolicy overrides attempts and backoff durations. The rate-limit
// backoff applies only when the server sends no usable Retry-After header.
func WithRetryPolicy(p retry.Policy) ChatworkOption {
	return func(n *ChatworkNotifier) {
		n.policy = p
	}
}

// WithSleeper replaces the sleeper used between attempts and after success.
func WithSleeper(s retry.Sleeper) ChatworkOption {
	return func(n *ChatworkNotifier) {
		n.sleeper = s
	}
}

// WithSuccessDelay sets the pause after every delivered message.
func WithSuccessDelay(d time.Duration) ChatworkOption {
	return func(n *ChatworkNotifier) {
		n.successDelay = d
	}
}

// WithNowFunc overrides the clock used to resolve Retry-After dates.
func WithNowFunc(f func() time.Time) ChatworkOption {
	return func(n *ChatworkNotifier) {
		n.nowFunc = f
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) ChatworkOption {
	return func(n *ChatworkNotifier) {
		n.log = l
	}
}

// NewChatworkNotifier creates a notifier posting to roomID with token.
func NewChatworkNotifier(roomID, token string, opts ...ChatworkOption) *ChatworkNotifier {
	n := &ChatworkNotifier{
		roomID:       roomID,
		token:        token,
		baseURL:      defaultChatworkURL,
		client:       &http.Client{Timeout: 30 * time.Second},
		policy:       retry.DefaultPolicy(),
		sleeper:      retry.ContextSleeper,
		successDelay: defaultSuccessDelay,
		nowFunc:      time.Now,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.retrier = retry.New(n.policy,
		retry.WithSleeper(n.sleeper),
		retry.WithOnRetry(func(attempt int, err error, wait time.Duration) {
			n.log.Warn("retrying chatwork message",
				"attempt", attempt,
				"wait", wait,
				"error", err,
			)
		}),
	)
	return n
}

// Send posts the notification. A 429 waits for Retry-After (or the policy's
// rate-limit backoff) and retries; a network error waits the regular backoff
// and retries; any other non-200 status aborts with ErrNonRetryable.
func (n *ChatworkNotifier) Send(ctx context.Context, msg *Notification) error {
	endpoint := fmt.Sprintf("%s/rooms/%s/messages", n.baseURL, url.PathEscape(n.roomID))
	form := url.Values{"body": {msg.Text()}}.Encode()

	err := n.retrier.Do(ctx, func(ctx context.Context, _ int) retry.Attempt {
		return n.post(ctx, endpoint, form)
	})
	if err != nil {
		metrics.NotificationFailuresTotal.Inc()
		return fmt.Errorf("sending chatwork message: %w", err)
	}

	metrics.NotificationsSentTotal.Inc()
	if err := n.sleeper.Sleep(ctx, n.successDelay); err != nil {
		n.log.Debug("post-send delay interrupted", "error", err)
	}
	return nil
}

func (n *ChatworkNotifier) post(ctx context.Context, endpoint, form string) retry.Attempt {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form))
	if err != nil {
		return retry.Fatal(fmt.Errorf("creating chatwork request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-ChatWorkToken", n.token)

	resp, err := n.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return retry.Fatal(fmt.Errorf("posting chatwork message: %w", err))
		}
		return retry.Transient(fmt.Errorf("posting chatwork message: %w", err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return retry.Success()
	case http.StatusTooManyRequests:
		wait := n.retryAfter(resp.Header.Get("Retry-After"))
		return retry.After(fmt.Errorf("chatwork rate limited (429), retry after %s", wait), wait)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return retry.Fatal(fmt.Errorf("%w: chatwork returned %d: %s",
			ErrNonRetryable, resp.StatusCode, body))
	}
}

// retryAfter resolves a Retry-After header given as delay seconds or an
// HTTP date, capped at maxRetryAfter. Missing or unusable values fall back
// to the rate-limit backoff.
func (n *ChatworkNotifier) retryAfter(header string) time.Duration {
	fallback := n.retrier.Policy().RateLimitBackoff
	header = strings.TrimSpace(header)
	if header == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(header); err == nil {
		if secs < 0 {
			return fallback
		}
		if secs > int(maxRetryAfter/time.Second) {
			return maxRetryAfter
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := at.Sub(n.nowFunc()); d > 0 {
			return min(d, maxRetryAfter)
		}
		return 0
	}
	return fallback
}
