// Package retry runs an operation a bounded number of times, sleeping a
// per-outcome duration between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned when every attempt failed with a retryable error.
var ErrExhausted = errors.New("retries exhausted")

// Default policy values.
const (
	DefaultMaxAttempts      = 3
	DefaultBackoff          = 2 * time.Second
	DefaultRateLimitBackoff = 5 * time.Second
)

// Policy bounds a retry loop.
type Policy struct {
	MaxAttempts      int           `yaml:"max_attempts"`
	Backoff          time.Duration `yaml:"backoff"`
	RateLimitBackoff time.Duration `yaml:"rate_limit_backoff"`
}

// DefaultPolicy returns 3 attempts with a 2s backoff and a 5s rate-limit
// backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:      DefaultMaxAttempts,
		Backoff:          DefaultBackoff,
		RateLimitBackoff: DefaultRateLimitBackoff,
	}
}

// Attempt is the outcome of a single try.
type Attempt struct {
	// Err is nil on success.
	Err error
	// Retryable marks Err as transient. Non-retryable errors end the loop.
	Retryable bool
	// Wait replaces Policy.Backoff before the next attempt when positive.
	Wait time.Duration
}

// Success is the zero Attempt.
func Success() Attempt { return Attempt{} }

// Fatal ends the loop with err.
func Fatal(err error) Attempt { return Attempt{Err: err} }

// Transient retries after the policy backoff.
func Transient(err error) Attempt { return Attempt{Err: err, Retryable: true} }

// After retries after wait.
func After(err error, wait time.Duration) Attempt {
	return Attempt{Err: err, Retryable: true, Wait: wait}
}

// Sleeper pauses between attempts. Implementations must return early with
// the context error when ctx is cancelled.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleepFunc adapts a function to Sleeper.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f.
func (f SleepFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// ContextSleeper sleeps on a timer and wakes on cancellation.
var ContextSleeper Sleeper = SleepFunc(Sleep)

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retrier executes operations under a Policy.
type Retrier struct {
	policy  Policy
	sleeper Sleeper
	onRetry func(attempt int, err error, wait time.Duration)
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithSleeper replaces the sleeper used between attempts.
func WithSleeper(s Sleeper) Option {
	return func(r *Retrier) {
		if s != nil {
			r.sleeper = s
		}
	}
}

// WithOnRetry registers a hook called before each backoff sleep.
func WithOnRetry(fn func(attempt int, err error, wait time.Duration)) Option {
	return func(r *Retrier) {
		r.onRetry = fn
	}
}

// New creates a Retrier. Zero policy fields fall back to the defaults.
func New(p Policy, opts ...Option) *Retrier {
	def := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.Backoff <= 0 {
		p.Backoff = def.Backoff
	}
	if p.RateLimitBackoff <= 0 {
		p.RateLimitBackoff = def.RateLimitBackoff
	}
	r := &Retrier{policy: p, sleeper: ContextSleeper}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the effective policy.
func (r *Retrier) Policy() Policy {
	return r.policy
}

// Sleeper returns the configured sleeper.
func (r *Retrier) Sleeper() Sleeper {
	return r.sleeper
}

// Do calls fn until it succeeds, fails non-retryably, or MaxAttempts is
// reached. No sleep follows the final attempt. A cancelled context during a
// sleep ends the loop with the context error.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context, attempt int) Attempt) error {
	var last error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		res := fn(ctx, attempt)
		if res.Err == nil {
			return nil
		}
		if !res.Retryable {
			return res.Err
		}
		last = res.Err

		if attempt == r.policy.MaxAttempts {
			break
		}

		wait := res.Wait
		if wait <= 0 {
			wait = r.policy.Backoff
		}
		if r.onRetry != nil {
			r.onRetry(attempt, res.Err, wait)
		}
		if err := r.sleeper.Sleep(ctx, wait); err != nil {
			return fmt.Errorf("waiting to retry: %w", err)
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, r.policy.MaxAttempts, last)
}
