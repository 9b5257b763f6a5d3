package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/donaldgifford/shopping-notifier/internal/exclusions"
	"github.com/donaldgifford/shopping-notifier/internal/metrics"
	"github.com/donaldgifford/shopping-notifier/internal/notify"
	"github.com/donaldgifford/shopping-notifier/internal/retry"
	"github.com/donaldgifford/shopping-notifier/internal/rules"
	"github.com/donaldgifford/shopping-notifier/internal/store"
	"github.com/donaldgifford/shopping-notifier/internal/yahoo"
	"github.com/donaldgifford/shopping-notifier/pkg/matcher"
	domain "github.com/donaldgifford/shopping-notifier/pkg/types"
)

const (
	defaultBatchSize      = 10
	defaultNotifyInterval = time.Second
)

var (
	// ErrConfigLoad marks a batch that could not read its rules.
	ErrConfigLoad = errors.New("loading config")
	// ErrTrigger marks a batch whose successor could not be scheduled.
	ErrTrigger = errors.New("triggering next batch")
	// ErrInvalidPayload is returned for a negative batch index.
	ErrInvalidPayload = errors.New("invalid payload")
)

// Payload starts one batch. RunID ties later batches to the exclusion list
// captured by batch 0 of the same run.
type Payload struct {
	CurrentBatch int    `json:"current_batch"`
	RunID        string `json:"run_id,omitempty"`
}

// Response is the outcome of one invocation.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// RuleSource loads the full, unfiltered rule sequence.
type RuleSource interface {
	Load(ctx context.Context) ([]domain.Rule, error)
}

// Trigger schedules the next batch of a run.
type Trigger interface {
	TriggerNext(ctx context.Context, p Payload) error
}

// TriggerFunc adapts a function to Trigger.
type TriggerFunc func(ctx context.Context, p Payload) error

// TriggerNext calls f.
func (f TriggerFunc) TriggerNext(ctx context.Context, p Payload) error {
	return f(ctx, p)
}

// BatchResult summarizes one processed batch.
type BatchResult struct {
	RunID        string
	Cursor       Cursor
	Rules        int
	Searched     int
	Notified     int
	Failed       int
	Skipped      map[domain.SkipReason]int
	TriggeredRun bool
}

// Engine runs batches of rules: search, evaluate, notify and record.
type Engine struct {
	source   RuleSource
	search   yahoo.Searcher
	notifier notify.Notifier
	ledger   store.Ledger
	trigger  Trigger

	evaluator      *matcher.Evaluator
	exclusions     exclusions.Source
	cache          *exclusions.Cache
	partition      domain.Partition
	batchSize      int
	notifyInterval time.Duration
	sleeper        retry.Sleeper
	newRunID       func() string
	now            func() time.Time
	log            *slog.Logger
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithEvaluator sets the rule evaluator.
func WithEvaluator(ev *matcher.Evaluator) EngineOption {
	return func(e *Engine) {
		e.evaluator = ev
	}
}

// WithExclusions sets the global exclusion source read at batch 0 and the
// cache that carries it to later batches. A nil source skips the fetch.
func WithExclusions(src exclusions.Source, cache *exclusions.Cache) EngineOption {
	return func(e *Engine) {
		e.exclusions = src
		e.cache = cache
	}
}

// WithPartition restricts the engine to even or odd config rows.
func WithPartition(p domain.Partition) EngineOption {
	return func(e *Engine) {
		e.partition = p
	}
}

// WithBatchSize sets the number of rules per batch.
func WithBatchSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithNotifyInterval sets the pause after every notification attempt.
func WithNotifyInterval(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.notifyInterval = d
	}
}

// WithSleeper replaces the sleeper used for the notify interval.
func WithSleeper(s retry.Sleeper) EngineOption {
	return func(e *Engine) {
		e.sleeper = s
	}
}

// WithRunIDFunc sets the run ID generator used at batch 0.
func WithRunIDFunc(f func() string) EngineOption {
	return func(e *Engine) {
		e.newRunID = f
	}
}

// WithNowFunc sets the clock.
func WithNowFunc(f func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = f
	}
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(
	src RuleSource,
	s yahoo.Searcher,
	n notify.Notifier,
	l store.Ledger,
	t Trigger,
	opts ...EngineOption,
) *Engine {
	eng := &Engine{
		source:         src,
		search:         s,
		notifier:       n,
		ledger:         l,
		trigger:        t,
		evaluator:      matcher.New(),
		partition:      domain.PartitionAll,
		batchSize:      defaultBatchSize,
		notifyInterval: defaultNotifyInterval,
		sleeper:        retry.ContextSleeper,
		newRunID:       uuid.NewString,
		now:            time.Now,
		log:            slog.Default(),
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// Invoke runs one batch and maps the outcome to a status code and a short
// text body. Only config-load and trigger failures produce a 500.
func (eng *Engine) Invoke(ctx context.Context, p Payload) Response {
	start := eng.now()
	res, err := eng.RunBatch(ctx, p)
	metrics.BatchDuration.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, ErrInvalidPayload):
		metrics.BatchesTotal.WithLabelValues("invalid").Inc()
		return Response{StatusCode: http.StatusBadRequest, Body: err.Error()}
	case errors.Is(err, ErrConfigLoad):
		metrics.BatchesTotal.WithLabelValues("config_error").Inc()
		eng.log.Error("batch aborted", "batch", p.CurrentBatch, "error", err)
		return Response{StatusCode: http.StatusInternalServerError, Body: err.Error()}
	case errors.Is(err, ErrTrigger):
		metrics.BatchesTotal.WithLabelValues("trigger_error").Inc()
		metrics.TriggerFailuresTotal.Inc()
		eng.log.Error("next batch not triggered", "batch", p.CurrentBatch, "error", err)
		return Response{StatusCode: http.StatusInternalServerError, Body: err.Error()}
	case err != nil:
		metrics.BatchesTotal.WithLabelValues("error").Inc()
		return Response{StatusCode: http.StatusInternalServerError, Body: err.Error()}
	}

	metrics.BatchesTotal.WithLabelValues("success").Inc()
	return Response{
		StatusCode: http.StatusOK,
		Body: fmt.Sprintf("batch %d/%d completed: %d rules, %d notified",
			res.Cursor.BatchIndex+1, res.Cursor.TotalBatches(), res.Rules, res.Notified),
	}
}

// RunBatch drives one batch through its states: global exclusions, config,
// cursor, ledger, rows, persist, trigger. The returned result is non-nil
// whenever rows were processed, including when triggering failed.
func (eng *Engine) RunBatch(ctx context.Context, p Payload) (*BatchResult, error) {
	if p.CurrentBatch < 0 {
		return nil, fmt.Errorf("%w: batch index %d", ErrInvalidPayload, p.CurrentBatch)
	}

	runID := p.RunID
	if p.CurrentBatch == 0 && runID == "" {
		runID = eng.newRunID()
	}
	log := eng.log.With("run_id", runID, "batch", p.CurrentBatch)

	global := eng.globalExclusions(ctx, log, p.CurrentBatch, runID)

	all, err := eng.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigLoad, err)
	}
	owned := rules.Partition(all, eng.partition)

	cur := Cursor{BatchIndex: p.CurrentBatch, BatchSize: eng.batchSize, TotalRows: len(owned)}
	batch := Slice(cur, owned)
	log.Info("processing batch",
		"batch_number", cur.BatchIndex+1,
		"total_batches", cur.TotalBatches(),
		"start", cur.Start(),
		"end", cur.End(),
		"partition", eng.partition,
	)

	notified := eng.loadLedger(ctx, log)

	res := &BatchResult{
		RunID:   runID,
		Cursor:  cur,
		Rules:   len(batch),
		Skipped: make(map[domain.SkipReason]int),
	}
	fresh := eng.processRules(ctx, log, batch, global, notified, res)
	eng.persist(ctx, log, fresh)

	if cur.HasNext() {
		next := Payload{CurrentBatch: cur.BatchIndex + 1, RunID: runID}
		if err := eng.trigger.TriggerNext(ctx, next); err != nil {
			return res, fmt.Errorf("%w %d: %w", ErrTrigger, next.CurrentBatch, err)
		}
		res.TriggeredRun = true
		log.Info("next batch triggered", "next_batch", next.CurrentBatch)
	} else {
		log.Info("run complete", "total_batches", cur.TotalBatches())
	}

	return res, nil
}

func (eng *Engine) loadLedger(ctx context.Context, log *slog.Logger) domain.StringSet {
	set, err := eng.ledger.Load(ctx)
	if err != nil {
		metrics.LedgerErrorsTotal.WithLabelValues("load").Inc()
		log.Error("loading ledger, continuing with an empty set", "error", err)
		return domain.NewStringSet()
	}
	if set == nil {
		set = domain.NewStringSet()
	}
	metrics.LedgerSize.Set(float64(set.Len()))
	log.Info("ledger loaded", "items", set.Len())
	return set
}

func (eng *Engine) persist(ctx context.Context, log *slog.Logger, urls []string) {
	if len(urls) == 0 {
		return
	}
	if err := eng.ledger.Append(ctx, urls); err != nil {
		metrics.LedgerErrorsTotal.WithLabelValues("append").Inc()
		log.Error("persisting ledger", "urls", len(urls), "error", err)
		return
	}
	metrics.LedgerAppendedTotal.Add(float64(len(urls)))
	log.Info("ledger updated", "appended", len(urls))
}
