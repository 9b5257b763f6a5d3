package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
)

const defaultQueueSize = 16

var (
	// ErrQueueFull is returned when the work queue cannot take a payload.
	ErrQueueFull = errors.New("batch queue full")
	// ErrRunInProgress is returned when a new run is submitted while
	// batches of another run are still pending.
	ErrRunInProgress = errors.New("run already in progress")
)

// QueueTrigger chains batches through an in-process work queue drained by
// a Driver.
type QueueTrigger struct {
	ch chan Payload
	// inflight counts payloads queued or running. A chained batch is
	// queued before its parent finishes, so it stays above zero for the
	// whole run.
	inflight atomic.Int64
}

// NewQueueTrigger creates a queue holding up to size pending payloads.
func NewQueueTrigger(size int) *QueueTrigger {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &QueueTrigger{ch: make(chan Payload, size)}
}

// TriggerNext enqueues p without blocking.
func (q *QueueTrigger) TriggerNext(ctx context.Context, p Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.inflight.Add(1)
	select {
	case q.ch <- p:
		return nil
	default:
		q.inflight.Add(-1)
		return ErrQueueFull
	}
}

func (q *QueueTrigger) done() {
	q.inflight.Add(-1)
}

// Pending returns the number of queued payloads.
func (q *QueueTrigger) Pending() int {
	return len(q.ch)
}

// Invoker runs a single batch.
type Invoker interface {
	Invoke(ctx context.Context, p Payload) Response
}

// Driver drains a QueueTrigger one batch at a time.
type Driver struct {
	invoker Invoker
	queue   *QueueTrigger
	log     *slog.Logger

	mu   sync.Mutex
	last Response
}

// NewDriver creates a driver for inv reading from q.
func NewDriver(inv Invoker, q *QueueTrigger, log *slog.Logger) *Driver {
	if log == nil {
		log = slog.Default()
	}
	return &Driver{invoker: inv, queue: q, log: log}
}

// Busy reports whether a batch is running or queued.
func (d *Driver) Busy() bool {
	return d.queue.inflight.Load() > 0
}

// Submit queues p. A new run (batch 0) is refused while another run is
// still in flight.
func (d *Driver) Submit(ctx context.Context, p Payload) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p.CurrentBatch == 0 && d.Busy() {
		return ErrRunInProgress
	}
	return d.queue.TriggerNext(ctx, p)
}

// RunNow runs p on the caller's goroutine under the same guard as Submit.
// Batches it chains are queued for Run.
func (d *Driver) RunNow(ctx context.Context, p Payload) (Response, error) {
	d.mu.Lock()
	if p.CurrentBatch == 0 && d.Busy() {
		d.mu.Unlock()
		return Response{}, ErrRunInProgress
	}
	d.queue.inflight.Add(1)
	d.mu.Unlock()

	return d.invoke(ctx, p), nil
}

// LastResponse returns the response of the most recent batch.
func (d *Driver) LastResponse() Response {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Run processes queued batches until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) {
	d.log.Info("batch driver started")
	for {
		select {
		case <-ctx.Done():
			d.log.Info("batch driver stopped")
			return
		case p := <-d.queue.ch:
			d.invoke(ctx, p)
		}
	}
}

// RunToCompletion submits start and processes batches until the chain ends
// or a batch fails. It returns every batch response in order.
func (d *Driver) RunToCompletion(ctx context.Context, start Payload) ([]Response, error) {
	if err := d.Submit(ctx, start); err != nil {
		return nil, err
	}

	var out []Response
	for {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case p := <-d.queue.ch:
			resp := d.invoke(ctx, p)
			out = append(out, resp)
			if resp.StatusCode >= 300 {
				return out, nil
			}
		default:
			return out, nil
		}
	}
}

func (d *Driver) invoke(ctx context.Context, p Payload) (resp Response) {
	defer d.queue.done()
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("batch panicked", "batch", p.CurrentBatch, "run_id", p.RunID, "panic", r)
			resp = Response{
				StatusCode: http.StatusInternalServerError,
				Body:       fmt.Sprintf("batch %d panicked: %v", p.CurrentBatch, r),
			}
			d.record(resp)
		}
	}()

	resp = d.invoker.Invoke(ctx, p)
	d.record(resp)

	d.log.Info("batch finished",
		"batch", p.CurrentBatch,
		"run_id", p.RunID,
		"status", resp.StatusCode,
		"body", resp.Body,
	)
	return resp
}

func (d *Driver) record(resp Response) {
	d.mu.Lock()
	d.last = resp
	d.mu.Unlock()
}
