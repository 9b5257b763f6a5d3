package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Submitter accepts the first batch of a new run.
type Submitter interface {
	Submit(ctx context.Context, p Payload) error
}

// Scheduler starts a new run on a fixed interval.
type Scheduler struct {
	cron   *cron.Cron
	runner Submitter
	log    *slog.Logger
}

// NewScheduler creates a Scheduler that submits batch 0 to runner every
// interval.
func NewScheduler(
	runner Submitter,
	interval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	cl := cronLogger{log}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl)),
	)

	s := &Scheduler{
		cron:   c,
		runner: runner,
		log:    log,
	}

	if _, err := c.AddFunc(
		"@every "+interval.String(),
		s.startRun,
	); err != nil {
		return nil, fmt.Errorf("scheduling every %s: %w", interval, err)
	}

	return s, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) startRun() {
	ctx := context.Background()
	s.log.Info("scheduled run starting")
	err := s.runner.Submit(ctx, Payload{CurrentBatch: 0})
	switch {
	case errors.Is(err, ErrRunInProgress):
		s.log.Warn("previous run still in progress, skipping")
	case err != nil:
		s.log.Error("scheduled run failed to start", "error", err)
	}
}

// cronLogger routes cron's own logging to slog. Info is demoted to debug
// since cron logs every wake-up.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, kv ...any) {
	l.log.Debug("cron: "+msg, kv...)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Error("cron: "+msg, append(kv, "error", err)...)
}
