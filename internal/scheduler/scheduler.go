package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/backyonatan-alt/lookout/internal/alert"
	"github.com/backyonatan-alt/lookout/internal/metrics"
)

// Runner is one poll cycle. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context) error
}

// IncidentReporter forwards failed cycles to the operator. notify.Notifier satisfies it.
type IncidentReporter interface {
	Send(ctx context.Context, text string) error
}

// CycleRecorder counts cycle outcomes. *metrics.Metrics satisfies it.
type CycleRecorder interface {
	CycleFinished(outcome string, at time.Time)
}

// Scheduler runs the pipeline with a fixed delay between the end of one cycle
// and the start of the next, so cycles never overlap.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	reporter IncidentReporter
	recorder CycleRecorder

	stop     chan struct{}
	stopOnce sync.Once
}

func New(r Runner, interval time.Duration, reporter IncidentReporter, recorder CycleRecorder) *Scheduler {
	return &Scheduler{
		runner:   r,
		interval: interval,
		reporter: reporter,
		recorder: recorder,
		stop:     make(chan struct{}),
	}
}

// Start runs a cycle immediately and then after every interval. Blocks until
// Stop is called or ctx is cancelled; an in-flight cycle is finished first.
func (s *Scheduler) Start(ctx context.Context) {
	slog.Info("scheduler started", "interval", s.interval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			slog.Info("scheduler: triggering pipeline run")
			s.cycle(ctx)
			timer.Reset(s.interval)
		case <-s.stop:
			slog.Info("scheduler stopped")
			return
		case <-ctx.Done():
			slog.Info("scheduler context cancelled")
			return
		}
	}
}

// Stop signals the scheduler to stop. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// cycle runs the pipeline once; neither an error nor a panic escapes it.
func (s *Scheduler) cycle(ctx context.Context) {
	outcome := metrics.OutcomeOK
	defer func() {
		if p := recover(); p != nil {
			outcome = metrics.OutcomePanic
			s.report(ctx, fmt.Errorf("poll cycle panic: %v", p))
		}
		if s.recorder != nil {
			s.recorder.CycleFinished(outcome, time.Now())
		}
	}()

	if err := s.runner.Run(ctx); err != nil {
		outcome = metrics.OutcomeError
		if ctx.Err() != nil {
			slog.Info("scheduler: pipeline run interrupted", "error", err)
			return
		}
		s.report(ctx, err)
	}
}

func (s *Scheduler) report(ctx context.Context, err error) {
	slog.Error("scheduler: pipeline run failed", "error", err)
	if s.reporter == nil {
		return
	}
	if sendErr := s.reporter.Send(ctx, alert.Incident(alert.WatchInfo(s.interval), err)); sendErr != nil {
		slog.Error("scheduler: incident not delivered", "error", sendErr)
	}
}
