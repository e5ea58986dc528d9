package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/backyonatan-alt/lookout/internal/alert"
	"github.com/backyonatan-alt/lookout/internal/cache"
	"github.com/backyonatan-alt/lookout/internal/dedup"
	"github.com/backyonatan-alt/lookout/internal/defense"
	"github.com/backyonatan-alt/lookout/internal/model"
	"github.com/backyonatan-alt/lookout/internal/notify"
	"github.com/backyonatan-alt/lookout/internal/store"
	"github.com/backyonatan-alt/lookout/internal/threat"
)

// MovementFetcher returns the current military movements. *game.Client satisfies it.
type MovementFetcher interface {
	FetchMovements(ctx context.Context) (model.Snapshot, error)
}

// Defender runs one automatic defense attempt. *defense.Executor satisfies it.
type Defender interface {
	Enabled() bool
	Defend(ctx context.Context, arrivalSeconds int) model.DefenseResult
}

// Recorder receives per-cycle counters. *metrics.Metrics satisfies it.
type Recorder interface {
	AlertSent(kind string)
	DefenseAttempted(reason string)
	SetKnownAttacks(n int)
}

// Deps are the collaborators of a Pipeline. Store, Status and Metrics are optional.
type Deps struct {
	Fetcher    MovementFetcher
	Classifier *threat.Classifier
	Defender   Defender
	Notifier   notify.Notifier
	Store      store.Store
	Status     *cache.Status
	Metrics    Recorder
	InstanceID int
}

// Pipeline orchestrates one poll cycle:
// fetch -> dedupe -> classify -> defend -> notify -> journal -> evict.
// It owns the known-attacks set, so Run must not be called concurrently.
type Pipeline struct {
	deps    Deps
	tracker *dedup.Tracker
	now     func() time.Time
}

func New(deps Deps) *Pipeline {
	if deps.Classifier == nil {
		deps.Classifier = threat.Default()
	}
	return &Pipeline{deps: deps, tracker: dedup.New(), now: time.Now}
}

// Run executes one cycle. A fetch failure aborts the cycle before any state
// changes; notification failures are returned after the cycle completes.
func (p *Pipeline) Run(ctx context.Context) error {
	started := p.now()
	slog.Info("pipeline run starting")

	// 1. Fetch
	snap, err := p.deps.Fetcher.FetchMovements(ctx)
	if err != nil {
		err = fmt.Errorf("fetch movements: %w", err)
		p.publish(model.CycleStatus{StartedAt: started, Error: err.Error()})
		return err
	}
	fetchedAt := p.now()

	// 2. Dedupe and classify
	delta := p.tracker.Observe(snap)
	threats := p.deps.Classifier.Threats(snap.ServerTime, delta.New)

	// 3. Alert each new threat, defending pirate raids first
	var sendErrs []error
	for _, t := range threats {
		if err := p.handle(ctx, t, fetchedAt); err != nil {
			sendErrs = append(sendErrs, err)
		}
	}

	// 4. Forget resolved attacks; the snapshot is known to be well formed here
	if evicted := p.tracker.Evict(delta.Present); len(evicted) > 0 {
		slog.Info("pipeline: attacks resolved", "event_ids", evicted)
	}
	if p.deps.Metrics != nil {
		p.deps.Metrics.SetKnownAttacks(p.tracker.Len())
	}

	err = errors.Join(sendErrs...)
	st := model.CycleStatus{
		StartedAt:   started,
		ServerTime:  snap.ServerTime,
		Hostile:     len(delta.Present),
		NewAlerts:   len(threats),
		KnownEvents: p.tracker.Known(),
	}
	if err != nil {
		st.Error = err.Error()
	}
	p.publish(st)

	slog.Info("pipeline run complete", "hostile", len(delta.Present), "new", len(threats), "known", p.tracker.Len())
	return err
}

// handle alerts one threat. SecondsLeft was computed against the snapshot, so
// time spent on earlier threats in the same cycle is taken off the countdown.
func (p *Pipeline) handle(ctx context.Context, t model.Threat, fetchedAt time.Time) error {
	t.SecondsLeft -= int64(p.now().Sub(fetchedAt) / time.Second)
	msg := alert.ThreatAlert(t, p.deps.InstanceID)
	slog.Warn("pipeline: hostile movement detected",
		"event_id", t.Movement.EventID,
		"kind", t.Kind,
		"target", t.Movement.TargetName,
		"seconds_left", t.SecondsLeft,
	)

	var outcome string
	if t.Kind == model.PirateRaid && !t.Movement.IsOwnForce && p.deps.Defender != nil && p.deps.Defender.Enabled() {
		res := p.deps.Defender.Defend(ctx, int(t.SecondsLeft))
		outcome = defense.ReasonCode(res.Err)
		msg += alert.DefenseReport(res)
		if p.deps.Metrics != nil {
			p.deps.Metrics.DefenseAttempted(outcome)
		}
	}

	sendErr := p.deps.Notifier.Send(ctx, msg)
	if sendErr != nil {
		sendErr = fmt.Errorf("notify event %s: %w", t.Movement.EventID, sendErr)
		slog.Error("pipeline: alert not delivered", "event_id", t.Movement.EventID, "error", sendErr)
	} else if p.deps.Metrics != nil {
		p.deps.Metrics.AlertSent(string(t.Kind))
	}

	if p.deps.Store != nil {
		rec := model.AlertRecord{
			ID:        uuid.NewString(),
			EventID:   t.Movement.EventID,
			Kind:      t.Kind,
			Message:   msg,
			Defense:   outcome,
			CreatedAt: p.now().UTC(),
		}
		if err := p.deps.Store.SaveAlert(ctx, rec); err != nil {
			slog.Warn("pipeline: failed to journal alert", "event_id", rec.EventID, "error", err)
		}
	}
	return sendErr
}

func (p *Pipeline) publish(st model.CycleStatus) {
	if p.deps.Status == nil {
		return
	}
	st.FinishedAt = p.now()
	if err := p.deps.Status.Set(st); err != nil {
		slog.Warn("pipeline: failed to cache status", "error", err)
	}
}

// Known returns the event ids currently considered alerted.
func (p *Pipeline) Known() []string {
	return p.tracker.Known()
}
