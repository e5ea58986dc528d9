package responder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/backyonatan-alt/lookout/internal/alert"
	"github.com/backyonatan-alt/lookout/internal/notify"
)

const errorBackoff = 10 * time.Second

var commandRe = regexp.MustCompile(`(\d+):?\s*(\d+)`)

// VacationActivator puts the game account into vacation mode.
type VacationActivator interface {
	ActivateVacationMode(ctx context.Context) error
}

// CommandCounter records handled commands. *metrics.Metrics satisfies it.
type CommandCounter interface {
	CommandReceived(action string)
}

// Command is an operator reply of the form "<pid>:<action>".
type Command struct {
	InstanceID int
	Action     int
}

// ParseCommand extracts the first "<pid>:<action>" pair from text.
func ParseCommand(text string) (Command, bool) {
	m := commandRe.FindStringSubmatch(text)
	if m == nil {
		return Command{}, false
	}
	pid, err := strconv.Atoi(m[1])
	if err != nil {
		return Command{}, false
	}
	action, err := strconv.Atoi(m[2])
	if err != nil {
		return Command{}, false
	}
	return Command{InstanceID: pid, Action: action}, true
}

// Responder listens for operator replies addressed to this instance.
type Responder struct {
	notifier   notify.Notifier
	game       VacationActivator
	counter    CommandCounter
	instanceID int
	wait       time.Duration
}

func New(n notify.Notifier, game VacationActivator, counter CommandCounter, instanceID int, wait time.Duration) *Responder {
	return &Responder{
		notifier:   n,
		game:       game,
		counter:    counter,
		instanceID: instanceID,
		wait:       wait,
	}
}

// Run polls for replies until ctx is cancelled. Failures are logged and the
// loop continues; it only returns ctx's error.
func (r *Responder) Run(ctx context.Context) error {
	slog.Info("responder: listening for operator commands", "instance_id", r.instanceID)
	for {
		if err := ctx.Err(); err != nil {
			slog.Info("responder stopped")
			return err
		}
		if err := r.poll(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			slog.Error("responder: poll failed", "error", err)
			sleep(ctx, errorBackoff)
		}
	}
}

// poll handles one batch of replies. A panic is reported to the operator and
// swallowed so the next poll starts immediately.
func (r *Responder) poll(ctx context.Context) error {
	defer func() {
		if p := recover(); p != nil {
			r.report(ctx, fmt.Errorf("responder panic: %v", p))
		}
	}()

	texts, err := r.notifier.Receive(ctx, r.wait)
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	for _, text := range texts {
		r.Handle(ctx, text)
	}
	return nil
}

// Handle executes a single operator reply. Replies that are not commands, or
// that address another instance, are ignored.
func (r *Responder) Handle(ctx context.Context, text string) {
	cmd, ok := ParseCommand(text)
	if !ok || cmd.InstanceID != r.instanceID {
		return
	}
	if r.counter != nil {
		r.counter.CommandReceived(strconv.Itoa(cmd.Action))
	}

	switch cmd.Action {
	case alert.VacationAction:
		slog.Warn("responder: vacation mode requested by operator")
		if err := r.game.ActivateVacationMode(ctx); err != nil {
			r.report(ctx, err)
			return
		}
		r.send(ctx, "Vacation mode activated")
	default:
		slog.Info("responder: unknown command", "action", cmd.Action)
		r.send(ctx, alert.UnknownCommand(cmd.Action))
	}
}

func (r *Responder) report(ctx context.Context, err error) {
	slog.Error("responder: command failed", "error", err)
	r.send(ctx, alert.Incident(fmt.Sprintf("command listener (instance %d)", r.instanceID), err))
}

func (r *Responder) send(ctx context.Context, text string) {
	if err := r.notifier.Send(ctx, text); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("responder: send failed", "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
