package defense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/backyonatan-alt/lookout/internal/config"
	"github.com/backyonatan-alt/lookout/internal/game"
	"github.com/backyonatan-alt/lookout/internal/model"
)

var (
	ErrFortressLookup   = errors.New("failed to look up the pirate fortress")
	ErrStateUnavailable = errors.New("failed to fetch conversion data from pirate fortress")
	ErrSubmitFailed     = errors.New("conversion request failed")
)

// Fortress is the slice of the game transport the executor needs.
type Fortress interface {
	LocateFortress(ctx context.Context) (model.Fortress, error)
	ConversionState(ctx context.Context, f model.Fortress) (model.FortressConversionState, error)
	Convert(ctx context.Context, f model.Fortress, units int) error
}

// Executor plans against a freshly fetched balance and commits the conversion.
type Executor struct {
	game   Fortress
	policy config.DefenseConfig
}

func NewExecutor(game Fortress, policy config.DefenseConfig) *Executor {
	return &Executor{game: game, policy: policy}
}

// Enabled reports whether automatic defense is switched on.
func (e *Executor) Enabled() bool {
	return e.policy.Enabled
}

// Defend runs one defense attempt against a raid arriving in arrivalSeconds.
// The conversion is submitted at most once; a failed submit is not retried
// because the balance it was planned against may already be spent.
func (e *Executor) Defend(ctx context.Context, arrivalSeconds int) model.DefenseResult {
	result := model.DefenseResult{ArrivalSeconds: arrivalSeconds}

	fortress, err := e.game.LocateFortress(ctx)
	if errors.Is(err, game.ErrNoFortress) {
		return fail(result, err)
	}
	if err != nil {
		return fail(result, fmt.Errorf("%w: %v", ErrFortressLookup, err))
	}
	result.Fortress = &fortress

	state, err := e.game.ConversionState(ctx, fortress)
	if err != nil {
		return fail(result, fmt.Errorf("%w: %v", ErrStateUnavailable, err))
	}

	plan, err := Plan(PlanInput{
		ArrivalSeconds:      arrivalSeconds,
		State:               state,
		MaxSpend:            e.policy.MaxSpend,
		SafetyBufferSeconds: e.policy.SafetyBufferSeconds,
		PreserveThreshold:   e.policy.PreserveThreshold,
		AllowBelowThreshold: e.policy.AllowBelowThreshold,
	})
	if err != nil {
		slog.Info("defense: plan rejected", "city_id", fortress.CityID, "points", state.AvailablePoints, "arrival", arrivalSeconds, "reason", err)
		return fail(result, err)
	}

	slog.Info("defense: converting crew",
		"city_id", fortress.CityID,
		"units", plan.UnitsToConvert,
		"points", plan.PointsToSpend,
		"conversion_seconds", plan.EstimatedConversionSeconds,
		"buffer_seconds", plan.TimeBufferSeconds,
	)
	if err := e.game.Convert(ctx, fortress, plan.UnitsToConvert); err != nil {
		slog.Error("defense: conversion submit failed", "city_id", fortress.CityID, "error", err)
		return fail(result, fmt.Errorf("%w: %v", ErrSubmitFailed, err))
	}

	result.Success = true
	result.Plan = plan
	return result
}

func fail(r model.DefenseResult, err error) model.DefenseResult {
	r.Success = false
	r.Err = err
	r.Reason = err.Error()
	return r
}

// ReasonCode maps a defense failure to a short stable label for metrics and storage.
func ReasonCode(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConversionAlreadyRunning):
		return "conversion_already_running"
	case errors.Is(err, ErrInsufficientResource):
		return "insufficient_resource"
	case errors.Is(err, ErrInsufficientTime):
		return "insufficient_time"
	case errors.Is(err, ErrNoViableConversion):
		return "no_viable_conversion"
	case errors.Is(err, ErrDeadlineMissed):
		return "deadline_missed"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, game.ErrNoFortress):
		return "no_fortress"
	case errors.Is(err, ErrFortressLookup):
		return "fortress_lookup_failed"
	case errors.Is(err, ErrStateUnavailable):
		return "state_unavailable"
	case errors.Is(err, ErrSubmitFailed):
		return "submit_failed"
	}
	return "error"
}
