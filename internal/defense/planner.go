package defense

import (
	"errors"
	"fmt"

	"github.com/backyonatan-alt/lookout/internal/model"
)

var (
	ErrConversionAlreadyRunning = errors.New("conversion already running")
	ErrInsufficientResource     = errors.New("insufficient capture points")
	ErrInsufficientTime         = errors.New("insufficient time")
	ErrNoViableConversion       = errors.New("no viable conversion")
	ErrDeadlineMissed           = errors.New("deadline missed")
	ErrInvalidState             = errors.New("invalid conversion state")
)

// RejectionError is an expected planner outcome. Is matches the sentinel.
type RejectionError struct {
	Reason error
	Detail string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func (e *RejectionError) Unwrap() error { return e.Reason }

func reject(reason error, format string, args ...any) error {
	return &RejectionError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// PlanInput carries the decision-time facts and operator policy.
type PlanInput struct {
	ArrivalSeconds      int
	State               model.FortressConversionState
	MaxSpend            int // 0 = no cap
	SafetyBufferSeconds int
	PreserveThreshold   int
	AllowBelowThreshold bool
}

// Plan computes the largest conversion that finishes before the raid lands.
// Each gate is hard: time, balance, cap and preservation limits are computed
// independently and combined by minimum, never traded against each other.
func Plan(in PlanInput) (model.ConversionPlan, error) {
	st := in.State

	if st.ConversionInProgress {
		return model.ConversionPlan{}, reject(ErrConversionAlreadyRunning, "cannot start another conversion")
	}
	if st.PointsPerUnit <= 0 || st.SecondsPerUnit <= 0 || st.BaseConversionSeconds < 0 {
		return model.ConversionPlan{}, reject(ErrInvalidState,
			"points per unit %d, seconds per unit %d, base %ds", st.PointsPerUnit, st.SecondsPerUnit, st.BaseConversionSeconds)
	}
	if st.AvailablePoints < st.PointsPerUnit {
		return model.ConversionPlan{}, reject(ErrInsufficientResource,
			"have %d, need %d minimum", st.AvailablePoints, st.PointsPerUnit)
	}

	availableTime := in.ArrivalSeconds - in.SafetyBufferSeconds
	if availableTime < st.BaseConversionSeconds {
		return model.ConversionPlan{}, reject(ErrInsufficientTime,
			"attack in %ds, need at least %ds", in.ArrivalSeconds, st.BaseConversionSeconds+in.SafetyBufferSeconds)
	}

	units := (availableTime - st.BaseConversionSeconds) / st.SecondsPerUnit
	units = min(units, st.AvailablePoints/st.PointsPerUnit)
	if in.MaxSpend > 0 {
		units = min(units, in.MaxSpend/st.PointsPerUnit)
	}
	if !in.AllowBelowThreshold && st.AvailablePoints >= in.PreserveThreshold {
		units = min(units, (st.AvailablePoints-in.PreserveThreshold)/st.PointsPerUnit)
	}
	if units <= 0 {
		return model.ConversionPlan{}, reject(ErrNoViableConversion, "time, points, cap and threshold constraints allow 0 units")
	}

	plan := model.ConversionPlan{
		UnitsToConvert:             units,
		PointsToSpend:              units * st.PointsPerUnit,
		EstimatedConversionSeconds: st.BaseConversionSeconds + units*st.SecondsPerUnit,
	}
	plan.TimeBufferSeconds = in.ArrivalSeconds - plan.EstimatedConversionSeconds
	if plan.TimeBufferSeconds < 0 {
		return model.ConversionPlan{}, reject(ErrDeadlineMissed,
			"conversion takes %ds but attack in %ds", plan.EstimatedConversionSeconds, in.ArrivalSeconds)
	}
	return plan, nil
}
