package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backyonatan-alt/lookout/internal/alert"
	"github.com/backyonatan-alt/lookout/internal/config"
	"github.com/backyonatan-alt/lookout/internal/defense"
	"github.com/backyonatan-alt/lookout/internal/game"
	"github.com/backyonatan-alt/lookout/internal/model"
)

// newPlanCmd is an offline calculator; it never talks to the game.
func newPlanCmd() *cobra.Command {
	var (
		in    defense.PlanInput
		state model.FortressConversionState
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute the crew conversion the planner would choose",
		RunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(logLevel)
			in.State = state

			out := cmd.OutOrStdout()
			plan, err := defense.Plan(in)
			if err != nil {
				fmt.Fprintf(out, "Rejected: %v\n", err)
				return nil
			}
			fmt.Fprintf(out, "Units to convert: %d\n", plan.UnitsToConvert)
			fmt.Fprintf(out, "Points to spend: %d (of %d)\n", plan.PointsToSpend, state.AvailablePoints)
			fmt.Fprintf(out, "Conversion time: %s\n", alert.Countdown(int64(plan.EstimatedConversionSeconds)))
			fmt.Fprintf(out, "Safety margin: %s\n", alert.Countdown(int64(plan.TimeBufferSeconds)))
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&in.ArrivalSeconds, "arrival", 0, "Seconds until the raid lands")
	f.IntVar(&state.AvailablePoints, "points", 0, "Available capture points")
	f.IntVar(&state.PointsPerUnit, "points-per-unit", game.DefaultPointsPerUnit, "Capture points per crew unit")
	f.IntVar(&state.SecondsPerUnit, "seconds-per-unit", game.DefaultSecondsPerUnit, "Conversion seconds per crew unit")
	f.IntVar(&state.BaseConversionSeconds, "base-seconds", game.DefaultBaseSeconds, "Fixed conversion overhead in seconds")
	f.BoolVar(&state.ConversionInProgress, "in-progress", false, "A conversion is already running")
	f.IntVar(&in.MaxSpend, "max-spend", 0, "Capture point cap, 0 for none")
	f.IntVar(&in.SafetyBufferSeconds, "buffer", config.DefaultSafetyBuffer, "Safety buffer in seconds")
	f.IntVar(&in.PreserveThreshold, "preserve-threshold", config.DefaultPreserveThreshold, "Points kept in reserve once the balance reaches them")
	f.BoolVar(&in.AllowBelowThreshold, "allow-below-threshold", false, "Allow spending into the preserved reserve")
	cmd.MarkFlagRequired("arrival")
	cmd.MarkFlagRequired("points")
	return cmd
}
