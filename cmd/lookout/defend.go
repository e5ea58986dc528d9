package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/backyonatan-alt/lookout/internal/alert"
	"github.com/backyonatan-alt/lookout/internal/defense"
	"github.com/backyonatan-alt/lookout/internal/game"
	"github.com/backyonatan-alt/lookout/internal/model"
	"github.com/backyonatan-alt/lookout/internal/threat"
)

func newDefendCmd() *cobra.Command {
	var eventID string

	cmd := &cobra.Command{
		Use:   "defend",
		Short: "List incoming pirate raids or defend one immediately",
		Long: `Without --event, lists the pirate raids currently heading for the account.
With --event, converts crew against that raid right away, without confirmation.
The configured spending cap and safety buffer apply; defense.enabled does not.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := game.New(cfg.Game)
			if err != nil {
				return err
			}
			snap, err := client.FetchMovements(ctx)
			if err != nil {
				return err
			}
			raids := threat.Default().IncomingPirateRaids(snap)

			out := cmd.OutOrStdout()
			if eventID == "" {
				printRaids(out, raids)
				return nil
			}

			raid, ok := findRaid(raids, eventID)
			if !ok {
				return fmt.Errorf("no incoming pirate raid with event id %s", eventID)
			}
			fmt.Fprintf(out, "Defending against raid %s arriving in %s...\n", eventID, alert.Countdown(raid.SecondsLeft))

			res := defense.NewExecutor(client, cfg.Defense).Defend(ctx, int(raid.SecondsLeft))
			fmt.Fprint(out, alert.DefenseReport(res))
			if !res.Success {
				return fmt.Errorf("defense failed: %w", res.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&eventID, "event", "", "Event id of the raid to defend")
	return cmd
}

func printRaids(w io.Writer, raids []model.Threat) {
	if len(raids) == 0 {
		fmt.Fprintln(w, "No incoming pirate attacks detected.")
		return
	}
	fmt.Fprintf(w, "Found %d incoming pirate attack(s):\n\n", len(raids))
	for _, r := range raids {
		m := r.Movement
		fmt.Fprintf(w, "[%s] %s\n", m.EventID, m.MissionText)
		fmt.Fprintf(w, "    From: %s (%s)\n", m.OriginName, m.OriginPlayer)
		fmt.Fprintf(w, "    To: %s\n", m.TargetName)
		fmt.Fprintf(w, "    Arrives in: %s (%d seconds)\n\n", alert.Countdown(r.SecondsLeft), r.SecondsLeft)
	}
}

func findRaid(raids []model.Threat, eventID string) (model.Threat, bool) {
	for _, r := range raids {
		if r.Movement.EventID == eventID {
			return r, true
		}
	}
	return model.Threat{}, false
}
