package alert

import (
	"fmt"
	"strings"
	"time"

	"github.com/backyonatan-alt/lookout/internal/model"
)

// VacationAction is the only operator command code the responder understands.
const VacationAction = 1

// Countdown renders seconds the way the game does: "1D 4H", "2H 5M", "3M 20S".
func Countdown(seconds int64) string {
	if seconds <= 0 {
		return "0S"
	}
	d := time.Duration(seconds) * time.Second
	days := int64(d / (24 * time.Hour))
	hours := int64(d/time.Hour) % 24
	minutes := int64(d/time.Minute) % 60
	secs := seconds % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dD", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dH", hours))
	}
	if minutes > 0 && days == 0 {
		parts = append(parts, fmt.Sprintf("%dM", minutes))
	}
	if secs > 0 && days == 0 && hours == 0 {
		parts = append(parts, fmt.Sprintf("%dS", secs))
	}
	return strings.Join(parts, " ")
}

func count(n *int) string {
	if n == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d", *n)
}

// ThreatAlert renders the first message the operator sees for a new hostile
// movement. instanceID is embedded in the vacation-mode hint for player attacks.
func ThreatAlert(t model.Threat, instanceID int) string {
	m := t.Movement
	var b strings.Builder

	if t.Kind == model.PirateRaid {
		b.WriteString("-- PIRATE ATTACK --\n")
		b.WriteString(m.MissionText + "\n")
		fmt.Fprintf(&b, "from the pirate fortress %s of %s\n", m.OriginName, m.OriginPlayer)
		fmt.Fprintf(&b, "to %s\n", m.TargetName)
		fmt.Fprintf(&b, "arrival in: %s\n", Countdown(t.SecondsLeft))
		b.WriteString("units: unknown, fleet: unknown (hidden for pirate raids)\n")
		return b.String()
	}

	b.WriteString("-- ALERT --\n")
	b.WriteString(m.MissionText + "\n")
	fmt.Fprintf(&b, "from the city %s of %s\n", m.OriginName, m.OriginPlayer)
	fmt.Fprintf(&b, "to %s\n", m.TargetName)
	fmt.Fprintf(&b, "%s units\n", count(m.TroopCount))
	fmt.Fprintf(&b, "%s fleet\n", count(m.FleetCount))
	fmt.Fprintf(&b, "arrival in: %s\n", Countdown(t.SecondsLeft))
	b.WriteString("If you want to put the account in vacation mode send:\n")
	fmt.Fprintf(&b, "%d:%d", instanceID, VacationAction)
	return b.String()
}

// DefenseReport is appended to a pirate raid alert.
func DefenseReport(r model.DefenseResult) string {
	var b strings.Builder
	if r.Success {
		b.WriteString("\n--- AUTO-DEFENSE ACTIVATED ---\n")
		fmt.Fprintf(&b, "Converted: %d crew points\n", r.Plan.UnitsToConvert)
		fmt.Fprintf(&b, "Spent: %d capture points\n", r.Plan.PointsToSpend)
		fmt.Fprintf(&b, "Conversion completes in: %s\n", Countdown(int64(r.Plan.EstimatedConversionSeconds)))
		fmt.Fprintf(&b, "Attack arrives in: %s\n", Countdown(int64(r.ArrivalSeconds)))
		fmt.Fprintf(&b, "Safety margin: %s\n", Countdown(int64(r.Plan.TimeBufferSeconds)))
		return b.String()
	}
	b.WriteString("\n--- AUTO-DEFENSE FAILED ---\n")
	fmt.Fprintf(&b, "Reason: %s\n", r.Reason)
	return b.String()
}

// Incident reports a failed poll cycle or a crashed task.
func Incident(info string, err error) string {
	return fmt.Sprintf("Error in:\n%s\nCause:\n%v", info, err)
}

// WatchInfo is the one-line description of a running watcher.
func WatchInfo(interval time.Duration) string {
	return fmt.Sprintf("I check for attacks every %d minutes", int(interval.Minutes()))
}

// UnknownCommand echoes an unrecognized operator action code.
func UnknownCommand(action int) string {
	return fmt.Sprintf("Invalid command: %d", action)
}
