package threat

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/backyonatan-alt/lookout/internal/model"
)

const (
	PiracyMissionType = "piracy"
	PiracyRaidIcon    = "piracyRaid"
)

// Rule labels a hostile movement with Kind when its condition holds.
// Conditions are expr predicates evaluated against model.MilitaryMovement.
type Rule struct {
	Name         string
	Kind         model.ThreatKind
	ConditionSrc string
	program      *vm.Program
}

// DefaultRules requires both the mission type and the icon: the icon alone is
// reused by other missions, and a false positive here spends capture points.
func DefaultRules() []*Rule {
	return []*Rule{
		{
			Name:         "pirate-raid",
			Kind:         model.PirateRaid,
			ConditionSrc: fmt.Sprintf(`MissionType == %q && MissionIconClass == %q`, PiracyMissionType, PiracyRaidIcon),
		},
	}
}

// Classifier is safe for concurrent use once built.
type Classifier struct {
	rules []*Rule
}

func New(rules []*Rule) (*Classifier, error) {
	for _, r := range rules {
		prog, err := expr.Compile(r.ConditionSrc, expr.Env(model.MilitaryMovement{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.program = prog
	}
	return &Classifier{rules: rules}, nil
}

// Default builds a classifier from DefaultRules. The rules are constants, so a
// compile failure is a programming error.
func Default() *Classifier {
	c, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}
	return c
}

// Classify returns the threat kind of m, or false when m is not hostile.
// Rules are tried in order; a hostile movement no rule matches is a player attack.
func (c *Classifier) Classify(m model.MilitaryMovement) (model.ThreatKind, bool) {
	if !m.IsHostile {
		return "", false
	}
	for _, r := range c.rules {
		out, err := vm.Run(r.program, m)
		if err != nil {
			slog.Warn("threat rule evaluation failed", "rule", r.Name, "event_id", m.EventID, "error", err)
			continue
		}
		if match, ok := out.(bool); ok && match {
			return r.Kind, true
		}
	}
	return model.PlayerAttack, true
}

// Threats classifies movements against the snapshot's server clock.
func (c *Classifier) Threats(serverTime int64, movements []model.MilitaryMovement) []model.Threat {
	var out []model.Threat
	for _, m := range movements {
		kind, ok := c.Classify(m)
		if !ok {
			continue
		}
		out = append(out, model.Threat{
			Movement:    m,
			Kind:        kind,
			SecondsLeft: m.SecondsUntilArrival(serverTime),
		})
	}
	return out
}

// IncomingPirateRaids lists pirate raids aimed at the account, skipping the
// account's own outgoing piracy missions.
func (c *Classifier) IncomingPirateRaids(s model.Snapshot) []model.Threat {
	var out []model.Threat
	for _, t := range c.Threats(s.ServerTime, s.Movements) {
		if t.Kind == model.PirateRaid && !t.Movement.IsOwnForce {
			out = append(out, t)
		}
	}
	return out
}
