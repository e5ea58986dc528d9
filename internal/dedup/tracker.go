package dedup

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/backyonatan-alt/lookout/internal/model"
)

// Delta is the result of observing one snapshot.
type Delta struct {
	// New holds hostile movements not alerted before, in snapshot order.
	New []model.MilitaryMovement
	// Present is every hostile event id in the snapshot.
	Present map[string]struct{}
}

// Tracker owns the set of hostile event ids already alerted on.
// It has a single owner (the poll cycle) and no locking.
type Tracker struct {
	known map[string]struct{}
}

func New() *Tracker {
	return &Tracker{known: make(map[string]struct{})}
}

// Observe returns the hostile movements of s that are not yet known and marks
// them known. An event id repeated within s is surfaced once. A hostile
// movement without an event id is keyed by origin, target and arrival.
func (t *Tracker) Observe(s model.Snapshot) Delta {
	d := Delta{Present: make(map[string]struct{})}
	for _, m := range s.Movements {
		if !m.IsHostile {
			continue
		}
		if m.EventID == "" {
			m.EventID = DerivedKey(m)
			slog.Warn("dedup: hostile movement without event id", "key", m.EventID)
		}
		d.Present[m.EventID] = struct{}{}
		if _, ok := t.known[m.EventID]; ok {
			continue
		}
		t.known[m.EventID] = struct{}{}
		d.New = append(d.New, m)
	}
	return d
}

// Evict forgets known ids missing from present and returns them. Call it only
// after a structurally valid snapshot; an empty present set evicts everything.
func (t *Tracker) Evict(present map[string]struct{}) []string {
	var evicted []string
	for id := range t.known {
		if _, ok := present[id]; !ok {
			delete(t.known, id)
			evicted = append(evicted, id)
		}
	}
	sort.Strings(evicted)
	return evicted
}

// DerivedKey identifies a movement the game listed without an event id.
func DerivedKey(m model.MilitaryMovement) string {
	return fmt.Sprintf("derived:%s|%s|%s|%d", m.OriginName, m.TargetCityID, m.TargetName, m.ArrivalTimestamp)
}

func (t *Tracker) Known() []string {
	ids := make([]string, 0, len(t.known))
	for id := range t.known {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (t *Tracker) Len() int {
	return len(t.known)
}
