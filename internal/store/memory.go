package store

import (
	"context"
	"sync"

	"github.com/backyonatan-alt/lookout/internal/model"
)

// DefaultMemoryCapacity bounds the in-memory journal.
const DefaultMemoryCapacity = 500

// Memory keeps the most recent alerts in process. Used when no database is configured.
type Memory struct {
	mu       sync.RWMutex
	alerts   []model.AlertRecord
	capacity int
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{capacity: capacity}
}

func (m *Memory) Migrate(context.Context) error { return nil }

func (m *Memory) SaveAlert(_ context.Context, rec model.AlertRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, rec)
	if over := len(m.alerts) - m.capacity; over > 0 {
		m.alerts = append([]model.AlertRecord(nil), m.alerts[over:]...)
	}
	return nil
}

func (m *Memory) RecentAlerts(_ context.Context, limit int) ([]model.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.alerts) {
		limit = len(m.alerts)
	}
	out := make([]model.AlertRecord, 0, limit)
	for i := len(m.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.alerts[i])
	}
	return out, nil
}
