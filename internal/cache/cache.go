package cache

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/backyonatan-alt/lookout/internal/model"
)

// Status holds the last poll cycle summary, pre-serialized for the status API.
type Status struct {
	mu        sync.RWMutex
	data      []byte
	last      model.CycleStatus
	updatedAt time.Time
}

func New() *Status {
	return &Status{}
}

// Set replaces the cached summary.
func (c *Status) Set(st model.CycleStatus) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode cycle status: %w", err)
	}
	c.mu.Lock()
	c.data = data
	c.last = st
	c.updatedAt = time.Now()
	c.mu.Unlock()
	return nil
}

// JSON returns a copy of the serialized summary, or nil before the first cycle.
func (c *Status) JSON() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.data == nil {
		return nil
	}
	out := make([]byte, len(c.data))
	copy(out, c.data)
	return out
}

// Last returns the most recent summary and whether one exists.
func (c *Status) Last() (model.CycleStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last, c.data != nil
}

// UpdatedAt returns the last time the cache was updated.
func (c *Status) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}
