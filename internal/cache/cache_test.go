package cache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backyonatan-alt/lookout/internal/model"
)

func TestStatus_EmptyBeforeFirstCycle(t *testing.T) {
	c := New()
	assert.Nil(t, c.JSON())
	_, ok := c.Last()
	assert.False(t, ok)
	assert.True(t, c.UpdatedAt().IsZero())
}

func TestStatus_SetAndRead(t *testing.T) {
	c := New()
	st := model.CycleStatus{
		StartedAt:   time.Unix(100, 0).UTC(),
		FinishedAt:  time.Unix(102, 0).UTC(),
		ServerTime:  1000,
		Hostile:     2,
		NewAlerts:   1,
		KnownEvents: []string{"5001", "5002"},
	}
	require.NoError(t, c.Set(st))

	var decoded model.CycleStatus
	require.NoError(t, json.Unmarshal(c.JSON(), &decoded))
	assert.Equal(t, st, decoded)

	last, ok := c.Last()
	assert.True(t, ok)
	assert.Equal(t, 2, last.Hostile)
	assert.False(t, c.UpdatedAt().IsZero())
}

func TestStatus_JSONReturnsCopy(t *testing.T) {
	c := New()
	require.NoError(t, c.Set(model.CycleStatus{Hostile: 1}))

	b := c.JSON()
	b[0] = 'x'
	assert.Equal(t, byte('{'), c.JSON()[0])
}
