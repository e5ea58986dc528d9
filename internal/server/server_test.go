package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backyonatan-alt/lookout/internal/cache"
	"github.com/backyonatan-alt/lookout/internal/metrics"
	"github.com/backyonatan-alt/lookout/internal/model"
	"github.com/backyonatan-alt/lookout/internal/store"
)

type failingStore struct{ *store.Memory }

func (failingStore) RecentAlerts(context.Context, int) ([]model.AlertRecord, error) {
	return nil, errors.New("connection refused")
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestStatus(t *testing.T) {
	status := cache.New()
	h := New(status, store.NewMemory(0), nil).Router()

	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/status").Code)

	require.NoError(t, status.Set(model.CycleStatus{Hostile: 2, NewAlerts: 1, KnownEvents: []string{"1", "2"}}))
	rec := get(t, h, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var st model.CycleStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 2, st.Hostile)
}

func TestAlerts(t *testing.T) {
	st := store.NewMemory(0)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, st.SaveAlert(context.Background(), model.AlertRecord{ID: id, EventID: id, Kind: model.PirateRaid, CreatedAt: time.Unix(1, 0)}))
	}
	h := New(cache.New(), st, nil).Router()

	rec := get(t, h, "/api/alerts?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Alerts []model.AlertRecord `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Alerts, 2)
	assert.Equal(t, "c", body.Alerts[0].ID)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/alerts?limit=zero").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/alerts?limit=-1").Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/alerts", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAlerts_StoreError(t *testing.T) {
	h := New(cache.New(), failingStore{store.NewMemory(0)}, nil).Router()
	assert.Equal(t, http.StatusInternalServerError, get(t, h, "/api/alerts").Code)
}

func TestHealth(t *testing.T) {
	status := cache.New()
	h := New(status, store.NewMemory(0), nil).Router()

	var resp map[string]any
	require.NoError(t, json.Unmarshal(get(t, h, "/healthz").Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotContains(t, resp, "last_update")

	require.NoError(t, status.Set(model.CycleStatus{Error: "fetch movements: game server error: 502"}))
	resp = nil
	require.NoError(t, json.Unmarshal(get(t, h, "/healthz").Body.Bytes(), &resp))
	assert.Contains(t, resp, "last_update")
	assert.Equal(t, "fetch movements: game server error: 502", resp["last_error"])
}

func TestMetricsRoute(t *testing.T) {
	m := metrics.New()
	m.SetKnownAttacks(4)
	h := New(cache.New(), store.NewMemory(0), m.Handler()).Router()

	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lookout_known_attacks 4")

	assert.Equal(t, http.StatusNotFound, get(t, New(cache.New(), store.NewMemory(0), nil).Router(), "/metrics").Code)
}
