package server

import (
	"net/http"

	"github.com/backyonatan-alt/lookout/internal/cache"
	"github.com/backyonatan-alt/lookout/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	status  *cache.Status
	store   store.Store
	metrics http.Handler
}

// New builds the status server. metrics may be nil to disable /metrics.
func New(status *cache.Status, store store.Store, metrics http.Handler) *Server {
	return &Server{status: status, store: store, metrics: metrics}
}

// Router returns the HTTP handler with all routes registered.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/alerts", s.handleAlerts)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	return mux
}
