// Package admin exposes the agent's small HTTP surface: liveness, a live
// statistics snapshot and Prometheus metrics.
package admin

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/ndntg/namepush/engine"
	"github.com/ndntg/namepush/telemetry"
)

// Server serves /healthz, /statz and /metrics while a run is in flight
type Server struct {
	stats *engine.Stats
}

// NewServer creates the admin surface over the run's statistics
func NewServer(stats *engine.Stats) *Server {
	return &Server{stats: stats}
}

// Router builds the chi router for the admin surface
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/statz", s.handleStats)
	if h := telemetry.GetMetricsHandler(); h != nil {
		r.Handle("/metrics", h)
	}

	return r
}

// Serve listens on addr until the process exits. Run it on its own
// goroutine; a listener failure is logged, never fatal to the run.
func (s *Server) Serve(addr string) {
	log.Info().Str("addr", addr).Msg("Stats endpoint enabled")
	if err := http.ListenAndServe(addr, s.Router()); err != nil {
		log.Warn().Err(err).Msg("Stats endpoint stopped")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeErrorResponse(w, http.StatusServiceUnavailable, "no run in progress")
		return
	}
	writeJSONResponse(w, s.stats.GetSnapshot())
}

// writeJSONResponse writes a successful JSON response
func writeJSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": data}); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error JSON response
func writeErrorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	response := map[string]interface{}{
		"error": message,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("Failed to encode error response")
	}
}

// Addr formats the listen address from configuration values
func Addr(address string, port int) string {
	return fmt.Sprintf("%s:%d", address, port)
}
