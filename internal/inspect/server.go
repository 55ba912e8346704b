// Package inspect serves a read-only HTTP view of a running state manager:
// the latest snapshot, recent update passes, Prometheus metrics and a
// WebSocket stream of passes as they happen.
package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/incremental/pkg/journal"
)

// Server is the inspector HTTP server.
type Server struct {
	recorder *journal.Recorder
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	hub      *Hub
	router   chi.Router
	cancel   func()
}

// New creates an inspector for rec. gatherer may be nil, in which case
// /metrics is not mounted.
func New(rec *journal.Recorder, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		recorder: rec,
		gatherer: gatherer,
		logger:   logger,
		hub:      NewHub(rec.Session()),
	}
	s.cancel = rec.Subscribe(s.hub.Publish)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/snapshot", s.handleSnapshot)
	r.Get("/api/passes", s.handlePasses)
	r.Get("/ws", s.hub.HandleWebSocket)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	s.router = r
	return s
}

// Handler returns the server's router.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Close unsubscribes from the recorder and drops all WebSocket clients.
func (s *Server) Close() {
	s.cancel()
	s.hub.Close()
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("inspector listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"session": s.recorder.Session(),
		"clients": s.hub.ClientCount(),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.recorder.Latest()
	if snap == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no snapshot captured yet"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePasses(w http.ResponseWriter, r *http.Request) {
	entries := s.recorder.Entries()
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		if limit < len(entries) {
			entries = entries[len(entries)-limit:]
		}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
