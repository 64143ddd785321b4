package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/plss-plat-etl/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// PlatStore exposes the accumulated township plats for reads.
type PlatStore interface {
	Snapshot(key string) (domain.PlatSnapshot, bool)
	Keys() []string
}

// Server exposes health, readiness, metrics, and plat read endpoints.
type Server struct {
	httpServer *http.Server
	store      PlatStore
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /plats routes.
func NewServer(addr string, ready ReadinessChecker, store PlatStore, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:  store,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /plats", s.handleListPlats)
	mux.HandleFunc("GET /plats/{twprge}", s.handleGetPlat)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleListPlats(w http.ResponseWriter, _ *http.Request) {
	keys := s.store.Keys()
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"townships": keys})
}

func (s *Server) handleGetPlat(w http.ResponseWriter, r *http.Request) {
	tr, err := domain.ParseTwpRge(r.PathValue("twprge"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	snap, ok := s.store.Snapshot(tr.Key())
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no plat for " + tr.Key()})
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(renderText(snap))) //nolint:errcheck // best-effort response body
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// renderText draws each touched section of the snapshot as an ASCII plat
// with its unresolved lots listed underneath.
func renderText(snap domain.PlatSnapshot) string {
	var b strings.Builder
	b.WriteString("Township " + snap.TwpRge + "\n")
	for _, ss := range snap.Sections {
		g := domain.NewSectionGrid(ss.Section)
		for _, q := range ss.FilledQQs {
			g.FillQQ(domain.QQ(q)) //nolint:errcheck // snapshot cells are canonical
		}
		fmt.Fprintf(&b, "\nSection %02d\n", ss.Section)
		b.WriteString(g.TextPlat())
		b.WriteByte('\n')
		if len(ss.UnresolvedLots) > 0 {
			b.WriteString("Undefined lots: " + strings.Join(ss.UnresolvedLots, ", ") + "\n")
		}
	}
	return b.String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
