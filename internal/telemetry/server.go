package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker is anything that can report its own health on demand. The
// runtime System satisfies this without telemetry needing to import it.
type HealthChecker interface {
	Health(ctx context.Context) (status string, detail map[string]string)
}

// Server is the loopback-only observability surface of spec.md §6: plain
// HTTP, no auth, gated entirely on whether AI_SHELL_METRICS_ADDR is set.
// Nothing about the interactive shell depends on it being reachable.
type Server struct {
	Router *chi.Mux
	addr   string
	logger *slog.Logger
	srv    *http.Server
}

// NewServer builds a Server bound to addr, exposing /healthz and /metrics.
// checker may be nil before the rest of the system finishes constructing;
// /healthz reports "starting" until it is set via SetChecker.
func NewServer(addr string, logger *slog.Logger, registry *prometheus.Registry, checker HealthChecker) *Server {
	s := &Server{Router: chi.NewRouter(), addr: addr, logger: logger}

	s.Router.Use(middleware.Recoverer)
	s.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
	}))

	s.Router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if checker == nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "starting"})
			return
		}
		status, detail := checker.Health(r.Context())
		code := http.StatusOK
		if status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		body := map[string]any{"status": status}
		if len(detail) > 0 {
			body["checks"] = detail
		}
		writeJSON(w, code, body)
	})

	s.Router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return s
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// Start runs the listener in a background goroutine. A blank addr disables
// the server entirely and Start is a no-op (spec.md §6: "metrics server is
// off by default").
func (s *Server) Start() {
	if s.addr == "" {
		return
	}
	s.srv = &http.Server{Addr: s.addr, Handler: s.Router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics server stopped unexpectedly", "error", err)
		}
	}()
}

// Shutdown gracefully stops the listener, if one was started.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
