package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/marmos91/appshell/internal/logger"
)

// DefaultPort is the metrics port used when none is configured.
const DefaultPort = 9091

// shutdownGrace bounds how long in-flight scrapes may take after the
// serving context ends.
const shutdownGrace = 5 * time.Second

// ServerConfig configures the metrics HTTP server.
type ServerConfig struct {
	// Port to listen on. Default: DefaultPort
	Port int
}

// Server exposes the Prometheus registry over HTTP:
//   - GET /metrics: metrics in text format (503 when collection is disabled)
//   - GET /: plain-text index naming the scrape URL
type Server struct {
	handler http.Handler
	port    int
}

// NewServer creates a metrics server. Nothing listens until Start or Serve.
func NewServer(config ServerConfig) *Server {
	port := config.Port
	if port <= 0 {
		port = DefaultPort
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintf(w, "appshell metrics\n\n"+
			"scrape:    http://<host>:%d/metrics\n"+
			"collected: bridge operations, sandbox opens and quota usage, S3 requests\n", port)
	})

	return &Server{handler: mux, port: port}
}

// metricsHandler serves the global registry, or a 503 while collection is
// disabled.
func metricsHandler() http.Handler {
	registry := GetRegistry()
	if registry == nil {
		logger.Debug("Metrics collection disabled")
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Metrics collection is disabled", http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Start listens on the configured port and serves until ctx is cancelled.
// A failure to bind is returned immediately.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("metrics server: listen on port %d: %w", s.port, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully and
// returns nil. Serve takes ownership of ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Metrics server listening on %s", ln.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		logger.Info("Metrics server stopped")
		return nil
	})

	return g.Wait()
}

// Port returns the configured TCP port.
func (s *Server) Port() int {
	return s.port
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}
