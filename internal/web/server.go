// Package web serves a browser view of the live series alongside the
// Prometheus metrics.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/buckleypaul/serialplot/internal/graph"
)

// Server exposes the mirrored series and metrics over HTTP.
type Server struct {
	address  string
	mirror   *graph.Mirror
	registry *prometheus.Registry
	log      *logrus.Entry
	server   *http.Server
}

// Config contains the dependencies of the web server.
type Config struct {
	Address  string
	Mirror   *graph.Mirror
	Registry *prometheus.Registry
	Logger   *logrus.Entry
}

// NewServer creates a server for cfg. Registry may be nil, in which case
// /metrics is not served.
func NewServer(cfg Config) *Server {
	s := &Server{
		address:  cfg.Address,
		mirror:   cfg.Mirror,
		registry: cfg.Registry,
		log:      cfg.Logger,
	}
	if s.mirror == nil {
		s.mirror = &graph.Mirror{}
	}
	if s.log == nil {
		s.log = logrus.NewEntry(logrus.StandardLogger())
	}
	s.server = &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/chart", s.handleChart)
	mux.HandleFunc("/series.json", s.handleSeries)
	if s.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return mux
}

// Start serves until ctx is cancelled, then shuts down. A listen failure
// is returned immediately.
func (s *Server) Start(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.address).Info("starting HTTP server")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			s.log.WithError(err).Error("HTTP server failed")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.log.WithError(err).Warn("HTTP server shutdown error")
		if err := s.server.Close(); err != nil {
			s.log.WithError(err).Warn("HTTP server force close error")
		}
	}
	return nil
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/chart", http.StatusFound)
}
