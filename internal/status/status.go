// Package status exposes the optional local HTTP surface: health report,
// server status, and Prometheus metrics.
package status

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gaspardpetit/echoflow/internal/health"
	"github.com/gaspardpetit/echoflow/internal/logx"
	"github.com/gaspardpetit/echoflow/internal/ops"
)

// ModelInfo is the model manager surface the status page reads.
type ModelInfo interface {
	Info() map[string]string
}

// Server bundles the data sources behind the status endpoints.
type Server struct {
	appName   string
	version   string
	startedAt time.Time
	agg       *health.Aggregator
	models    ModelInfo
	opsStore  *ops.Store
	formats   func() []string
}

func NewServer(appName, version string, agg *health.Aggregator, models ModelInfo, opsStore *ops.Store, formats func() []string) *Server {
	return &Server{
		appName:   appName,
		version:   version,
		startedAt: time.Now(),
		agg:       agg,
		models:    models,
		opsStore:  opsStore,
		formats:   formats,
	}
}

// Handler builds the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))
	r.Get("/healthz", s.getHealthz)
	r.Get("/status", s.getStatus)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) getHealthz(w http.ResponseWriter, r *http.Request) {
	report := s.agg.Report(r.Context())
	code := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, report)
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"app_name":          s.appName,
		"version":           s.version,
		"uptime_seconds":    time.Since(s.startedAt).Seconds(),
		"supported_formats": s.formats(),
		"operations":        s.opsStore.Counts(),
	}
	if s.models != nil {
		payload["ai_models"] = s.models.Info()
	}
	writeJSON(w, http.StatusOK, payload)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve starts an HTTP server bound to addr and shuts it down when ctx is
// done. It returns the resolved listen address.
func Serve(ctx context.Context, addr string, handler http.Handler) (string, error) {
	srv := &http.Server{Handler: handler}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	actual := ln.Addr().String()
	go func() {
		<-ctx.Done()
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(c)
	}()
	go func() { _ = srv.Serve(ln) }()
	logx.Log.Info().Str("addr", actual).Msg("status server started")
	return actual, nil
}
