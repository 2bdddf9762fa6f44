// Package web serves the local status dashboard and its JSON API.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"codeberg.org/havenmon/sysmond/internal/alert"
	"codeberg.org/havenmon/sysmond/internal/config"
	"codeberg.org/havenmon/sysmond/internal/errors"
	"codeberg.org/havenmon/sysmond/internal/logger"
)

//go:embed dashboard.html
var dashboardFS embed.FS

type Server struct {
	srv        *http.Server
	store      *Store
	engine     *alert.Engine
	errFactory errors.Factory
	hostname   string
	startedAt  time.Time
}

func NewServer(cfg *config.Config, store *Store, engine *alert.Engine) *Server {
	s := &Server{
		store:      store,
		engine:     engine,
		errFactory: errors.New(),
		hostname:   cfg.Hostname,
		startedAt:  time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleDashboard)
	r.Get("/api/metrics", s.handleMetrics)
	r.Get("/api/health", s.handleHealth)

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Handler exposes the route tree. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves in the background. Startup failures such as a busy port
// are fatal since the dashboard was explicitly enabled.
func (s *Server) Start() {
	go func() {
		logger.Info().Str("addr", s.srv.Addr).Msg("Dashboard listening")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithCode(s.errFactory.Wrap(ErrServerFailed, err)).Send()
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return s.errFactory.Wrap(ErrShutdownFailed, err)
	}

	return nil
}

type sensorReading struct {
	SensorID   string         `json:"sensor_id"`
	Value      any            `json:"value"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

type metricsResponse struct {
	Hostname  string          `json:"hostname"`
	UpdatedAt string          `json:"updated_at"`
	Sensors   []sensorReading `json:"sensors"`
	Alerts    map[string]bool `json:"alerts,omitempty"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	samples, updatedAt := s.store.Latest()
	resp := metricsResponse{
		Hostname: s.hostname,
		Sensors:  make([]sensorReading, 0, len(samples)),
	}
	if !updatedAt.IsZero() {
		resp.UpdatedAt = updatedAt.Format(time.RFC3339)
	}
	for _, sample := range samples {
		resp.Sensors = append(resp.Sensors, sensorReading{
			SensorID:   sample.SensorID,
			Value:      sample.Value,
			Attributes: sample.Attributes,
		})
	}
	if s.engine != nil {
		resp.Alerts = s.engine.Active()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_, updatedAt := s.store.Latest()
	status := "ok"
	if updatedAt.IsZero() {
		status = "starting"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         status,
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	page, err := dashboardFS.ReadFile("dashboard.html")
	if err != nil {
		http.Error(w, "dashboard unavailable", http.StatusInternalServerError)

		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error().Err(err).Msg("Failed to encode response")
	}
}
