// Package health содержит health check сервер.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server представляет health check сервер
type Server struct {
	server *http.Server
	db     DatabaseInterface
	ticks  TickReporter
	now    func() time.Time
	logger *zap.Logger
}

type response struct {
	Status    string    `json:"status"`
	Timestamp string    `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
	LastTick  *tickInfo `json:"last_tick,omitempty"`
}

type tickInfo struct {
	At       string `json:"at"`
	Snapshot string `json:"snapshot,omitempty"`
	Skipped  string `json:"skipped,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewServer создает новый health check сервер. ticks может быть nil.
func NewServer(port string, logger *zap.Logger, db DatabaseInterface, ticks TickReporter) *Server {
	mux := http.NewServeMux()

	healthServer := &Server{
		server: &http.Server{
			Addr:              ":" + port,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		db:     db,
		ticks:  ticks,
		now:    time.Now,
		logger: logger,
	}

	mux.HandleFunc("/health", healthServer.healthHandler)
	mux.HandleFunc("/ready", healthServer.readyHandler)
	mux.HandleFunc("/live", healthServer.liveHandler)

	return healthServer
}

// Handler http.Handler сервера
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start запускает health check сервер. Штатная остановка не считается ошибкой.
func (s *Server) Start() error {
	s.logger.Info("Starting health check server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop останавливает health check сервер
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("Stopping health check server")
	return s.server.Shutdown(ctx)
}

// healthHandler обрабатывает запросы /health
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := response{Status: "healthy"}
	code := http.StatusOK

	if err := s.checkDatabase(r.Context()); err != nil {
		resp.Status = "unhealthy"
		resp.Error = err.Error()
		code = http.StatusServiceUnavailable
		s.logger.Error("Health check failed", zap.Error(err))
	}

	if s.ticks != nil {
		if last := s.ticks.LastTick(); !last.At.IsZero() {
			info := &tickInfo{
				At:       last.At.Format(time.RFC3339),
				Snapshot: last.Snapshot,
				Skipped:  last.Skipped,
			}
			if last.Err != nil {
				info.Error = last.Err.Error()
			}
			resp.LastTick = info
		}
	}

	s.write(w, code, resp)
}

// readyHandler обрабатывает запросы /ready
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	resp := response{Status: "ready"}
	code := http.StatusOK

	if err := s.checkDatabase(r.Context()); err != nil {
		resp.Status = "not ready"
		resp.Error = err.Error()
		code = http.StatusServiceUnavailable
		s.logger.Error("Readiness check failed", zap.Error(err))
	}

	s.write(w, code, resp)
}

// liveHandler обрабатывает запросы /live
func (s *Server) liveHandler(w http.ResponseWriter, _ *http.Request) {
	s.write(w, http.StatusOK, response{Status: "alive"})
}

func (s *Server) write(w http.ResponseWriter, code int, resp response) {
	resp.Timestamp = s.now().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("Failed to write health response", zap.Error(err))
	}
}

// checkDatabase проверяет подключение к базе данных
func (s *Server) checkDatabase(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database is not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
