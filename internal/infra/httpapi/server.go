// Package httpapi exposes the transcription service over a JSON HTTP API and
// serves the static front end.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"whisper-web/internal/application"
	"whisper-web/internal/catalog"
	"whisper-web/internal/domain"
	"whisper-web/internal/engine"
)

type Server struct {
	addr        string
	frontendDir string
	maxUpload   int64
	catalog     *catalog.Catalog
	modelDir    string
	engine      *engine.Handle
	service     *application.TranscriptionService
	progress    *application.ProgressPublisher
	probe       func(ctx context.Context) domain.Capabilities
	logger      *slog.Logger

	mux     *http.ServeMux
	server  *http.Server
	mu      sync.Mutex
	running bool
}

func NewServer(
	addr string,
	frontendDir string,
	maxUpload int64,
	cat *catalog.Catalog,
	modelDir string,
	eng *engine.Handle,
	service *application.TranscriptionService,
	progress *application.ProgressPublisher,
	probe func(ctx context.Context) domain.Capabilities,
	logger *slog.Logger,
) *Server {
	s := &Server{
		addr:        addr,
		frontendDir: frontendDir,
		maxUpload:   maxUpload,
		catalog:     cat,
		modelDir:    modelDir,
		engine:      eng,
		service:     service,
		progress:    progress,
		probe:       probe,
		logger:      logger,
		mux:         http.NewServeMux(),
	}

	// Generous limit per browser session; transcription serializes on the
	// engine, so the cap mostly guards against runaway polling loops.
	limiter := NewRateLimiter(30, time.Minute)

	s.mux.HandleFunc("GET /api/models", s.handleModels)
	s.mux.HandleFunc("POST /api/change-model", s.handleChangeModel)
	s.mux.HandleFunc("POST /api/transcribe", limiter.Middleware(s.handleTranscribe))
	s.mux.HandleFunc("GET /api/progress", s.handleProgress)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.Handle("GET /", http.FileServer(http.Dir(frontendDir)))

	return s
}

func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.server = &http.Server{
		Addr:        s.addr,
		Handler:     s.mux,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		s.logger.Info("HTTP server starting", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	s.running = true
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
		if err := s.server.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}

	s.running = false
	return nil
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}
