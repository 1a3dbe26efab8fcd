// Package application orchestrates transcription requests against the
// engine handle and publishes their progress.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"whisper-web/internal/domain"
)

// ErrNoAudio means the request carried no audio payload.
var ErrNoAudio = errors.New("no audio file provided")

// Transcriber is the engine capability the service depends on.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
	Language() string
	Current() (string, bool)
}

// TranscriptionService persists an uploaded clip to a scratch file, runs the
// engine over it, and publishes coarse progress for polling clients. The
// scratch file is removed and progress reset on every exit path.
type TranscriptionService struct {
	engine     Transcriber
	progress   *ProgressPublisher
	scratchDir string
	logger     *slog.Logger
}

// NewTranscriptionService creates the service. An empty scratchDir means the
// system temp directory.
func NewTranscriptionService(engine Transcriber, progress *ProgressPublisher, scratchDir string, logger *slog.Logger) *TranscriptionService {
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	return &TranscriptionService{
		engine:     engine,
		progress:   progress,
		scratchDir: scratchDir,
		logger:     logger,
	}
}

// Transcribe handles one uploaded clip end to end.
func (s *TranscriptionService) Transcribe(ctx context.Context, audio []byte) (domain.TranscriptionResult, error) {
	if len(audio) == 0 {
		return domain.TranscriptionResult{}, ErrNoAudio
	}

	s.progress.Set(10, "saving audio")

	scratch := filepath.Join(s.scratchDir, "whisper-web-"+uuid.NewString()+".webm")
	if err := os.WriteFile(scratch, audio, 0o600); err != nil {
		s.progress.Reset()
		return domain.TranscriptionResult{}, fmt.Errorf("saving audio: %w", err)
	}

	defer func() {
		// Cleanup is best-effort once the main outcome is determined; a
		// failed remove is logged but never overrides the result.
		if err := os.Remove(scratch); err != nil {
			s.logger.Warn("removing scratch file", "path", scratch, "error", err)
		}
		s.progress.Reset()
	}()

	s.progress.Set(30, "processing audio")
	s.logger.Info("transcription started", "bytes", len(audio))

	s.progress.Set(50, "transcribing")
	text, err := s.engine.Transcribe(ctx, scratch)
	if err != nil {
		return domain.TranscriptionResult{}, err
	}

	s.progress.Set(75, "collecting results")
	model, _ := s.engine.Current()

	s.progress.Set(100, "done")
	s.logger.Info("transcription finished", "model", model, "chars", len(text))

	return domain.TranscriptionResult{
		Text:      text,
		Language:  s.engine.Language(),
		Model:     model,
		Timestamp: time.Now(),
	}, nil
}
