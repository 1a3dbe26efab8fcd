package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"whisper-web/internal/application"
	"whisper-web/internal/engine"
)

type mockEngine struct {
	text    string
	err     error
	model   string
	loaded  bool
	sawFile bool
	path    string
}

func (m *mockEngine) Transcribe(_ context.Context, audioPath string) (string, error) {
	m.path = audioPath
	if _, err := os.Stat(audioPath); err == nil {
		m.sawFile = true
	}
	return m.text, m.err
}

func (m *mockEngine) Language() string { return "id" }

func (m *mockEngine) Current() (string, bool) { return m.model, m.loaded }

func newService(t *testing.T, eng *mockEngine) (*application.TranscriptionService, *application.ProgressPublisher, string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	progress := application.NewProgressPublisher()
	scratchDir := t.TempDir()
	return application.NewTranscriptionService(eng, progress, scratchDir, logger), progress, scratchDir
}

func assertScratchEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("scratch files left behind: %v", entries)
	}
}

func TestTranscribe_NoAudio(t *testing.T) {
	svc, _, dir := newService(t, &mockEngine{})

	_, err := svc.Transcribe(context.Background(), nil)
	if !errors.Is(err, application.ErrNoAudio) {
		t.Fatalf("got %v, want ErrNoAudio", err)
	}
	assertScratchEmpty(t, dir)
}

func TestTranscribe_Success(t *testing.T) {
	eng := &mockEngine{text: "halo dunia", model: "base", loaded: true}
	svc, progress, dir := newService(t, eng)

	result, err := svc.Transcribe(context.Background(), []byte("webm-bytes"))
	if err != nil {
		t.Fatal(err)
	}

	if result.Text != "halo dunia" {
		t.Errorf("text: got %q", result.Text)
	}
	if result.Model != "base" {
		t.Errorf("model: got %q, want base", result.Model)
	}
	if result.Language != "id" {
		t.Errorf("language: got %q, want id", result.Language)
	}
	if result.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}

	if !eng.sawFile {
		t.Error("engine was not given a readable scratch file")
	}
	assertScratchEmpty(t, dir)

	if got := progress.Current(); got.Percent != 0 || got.Stage != "idle" {
		t.Errorf("progress after success: got %+v, want idle", got)
	}
}

func TestTranscribe_EngineFailureCleansUp(t *testing.T) {
	eng := &mockEngine{err: errors.New("decode blew up")}
	svc, progress, dir := newService(t, eng)

	_, err := svc.Transcribe(context.Background(), []byte("webm-bytes"))
	if err == nil {
		t.Fatal("expected engine error")
	}

	assertScratchEmpty(t, dir)
	if got := progress.Current(); got.Stage != "idle" {
		t.Errorf("progress after failure: got %+v, want idle", got)
	}
}

func TestTranscribe_PropagatesNoModelLoaded(t *testing.T) {
	eng := &mockEngine{err: engine.ErrNoModelLoaded}
	svc, _, dir := newService(t, eng)

	_, err := svc.Transcribe(context.Background(), []byte("webm-bytes"))
	if !errors.Is(err, engine.ErrNoModelLoaded) {
		t.Fatalf("got %v, want ErrNoModelLoaded unchanged", err)
	}
	assertScratchEmpty(t, dir)
}

func TestProgressPublisher(t *testing.T) {
	p := application.NewProgressPublisher()

	if got := p.Current(); got.Stage != "idle" || got.Percent != 0 {
		t.Errorf("initial progress: got %+v", got)
	}

	p.Set(50, "transcribing")
	if got := p.Current(); got.Percent != 50 || got.Stage != "transcribing" {
		t.Errorf("after Set: got %+v", got)
	}

	p.Reset()
	if got := p.Current(); got.Percent != 0 || got.Stage != "idle" {
		t.Errorf("after Reset: got %+v", got)
	}
}
