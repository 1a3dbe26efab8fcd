package engine_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"whisper-web/internal/catalog"
	"whisper-web/internal/domain"
	"whisper-web/internal/engine"
)

type fakeRecognizer struct {
	segments []domain.Segment
	err      error
	delay    time.Duration

	mu     sync.Mutex
	calls  int
	closed bool
}

func (f *fakeRecognizer) Transcribe(ctx context.Context, _, _ string, _ engine.DecodeParams) ([]domain.Segment, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.segments, f.err
}

func (f *fakeRecognizer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noGPU(context.Context) domain.Capabilities {
	return domain.Capabilities{AvailableMemoryBytes: 8 << 30}
}

func withGPU(context.Context) domain.Capabilities {
	return domain.Capabilities{GPUPresent: true, GPUMemoryBytes: 12 << 30}
}

func modelDirWith(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("ggml"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func staticFactory(rec engine.Recognizer) engine.Factory {
	return func(domain.ModelVariant, engine.Options) (engine.Recognizer, error) {
		return rec, nil
	}
}

func TestLoad_UnknownVariant(t *testing.T) {
	h := engine.NewHandle(catalog.New(), modelDirWith(t), staticFactory(&fakeRecognizer{}), noGPU, "id", engine.DecodeParams{}, discardLogger())

	err := h.Load(context.Background(), "gigantic")
	if !errors.Is(err, engine.ErrUnknownVariant) {
		t.Fatalf("got %v, want ErrUnknownVariant", err)
	}
}

func TestLoad_ArtifactMissing(t *testing.T) {
	h := engine.NewHandle(catalog.New(), modelDirWith(t), staticFactory(&fakeRecognizer{}), noGPU, "id", engine.DecodeParams{}, discardLogger())

	err := h.Load(context.Background(), "small")
	if !errors.Is(err, engine.ErrArtifactMissing) {
		t.Fatalf("got %v, want ErrArtifactMissing", err)
	}
	if _, loaded := h.Current(); loaded {
		t.Error("failed load must leave the handle unloaded")
	}
}

func TestLoad_FactoryFailurePreservesState(t *testing.T) {
	dir := modelDirWith(t, "ggml-tiny.bin", "ggml-base.bin")

	good := &fakeRecognizer{segments: []domain.Segment{{Text: "ok"}}}
	fail := false
	factory := func(domain.ModelVariant, engine.Options) (engine.Recognizer, error) {
		if fail {
			return nil, errors.New("backend rejected weights")
		}
		return good, nil
	}

	h := engine.NewHandle(catalog.New(), dir, factory, noGPU, "id", engine.DecodeParams{}, discardLogger())

	if err := h.Load(context.Background(), "tiny"); err != nil {
		t.Fatalf("initial load: %v", err)
	}

	fail = true
	if err := h.Load(context.Background(), "base"); err == nil {
		t.Fatal("expected load failure")
	}

	variant, loaded := h.Current()
	if !loaded || variant != "tiny" {
		t.Errorf("state after failed load: got (%q, %t), want (tiny, true)", variant, loaded)
	}
	if good.closed {
		t.Error("previous model was released by a failed load")
	}

	// The surviving model still serves.
	text, err := h.Transcribe(context.Background(), "clip.webm")
	if err != nil || text != "ok" {
		t.Errorf("transcribe after failed load: got (%q, %v)", text, err)
	}
}

func TestLoad_SwapClosesPrevious(t *testing.T) {
	dir := modelDirWith(t, "ggml-tiny.bin", "ggml-base.bin")

	first := &fakeRecognizer{}
	second := &fakeRecognizer{}
	recs := []engine.Recognizer{first, second}
	factory := func(domain.ModelVariant, engine.Options) (engine.Recognizer, error) {
		rec := recs[0]
		recs = recs[1:]
		return rec, nil
	}

	h := engine.NewHandle(catalog.New(), dir, factory, noGPU, "id", engine.DecodeParams{}, discardLogger())

	if err := h.Load(context.Background(), "tiny"); err != nil {
		t.Fatal(err)
	}
	if err := h.Load(context.Background(), "base"); err != nil {
		t.Fatal(err)
	}

	if !first.closed {
		t.Error("previous model not released after swap")
	}
	if variant, _ := h.Current(); variant != "base" {
		t.Errorf("current variant: got %q, want base", variant)
	}
}

func TestLoad_DeviceSelection(t *testing.T) {
	dir := modelDirWith(t, "ggml-tiny.bin")

	var gotOpts engine.Options
	factory := func(_ domain.ModelVariant, opts engine.Options) (engine.Recognizer, error) {
		gotOpts = opts
		return &fakeRecognizer{}, nil
	}

	h := engine.NewHandle(catalog.New(), dir, factory, withGPU, "id", engine.DecodeParams{}, discardLogger())
	if err := h.Load(context.Background(), "tiny"); err != nil {
		t.Fatal(err)
	}
	if gotOpts.Device != engine.DeviceCUDA || gotOpts.Precision != engine.PrecisionFloat16 {
		t.Errorf("GPU host: got %s/%s, want cuda/float16", gotOpts.Device, gotOpts.Precision)
	}

	h = engine.NewHandle(catalog.New(), dir, factory, noGPU, "id", engine.DecodeParams{}, discardLogger())
	if err := h.Load(context.Background(), "tiny"); err != nil {
		t.Fatal(err)
	}
	if gotOpts.Device != engine.DeviceCPU || gotOpts.Precision != engine.PrecisionInt8 {
		t.Errorf("CPU host: got %s/%s, want cpu/int8", gotOpts.Device, gotOpts.Precision)
	}
}

func TestTranscribe_NoModelLoaded(t *testing.T) {
	h := engine.NewHandle(catalog.New(), modelDirWith(t), staticFactory(&fakeRecognizer{}), noGPU, "id", engine.DecodeParams{}, discardLogger())

	_, err := h.Transcribe(context.Background(), "clip.webm")
	if !errors.Is(err, engine.ErrNoModelLoaded) {
		t.Fatalf("got %v, want ErrNoModelLoaded", err)
	}
}

func TestTranscribe_JoinsSegments(t *testing.T) {
	rec := &fakeRecognizer{segments: []domain.Segment{
		{Text: " Halo,"},
		{Text: " apa kabar?"},
		{Text: "  "},
	}}

	dir := modelDirWith(t, "ggml-tiny.bin")
	h := engine.NewHandle(catalog.New(), dir, staticFactory(rec), noGPU, "id", engine.DecodeParams{}, discardLogger())
	if err := h.Load(context.Background(), "tiny"); err != nil {
		t.Fatal(err)
	}

	text, err := h.Transcribe(context.Background(), "clip.webm")
	if err != nil {
		t.Fatal(err)
	}
	if text != "Halo, apa kabar?" {
		t.Errorf("joined text: got %q", text)
	}
}

func TestTranscribe_SilentClipYieldsEmptyText(t *testing.T) {
	rec := &fakeRecognizer{segments: nil}

	dir := modelDirWith(t, "ggml-tiny.bin")
	h := engine.NewHandle(catalog.New(), dir, staticFactory(rec), noGPU, "id", engine.DecodeParams{}, discardLogger())
	if err := h.Load(context.Background(), "tiny"); err != nil {
		t.Fatal(err)
	}

	text, err := h.Transcribe(context.Background(), "clip.webm")
	if err != nil {
		t.Fatal(err)
	}
	if text != "" {
		t.Errorf("silent clip: got %q, want empty", text)
	}
}

func TestLoadAndTranscribe_DoNotInterleave(t *testing.T) {
	dir := modelDirWith(t, "ggml-tiny.bin", "ggml-base.bin")

	slow := &fakeRecognizer{delay: 150 * time.Millisecond, segments: []domain.Segment{{Text: "done"}}}

	h := engine.NewHandle(catalog.New(), dir, staticFactory(slow), noGPU, "id", engine.DecodeParams{}, discardLogger())
	if err := h.Load(context.Background(), "tiny"); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		_, _ = h.Transcribe(context.Background(), "clip.webm")
	}()

	time.Sleep(20 * time.Millisecond) // let Transcribe take the guard

	if err := h.Load(context.Background(), "base"); err != nil {
		t.Fatal(err)
	}

	// The guard forces Load to queue behind the slow transcription.
	if waited := time.Since(start); waited < slow.delay {
		t.Errorf("load returned after %v, before the %v transcription released the guard", waited, slow.delay)
	}
	<-finished
}
