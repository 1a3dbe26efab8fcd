package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"whisper-web/internal/catalog"
	"whisper-web/internal/domain"
)

// Handle owns at most one loaded model instance. A single mutex serializes
// Load and Transcribe against each other: the in-process model is not assumed
// safe for concurrent inference, and swapping it mid-inference would corrupt
// results. Callers arriving while the guard is held block until release.
type Handle struct {
	catalog  *catalog.Catalog
	modelDir string
	factory  Factory
	probe    func(ctx context.Context) domain.Capabilities
	language string
	params   DecodeParams
	logger   *slog.Logger

	mu        sync.Mutex
	current   Recognizer
	variant   string
	device    Device
	precision Precision
}

func NewHandle(
	cat *catalog.Catalog,
	modelDir string,
	factory Factory,
	probe func(ctx context.Context) domain.Capabilities,
	language string,
	params DecodeParams,
	logger *slog.Logger,
) *Handle {
	return &Handle{
		catalog:  cat,
		modelDir: modelDir,
		factory:  factory,
		probe:    probe,
		language: language,
		params:   params,
		logger:   logger,
	}
}

// Load swaps the active model to the given variant. On any failure the
// previous state is preserved: an already-working model keeps serving.
func (h *Handle) Load(ctx context.Context, id string) error {
	variant, ok := h.catalog.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVariant, id)
	}
	if !h.catalog.Available(h.modelDir, id) {
		return fmt.Errorf("%w: %s (%s)", ErrArtifactMissing, id, variant.File)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	caps := h.probe(ctx)
	device, precision := deviceFor(caps)

	h.logger.Info("loading model", "model", id, "device", device, "precision", precision)

	next, err := h.factory(variant, Options{
		Device:    device,
		Precision: precision,
		ModelDir:  h.modelDir,
	})
	if err != nil {
		h.logger.Error("model load failed", "model", id, "error", err)
		return fmt.Errorf("loading model %s: %w", id, err)
	}

	old := h.current
	h.current = next
	h.variant = id
	h.device = device
	h.precision = precision

	if old != nil {
		if err := old.Close(); err != nil {
			h.logger.Warn("releasing previous model", "error", err)
		}
	}

	h.logger.Info("model loaded", "model", id, "device", device)
	return nil
}

// Transcribe runs recognition on the audio file at the given path and
// returns the segment texts joined with single spaces, trimmed.
func (h *Handle) Transcribe(ctx context.Context, audioPath string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == nil {
		return "", ErrNoModelLoaded
	}

	h.logger.Info("transcribing", "model", h.variant, "device", h.device)

	segments, err := h.current.Transcribe(ctx, audioPath, h.language, h.params)
	if err != nil {
		return "", fmt.Errorf("transcribing with %s: %w", h.variant, err)
	}

	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

// Current returns the active variant ID, or false when nothing is loaded.
func (h *Handle) Current() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.variant, h.current != nil
}

// Language returns the fixed target language for this deployment.
func (h *Handle) Language() string {
	return h.language
}

// Close releases the loaded model, returning the handle to the unloaded
// state.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == nil {
		return nil
	}
	err := h.current.Close()
	h.current = nil
	h.variant = ""
	return err
}
