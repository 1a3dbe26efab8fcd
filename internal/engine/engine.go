// Package engine owns the loaded speech-recognition model and serializes all
// access to it.
package engine

import (
	"context"
	"errors"

	"whisper-web/internal/domain"
)

var (
	// ErrUnknownVariant means the requested ID is not in the catalog.
	ErrUnknownVariant = errors.New("unknown model")
	// ErrArtifactMissing means the variant is known but its weight file is
	// not on disk.
	ErrArtifactMissing = errors.New("model not downloaded")
	// ErrNoModelLoaded means transcription was attempted before any
	// successful load.
	ErrNoModelLoaded = errors.New("no model loaded")
)

// Device is the compute device a model instance is bound to.
type Device string

const (
	DeviceCUDA Device = "cuda"
	DeviceCPU  Device = "cpu"
)

// Precision is the compute precision a model instance runs at. Higher
// precision on GPU, reduced precision on CPU for throughput.
type Precision string

const (
	PrecisionFloat16 Precision = "float16"
	PrecisionInt8    Precision = "int8"
)

// DecodeParams tunes a single transcription pass.
type DecodeParams struct {
	BeamSize int
	Threads  int
}

// Recognizer is the opaque recognition capability: given an audio file,
// produce ordered time-aligned text segments.
type Recognizer interface {
	Transcribe(ctx context.Context, audioPath, language string, params DecodeParams) ([]domain.Segment, error)
	Close() error
}

// Options selects where and how a model instance is constructed.
type Options struct {
	Device    Device
	Precision Precision
	ModelDir  string
}

// Factory constructs a Recognizer bound to one model variant. A factory
// error leaves the caller's previous recognizer untouched.
type Factory func(variant domain.ModelVariant, opts Options) (Recognizer, error)

// deviceFor maps a capability snapshot to the device/precision pair used for
// the next load.
func deviceFor(caps domain.Capabilities) (Device, Precision) {
	if caps.GPUPresent {
		return DeviceCUDA, PrecisionFloat16
	}
	return DeviceCPU, PrecisionInt8
}
