//go:build !portaudio
// +build !portaudio

// Package mic captures speech from the default input device.
package mic

import (
	"context"
	"fmt"
	"log/slog"
)

// Recorder stub when portaudio is not available
type Recorder struct {
	logger *slog.Logger
}

func NewRecorder(sampleRate, maxSeconds int, logger *slog.Logger) *Recorder {
	return &Recorder{logger: logger}
}

func (r *Recorder) Start() error {
	return fmt.Errorf("microphone capture not available: rebuild with -tags portaudio")
}

func (r *Recorder) Stop() error {
	return nil
}

func (r *Recorder) Record(_ context.Context) ([]int16, error) {
	return nil, fmt.Errorf("microphone capture not available")
}
