//go:build portaudio
// +build portaudio

// Package mic captures speech from the default input device.
package mic

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

type Recorder struct {
	sampleRate int
	maxSeconds int
	logger     *slog.Logger

	stream *portaudio.Stream
	frame  []int16
}

func NewRecorder(sampleRate, maxSeconds int, logger *slog.Logger) *Recorder {
	return &Recorder{
		sampleRate: sampleRate,
		maxSeconds: maxSeconds,
		logger:     logger,
	}
}

func (r *Recorder) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	r.frame = make([]int16, framesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.sampleRate), framesPerBuffer, r.frame)
	if err != nil {
		return fmt.Errorf("opening stream: %w", err)
	}
	r.stream = stream

	if err := r.stream.Start(); err != nil {
		return fmt.Errorf("starting stream: %w", err)
	}

	r.logger.Info("microphone started", "sampleRate", r.sampleRate)
	return nil
}

func (r *Recorder) Stop() error {
	if r.stream != nil {
		r.stream.Stop()
		r.stream.Close()
	}
	portaudio.Terminate()
	return nil
}

// Record captures mono 16-bit samples until one second of silence follows
// speech, or the clip reaches its maximum length.
func (r *Recorder) Record(ctx context.Context) ([]int16, error) {
	samples := make([]int16, 0, r.sampleRate*5)
	silenceThreshold := int16(500)
	silentSamples := 0
	maxSilentSamples := r.sampleRate
	maxSamples := r.sampleRate * r.maxSeconds

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := r.stream.Read(); err != nil {
			return nil, fmt.Errorf("reading from stream: %w", err)
		}
		samples = append(samples, r.frame...)

		silent := true
		for _, sample := range r.frame {
			if sample > silenceThreshold || sample < -silenceThreshold {
				silent = false
				break
			}
		}
		if silent {
			silentSamples += len(r.frame)
		} else {
			silentSamples = 0
		}

		if silentSamples > maxSilentSamples && len(samples) > r.sampleRate {
			break
		}
		if len(samples) >= maxSamples {
			r.logger.Warn("clip reached maximum length", "seconds", r.maxSeconds)
			break
		}
	}

	return samples, nil
}
