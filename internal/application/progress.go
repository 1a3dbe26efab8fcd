package application

import (
	"sync"

	"whisper-web/internal/domain"
)

const idleStage = "idle"

// ProgressPublisher is the single process-wide slot for the in-flight
// transcription's coarse progress. There is no per-job identity: a second
// concurrent job visibly overwrites the first's progress. Only one
// transcription is intended to run at a time, so this is acceptable; multi-job
// support would need a per-job keyed mapping instead.
type ProgressPublisher struct {
	mu      sync.RWMutex
	current domain.Progress
}

func NewProgressPublisher() *ProgressPublisher {
	return &ProgressPublisher{current: domain.Progress{Stage: idleStage}}
}

// Set overwrites the published record. Called only by the transcription
// service.
func (p *ProgressPublisher) Set(percent int, stage string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = domain.Progress{Percent: percent, Stage: stage}
}

// Reset returns the slot to idle.
func (p *ProgressPublisher) Reset() {
	p.Set(0, idleStage)
}

// Current returns a snapshot of the published record without blocking.
func (p *ProgressPublisher) Current() domain.Progress {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}
