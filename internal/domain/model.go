package domain

import "time"

// ModelVariant describes one whisper.cpp model preset. The catalog is fixed
// at process start; variants are identified by ID.
type ModelVariant struct {
	ID      string `json:"id"`
	File    string `json:"file"`
	Size    string `json:"size"`
	Speed   string `json:"speed"`
	Quality string `json:"quality"`
	RAM     string `json:"ram"`
	URL     string `json:"url"`
}

// Capabilities is a best-effort snapshot of host compute resources.
// GPUMemoryBytes is zero when the GPU memory could not be determined.
type Capabilities struct {
	GPUPresent           bool
	GPUMemoryBytes       uint64
	AvailableMemoryBytes uint64
}

// Recommendation names the model variant best suited to the host, with a
// human-readable reason. Model is empty when nothing usable is on disk.
type Recommendation struct {
	Model  string `json:"model"`
	Reason string `json:"reason"`
}

// Progress is the single process-wide record of the in-flight
// transcription's coarse stage.
type Progress struct {
	Percent int    `json:"progress"`
	Stage   string `json:"stage"`
}

// Segment is one time-aligned span of recognized text.
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// TranscriptionResult is the outcome of one successful transcription request.
type TranscriptionResult struct {
	Text      string
	Language  string
	Model     string
	Timestamp time.Time
}
