package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"whisper-web/internal/domain"
)

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// execRunner executes commands via os/exec, returning combined output for
// diagnostics.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.String(), err
	}
	return out.String(), nil
}

// WhisperCPP runs transcription through the whisper.cpp CLI. The uploaded
// clip is first converted to mono 16 kHz PCM WAV with ffmpeg, then fed to
// whisper.cpp with JSON transcript output.
type WhisperCPP struct {
	binPath    string
	ffmpegPath string
	modelPath  string
	device     Device
	runner     commandRunner
	mkdirTemp  func(dir, pattern string) (string, error)
	removeAll  func(path string) error
	readFile   func(name string) ([]byte, error)
}

// WhisperCPPFactory returns a Factory that binds variants to the whisper.cpp
// and ffmpeg binaries at the given paths (names resolved via PATH).
func WhisperCPPFactory(whisperBin, ffmpegBin string) Factory {
	return func(variant domain.ModelVariant, opts Options) (Recognizer, error) {
		return newWhisperCPP(whisperBin, ffmpegBin, variant, opts, execRunner{})
	}
}

func newWhisperCPP(whisperBin, ffmpegBin string, variant domain.ModelVariant, opts Options, runner commandRunner) (*WhisperCPP, error) {
	if _, err := exec.LookPath(whisperBin); err != nil {
		return nil, fmt.Errorf("whisper.cpp binary: %w", err)
	}

	modelPath := filepath.Join(opts.ModelDir, variant.File)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model weights %s: %w", variant.File, err)
	}

	return &WhisperCPP{
		binPath:    whisperBin,
		ffmpegPath: ffmpegBin,
		modelPath:  modelPath,
		device:     opts.Device,
		runner:     runner,
		mkdirTemp:  os.MkdirTemp,
		removeAll:  os.RemoveAll,
		readFile:   os.ReadFile,
	}, nil
}

func (w *WhisperCPP) Close() error {
	return nil
}

func (w *WhisperCPP) Transcribe(ctx context.Context, audioPath, language string, params DecodeParams) ([]domain.Segment, error) {
	workDir, err := w.mkdirTemp("", "whisper-web-*")
	if err != nil {
		return nil, fmt.Errorf("creating work dir: %w", err)
	}
	defer w.removeAll(workDir)

	wavPath := filepath.Join(workDir, "audio.wav")
	out, err := w.runner.Run(ctx, w.ffmpegPath, ffmpegArgs(audioPath, wavPath)...)
	if err != nil {
		return nil, fmt.Errorf("converting audio: %w: %s", err, tail(out))
	}

	transcriptBase := filepath.Join(workDir, "transcript")
	out, err = w.runner.Run(ctx, w.binPath, w.whisperArgs(wavPath, transcriptBase, language, params)...)
	if err != nil {
		return nil, fmt.Errorf("running whisper.cpp: %w: %s", err, tail(out))
	}

	data, err := w.readFile(transcriptBase + ".json")
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	return parseTranscript(data)
}

func ffmpegArgs(inputPath, wavPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		wavPath,
	}
}

func (w *WhisperCPP) whisperArgs(wavPath, outBase, language string, params DecodeParams) []string {
	args := []string{
		"-m", w.modelPath,
		"-f", wavPath,
		"-of", outBase,
		"-oj",
	}
	if language != "" {
		args = append(args, "-l", language)
	}
	if params.BeamSize > 0 {
		args = append(args, "-bs", strconv.Itoa(params.BeamSize))
	}
	if params.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(params.Threads))
	}
	if w.device != DeviceCUDA {
		args = append(args, "-ng")
	}
	return args
}

// transcriptFile mirrors the whisper.cpp -oj output layout.
type transcriptFile struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func parseTranscript(data []byte) ([]domain.Segment, error) {
	var file transcriptFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing transcript: %w", err)
	}

	segments := make([]domain.Segment, 0, len(file.Transcription))
	for _, s := range file.Transcription {
		segments = append(segments, domain.Segment{
			Start: time.Duration(s.Offsets.From) * time.Millisecond,
			End:   time.Duration(s.Offsets.To) * time.Millisecond,
			Text:  s.Text,
		})
	}
	return segments, nil
}

// tail keeps error messages readable when a tool dumps pages of output.
func tail(out string) string {
	const max = 400
	if len(out) <= max {
		return out
	}
	return "..." + out[len(out)-max:]
}
