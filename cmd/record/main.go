// Command record captures a clip from the default microphone, encodes it as
// WAV, and sends it to a running transcription server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"whisper-web/internal/infra/client"
	"whisper-web/internal/infra/mic"
)

func main() {
	serverURL := flag.String("server", "http://localhost:5000", "transcription server URL")
	sampleRate := flag.Int("sample-rate", 16000, "capture sample rate in Hz")
	maxSeconds := flag.Int("max-seconds", 30, "maximum clip length")
	keep := flag.String("keep", "", "also save the recorded WAV to this path")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	if err := run(ctx, *serverURL, *sampleRate, *maxSeconds, *keep, logger); err != nil {
		logger.Error("recording failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, serverURL string, sampleRate, maxSeconds int, keep string, logger *slog.Logger) error {
	recorder := mic.NewRecorder(sampleRate, maxSeconds, logger)
	if err := recorder.Start(); err != nil {
		return err
	}
	defer recorder.Stop()

	fmt.Println("Speak now. Recording stops after a second of silence.")
	samples, err := recorder.Record(ctx)
	if err != nil {
		return err
	}

	wavPath := keep
	if wavPath == "" {
		wavPath = filepath.Join(os.TempDir(), "whisper-web-clip.wav")
		defer os.Remove(wavPath)
	}
	if err := writeWAV(wavPath, samples, sampleRate); err != nil {
		return err
	}

	audio, err := os.ReadFile(wavPath)
	if err != nil {
		return fmt.Errorf("reading encoded clip: %w", err)
	}

	fmt.Println("Transcribing...")
	result, err := client.New(serverURL).Transcribe(ctx, audio, "clip.wav")
	if err != nil {
		return err
	}

	fmt.Printf("[%s] %s\n", result.ModelUsed, result.Transcription)
	return nil
}

func writeWAV(path string, samples []int16, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating wav file: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}
	return nil
}
