package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/browser"

	"whisper-web/config"
	"whisper-web/internal/application"
	"whisper-web/internal/capability"
	"whisper-web/internal/catalog"
	"whisper-web/internal/engine"
	"whisper-web/internal/infra/httpapi"
	"whisper-web/internal/recommend"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Error("loading config", "error", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	cat := catalog.New()
	prober := capability.NewProber(logger)
	factory := engine.WhisperCPPFactory(cfg.Models.WhisperBin, cfg.Models.FFmpegBin)
	params := engine.DecodeParams{BeamSize: cfg.Models.BeamSize, Threads: cfg.Models.Threads}

	handle := engine.NewHandle(cat, cfg.Models.Dir, factory, prober.Probe, cfg.Models.Language, params, logger)
	defer handle.Close()

	loadInitialModel(ctx, cat, handle, prober, cfg.Models.Dir, logger)

	progress := application.NewProgressPublisher()
	service := application.NewTranscriptionService(handle, progress, cfg.Models.ScratchDir, logger)

	server := httpapi.NewServer(
		cfg.Server.Addr,
		cfg.Server.FrontendDir,
		cfg.MaxUploadBytes(),
		cat,
		cfg.Models.Dir,
		handle,
		service,
		progress,
		prober.Probe,
		logger,
	)

	if err := server.Start(ctx); err != nil {
		logger.Error("starting server", "error", err)
		os.Exit(1)
	}

	if cfg.Server.OpenBrowser {
		if err := browser.OpenURL(localURL(cfg.Server.Addr)); err != nil {
			logger.Warn("opening browser", "error", err)
		}
	}

	<-ctx.Done()

	if err := server.Stop(); err != nil {
		logger.Error("stopping server", "error", err)
		os.Exit(1)
	}
}

// loadInitialModel tries the recommended model first, then every other
// available one. A server with no loadable model still starts; clients see
// no_model until a change-model succeeds.
func loadInitialModel(ctx context.Context, cat *catalog.Catalog, handle *engine.Handle, prober *capability.Prober, modelDir string, logger *slog.Logger) {
	available := cat.Scan(modelDir)
	if len(available) == 0 {
		logger.Warn("no models found, download weights to enable transcription", "dir", modelDir)
		return
	}

	caps := prober.Probe(ctx)
	rec := recommend.Recommend(available, caps)

	candidates := make([]string, 0, len(available)+1)
	if rec.Model != "" {
		candidates = append(candidates, rec.Model)
	}
	for _, id := range available {
		if id != rec.Model {
			candidates = append(candidates, id)
		}
	}

	for _, id := range candidates {
		if err := handle.Load(ctx, id); err != nil {
			logger.Warn("loading model failed", "model", id, "error", err)
			continue
		}
		logger.Info("model loaded", "model", id, "reason", rec.Reason)
		return
	}

	logger.Warn("no model could be loaded, starting without one")
}

func localURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://localhost:5000"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
