// Command download-model fetches whisper.cpp model weights into the local
// model directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"whisper-web/internal/catalog"
	"whisper-web/internal/domain"
	"whisper-web/internal/infra/download"
)

func main() {
	modelDir := flag.String("dir", "./models", "model directory")
	list := flag.Bool("list", false, "list known models and exit")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cat := catalog.New()

	if *list {
		printCatalog(cat, *modelDir)
		return
	}

	ids := flag.Args()
	if len(ids) == 0 {
		fmt.Fprintln(os.Stderr, "usage: download-model [-dir models] <model-id>...")
		fmt.Fprintln(os.Stderr, "       download-model -list")
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	d := download.NewDownloader(nil, *modelDir, logger)
	for _, id := range ids {
		variant, ok := cat.Lookup(id)
		if !ok {
			logger.Error("unknown model", "model", id)
			os.Exit(1)
		}
		if err := d.Fetch(ctx, variant, printProgress(variant)); err != nil {
			logger.Error("download failed", "model", id, "error", err)
			os.Exit(1)
		}
		fmt.Println()
	}
}

func printCatalog(cat *catalog.Catalog, modelDir string) {
	available := map[string]bool{}
	for _, id := range cat.Scan(modelDir) {
		available[id] = true
	}

	fmt.Printf("%-16s %-10s %-12s %-12s %s\n", "ID", "SIZE", "SPEED", "QUALITY", "STATUS")
	for _, v := range cat.All() {
		status := "-"
		if available[v.ID] {
			status = "downloaded"
		}
		fmt.Printf("%-16s %-10s %-12s %-12s %s\n", v.ID, v.Size, v.Speed, v.Quality, status)
	}
}

func printProgress(variant domain.ModelVariant) download.Progress {
	return func(written, total int64) {
		if total > 0 {
			fmt.Printf("\r%s: %.1f MB / %.1f MB (%.0f%%)",
				variant.File,
				float64(written)/(1<<20),
				float64(total)/(1<<20),
				float64(written)/float64(total)*100)
			return
		}
		fmt.Printf("\r%s: %.1f MB", variant.File, float64(written)/(1<<20))
	}
}
