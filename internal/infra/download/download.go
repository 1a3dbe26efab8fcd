// Package download fetches model weights from their published URLs into the
// local model directory.
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"whisper-web/internal/domain"
)

// Progress is called as bytes arrive. total is -1 when the server did not
// report a content length.
type Progress func(written, total int64)

type Downloader struct {
	client   *http.Client
	modelDir string
	retry    RetryConfig
	logger   *slog.Logger
}

func NewDownloader(client *http.Client, modelDir string, logger *slog.Logger) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{
		client:   client,
		modelDir: modelDir,
		retry:    DefaultRetryConfig(),
		logger:   logger,
	}
}

// Fetch downloads the weights for variant into the model directory. The file
// is written next to its final name with a .tmp suffix and renamed only after
// the body has been fully copied, so a partial download never shows up as an
// available model. An existing non-empty file short-circuits to success.
func (d *Downloader) Fetch(ctx context.Context, variant domain.ModelVariant, progress Progress) error {
	if err := os.MkdirAll(d.modelDir, 0o755); err != nil {
		return fmt.Errorf("creating model dir: %w", err)
	}

	dest := filepath.Join(d.modelDir, variant.File)
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		d.logger.Info("model already downloaded", "model", variant.ID, "path", dest)
		return nil
	}

	d.logger.Info("downloading model", "model", variant.ID, "url", variant.URL)

	return WithRetry(ctx, d.retry, func() error {
		return d.fetchOnce(ctx, variant, dest, progress)
	})
}

func (d *Downloader) fetchOnce(ctx context.Context, variant domain.ModelVariant, dest string, progress Progress) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, variant.URL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", variant.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("fetching %s: HTTP %d", variant.ID, resp.StatusCode)
		if !IsRetryableHTTPStatus(resp.StatusCode) {
			return Permanent(err)
		}
		return err
	}

	tmp := dest + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	body := io.Reader(resp.Body)
	if progress != nil {
		body = &progressReader{reader: resp.Body, total: resp.ContentLength, report: progress}
	}

	_, err = io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", variant.File, err)
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("moving %s into place: %w", variant.File, err)
	}

	d.logger.Info("model downloaded", "model", variant.ID, "path", dest)
	return nil
}

type progressReader struct {
	reader  io.Reader
	total   int64
	written int64
	report  Progress
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.reader.Read(buf)
	p.written += int64(n)
	if n > 0 {
		p.report(p.written, p.total)
	}
	return n, err
}
