// Package imagedl downloads rendered image URLs to disk. The render API
// hands back short-lived URLs on a CDN; this package pulls them with bounded
// concurrency, routing each request through the proxy resolver the same way
// JSON traffic is routed. Image bytes skip the JSON fetcher entirely: the
// dispatch decision is reused directly for the raw byte path.
package imagedl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"figpull/internal/observability/metrics"
	"figpull/internal/transport"

	"golang.org/x/sync/errgroup"
)

// Config holds the configuration for the downloader.
type Config struct {
	// Concurrency is the maximum number of parallel downloads
	Concurrency int

	// Timeout bounds each individual download
	Timeout time.Duration

	// MaxFileSize caps a single downloaded file in bytes
	MaxFileSize int64
}

// DefaultConfig returns the default downloader configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
		Timeout:     60 * time.Second,
		MaxFileSize: 64 << 20, // 64MB
	}
}

// Downloader fetches image URLs to files. Safe for concurrent use; each
// DownloadAll call runs its own worker group.
type Downloader struct {
	resolver *transport.Resolver
	logger   *slog.Logger
	config   Config
}

// NewDownloader creates a downloader routing through the given resolver.
func NewDownloader(resolver *transport.Resolver, logger *slog.Logger, config Config) *Downloader {
	return &Downloader{
		resolver: resolver,
		logger:   logger,
		config:   config,
	}
}

// DownloadAll fetches every URL in images (keyed by node ID) into outDir,
// naming each file after its sanitized node ID plus ext. Entries with an
// empty URL are nodes the renderer could not process; they are skipped and
// logged, not failed.
//
// Returns the paths written. The first download error cancels the
// remaining workers.
func (d *Downloader) DownloadAll(ctx context.Context, images map[string]string, outDir, ext string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.config.Concurrency)

	var mu sync.Mutex
	var saved []string

	for nodeID, imageURL := range images {
		nodeID, imageURL := nodeID, imageURL
		if imageURL == "" {
			metrics.ImageDownloadsTotal.WithLabelValues("skipped").Inc()
			d.logger.Warn("skipping node with no rendered image",
				slog.String("node_id", nodeID))
			continue
		}

		path := filepath.Join(outDir, fileName(nodeID, ext))
		g.Go(func() error {
			if err := d.download(ctx, imageURL, path); err != nil {
				metrics.ImageDownloadsTotal.WithLabelValues("failure").Inc()
				d.logger.Error("image download failed",
					slog.String("node_id", nodeID),
					slog.String("url", imageURL),
					slog.Any("error", err))
				return fmt.Errorf("download node %s: %w", nodeID, err)
			}

			metrics.ImageDownloadsTotal.WithLabelValues("success").Inc()
			d.logger.Info("image saved",
				slog.String("node_id", nodeID),
				slog.String("path", path))

			mu.Lock()
			saved = append(saved, path)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return saved, err
	}
	return saved, nil
}

// download fetches one URL to one file, enforcing the size cap while
// streaming.
func (d *Downloader) download(ctx context.Context, imageURL, path string) error {
	dispatch := d.resolver.Resolve(imageURL)
	client := &http.Client{
		Transport: dispatch.Transport,
		Timeout:   d.config.Timeout,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	written, err := io.Copy(f, io.LimitReader(resp.Body, d.config.MaxFileSize+1))
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("write file: %w", err)
	}
	if closeErr != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close file: %w", closeErr)
	}
	if written > d.config.MaxFileSize {
		_ = os.Remove(path)
		return fmt.Errorf("image exceeds size limit of %d bytes", d.config.MaxFileSize)
	}

	metrics.ImageDownloadBytes.Observe(float64(written))
	return nil
}

// fileName derives a filesystem-safe name from a node ID. Node IDs contain
// colons ("12:34"), which are unusable on some filesystems.
func fileName(nodeID, ext string) string {
	safe := strings.NewReplacer(":", "-", "/", "-", "\\", "-").Replace(nodeID)
	return safe + "." + strings.TrimPrefix(ext, ".")
}
