package imagedl

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"figpull/internal/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDownloader(t *testing.T, config Config) *Downloader {
	t.Helper()
	for _, key := range []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy", "NO_PROXY", "no_proxy"} {
		t.Setenv(key, "")
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := transport.NewResolver(logger)
	t.Cleanup(resolver.Close)
	return NewDownloader(resolver, logger, config)
}

func TestDownloadAll(t *testing.T) {
	pngBytes := []byte("\x89PNG\r\n\x1a\nfake image payload")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(pngBytes)
	}))
	defer srv.Close()

	t.Run("writes one file per rendered node", func(t *testing.T) {
		d := newTestDownloader(t, DefaultConfig())
		outDir := t.TempDir()

		saved, err := d.DownloadAll(context.Background(), map[string]string{
			"1:2": srv.URL + "/render-1-2",
			"1:3": srv.URL + "/render-1-3",
		}, outDir, "png")

		require.NoError(t, err)
		require.Len(t, saved, 2)
		assert.Contains(t, saved, filepath.Join(outDir, "1-2.png"))
		assert.Contains(t, saved, filepath.Join(outDir, "1-3.png"))

		data, err := os.ReadFile(filepath.Join(outDir, "1-2.png"))
		require.NoError(t, err)
		assert.Equal(t, pngBytes, data)
	})

	t.Run("empty URLs are skipped, not failed", func(t *testing.T) {
		d := newTestDownloader(t, DefaultConfig())
		outDir := t.TempDir()

		saved, err := d.DownloadAll(context.Background(), map[string]string{
			"1:2": srv.URL + "/render-1-2",
			"9:9": "",
		}, outDir, "png")

		require.NoError(t, err)
		require.Len(t, saved, 1)
		assert.Equal(t, filepath.Join(outDir, "1-2.png"), saved[0])
	})

	t.Run("creates the output directory", func(t *testing.T) {
		d := newTestDownloader(t, DefaultConfig())
		outDir := filepath.Join(t.TempDir(), "nested", "out")

		_, err := d.DownloadAll(context.Background(), map[string]string{
			"1:2": srv.URL + "/render-1-2",
		}, outDir, "png")

		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(outDir, "1-2.png"))
		assert.NoError(t, err)
	})

	t.Run("HTTP error fails the download", func(t *testing.T) {
		errSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer errSrv.Close()

		d := newTestDownloader(t, DefaultConfig())

		_, err := d.DownloadAll(context.Background(), map[string]string{
			"1:2": errSrv.URL + "/gone",
		}, t.TempDir(), "png")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 404")
	})

	t.Run("oversize image is rejected and removed", func(t *testing.T) {
		cfg := Config{Concurrency: 1, Timeout: 10 * time.Second, MaxFileSize: 8}
		d := newTestDownloader(t, cfg)
		outDir := t.TempDir()

		_, err := d.DownloadAll(context.Background(), map[string]string{
			"1:2": srv.URL + "/render-1-2",
		}, outDir, "png")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "size limit")
		_, statErr := os.Stat(filepath.Join(outDir, "1-2.png"))
		assert.True(t, os.IsNotExist(statErr), "partial file must not survive")
	})
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name   string
		nodeID string
		ext    string
		want   string
	}{
		{"colon in node ID", "12:34", "png", "12-34.png"},
		{"slash in node ID", "a/b", "svg", "a-b.svg"},
		{"backslash in node ID", `a\b`, "png", "a-b.png"},
		{"extension with leading dot", "1:2", ".png", "1-2.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fileName(tt.nodeID, tt.ext))
		})
	}
}
