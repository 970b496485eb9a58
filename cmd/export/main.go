// Command export renders nodes of a design file and downloads the results.
//
// Usage:
//
//	export -file a1B2c3D4e5 -nodes 1:2,1:3 -format png -scale 2 -out ./out
//	export -manifest exports.yaml -out ./out
//
// Credentials come from the FIGPULL_TOKEN environment variable, optionally
// overridden by a token held in Redis (FIGPULL_REDIS_ADDR +
// FIGPULL_REDIS_TOKEN_KEY). Proxy settings are the usual HTTPS_PROXY /
// HTTP_PROXY / NO_PROXY variables.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"figpull/internal/config"
	"figpull/internal/infra/credstore"
	"figpull/internal/infra/fetcher"
	"figpull/internal/infra/figma"
	"figpull/internal/infra/imagedl"
	"figpull/internal/observability/logging"
	"figpull/internal/transport"
)

func main() {
	fileKey := flag.String("file", "", "design file key")
	nodes := flag.String("nodes", "", "comma-separated node IDs")
	format := flag.String("format", "png", "render format: png or svg")
	scale := flag.Float64("scale", 0, "PNG scale factor (0.01-4, 0 for API default)")
	depth := flag.Int("depth", 0, "node subtree depth to report (0 for full)")
	manifestPath := flag.String("manifest", "", "path to a YAML export manifest")
	outDir := flag.String("out", "", "output directory (overrides FIGPULL_OUTPUT_DIR)")
	flag.Parse()

	logger := logging.NewLogger()

	cfg := config.Load(logger)
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if cfg.Token == "" && cfg.RedisAddr == "" {
		logger.Error("no credentials configured, set " + config.EnvToken + " or " + config.EnvRedisAddr)
		os.Exit(1)
	}

	exports, err := buildExports(*manifestPath, *fileKey, *nodes, *format, *scale, *depth)
	if err != nil {
		logger.Error("invalid invocation", slog.Any("error", err))
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, cfg, exports); err != nil {
		logger.Error("export failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// buildExports turns either a manifest or the single-export flags into the
// job list.
func buildExports(manifestPath, fileKey, nodes, format string, scale float64, depth int) ([]config.Export, error) {
	if manifestPath != "" {
		m, err := config.LoadManifest(manifestPath)
		if err != nil {
			return nil, err
		}
		return m.Exports, nil
	}

	if fileKey == "" || nodes == "" {
		return nil, fmt.Errorf("either -manifest or both -file and -nodes are required")
	}
	return []config.Export{{
		FileKey: fileKey,
		Nodes:   strings.Split(nodes, ","),
		Format:  format,
		Scale:   scale,
		Depth:   depth,
	}}, nil
}

func run(ctx context.Context, logger *slog.Logger, cfg config.Config, exports []config.Export) error {
	// Long-lived network agents, shared across every request in this run.
	resolver := transport.NewResolver(logger)
	defer resolver.Close()

	fetchClient := fetcher.NewClient(resolver, fetcher.NewCurlRunner(logger), logger, fetcher.Config{
		AttemptTimeout: cfg.FetchTimeout,
		MaxBodySize:    cfg.MaxBodySize,
	})

	var store credstore.Store
	if cfg.RedisAddr != "" {
		redisStore := credstore.NewRedisStore(credstore.DefaultConfig(cfg.RedisAddr), logger)
		// A failed connect is survivable: the token source degrades to the
		// static token.
		if err := redisStore.Connect(ctx); err != nil {
			logger.Warn("continuing without credential store", slog.Any("error", err))
		}
		defer func() {
			if err := redisStore.Close(); err != nil {
				logger.Warn("failed to close credential store", slog.Any("error", err))
			}
		}()
		store = redisStore
	}
	tokens := credstore.NewTokenSource(store, cfg.RedisTokenKey, cfg.Token, logger)

	api := figma.NewClient(cfg.APIBaseURL, fetchClient, tokens, logger)
	downloader := imagedl.NewDownloader(resolver, logger, imagedl.Config{
		Concurrency: cfg.DownloadConcurrency,
		Timeout:     cfg.FetchTimeout,
		MaxFileSize: cfg.MaxBodySize,
	})

	for _, job := range exports {
		if err := runExport(ctx, logger, api, downloader, cfg.OutputDir, job); err != nil {
			return err
		}
	}
	return nil
}

// runExport executes one render-and-download job.
func runExport(ctx context.Context, logger *slog.Logger, api *figma.Client, downloader *imagedl.Downloader, outDir string, job config.Export) error {
	log := logger.With(slog.String("file_key", job.FileKey))

	file, err := api.GetFile(ctx, job.FileKey)
	if err != nil {
		return fmt.Errorf("get file %s: %w", job.FileKey, err)
	}
	log.Info("file resolved",
		slog.String("name", file.Name),
		slog.String("version", file.Version))

	nodeSet, err := api.GetFileNodes(ctx, job.FileKey, job.Nodes, job.Depth)
	if err != nil {
		return fmt.Errorf("get nodes: %w", err)
	}
	for id, node := range nodeSet.Nodes {
		if node == nil {
			log.Warn("requested node not found in file", slog.String("node_id", id))
		}
	}

	opts := figma.RenderOptions{
		Format: figma.RenderFormat(job.Format),
		Scale:  job.Scale,
	}
	rendered, err := api.RenderImages(ctx, job.FileKey, job.Nodes, opts)
	if err != nil {
		return fmt.Errorf("render images: %w", err)
	}

	saved, err := downloader.DownloadAll(ctx, rendered.Images, outDir, job.Format)
	if err != nil {
		return fmt.Errorf("download images: %w", err)
	}
	log.Info("export complete", slog.Int("images", len(saved)))
	return nil
}
