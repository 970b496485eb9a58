// Package config assembles the application configuration from the process
// environment. Proxy variables (HTTPS_PROXY, NO_PROXY and friends) are
// deliberately absent here: the transport resolver reads them live on every
// request so that changes take effect without a restart.
package config

import (
	"log/slog"
	"time"

	pkgconfig "figpull/internal/pkg/config"
)

// Environment variable names.
const (
	EnvToken               = "FIGPULL_TOKEN"
	EnvAPIBaseURL          = "FIGPULL_API_BASE_URL"
	EnvRedisAddr           = "FIGPULL_REDIS_ADDR"
	EnvRedisPassword       = "FIGPULL_REDIS_PASSWORD"
	EnvRedisTokenKey       = "FIGPULL_REDIS_TOKEN_KEY"
	EnvFetchTimeout        = "FIGPULL_FETCH_TIMEOUT"
	EnvMaxBodySize         = "FIGPULL_MAX_BODY_SIZE"
	EnvDownloadConcurrency = "FIGPULL_DOWNLOAD_CONCURRENCY"
	EnvOutputDir           = "FIGPULL_OUTPUT_DIR"
)

// Config is the resolved application configuration.
type Config struct {
	// Token is the statically configured API token, used directly or as the
	// fallback when the credential store is unreachable
	Token string

	// APIBaseURL is the design API endpoint
	APIBaseURL string

	// RedisAddr is the credential store address; empty disables the store
	RedisAddr string

	// RedisPassword is the credential store AUTH password
	RedisPassword string

	// RedisTokenKey is the store key holding the API token
	RedisTokenKey string

	// FetchTimeout bounds each fetch attempt
	FetchTimeout time.Duration

	// MaxBodySize caps response bodies read on the primary path
	MaxBodySize int64

	// DownloadConcurrency is the parallel image download limit
	DownloadConcurrency int

	// OutputDir is where downloaded images are written
	OutputDir string
}

// Load reads the configuration from the environment. Invalid values fall
// back to defaults with a logged warning; Load never fails.
func Load(logger *slog.Logger) Config {
	cfg := Config{
		Token:         pkgconfig.LoadEnvString(EnvToken, ""),
		RedisAddr:     pkgconfig.LoadEnvString(EnvRedisAddr, ""),
		RedisPassword: pkgconfig.LoadEnvString(EnvRedisPassword, ""),
		RedisTokenKey: pkgconfig.LoadEnvString(EnvRedisTokenKey, "figpull:api-token"),
		OutputDir:     pkgconfig.LoadEnvString(EnvOutputDir, "out"),
	}

	baseURL := pkgconfig.LoadEnvWithFallback(EnvAPIBaseURL, "https://api.figma.com", pkgconfig.ValidateAbsoluteURL)
	logWarnings(logger, baseURL.Warnings)
	cfg.APIBaseURL = baseURL.Value.(string)

	timeout := pkgconfig.LoadEnvDuration(EnvFetchTimeout, 30*time.Second, pkgconfig.ValidatePositiveDuration)
	logWarnings(logger, timeout.Warnings)
	cfg.FetchTimeout = timeout.Value.(time.Duration)

	bodySize := pkgconfig.LoadEnvInt64(EnvMaxBodySize, 32<<20, pkgconfig.ValidatePositiveInt64)
	logWarnings(logger, bodySize.Warnings)
	cfg.MaxBodySize = bodySize.Value.(int64)

	concurrency := pkgconfig.LoadEnvInt(EnvDownloadConcurrency, 4, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 32)
	})
	logWarnings(logger, concurrency.Warnings)
	cfg.DownloadConcurrency = concurrency.Value.(int)

	return cfg
}

func logWarnings(logger *slog.Logger, warnings []string) {
	for _, w := range warnings {
		logger.Warn("configuration fallback applied", slog.String("warning", w))
	}
}
