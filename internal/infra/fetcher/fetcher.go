// Package fetcher implements resilient JSON retrieval over two independent
// transport paths.
//
// The primary path is the in-process HTTP client, routed through the proxy
// dispatch decided by the transport resolver. When the primary path fails for
// any reason (network error, non-2xx status, unparseable body) the fetcher
// escalates once to a fallback path: an external command-line HTTP client run
// as a separate process. TLS-intercepting middleboxes and misbehaving proxies
// frequently break Go's native TLS stack while curl, with its own trust store
// and proxy handling, still gets through.
//
// Error priority is asymmetric: a fallback failure is logged but never
// surfaced, so the caller always sees the root cause (why the primary path
// failed) rather than the secondary symptom.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"figpull/internal/observability/metrics"
	"figpull/internal/observability/tracing"
	"figpull/internal/transport"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ExternalRunner executes one HTTP GET through an out-of-process HTTP client
// and returns the captured output streams.
//
// Abstracting the process boundary behind this interface keeps the fallback
// path testable without spawning real processes, and allows swapping in a
// pure-library implementation where process execution is unavailable.
type ExternalRunner interface {
	Run(ctx context.Context, url string, headers map[string]string) (stdout, stderr string, err error)
}

// Options carries per-request settings for FetchJSON.
type Options struct {
	// Headers is a plain string-to-string mapping. It must stay a plain map
	// (never an opaque header object) so the fallback path can serialize
	// each pair into a command-line argument.
	Headers map[string]string

	// Dispatch, when set, overrides proxy resolution for this request.
	// Intended for tests and callers that manage routing themselves.
	Dispatch *transport.Dispatch
}

// Config holds the configuration for the fetch client.
type Config struct {
	// AttemptTimeout bounds each individual transport attempt. There is
	// deliberately no combined deadline across the primary+fallback pair;
	// callers needing one should set it on the context.
	AttemptTimeout time.Duration

	// MaxBodySize caps how many response bytes are read on the primary path
	MaxBodySize int64
}

// DefaultConfig returns the default fetch client configuration.
func DefaultConfig() Config {
	return Config{
		AttemptTimeout: 30 * time.Second,
		MaxBodySize:    32 << 20, // 32MB
	}
}

// Client performs resilient JSON fetches. It holds no per-request state and
// is safe for concurrent use; concurrent calls are fully independent, with
// no coalescing or deduplication.
type Client struct {
	resolver *transport.Resolver
	runner   ExternalRunner
	logger   *slog.Logger
	config   Config
}

// NewClient creates a fetch client on top of the given proxy resolver and
// external fallback runner.
func NewClient(resolver *transport.Resolver, runner ExternalRunner, logger *slog.Logger, config Config) *Client {
	return &Client{
		resolver: resolver,
		runner:   runner,
		logger:   logger,
		config:   config,
	}
}

// FetchJSON retrieves the given URL and returns its body as raw JSON.
//
// State machine with exactly two states, each attempted at most once:
//
//	PRIMARY:  in-process HTTP GET through the resolved dispatch. Success
//	          returns immediately; the fallback never runs.
//	FALLBACK: external process GET. Its success is the overall success; its
//	          failure is logged and the retained PRIMARY error is returned.
//
// Every failure produces at least one log line; nothing is silently
// swallowed.
func (c *Client) FetchJSON(ctx context.Context, rawURL string, opts Options) (json.RawMessage, error) {
	requestID := uuid.New().String()
	log := c.logger.With(
		slog.String("request_id", requestID),
		slog.String("url", rawURL))

	ctx, span := tracing.GetTracer().Start(ctx, "fetcher.FetchJSON")
	span.SetAttributes(attribute.String("http.url", rawURL))
	defer span.End()

	start := time.Now()
	body, primaryErr := c.fetchPrimary(ctx, rawURL, opts)
	if primaryErr == nil {
		metrics.RecordFetchAttempt("primary", "success", time.Since(start))
		return body, nil
	}
	metrics.RecordFetchAttempt("primary", "failure", time.Since(start))
	span.SetAttributes(attribute.String("fetch.primary_error", primaryErr.Message))

	// Primary transport failures in locked-down environments are most often
	// a proxy or TLS-intercepting middlebox rejecting Go's TLS stack.
	log.Warn("primary fetch failed, possibly due to proxy or TLS interception, retrying via external HTTP client",
		slog.String("kind", string(primaryErr.Kind)),
		slog.Any("error", primaryErr))

	metrics.FetchFallbacksTotal.Inc()
	fallbackStart := time.Now()
	body, fallbackErr := c.fetchFallback(ctx, rawURL, opts.Headers, log)
	if fallbackErr == nil {
		metrics.RecordFetchAttempt("fallback", "success", time.Since(fallbackStart))
		log.Info("fallback fetch succeeded")
		return body, nil
	}
	metrics.RecordFetchAttempt("fallback", "failure", time.Since(fallbackStart))

	// The fallback error is diagnostic only. Surfacing it would mask the
	// root cause, so it is logged and discarded; the caller gets the
	// retained primary error.
	log.Error("fallback fetch failed, surfacing the original primary error",
		slog.Any("fallback_error", fallbackErr),
		slog.Any("error", primaryErr))
	span.SetStatus(codes.Error, primaryErr.Message)

	return nil, primaryErr
}

// fetchPrimary issues the request through the in-process HTTP transport.
func (c *Client) fetchPrimary(ctx context.Context, rawURL string, opts Options) (json.RawMessage, *FetchError) {
	dispatch := opts.Dispatch
	if dispatch == nil {
		dispatch = c.resolver.Resolve(rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{
			Kind:    KindConfiguration,
			Attempt: AttemptPrimary,
			URL:     rawURL,
			Message: fmt.Sprintf("build request: %v", err),
			err:     err,
		}
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{
		Transport: dispatch.Transport,
		Timeout:   c.config.AttemptTimeout,
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{
			Kind:    KindNetwork,
			Attempt: AttemptPrimary,
			URL:     rawURL,
			Message: fmt.Sprintf("request failed: %v", err),
			err:     err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodySize))
	if err != nil {
		return nil, &FetchError{
			Kind:    KindNetwork,
			Attempt: AttemptPrimary,
			URL:     rawURL,
			Message: fmt.Sprintf("read response body: %v", err),
			err:     err,
		}
	}

	// A non-2xx response is a transport failure, not a success with an
	// unfortunate payload. The status code and text travel with the error.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{
			Kind:       KindHTTPStatus,
			Attempt:    AttemptPrimary,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status),
		}
	}

	if !json.Valid(body) {
		return nil, &FetchError{
			Kind:    KindJSONParse,
			Attempt: AttemptPrimary,
			URL:     rawURL,
			Message: "response body is not valid JSON",
		}
	}

	return json.RawMessage(body), nil
}

// fetchFallback issues the same logical request through the external
// process runner and reconciles its output streams into one outcome.
func (c *Client) fetchFallback(ctx context.Context, rawURL string, headers map[string]string, log *slog.Logger) (json.RawMessage, *FetchError) {
	stdout, stderr, err := c.runner.Run(ctx, rawURL, headers)
	if err != nil {
		return nil, &FetchError{
			Kind:    KindFallbackProcess,
			Attempt: AttemptFallback,
			URL:     rawURL,
			Message: fmt.Sprintf("external HTTP client failed: %v", err),
			err:     err,
		}
	}

	out := strings.TrimSpace(stdout)
	errOut := strings.TrimSpace(stderr)

	if errOut != "" {
		// Many HTTP clients write transfer progress to stderr. Only treat
		// stderr as fatal when there is no usable stdout or the text looks
		// like an actual error.
		if out == "" || containsFailureKeyword(errOut) {
			return nil, &FetchError{
				Kind:    KindFallbackProcess,
				Attempt: AttemptFallback,
				URL:     rawURL,
				Message: fmt.Sprintf("external HTTP client reported: %s", errOut),
			}
		}
		log.Info("external HTTP client wrote benign output to stderr",
			slog.String("stderr", errOut))
	}

	if out == "" {
		return nil, &FetchError{
			Kind:    KindFallbackProcess,
			Attempt: AttemptFallback,
			URL:     rawURL,
			Message: "external HTTP client produced an empty response",
		}
	}

	if !json.Valid([]byte(out)) {
		return nil, &FetchError{
			Kind:    KindJSONParse,
			Attempt: AttemptFallback,
			URL:     rawURL,
			Message: "fallback response body is not valid JSON",
		}
	}

	return json.RawMessage(out), nil
}

// containsFailureKeyword reports whether stderr text looks like an error
// rather than progress output, via case-insensitive substring match.
func containsFailureKeyword(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "error") || strings.Contains(lower, "fail")
}

// GetJSON fetches the URL and unmarshals the response into T.
func GetJSON[T any](ctx context.Context, c *Client, rawURL string, opts Options) (T, error) {
	var out T

	raw, err := c.FetchJSON(ctx, rawURL, opts)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &FetchError{
			Kind:    KindJSONParse,
			URL:     rawURL,
			Message: fmt.Sprintf("decode response: %v", err),
			err:     err,
		}
	}
	return out, nil
}
