// Package transport decides which network path a request traverses: direct,
// or through the forward proxy configured in the process environment.
//
// Corporate networks routinely force outbound traffic through proxies with
// exclusion lists (NO_PROXY). The resolver re-reads the environment on every
// call so that proxy changes take effect without a restart, while the
// underlying connection agents are built once and reused across requests.
package transport

import (
	"crypto/tls"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Dispatch is the per-request routing decision. It is recomputed on every
// Resolve call because the bypass rules depend on the destination host.
type Dispatch struct {
	// UseProxy indicates whether the request should traverse the forward proxy
	UseProxy bool

	// ProxyURL is the proxy endpoint, set only when UseProxy is true
	ProxyURL *url.URL

	// Transport is the shared connection agent to issue the request on
	Transport *http.Transport
}

// Resolver selects between a shared direct transport and shared proxied
// transports. Transports are long-lived and constructed at most once per
// distinct proxy URL; Resolve only selects between them.
//
// Thread safety: Resolver is safe for concurrent use.
type Resolver struct {
	logger *slog.Logger
	direct *http.Transport

	mu      sync.Mutex
	proxied map[string]*http.Transport
}

// NewResolver creates a Resolver with a ready direct transport.
// Proxied transports are created lazily on first use of each proxy URL
// and cached for the lifetime of the resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{
		logger:  logger,
		direct:  newTransport(nil),
		proxied: make(map[string]*http.Transport),
	}
}

// newTransport builds a connection agent with the pool settings shared by
// both the direct and the proxied paths.
func newTransport(proxy *url.URL) *http.Transport {
	t := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
	if proxy != nil {
		t.Proxy = http.ProxyURL(proxy)
	}
	return t
}

// Resolve decides how traffic to rawURL should be routed.
//
// The decision procedure:
//  1. Read the proxy URL from the environment (HTTPS_PROXY before
//     HTTP_PROXY, lowercase variants accepted). Not cached across calls.
//  2. No proxy configured: direct dispatch, no exclusion evaluation.
//  3. Malformed destination URL: the exclusion rules cannot be evaluated,
//     so the resolver fails open toward the proxy. Connectivity through the
//     proxy beats bypass correctness here; the anomaly is logged.
//  4. Otherwise evaluate the NO_PROXY patterns against the destination host;
//     a match yields direct dispatch, no match routes via the proxy.
//
// Resolve never returns an error. Configuration problems degrade to a logged
// warning and a deterministic decision.
func (r *Resolver) Resolve(rawURL string) *Dispatch {
	rawProxy := proxyURLFromEnv()
	if rawProxy == "" {
		return &Dispatch{Transport: r.direct}
	}

	proxyURL, err := url.Parse(rawProxy)
	if err != nil || proxyURL.Host == "" {
		r.logger.Warn("ignoring malformed proxy URL from environment",
			slog.String("proxy_url", rawProxy),
			slog.Any("error", err))
		return &Dispatch{Transport: r.direct}
	}

	host := hostOf(rawURL)
	if host == "" {
		r.logger.Warn("cannot evaluate no-proxy rules for malformed URL, routing via proxy",
			slog.String("url", rawURL),
			slog.String("proxy_url", proxyURL.String()))
		return r.proxyDispatch(proxyURL)
	}

	if ShouldBypass(host, noProxyPatterns()) {
		r.logger.Debug("host matches no-proxy pattern, dispatching directly",
			slog.String("host", host))
		return &Dispatch{Transport: r.direct}
	}

	return r.proxyDispatch(proxyURL)
}

// proxyDispatch returns a dispatch routed through the given proxy, creating
// and caching the transport for that proxy URL on first use.
func (r *Resolver) proxyDispatch(proxyURL *url.URL) *Dispatch {
	key := proxyURL.String()

	r.mu.Lock()
	t, ok := r.proxied[key]
	if !ok {
		t = newTransport(proxyURL)
		r.proxied[key] = t
	}
	r.mu.Unlock()

	return &Dispatch{
		UseProxy:  true,
		ProxyURL:  proxyURL,
		Transport: t,
	}
}

// Close releases idle connections held by all transports owned by the
// resolver. Call on shutdown.
func (r *Resolver) Close() {
	r.direct.CloseIdleConnections()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.proxied {
		t.CloseIdleConnections()
	}
}

// hostOf extracts the hostname from an absolute URL. Returns "" when the
// URL is empty, relative, or otherwise malformed.
func hostOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return ""
	}
	return u.Hostname()
}
