package transport

import (
	"os"
	"strings"
)

// Environment variables consulted for proxy configuration.
// The HTTPS-specific variables take priority over the generic HTTP ones
// because all design API traffic is TLS.
var proxyEnvVars = []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy"}

// Environment variables consulted for proxy exclusion rules.
var noProxyEnvVars = []string{"NO_PROXY", "no_proxy"}

// ShouldBypass reports whether the given hostname is exempted from proxying
// by the provided exclusion patterns.
//
// Patterns are evaluated in list order; the first match wins. Each pattern
// is one of:
//   - "*": matches every host (wildcard bypass)
//   - ".example.com": matches "example.com" itself and any subdomain
//     such as "foo.example.com"
//   - anything else: exact hostname equality
//
// Matching is case-sensitive, mirroring how the patterns were provided in
// the environment.
func ShouldBypass(host string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if pattern == "*" {
			return true
		}
		if strings.HasPrefix(pattern, ".") {
			// ".example.com" exempts both the apex domain and subdomains.
			if host == strings.TrimPrefix(pattern, ".") || strings.HasSuffix(host, pattern) {
				return true
			}
			continue
		}
		if host == pattern {
			return true
		}
	}
	return false
}

// noProxyPatterns reads the proxy exclusion list from the environment.
// The list is comma-separated; each entry is trimmed of surrounding
// whitespace. Returns nil when no exclusion list is configured.
func noProxyPatterns() []string {
	var raw string
	for _, key := range noProxyEnvVars {
		if v := os.Getenv(key); v != "" {
			raw = v
			break
		}
	}
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	patterns := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// proxyURLFromEnv returns the raw proxy URL string from the environment,
// checking the HTTPS-specific variables before the generic HTTP ones.
// Returns "" when no proxy is configured.
func proxyURLFromEnv() string {
	for _, key := range proxyEnvVars {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
