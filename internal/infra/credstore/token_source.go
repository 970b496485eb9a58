package credstore

import (
	"context"
	"log/slog"

	"figpull/internal/observability/metrics"
)

// TokenSource resolves the API token to use for a request: first from the
// key-value store, then from the statically configured token. Resolution
// never fails; a store failure degrades to the static token with a warning.
type TokenSource struct {
	store  Store
	key    string
	static string
	logger *slog.Logger
}

// NewTokenSource creates a token source. store may be nil when no
// key-value backend is configured; key is the store key holding the token;
// static is the configured fallback token.
func NewTokenSource(store Store, key, static string, logger *slog.Logger) *TokenSource {
	return &TokenSource{
		store:  store,
		key:    key,
		static: static,
		logger: logger,
	}
}

// Token returns the credential to use. Lookup order:
//  1. the key-value store, when configured
//  2. the static token
//
// Store failures of any kind (disconnected, missing key, open breaker) are
// logged and absorbed.
func (t *TokenSource) Token(ctx context.Context) string {
	if t.store == nil || t.key == "" {
		return t.static
	}

	value, err := t.store.Get(ctx, t.key)
	if err == nil && value != "" {
		metrics.CredentialLookupsTotal.WithLabelValues("hit").Inc()
		return value
	}

	if err != nil {
		metrics.CredentialLookupsTotal.WithLabelValues("fallback").Inc()
		t.logger.Warn("credential store lookup failed, using static token",
			slog.String("key", t.key),
			slog.Any("error", err))
	} else {
		metrics.CredentialLookupsTotal.WithLabelValues("miss").Inc()
		t.logger.Warn("credential store returned an empty value, using static token",
			slog.String("key", t.key))
	}

	return t.static
}
