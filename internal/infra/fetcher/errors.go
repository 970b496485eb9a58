package fetcher

import (
	"errors"
	"fmt"
)

// Kind classifies what went wrong during a fetch.
type Kind string

const (
	// KindNetwork indicates the transport could not complete the request
	KindNetwork Kind = "network"

	// KindHTTPStatus indicates a response was received with a non-2xx status
	KindHTTPStatus Kind = "http_status"

	// KindJSONParse indicates the response body was not valid JSON
	KindJSONParse Kind = "json_parse"

	// KindFallbackProcess indicates the external process invocation failed
	// or returned an unusable result
	KindFallbackProcess Kind = "fallback_process"

	// KindConfiguration indicates malformed request configuration
	KindConfiguration Kind = "configuration"
)

// Attempt identifies which transport path produced an outcome.
type Attempt string

const (
	// AttemptPrimary is the in-process HTTP transport
	AttemptPrimary Attempt = "primary"

	// AttemptFallback is the external-process HTTP client
	AttemptFallback Attempt = "fallback"
)

// FetchError is the error surfaced by the fetcher. It always records which
// attempt produced it, so callers can tell a root-cause primary failure from
// a secondary fallback symptom.
type FetchError struct {
	Kind       Kind
	Attempt    Attempt
	URL        string
	StatusCode int
	Message    string

	err error
}

// Error returns a diagnostic string carrying the target URL, the attempt
// that failed, and the underlying message.
func (e *FetchError) Error() string {
	if e.Attempt == "" {
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
	}
	return fmt.Sprintf("fetch %s (%s attempt): %s", e.URL, e.Attempt, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As chains.
func (e *FetchError) Unwrap() error {
	return e.err
}

// AsFetchError unwraps err into a *FetchError, or returns nil if err does
// not carry one.
func AsFetchError(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return nil
}
