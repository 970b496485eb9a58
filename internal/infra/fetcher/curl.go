package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
)

// CurlRunner runs HTTP GETs through the curl binary. curl carries its own
// TLS trust handling and proxy support, which is exactly what makes it a
// useful second opinion when the in-process client is blocked by a
// TLS-intercepting middlebox.
//
// Header values are passed as discrete argv elements, never interpolated
// into a shell string, so attacker- or server-influenced values cannot
// inject commands.
type CurlRunner struct {
	// Binary is the executable to invoke. Defaults to "curl"; overridable
	// for tests and unusual installations.
	Binary string

	logger *slog.Logger
}

// NewCurlRunner creates a runner invoking the system curl binary.
func NewCurlRunner(logger *slog.Logger) *CurlRunner {
	return &CurlRunner{
		Binary: "curl",
		logger: logger,
	}
}

// Args builds the curl argument list for a GET of url with the given
// headers:
//
//	-s                silence progress output
//	-S                still surface errors on stderr
//	--fail-with-body  non-zero exit on HTTP errors, body preserved
//	-L                follow redirects
//	-H "Key: Value"   one argument pair per header
//
// Headers are emitted in sorted key order so the command is deterministic.
// An empty header map yields zero -H arguments.
func (r *CurlRunner) Args(url string, headers map[string]string) []string {
	args := []string{"-sS", "--fail-with-body", "-L"}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-H", fmt.Sprintf("%s: %s", k, headers[k]))
	}

	return append(args, url)
}

// Run executes curl and captures its output streams. A non-zero exit is
// returned as err with whatever the process wrote still available in
// stdout/stderr; the caller decides how to reconcile the three.
func (r *CurlRunner) Run(ctx context.Context, url string, headers map[string]string) (string, string, error) {
	args := r.Args(url, headers)
	r.logger.Debug("invoking external HTTP client",
		slog.String("binary", r.Binary),
		slog.Int("args", len(args)))

	cmd := exec.CommandContext(ctx, r.Binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
