package recognition

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"audiosrt/internal/logging"
	"audiosrt/internal/services"
	"audiosrt/internal/textutil"
)

// CommandRunner executes an external tool with extra environment entries and
// returns its combined output.
type CommandRunner func(ctx context.Context, env []string, name string, args ...string) (string, error)

func defaultCommandRunner(ctx context.Context, env []string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	err := cmd.Run()
	return output.String(), err
}

// toolRunner executes backend binaries and keeps their output under the
// tool log directory.
type toolRunner struct {
	run    CommandRunner
	logDir string
	logger *slog.Logger
}

func (r toolRunner) exec(ctx context.Context, label string, env []string, name string, args ...string) (string, error) {
	logging.WithContext(ctx, r.logger).Debug("running recognition tool",
		logging.String("binary", name),
		logging.String("args", strings.Join(args, " ")),
	)
	start := time.Now()
	output, err := r.run(ctx, env, name, args...)
	r.keepLog(ctx, label, name, args, output, err, time.Since(start))
	return output, err
}

func (r toolRunner) keepLog(ctx context.Context, label, name string, args []string, output string, runErr error, elapsed time.Duration) {
	if r.logDir == "" {
		return
	}
	if err := os.MkdirAll(r.logDir, 0o755); err != nil {
		r.logger.Warn("tool log directory unavailable", logging.Error(err))
		return
	}
	stamp := time.Now().UTC().Format("20060102T150405.000000000")
	path := filepath.Join(r.logDir, fmt.Sprintf("%s-%s.log", stamp, textutil.SanitizeToken(label)))

	var b strings.Builder
	fmt.Fprintf(&b, "command: %s %s\n", name, strings.Join(args, " "))
	fmt.Fprintf(&b, "elapsed: %s\n", elapsed.Round(time.Millisecond))
	if runErr != nil {
		fmt.Fprintf(&b, "error: %v\n", runErr)
	}
	b.WriteString("\n")
	b.WriteString(output)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		logging.WithContext(ctx, r.logger).Warn("tool log write failed",
			logging.String("path", path),
			logging.Error(err),
		)
	}
}

var oomMarkers = []string{
	"out of memory",
	"outofmemoryerror",
	"cannot allocate memory",
	"std::bad_alloc",
	"failed to allocate",
}

// describeFailure renders the trailing tool output for an error message and
// flags memory exhaustion.
func describeFailure(output string) string {
	lower := strings.ToLower(output)
	annotation := ""
	for _, marker := range oomMarkers {
		if strings.Contains(lower, marker) {
			annotation = " (out of memory)"
			break
		}
	}
	output = strings.TrimSpace(output)
	if output == "" {
		return annotation
	}
	lines := strings.Split(output, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return annotation + ": " + strings.Join(lines, " | ")
}

// toolFailure tags a failed backend run as an external tool error inside
// ErrTranscription and appends the trailing tool output.
func toolFailure(tool, output string, err error) error {
	detail := strings.TrimPrefix(describeFailure(output), ": ")
	return fmt.Errorf("%w: %w", ErrTranscription, services.Wrap(services.ErrExternalTool, "transcribe", tool, detail, err))
}
