// Package runner executes external commands and captures their output.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Runner lets callers stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// Exec runs commands with os/exec.
type Exec struct {
	Logger *zap.SugaredLogger
}

// Run executes name with args and returns the captured stdout and stderr.
func (e Exec) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if e.Logger != nil {
		if err != nil {
			e.Logger.Debugw("exec failed",
				"cmd", name,
				"args", strings.Join(args, " "),
				"duration_ms", dur.Milliseconds(),
				"error", err,
				"stderr", Truncate(errb.String(), 8<<10),
			)
		} else {
			e.Logger.Debugw("exec ok",
				"cmd", name,
				"args", strings.Join(args, " "),
				"duration_ms", dur.Milliseconds(),
				"stdout_bytes", out.Len(),
				"stderr_bytes", errb.Len(),
			)
		}
	}

	return out.Bytes(), errb.Bytes(), err
}

// ExitCode returns the process exit code carried by err, or -1 when err
// did not come from a process that ran to completion.
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Truncate caps s at max bytes.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
