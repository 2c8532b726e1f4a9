// Package spawn runs external side-effect commands (niri msg, swww,
// notify-send) with output capping and failure logging.
package spawn

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"niriglue/internal/log"
)

// maxCapturedBytes caps stdout/stderr captured from spawned commands.
const maxCapturedBytes = 64 * 1024

// DefaultTimeout bounds commands whose callers pass no deadline of their own.
const DefaultTimeout = 30 * time.Second

// Result holds the outcome of a completed command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

var logger *slog.Logger

func getLogger() *slog.Logger {
	if logger == nil {
		logger = log.WithComponent("spawn")
	}
	return logger
}

// Run executes a command and waits for it, capturing output. A non-zero exit
// is not an error; inspect Result.ExitCode. Errors are reserved for failures
// to start or a killed process (including ctx expiry).
func Run(ctx context.Context, name string, args ...string) (Result, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: truncate(stdout.String()),
		Stderr: truncate(stderr.String()),
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		if ctx.Err() != nil {
			return res, fmt.Errorf("run %s: %w", name, ctx.Err())
		}
		return res, fmt.Errorf("run %s: %w", name, err)
	}
	return res, nil
}

// Fire executes a command for its side effect, discarding output and logging
// failures instead of returning them. Used where the original shell scripts
// ignored exit status (wallpaper application, notifications).
func Fire(ctx context.Context, name string, args ...string) {
	res, err := Run(ctx, name, args...)
	switch {
	case err != nil:
		getLogger().Warn("command failed to run", "cmd", name, "error", err)
	case res.ExitCode != 0:
		getLogger().Debug("command exited non-zero",
			"cmd", name, "exit_code", res.ExitCode, "stderr", res.Stderr)
	}
}

func truncate(s string) string {
	if len(s) > maxCapturedBytes {
		return s[:maxCapturedBytes]
	}
	return s
}
