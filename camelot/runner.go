package camelot

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"time"
)

// Invocation is one shell command line plus the process context it runs in.
type Invocation struct {
	Command string
	Dir     string   // "" = inherit
	Env     []string // nil = inherit
}

// Runner lets us stub the subprocess in tests.
type Runner interface {
	Run(ctx context.Context, inv Invocation, logger *slog.Logger) (stdout, stderr []byte, err error)
}

// ShellRunner runs invocations through `<Shell> -c`.
type ShellRunner struct {
	Shell string // if empty -> "sh"
}

func (r ShellRunner) Run(ctx context.Context, inv Invocation, logger *slog.Logger) ([]byte, []byte, error) {
	start := time.Now()

	shell := r.Shell
	if shell == "" {
		shell = "sh"
	}
	logger.Debug("running command", "cmd_line", inv.Command, "dir", inv.Dir)

	cmd := exec.CommandContext(ctx, shell, "-c", inv.Command)
	cmd.Dir = inv.Dir
	cmd.Env = inv.Env
	cmd.WaitDelay = 2 * time.Second
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		logger.Error("exec failed",
			"cmd_line", inv.Command,
			"duration_ms", dur.Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), 8<<10), // cap at 8KB
		)
	} else {
		logger.Debug("exec ok",
			"cmd_line", inv.Command,
			"duration_ms", dur.Milliseconds(),
			"stdout_bytes", out.Len(),
			"stderr_bytes", errb.Len(),
		)
	}

	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
