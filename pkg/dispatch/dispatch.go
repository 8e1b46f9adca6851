// Package dispatch runs the external toolchain binaries. Commands are built
// as argv lists, never interpolated shell strings, so genome paths with odd
// characters cannot break quoting.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/yumyai/pgcf/logger"
	"go.uber.org/zap"
)

// Command is one external tool invocation.
type Command struct {
	Tool string
	Args []string
}

func New(tool string, args ...string) *Command {
	return &Command{Tool: tool, Args: args}
}

// String renders the full command line for logs and error messages.
func (c *Command) String() string {
	if len(c.Args) == 0 {
		return c.Tool
	}
	return c.Tool + " " + strings.Join(c.Args, " ")
}

// ToolError reports an external tool that ran but exited non-zero (or was
// killed on timeout).
type ToolError struct {
	Tool     string
	ExitCode int
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
}

// Runner executes a command and reports its exit status. The status is
// returned unmodified; interpreting non-zero is the caller's job. The error
// return covers only failures to run at all (missing binary, bad path,
// timeout setup).
type Runner interface {
	Run(ctx context.Context, cmd *Command) (int, error)
}

// ProcRunner runs commands as child processes. With Debug set the child
// inherits stdout/stderr; otherwise both streams are discarded. A non-zero
// Timeout kills the child when exceeded.
type ProcRunner struct {
	Debug   bool
	Timeout time.Duration
}

func (r *ProcRunner) Run(ctx context.Context, cmd *Command) (int, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	proc := exec.CommandContext(ctx, cmd.Tool, cmd.Args...)
	if r.Debug {
		proc.Stdout = os.Stdout
		proc.Stderr = os.Stderr
	}

	logger.Debug("Dispatching command", zap.String("cmd", cmd.String()))

	err := proc.Run()
	if err == nil {
		return 0, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return -1, fmt.Errorf("%s did not finish within %s: %w", cmd.Tool, r.Timeout, ctx.Err())
	}
	if ctx.Err() != nil {
		return -1, fmt.Errorf("%s interrupted: %w", cmd.Tool, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	return -1, fmt.Errorf("failed to run %s: %w", cmd.Tool, err)
}
