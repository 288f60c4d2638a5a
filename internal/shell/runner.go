// Package shell runs the external commands a release needs (scp, ssh,
// sendmail). It does no quoting: every argument is passed as-is.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Command describes one external invocation.
type Command struct {
	Name  string
	Args  []string
	Stdin string
	Dir   string
	// SeparateStderr keeps stderr out of the returned output; it is only
	// attached to the error of a failed run.
	SeparateStderr bool
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner executes commands and returns their output, stdout and stderr
// combined unless the command asks for SeparateStderr.
type Runner interface {
	Run(ctx context.Context, cmd Command) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// CommandContext builds the process; defaults to exec.CommandContext.
	CommandContext func(ctx context.Context, name string, args ...string) *exec.Cmd
	// Output, when set, also receives the command's output as it runs.
	Output io.Writer
}

// Run executes cmd. A non-zero exit or a start failure is returned with the
// command line and its output attached.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (string, error) {
	build := r.CommandContext
	if build == nil {
		build = exec.CommandContext
	}

	c := build(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if cmd.Stdin != "" {
		c.Stdin = strings.NewReader(cmd.Stdin)
	}

	var outputBuf, stderrBuf bytes.Buffer
	errBuf := &outputBuf
	if cmd.SeparateStderr {
		errBuf = &stderrBuf
	}
	if r.Output != nil {
		c.Stdout = io.MultiWriter(&outputBuf, r.Output)
		c.Stderr = io.MultiWriter(errBuf, r.Output)
	} else {
		c.Stdout = &outputBuf
		c.Stderr = errBuf
	}

	logDebug("[shell] running: %s", cmd)
	if err := c.Run(); err != nil {
		output := strings.TrimSpace(outputBuf.String())
		if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return output, fmt.Errorf("%s: %w", cmd.Name, ctx.Err())
		}
		detail := output
		if cmd.SeparateStderr {
			detail = strings.TrimSpace(stderrBuf.String())
		}
		if detail != "" {
			return output, fmt.Errorf("running %s: %w: %s", cmd, err, detail)
		}
		return output, fmt.Errorf("running %s: %w", cmd, err)
	}
	if stderrBuf.Len() > 0 {
		logDebug("[shell] %s stderr: %s", cmd.Name, strings.TrimSpace(stderrBuf.String()))
	}

	return outputBuf.String(), nil
}
