// Package executor runs the shell commands produced in shell mode.
// The user has already read and confirmed the command by the time it
// gets here; nothing in this package second-guesses what it runs.
package executor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Executor runs commands through the user's shell with the process
// streams attached, so pagers, prompts and colors behave normally.
type Executor struct {
	shell   string
	timeout time.Duration
}

// New creates an executor using $SHELL, falling back to /bin/sh.
// No timeout applies unless SetTimeout is called: the user asked for
// this command and may well want it to run for a while.
func New() *Executor {
	return &Executor{shell: shellPath()}
}

// SetTimeout bounds command execution. Zero disables the limit.
func (e *Executor) SetTimeout(timeout time.Duration) {
	e.timeout = timeout
}

// Execute runs command as `$SHELL -c command` and waits for it.
// The command's exit status comes back as the usual exec.ExitError;
// callers decide whether that matters.
func (e *Executor) Execute(ctx context.Context, command string) error {
	execCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(execCtx, e.shell, "-c", command)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if execCtx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("command timed out after %s", e.timeout)
	}
	return err
}

func shellPath() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/sh"
}
