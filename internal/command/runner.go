package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/mmr-tortoise/sikraken-assist/internal/model"
)

// DefaultShell is the interpreter used to run the command line.
const DefaultShell = "sh"

// Request is one command to dispatch.
type Request struct {
	// RunID correlates the run with logs and container labels.
	RunID string

	// Command is the full command line, interpreted by the shell.
	Command string

	// Workdir is the directory the command runs in.
	Workdir string

	// Params are the values substituted into Command. Backends that label
	// their resources use them; the shell backend ignores them.
	Params model.Params

	// Stdout and Stderr receive the child's output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// Result is the outcome of a launched command.
type Result struct {
	// ExitCode is the child's exit status, or -1 if it was killed by a signal.
	ExitCode int

	// Duration is the wall-clock time from launch to exit.
	Duration time.Duration
}

// Runner executes a Request and blocks until the child exits.
//
// Implementations return a *model.CLIError with ExitWorkdirUnavailable when
// Workdir cannot be used and ExitLaunchFailed when the child could not be
// started. A child that starts and exits non-zero is not an error.
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// ShellRunner runs commands on the host through a shell.
type ShellRunner struct {
	// Shell is the interpreter binary. Empty means DefaultShell.
	Shell string
}

// NewShellRunner creates a ShellRunner using DefaultShell.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{Shell: DefaultShell}
}

// Run executes req.Command via "<shell> -c" with req.Workdir as the child's
// working directory.
func (r *ShellRunner) Run(ctx context.Context, req Request) (Result, error) {
	if err := CheckWorkdir(req.Workdir); err != nil {
		return Result{}, err
	}

	shell := r.Shell
	if shell == "" {
		shell = DefaultShell
	}

	// #nosec G204 -- the command line is built from the configured template
	cmd := exec.CommandContext(ctx, shell, "-c", req.Command)
	cmd.Dir = req.Workdir
	cmd.Stdin = os.Stdin
	cmd.Stdout = req.Stdout
	cmd.Stderr = req.Stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, model.WrapCLIError(model.ExitLaunchFailed, "Error executing command", err)
	}

	err := cmd.Wait()
	result := Result{Duration: time.Since(start)}
	if err == nil {
		return result, nil
	}

	// A non-zero exit is the child's business; report it and carry on.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	return result, model.WrapCLIError(model.ExitGeneralError,
		fmt.Sprintf("command %q did not complete", req.Command), err)
}

// CheckWorkdir verifies that dir exists and is a directory.
func CheckWorkdir(dir string) error {
	if dir == "" {
		return model.NewCLIError(model.ExitWorkdirUnavailable, "Error changing directory: working directory is empty")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return model.WrapCLIError(model.ExitWorkdirUnavailable, "Error changing directory", err)
	}
	if !info.IsDir() {
		return model.NewCLIError(model.ExitWorkdirUnavailable,
			fmt.Sprintf("Error changing directory: %s is not a directory", dir))
	}
	return nil
}
