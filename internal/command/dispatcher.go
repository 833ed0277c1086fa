package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mmr-tortoise/sikraken-assist/internal/model"
)

// Dispatcher builds the Sikraken command for a set of Params, announces it,
// and hands it to a Runner.
type Dispatcher struct {
	Template Template
	Runner   Runner
	Workdir  string
	Backend  model.Backend

	// Out receives the "Running command:" line and the child's stdout.
	Out io.Writer

	// Err receives the child's stderr.
	Err io.Writer

	Logger *slog.Logger
}

// Dispatch runs the command for p and blocks until it exits.
// The returned RunResult is non-nil whenever the child was launched.
func (d *Dispatcher) Dispatch(ctx context.Context, p model.Params) (*model.RunResult, error) {
	line := d.Template.Build(p)
	id := generateID()

	if d.Out != nil {
		fmt.Fprintf(d.Out, "Running command: %s\n", line)
	}
	d.logger().Debug("dispatching command",
		"run_id", id, "params", p.String(), "workdir", d.Workdir, "backend", d.Backend)

	res, err := d.Runner.Run(ctx, Request{
		RunID:   id,
		Command: line,
		Workdir: d.Workdir,
		Params:  p,
		Stdout:  d.Out,
		Stderr:  d.Err,
	})
	if err != nil {
		return nil, err
	}

	run := &model.RunResult{
		ID:       id,
		Command:  line,
		Workdir:  d.Workdir,
		Params:   p,
		Backend:  d.Backend,
		ExitCode: res.ExitCode,
		Duration: res.Duration,
	}
	if !run.Succeeded() {
		d.logger().Warn("command exited non-zero", "run_id", id, "exit_code", res.ExitCode)
	} else {
		d.logger().Debug("command finished", "run_id", id, "duration", res.Duration)
	}
	return run, nil
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d.Logger
}

// generateID returns a new ULID string.
func generateID() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
