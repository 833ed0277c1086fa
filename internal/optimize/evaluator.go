package optimize

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mmr-tortoise/sikraken-assist/internal/command"
	"github.com/mmr-tortoise/sikraken-assist/internal/model"
	"github.com/mmr-tortoise/sikraken-assist/internal/testcov"
)

// CoverageEvaluator scores an individual by running Sikraken with its
// budget and then measuring coverage with TestCov.
type CoverageEvaluator struct {
	Dispatcher *command.Dispatcher
	Probe      *testcov.Probe

	// Out receives one line per successfully measured individual.
	Out    io.Writer
	Logger *slog.Logger
}

// Evaluate returns the measured coverage, or 0 if Sikraken could not be
// launched, exited non-zero, or TestCov produced no coverage figure.
func (e *CoverageEvaluator) Evaluate(ctx context.Context, p model.Params) float64 {
	run, err := e.Dispatcher.Dispatch(ctx, p)
	if err != nil {
		e.Logger.Warn("sikraken run failed", "params", p.String(), "error", err)
		return 0
	}
	if !run.Succeeded() {
		e.Logger.Warn("sikraken exited non-zero", "params", p.String(), "exit_code", run.ExitCode)
		return 0
	}

	coverage, err := e.Probe.Measure(ctx)
	if err != nil {
		e.Logger.Warn("coverage measurement failed", "params", p.String(), "error", err)
		return 0
	}

	if e.Out != nil {
		fmt.Fprintf(e.Out, "Parameters %s achieved %g%% coverage\n", p.String(), coverage)
	}
	return coverage
}
