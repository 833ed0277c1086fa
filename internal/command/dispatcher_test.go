package command

import (
	"bytes"
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/sikraken-assist/internal/model"
)

// fakeRunner records the last request and returns a canned result.
type fakeRunner struct {
	last   Request
	calls  int
	result Result
	err    error
}

func (f *fakeRunner) Run(_ context.Context, req Request) (Result, error) {
	f.last = req
	f.calls++
	return f.result, f.err
}

func TestDispatch_PrintsAndRuns(t *testing.T) {
	runner := &fakeRunner{result: Result{ExitCode: 0}}
	var out bytes.Buffer
	d := &Dispatcher{
		Template: DefaultTemplate(),
		Runner:   runner,
		Workdir:  "/opt/sikraken",
		Backend:  model.BackendShell,
		Out:      &out,
	}

	run, err := d.Dispatch(context.Background(), model.Params{Restarts: 3, Tries: 27})
	require.NoError(t, err)

	want := "./bin/sikraken.sh release regression[3,27] -m32 ./SampleCode/Problem03_label00.c"
	assert.Equal(t, "Running command: "+want+"\n", out.String())
	assert.Equal(t, want, runner.last.Command)
	assert.Equal(t, "/opt/sikraken", runner.last.Workdir)
	assert.Equal(t, model.Params{Restarts: 3, Tries: 27}, runner.last.Params)

	assert.Equal(t, want, run.Command)
	assert.Equal(t, model.BackendShell, run.Backend)
	assert.Equal(t, runner.last.RunID, run.ID)
	_, parseErr := ulid.Parse(run.ID)
	assert.NoError(t, parseErr, "run ID should be a valid ULID")
}

// TestDispatch_NonZeroExit keeps the child's status on the result.
func TestDispatch_NonZeroExit(t *testing.T) {
	d := &Dispatcher{Template: DefaultTemplate(), Runner: &fakeRunner{result: Result{ExitCode: 2}}}

	run, err := d.Dispatch(context.Background(), model.Params{Restarts: 1, Tries: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, run.ExitCode)
	assert.False(t, run.Succeeded())
}

func TestDispatch_RunnerError(t *testing.T) {
	runnerErr := model.NewCLIError(model.ExitWorkdirUnavailable, "Error changing directory")
	d := &Dispatcher{Template: DefaultTemplate(), Runner: &fakeRunner{err: runnerErr}}

	run, err := d.Dispatch(context.Background(), model.Params{Restarts: 1, Tries: 1})
	assert.Nil(t, run)
	assert.Equal(t, runnerErr, err)
}
