package docker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/sikraken-assist/internal/command"
	"github.com/mmr-tortoise/sikraken-assist/internal/model"
)

// fakeEngine records calls and returns canned responses. It stands in for
// the Docker daemon so the runner can be tested without one.
type fakeEngine struct {
	pingErr   error
	createErr error
	startErr  error
	exitCode  int64
	stdout    string
	stderr    string
	summaries []container.Summary

	createdConfig *container.Config
	createdHost   *container.HostConfig
	createdName   string
	started       bool
	removed       []string
	listOptions   container.ListOptions
}

func (f *fakeEngine) Ping(context.Context) (types.Ping, error) {
	return types.Ping{}, f.pingErr
}

func (f *fakeEngine) ContainerCreate(_ context.Context, cfg *container.Config, host *container.HostConfig,
	_ *network.NetworkingConfig, _ *ocispec.Platform, name string) (container.CreateResponse, error) {
	f.createdConfig = cfg
	f.createdHost = host
	f.createdName = name
	if f.createErr != nil {
		return container.CreateResponse{}, f.createErr
	}
	return container.CreateResponse{ID: "c0ffee"}, nil
}

func (f *fakeEngine) ContainerStart(context.Context, string, container.StartOptions) error {
	f.started = f.startErr == nil
	return f.startErr
}

func (f *fakeEngine) ContainerWait(context.Context, string, container.WaitCondition) (<-chan container.WaitResponse, <-chan error) {
	statusCh := make(chan container.WaitResponse, 1)
	errCh := make(chan error, 1)
	statusCh <- container.WaitResponse{StatusCode: f.exitCode}
	return statusCh, errCh
}

// ContainerLogs returns a multiplexed stream like the daemon does for a
// container without a TTY.
func (f *fakeEngine) ContainerLogs(context.Context, string, container.LogsOptions) (io.ReadCloser, error) {
	var buf bytes.Buffer
	if f.stdout != "" {
		_, _ = stdcopy.NewStdWriter(&buf, stdcopy.Stdout).Write([]byte(f.stdout))
	}
	if f.stderr != "" {
		_, _ = stdcopy.NewStdWriter(&buf, stdcopy.Stderr).Write([]byte(f.stderr))
	}
	return io.NopCloser(&buf), nil
}

func (f *fakeEngine) ContainerRemove(_ context.Context, id string, _ container.RemoveOptions) error {
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeEngine) ContainerList(_ context.Context, opts container.ListOptions) ([]container.Summary, error) {
	f.listOptions = opts
	return f.summaries, nil
}

func (f *fakeEngine) Close() error { return nil }

func newRunner(engine *fakeEngine, keep bool) *ContainerRunner {
	return &ContainerRunner{
		Client:    &Client{api: engine},
		Image:     "sikraken/eclipse:7.1",
		MountPath: "/work",
		Keep:      keep,
	}
}

// requireExitCode asserts that err is a *model.CLIError carrying code.
func requireExitCode(t *testing.T, err error, code model.ExitCode) {
	t.Helper()

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr), "expected *model.CLIError, got %T: %v", err, err)
	assert.Equal(t, code, cliErr.Code)
}

// TestContainerRunner_Run verifies the container config and output handling
// for a successful run.
func TestContainerRunner_Run(t *testing.T) {
	dir := t.TempDir()
	engine := &fakeEngine{exitCode: 0, stdout: "generated 12 tests\n", stderr: "warning: m32\n"}
	var stdout, stderr bytes.Buffer

	line := command.DefaultTemplate().Build(model.Params{Restarts: 3, Tries: 27})
	res, err := newRunner(engine, false).Run(context.Background(), command.Request{
		RunID:   "01J0000000000000000000000A",
		Command: line,
		Workdir: dir,
		Params:  model.Params{Restarts: 3, Tries: 27},
		Stdout:  &stdout,
		Stderr:  &stderr,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)

	require.NotNil(t, engine.createdConfig)
	assert.Equal(t, "sikraken/eclipse:7.1", engine.createdConfig.Image)
	assert.Equal(t, []string{"sh", "-c", line}, []string(engine.createdConfig.Cmd))
	assert.Equal(t, "/work", engine.createdConfig.WorkingDir)
	assert.Equal(t, "[3,27]", engine.createdConfig.Labels[LabelParams])
	assert.Equal(t, "01J0000000000000000000000A", engine.createdConfig.Labels[LabelRunID])

	absDir, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{absDir + ":/work"}, engine.createdHost.Binds)
	assert.Equal(t, "sikraken-01j0000000000000000000000a", engine.createdName)

	assert.True(t, engine.started)
	assert.Equal(t, "generated 12 tests\n", stdout.String())
	assert.Equal(t, "warning: m32\n", stderr.String())
	assert.Equal(t, []string{"c0ffee"}, engine.removed, "container is removed unless kept")
}

func TestContainerRunner_Keep(t *testing.T) {
	engine := &fakeEngine{exitCode: 4}

	res, err := newRunner(engine, true).Run(context.Background(), command.Request{
		RunID: "id", Command: "true", Workdir: t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.ExitCode, "non-zero exit is reported, not an error")
	assert.Empty(t, engine.removed)
}

// TestContainerRunner_MissingWorkdir creates nothing.
func TestContainerRunner_MissingWorkdir(t *testing.T) {
	engine := &fakeEngine{}

	_, err := newRunner(engine, false).Run(context.Background(), command.Request{
		Command: "true", Workdir: filepath.Join(t.TempDir(), "missing"),
	})
	requireExitCode(t, err, model.ExitWorkdirUnavailable)
	assert.Nil(t, engine.createdConfig)
}

func TestContainerRunner_CreateFails(t *testing.T) {
	engine := &fakeEngine{createErr: errors.New("No such image: sikraken/eclipse:7.1")}

	_, err := newRunner(engine, false).Run(context.Background(), command.Request{
		RunID: "id", Command: "true", Workdir: t.TempDir(),
	})
	requireExitCode(t, err, model.ExitLaunchFailed)
	assert.Contains(t, err.Error(), "No such image")
	assert.Empty(t, engine.removed)
}

func TestContainerRunner_StartFails(t *testing.T) {
	engine := &fakeEngine{startErr: errors.New("OCI runtime create failed")}

	_, err := newRunner(engine, false).Run(context.Background(), command.Request{
		RunID: "id", Command: "true", Workdir: t.TempDir(),
	})
	requireExitCode(t, err, model.ExitLaunchFailed)
	assert.Equal(t, []string{"c0ffee"}, engine.removed, "a created container is cleaned up")
}

// TestListManagedContainers checks filtering and label reconstruction.
func TestListManagedContainers(t *testing.T) {
	createdAt := time.Date(2026, 2, 28, 10, 0, 0, 0, time.UTC)
	engine := &fakeEngine{summaries: []container.Summary{
		{
			ID:     "aaa111",
			Names:  []string{"/sikraken-01j0"},
			Image:  "sikraken/eclipse:7.1",
			State:  "exited",
			Labels: BuildLabels("01J0", model.Params{Restarts: 5, Tries: 6}, "/work", createdAt),
		},
		{
			ID:     "bbb222",
			Names:  []string{"/half-labelled"},
			State:  "running",
			Labels: map[string]string{LabelManagedBy: ManagedByValue},
		},
	}}

	got, err := ListManagedContainers(context.Background(), &Client{api: engine})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.True(t, engine.listOptions.All, "stopped containers must be listed too")
	assert.Equal(t, []string{FilterLabel()}, engine.listOptions.Filters.Get("label"))

	assert.Equal(t, "aaa111", got[0].ContainerID)
	assert.Equal(t, "sikraken-01j0", got[0].ContainerName)
	assert.Equal(t, "01J0", got[0].RunID)
	assert.Equal(t, "[5,6]", got[0].Params)
	assert.Equal(t, "exited", got[0].Status)
	assert.True(t, createdAt.Equal(got[0].CreatedAt))

	assert.Equal(t, "half-labelled", got[1].ContainerName)
	assert.Empty(t, got[1].RunID)
}

func TestClient_Ping(t *testing.T) {
	assert.NoError(t, (&Client{api: &fakeEngine{}}).Ping(context.Background()))

	err := (&Client{api: &fakeEngine{pingErr: errors.New("connection refused")}}).Ping(context.Background())
	requireExitCode(t, err, model.ExitDockerNotRunning)
}

func TestDetectUnixSocket(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "docker.sock")
	require.NoError(t, writeEmpty(present))

	host, err := detectUnixSocket([]string{filepath.Join(dir, "missing.sock"), present})
	require.NoError(t, err)
	assert.Equal(t, "unix://"+present, host)

	_, err = detectUnixSocket([]string{filepath.Join(dir, "missing.sock")})
	assert.Error(t, err)
}

func TestContainerName(t *testing.T) {
	assert.Equal(t, "sikraken-01hzx", containerName("01HZX"))
	assert.Equal(t, "", containerName(""))
}

func writeEmpty(path string) error {
	return os.WriteFile(path, nil, 0600)
}
