package docker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/mmr-tortoise/sikraken-assist/internal/command"
	"github.com/mmr-tortoise/sikraken-assist/internal/model"
)

// ContainerRunner implements command.Runner by running each request in a
// new container.
type ContainerRunner struct {
	Client *Client

	// Image must provide sh and the Sikraken toolchain.
	Image string

	// MountPath is where the request's Workdir is bind-mounted; the
	// command runs with it as the working directory.
	MountPath string

	// Keep leaves the container in place after it exits.
	Keep bool

	Logger *slog.Logger
}

var _ command.Runner = (*ContainerRunner)(nil)

// Run creates, starts, and waits for a container executing req.Command.
//
// A missing host Workdir fails with ExitWorkdirUnavailable before anything
// is created. Failing to create or start the container is a launch
// failure (ExitLaunchFailed). The container's exit status is returned in
// Result.ExitCode.
func (r *ContainerRunner) Run(ctx context.Context, req command.Request) (command.Result, error) {
	if err := command.CheckWorkdir(req.Workdir); err != nil {
		return command.Result{}, err
	}

	// Binds require an absolute host path.
	hostDir, err := filepath.Abs(req.Workdir)
	if err != nil {
		return command.Result{}, model.WrapCLIError(model.ExitWorkdirUnavailable, "Error changing directory", err)
	}

	name := containerName(req.RunID)
	start := time.Now()
	created, err := r.Client.api.ContainerCreate(ctx,
		&container.Config{
			Image:      r.Image,
			Cmd:        []string{command.DefaultShell, "-c", req.Command},
			WorkingDir: r.MountPath,
			Labels:     BuildLabels(req.RunID, req.Params, hostDir, start),
		},
		&container.HostConfig{
			Binds: []string{hostDir + ":" + r.MountPath},
		},
		nil, nil, name,
	)
	if err != nil {
		return command.Result{}, model.WrapCLIError(model.ExitLaunchFailed,
			fmt.Sprintf("Error executing command: failed to create container from image %q", r.Image), err)
	}
	r.logger().Debug("container created", "container_id", created.ID, "name", name, "image", r.Image)

	if !r.Keep {
		defer r.remove(created.ID)
	}

	if err := r.Client.api.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return command.Result{}, model.WrapCLIError(model.ExitLaunchFailed,
			fmt.Sprintf("Error executing command: failed to start container %q", name), err)
	}

	r.streamLogs(ctx, created.ID, req.Stdout, req.Stderr)

	statusCh, errCh := r.Client.api.ContainerWait(ctx, created.ID, container.WaitConditionNotRunning)
	result := command.Result{}
	select {
	case status := <-statusCh:
		result.ExitCode = int(status.StatusCode)
		if status.Error != nil && status.Error.Message != "" {
			r.logger().Warn("container wait reported an error", "container_id", created.ID, "error", status.Error.Message)
		}
	case err := <-errCh:
		return command.Result{}, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("container %q did not complete", name), err)
	}
	result.Duration = time.Since(start)

	return result, nil
}

// streamLogs follows the container's output until it exits. Docker
// multiplexes stdout and stderr on one stream when no TTY is attached;
// stdcopy splits them again.
func (r *ContainerRunner) streamLogs(ctx context.Context, id string, stdout, stderr io.Writer) {
	logs, err := r.Client.api.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		r.logger().Warn("could not attach to container output", "container_id", id, "error", err)
		return
	}
	defer func() { _ = logs.Close() }()

	if _, err := stdcopy.StdCopy(orDiscard(stdout), orDiscard(stderr), logs); err != nil {
		r.logger().Warn("container output stream ended early", "container_id", id, "error", err)
	}
}

// remove force-removes a finished container. It uses a fresh context so
// cleanup still happens when the run's context was cancelled.
func (r *ContainerRunner) remove(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := RemoveContainer(ctx, r.Client, id, true); err != nil {
		r.logger().Warn("failed to remove container", "container_id", id, "error", err)
	}
}

func (r *ContainerRunner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Logger
}

// containerName derives a Docker-safe container name from the run ID.
func containerName(runID string) string {
	if runID == "" {
		return ""
	}
	return "sikraken-" + strings.ToLower(runID)
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// ListManagedContainers returns every container, running or exited, that
// carries the sikraken-assist management label. Containers whose labels
// cannot be parsed are returned with only their Docker-side fields set.
func ListManagedContainers(ctx context.Context, c *Client) ([]model.ManagedContainer, error) {
	// Docker performs the label filtering server-side.
	summaries, err := c.api.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", FilterLabel())),
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	result := make([]model.ManagedContainer, 0, len(summaries))
	for _, s := range summaries {
		result = append(result, summaryToManaged(s))
	}
	return result, nil
}

// summaryToManaged converts a Docker container summary to a
// ManagedContainer. Docker reports names with a leading "/", which is
// stripped.
func summaryToManaged(s container.Summary) model.ManagedContainer {
	mc := model.ManagedContainer{}
	if parsed, err := ParseLabels(s.Labels); err == nil {
		mc = *parsed
	}

	mc.ContainerID = s.ID
	if len(s.Names) > 0 {
		mc.ContainerName = strings.TrimPrefix(s.Names[0], "/")
	}
	mc.Image = s.Image
	mc.Status = string(s.State)
	return mc
}

// RemoveContainer removes a container by its ID. With force, a running
// container is killed first.
func RemoveContainer(ctx context.Context, c *Client, containerID string, force bool) error {
	err := c.api.ContainerRemove(ctx, containerID, container.RemoveOptions{
		Force: force,
	})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to remove container %q", containerID),
			err,
		)
	}
	return nil
}
