// Package cli: containers.go implements the "sikraken-assist containers" command.
//
// The containers command lists the containers the docker backend created,
// found through the "sikraken.managed-by=sikraken-assist" label. Only
// containers kept with docker.keep, or left behind by an interrupted run,
// normally show up here.
package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/sikraken-assist/internal/docker"
	"github.com/mmr-tortoise/sikraken-assist/internal/model"
)

// NewContainersCommand creates the "containers" cobra command.
func NewContainersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "containers",
		Short: "List containers created by the docker backend",
		Long: `List the containers created by the docker backend, with the run and
the [restarts,tries] budget each one belongs to.

Examples:
  sikraken-assist containers
  sikraken-assist containers --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runContainers(cmd)
		},
	}
	return cmd
}

func runContainers(cmd *cobra.Command) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.Close()

	containers, err := listManaged(cmd, env)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		return printJSON(cmd.OutOrStdout(), containersResultJSON{Containers: containers})
	}
	printContainersText(cmd.OutOrStdout(), containers)
	return nil
}

// listManaged connects to Docker and returns the managed containers,
// oldest first.
func listManaged(cmd *cobra.Command, env *appEnv) ([]model.ManagedContainer, error) {
	c, err := docker.NewClient()
	if err != nil {
		return nil, err // NewClient already returns CLIError with ExitDockerNotRunning
	}
	defer func() { _ = c.Close() }()

	containers, err := docker.ListManagedContainers(cmd.Context(), c)
	if err != nil {
		return nil, err
	}
	env.log.Debug("found managed containers", "count", len(containers))

	sortContainers(containers)
	return containers, nil
}

// sortContainers orders containers by creation time, then by name.
func sortContainers(containers []model.ManagedContainer) {
	sort.SliceStable(containers, func(i, j int) bool {
		if !containers[i].CreatedAt.Equal(containers[j].CreatedAt) {
			return containers[i].CreatedAt.Before(containers[j].CreatedAt)
		}
		return containers[i].ContainerName < containers[j].ContainerName
	})
}

// containersResultJSON is the --json output of the containers command.
type containersResultJSON struct {
	Containers []model.ManagedContainer `json:"containers"`
}

// printContainersText writes containers as an aligned table.
func printContainersText(w io.Writer, containers []model.ManagedContainer) {
	if len(containers) == 0 {
		fmt.Fprintln(w, "No managed containers found.")
		return
	}

	fmt.Fprintf(w, "%-38s %-10s %-10s %-12s %s\n",
		"NAME", "PARAMS", "STATUS", "ID", "CREATED")

	for _, c := range containers {
		fmt.Fprintf(w, "%-38s %-10s %-10s %-12s %s\n",
			c.ContainerName,
			orDash(c.Params),
			c.Status,
			shortID(c.ContainerID),
			formatCreated(c),
		)
	}
}

// shortID truncates a container ID to the 12 characters Docker displays.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatCreated(c model.ManagedContainer) string {
	if c.CreatedAt.IsZero() {
		return "-"
	}
	return c.CreatedAt.Local().Format("2006-01-02 15:04:05")
}
