// Package cli: prune.go implements the "sikraken-assist prune" command.
//
// The prune command removes every container the docker backend created.
// Running containers are killed first. Unless --force is given, the
// command lists what it will remove and asks for confirmation.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/sikraken-assist/internal/docker"
	"github.com/mmr-tortoise/sikraken-assist/internal/model"
)

// pruneFlags holds the flag values for the prune command.
type pruneFlags struct {
	// force skips the interactive confirmation prompt when true.
	force bool
}

// NewPruneCommand creates the "prune" cobra command.
func NewPruneCommand() *cobra.Command {
	flags := &pruneFlags{}

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove containers created by the docker backend",
		Long: `Remove all containers created by the docker backend, including
running ones.

Unless --force is specified, the command prompts for confirmation.

Examples:
  sikraken-assist prune
  sikraken-assist prune --force`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrune(cmd, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Remove without confirmation")

	return cmd
}

// pruneResultJSON is the --json output of the prune command.
type pruneResultJSON struct {
	Action  string   `json:"action"`
	Removed []string `json:"removed"`
}

func runPrune(cmd *cobra.Command, flags *pruneFlags) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.Close()

	c, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	containers, err := docker.ListManagedContainers(cmd.Context(), c)
	if err != nil {
		return err
	}
	sortContainers(containers)

	out := cmd.OutOrStdout()
	if len(containers) == 0 {
		if IsJSONOutput() {
			return printJSON(out, pruneResultJSON{Action: "none", Removed: []string{}})
		}
		fmt.Fprintln(out, "No managed containers found.")
		return nil
	}

	if !flags.force {
		confirmed, err := promptConfirmation(cmd.InOrStdin(), cmd.ErrOrStderr(), containers)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to read user input", err)
		}
		if !confirmed {
			return model.NewCLIError(model.ExitUserCancelled, "operation cancelled by user")
		}
	}

	removed := make([]string, 0, len(containers))
	for _, mc := range containers {
		env.log.Debug("removing container", "name", mc.ContainerName, "id", shortID(mc.ContainerID))
		// force handles containers that are still running.
		if err := docker.RemoveContainer(cmd.Context(), c, mc.ContainerID, true); err != nil {
			return err
		}
		removed = append(removed, mc.ContainerName)
	}

	if IsJSONOutput() {
		return printJSON(out, pruneResultJSON{Action: "removed", Removed: removed})
	}
	fmt.Fprintf(out, "Removed %d container(s)\n", len(removed))
	return nil
}

// promptConfirmation lists the containers about to be removed on w and
// reads one line from r. Only "y" or "yes" confirms; EOF declines.
func promptConfirmation(r io.Reader, w io.Writer, containers []model.ManagedContainer) (bool, error) {
	fmt.Fprintf(w, "About to remove %d container(s):\n", len(containers))
	for _, c := range containers {
		fmt.Fprintf(w, "  - %s %s (%s)\n", c.ContainerName, orDash(c.Params), c.Status)
	}
	fmt.Fprint(w, "\nContinue? [y/N] ")

	// bufio.Scanner handles both LF and CRLF line endings.
	scanner := bufio.NewScanner(r)
	if scanner.Scan() {
		answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return answer == "y" || answer == "yes", nil
	}
	if err := scanner.Err(); err != nil {
		return false, err
	}
	return false, nil
}
