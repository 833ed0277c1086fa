// Package cli: run.go implements the "sikraken-assist run" command.
//
// The run command is the tool's main flow:
//  1. Draw [restarts,tries] from a generator seeded with the current second
//  2. Print and dispatch the Sikraken command from the configured workdir
//  3. Scan the session log and echo its summary lines
//
// Only an unusable workdir or a failure to launch the command fails the
// run. A missing log file or a bad scan pattern is reported on stderr and
// the run still exits 0.
package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/sikraken-assist/internal/command"
	"github.com/mmr-tortoise/sikraken-assist/internal/docker"
	"github.com/mmr-tortoise/sikraken-assist/internal/logscan"
	"github.com/mmr-tortoise/sikraken-assist/internal/model"
	"github.com/mmr-tortoise/sikraken-assist/internal/params"
)

// runFlags holds the flag values for the run command. A flag only
// overrides the configuration when it was set explicitly.
type runFlags struct {
	scan    bool
	workdir string
	logFile string
	backend string
	image   string
}

// NewRunCommand creates the "run" cobra command.
func NewRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run Sikraken once with a random budget",
		Long: `Draw a random [restarts,tries] budget, run Sikraken with it, and print
the summary lines of the session log.

Examples:
  sikraken-assist run
  sikraken-assist run --scan=false
  sikraken-assist run --workdir ~/Sikraken --log-file /tmp/session.log
  sikraken-assist run --backend docker --image sikraken/eclipse:7.1`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.scan, "scan", true, "Scan the session log after the run")
	cmd.Flags().StringVar(&flags.workdir, "workdir", "", "Sikraken checkout to run in")
	cmd.Flags().StringVar(&flags.logFile, "log-file", "", "Session log to scan (relative to the workdir)")
	cmd.Flags().StringVar(&flags.backend, "backend", "", "Execution backend: shell or docker")
	cmd.Flags().StringVar(&flags.image, "image", "", "Image for the docker backend")

	return cmd
}

// runResultJSON is the --json output of the run command.
type runResultJSON struct {
	Run     *model.RunResult `json:"run"`
	LogFile string           `json:"logFile,omitempty"`
	Matches []string         `json:"matches"`
}

// runRun is the main logic function for the run command. The root command
// also calls it, with no flags set.
func runRun(cmd *cobra.Command, flags *runFlags) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.Close()

	if err := applyRunFlags(cmd, flags, env); err != nil {
		return err
	}
	cfg := env.cfg

	// In JSON mode stdout carries only the final document.
	out := cmd.OutOrStdout()
	progress := out
	if IsJSONOutput() {
		progress = cmd.ErrOrStderr()
	}

	gen := params.NewTimeSeeded(cfg.Restarts, cfg.Tries)
	p := gen.Draw()

	runner, release, err := newRunner(cmd.Context(), env)
	if err != nil {
		return err
	}
	defer release()

	d := newDispatcher(env, runner, progress, cmd.ErrOrStderr())
	run, err := d.Dispatch(cmd.Context(), p)
	if err != nil {
		return err
	}

	result := runResultJSON{Run: run, Matches: []string{}}
	if cfg.Scan.Enabled {
		result.LogFile = cfg.ResolvedLogFile()
		result.Matches = scanLog(env, result.LogFile, progress, cmd.ErrOrStderr())
	}

	if IsJSONOutput() {
		return printJSON(out, result)
	}
	return nil
}

// applyRunFlags copies explicitly set flags into the loaded configuration.
func applyRunFlags(cmd *cobra.Command, flags *runFlags, env *appEnv) error {
	cfg := env.cfg
	changed := cmd.Flags().Changed

	if changed("scan") {
		cfg.Scan.Enabled = flags.scan
	}
	if changed("workdir") {
		cfg.Workdir = flags.workdir
	}
	if changed("log-file") {
		cfg.LogFile = flags.logFile
	}
	if changed("backend") {
		if _, err := model.ParseBackend(flags.backend); err != nil {
			return model.WrapCLIError(model.ExitInvalidConfig, "invalid --backend", err)
		}
		cfg.Backend = flags.backend
	}
	if changed("image") {
		cfg.Docker.Image = flags.image
	}

	if cfg.BackendKind() == model.BackendDocker && cfg.Docker.Image == "" {
		return model.NewCLIError(model.ExitInvalidConfig, "the docker backend requires an image (--image or docker.image)")
	}
	return nil
}

// newRunner builds the configured backend. The release function must be
// called when the runner is no longer needed.
func newRunner(ctx context.Context, env *appEnv) (command.Runner, func(), error) {
	if env.cfg.BackendKind() != model.BackendDocker {
		return command.NewShellRunner(), func() {}, nil
	}

	c, err := docker.NewClient()
	if err != nil {
		return nil, nil, err
	}
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	env.log.Debug("connected to Docker daemon", "image", env.cfg.Docker.Image)

	runner := &docker.ContainerRunner{
		Client:    c,
		Image:     env.cfg.Docker.Image,
		MountPath: env.cfg.Docker.MountPath,
		Keep:      env.cfg.Docker.Keep,
		Logger:    env.log,
	}
	return runner, func() { _ = c.Close() }, nil
}

// newDispatcher wires the configured template and workdir to runner.
func newDispatcher(env *appEnv, runner command.Runner, out, errOut io.Writer) *command.Dispatcher {
	return &command.Dispatcher{
		Template: env.cfg.Command,
		Runner:   runner,
		Workdir:  env.cfg.Workdir,
		Backend:  env.cfg.BackendKind(),
		Out:      out,
		Err:      errOut,
		Logger:   env.log,
	}
}

// scanLog echoes the summary lines of the log at path to w and returns
// them without their line endings. Failures are reported on errOut and
// yield no matches; they never fail the command.
func scanLog(env *appEnv, path string, w, errOut io.Writer) []string {
	matcher, err := logscan.Compile(env.cfg.Scan.Patterns)
	if err != nil {
		fmt.Fprintf(errOut, "Error compiling regex: %v\n", err)
		env.log.Debug("scan abandoned", "reason", "pattern compile failed", "error", err)
		return []string{}
	}

	var captured bytes.Buffer
	scanner := logscan.NewScanner(matcher, env.cfg.Scan.MaxLineLength)
	n, err := scanner.ScanFile(path, io.MultiWriter(w, &captured))
	if err != nil {
		fmt.Fprintf(errOut, "Error opening log file: %v\n", err)
		env.log.Debug("scan abandoned", "path", path, "error", err)
		return []string{}
	}
	env.log.Debug("log scanned", "path", path, "matches", n)

	return splitLines(captured.String())
}

// splitLines splits s into lines, dropping line endings and a trailing
// empty element.
func splitLines(s string) []string {
	lines := []string{}
	for _, line := range strings.SplitAfter(s, "\n") {
		if line == "" {
			continue
		}
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}
	return lines
}
