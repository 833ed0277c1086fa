// Package cli implements the cobra-based CLI commands for sikraken-assist.
//
// Each subcommand (run, scan, optimize, containers, prune) is defined in its
// own file within this package. This file defines the root command, the
// global flags, and the shared setup that loads configuration and builds
// the logger.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/sikraken-assist/internal/config"
	"github.com/mmr-tortoise/sikraken-assist/internal/logger"
	"github.com/mmr-tortoise/sikraken-assist/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command.
var (
	// jsonOutput switches command results to a single JSON document on
	// stdout. Progress and child output move to stderr.
	jsonOutput bool

	// verbose forces debug-level logging.
	verbose bool

	// configPath is the --config flag. Empty means the per-user default,
	// which may be absent.
	configPath string

	// logLevel overrides logger.level from the config when non-empty.
	logLevel string
)

// Build-time version information, injected from the main package.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
//
// Invoked without a subcommand, the root command performs a run with
// default flags: draw parameters, dispatch Sikraken, and scan its log.
func NewRootCommand() *cobra.Command {
	defaults := &runFlags{}

	rootCmd := &cobra.Command{
		Use:   "sikraken-assist",
		Short: "Run Sikraken with randomly drawn search budgets",
		Long: `sikraken-assist drives the Sikraken test generator.

It draws a random [restarts,tries] budget, runs Sikraken's regression mode
on a benchmark from the Sikraken checkout, and prints the summary lines of
the session log. It can also search for the budget that gives the best
TestCov coverage.

Running sikraken-assist without a subcommand is the same as "sikraken-assist run".`,

		// SilenceUsage prevents cobra from printing usage on every error.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// Execute formats them (text or JSON based on --json flag).
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, defaults)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (YAML, or JSON with comments by .json/.jsonc extension)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewScanCommand())
	rootCmd.AddCommand(NewOptimizeCommand())
	rootCmd.AddCommand(NewContainersCommand())
	rootCmd.AddCommand(NewPruneCommand())

	return rootCmd
}

// Execute runs the root command and exits the process with the code the
// error carries. CLIError types carry their own exit codes; other errors
// default to exit code 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(int(HandleError(err, os.Stderr)))
	}
}

// HandleError prints err to w and returns the exit code for it.
func HandleError(err error, w io.Writer) model.ExitCode {
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		printError(w, cliErr.Message, cliErr.Err)
		return cliErr.Code
	}

	printError(w, err.Error(), nil)
	return model.ExitGeneralError
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(w io.Writer, message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode; stdout is reserved for
		// successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}

// appEnv is the loaded configuration and logger shared by a command run.
type appEnv struct {
	cfg    *config.Config
	log    *slog.Logger
	closer func() error
}

// Close releases the logger's output file, if any.
func (e *appEnv) Close() {
	if e.closer != nil {
		_ = e.closer()
	}
}

// setup loads the configuration and builds the logger. An explicit
// --config file must exist; the per-user default may be absent.
func setup() (*appEnv, error) {
	path, required := configPath, true
	if path == "" {
		path, required = config.DefaultPath(), false
	}

	cfg, err := config.Load(path, required)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidConfig, "failed to load configuration", err)
	}

	if logLevel != "" {
		cfg.Logger.Level = logLevel
		if err := config.Validate(cfg); err != nil {
			return nil, model.WrapCLIError(model.ExitInvalidConfig, "invalid --log-level", err)
		}
	}
	if verbose {
		cfg.Logger.Level = "debug"
	}

	log, closer, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidConfig, "failed to initialise logging", err)
	}

	log.Debug("configuration loaded", "path", path, "workdir", cfg.Workdir, "backend", cfg.Backend)
	return &appEnv{cfg: cfg, log: log, closer: closer}, nil
}

// printJSON writes v to w as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to encode JSON output", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
