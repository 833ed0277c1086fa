// Package cli: scan.go implements the "sikraken-assist scan" command.
//
// The scan command prints the summary lines of an existing Sikraken session
// log without running anything. It applies the same patterns and the same
// non-fatal error handling as the scan step of "run".
package cli

import (
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
)

// scanResultJSON is the --json output of the scan command.
type scanResultJSON struct {
	LogFile string   `json:"logFile"`
	Matches []string `json:"matches"`
}

// NewScanCommand creates the "scan" cobra command.
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [log-file]",
		Short: "Print the summary lines of a session log",
		Long: `Print the lines of a Sikraken session log that report the session
results, the ECLiPSe CPU time, and the number of generated tests.

Without an argument the configured log file is scanned. A relative
argument is taken relative to the current directory.

Examples:
  sikraken-assist scan
  sikraken-assist scan ./test_run_Problem03_label00.log
  sikraken-assist scan --json`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args)
		},
	}
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.Close()

	path := env.cfg.ResolvedLogFile()
	if len(args) == 1 {
		if abs, err := filepath.Abs(args[0]); err == nil {
			path = abs
		} else {
			path = args[0]
		}
	}

	if !IsJSONOutput() {
		scanLog(env, path, cmd.OutOrStdout(), cmd.ErrOrStderr())
		return nil
	}

	matches := scanLog(env, path, io.Discard, cmd.ErrOrStderr())
	return printJSON(cmd.OutOrStdout(), scanResultJSON{LogFile: path, Matches: matches})
}
