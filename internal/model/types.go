package model

import (
	"fmt"
	"strings"
	"time"
)

// Backend identifies where the Sikraken command is executed.
type Backend string

const (
	// BackendShell runs the command through the host's sh -c.
	BackendShell Backend = "shell"

	// BackendDocker runs the command inside a container created from the
	// configured image, with the working directory bind-mounted.
	BackendDocker Backend = "docker"
)

// String returns the string representation of Backend.
func (b Backend) String() string {
	return string(b)
}

// IsValid reports whether b is one of the defined backends.
func (b Backend) IsValid() bool {
	switch b {
	case BackendShell, BackendDocker:
		return true
	default:
		return false
	}
}

// ParseBackend converts a string to a Backend. Matching is case-insensitive
// so that "Docker" from a config file or environment variable is accepted.
func ParseBackend(s string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(s)))
	if !b.IsValid() {
		return "", fmt.Errorf("invalid backend: %q (valid values: shell, docker)", s)
	}
	return b, nil
}

// Range is a closed integer interval [Min, Max].
type Range struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Contains reports whether n lies within the closed interval.
func (r Range) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

// Size returns the number of integers in the interval.
func (r Range) Size() int {
	return r.Max - r.Min + 1
}

// Validate checks that the range is non-empty and strictly positive.
// Sikraken rejects a zero restart or try budget, so Min must be at least 1.
func (r Range) Validate() error {
	if r.Min < 1 {
		return fmt.Errorf("range minimum must be >= 1, got %d", r.Min)
	}
	if r.Min > r.Max {
		return fmt.Errorf("range minimum %d exceeds maximum %d", r.Min, r.Max)
	}
	return nil
}

// String renders the range as "[min,max]".
func (r Range) String() string {
	return fmt.Sprintf("[%d,%d]", r.Min, r.Max)
}

// Params holds the two search-budget parameters passed to Sikraken.
// Their meaning belongs to Sikraken; this tool only draws and forwards them.
type Params struct {
	// Restarts is the number of search restarts.
	Restarts int `json:"restarts"`

	// Tries is the number of tries per restart.
	Tries int `json:"tries"`
}

// String renders the parameters in Sikraken's bracketed form, e.g. "[3,27]".
func (p Params) String() string {
	return fmt.Sprintf("[%d,%d]", p.Restarts, p.Tries)
}

// RunResult describes one dispatched Sikraken command.
type RunResult struct {
	// ID is a ULID assigned when the run starts. It is also attached as a
	// container label when the docker backend is used.
	ID string `json:"id"`

	// Command is the exact command line handed to the shell.
	Command string `json:"command"`

	// Workdir is the directory the command ran in.
	Workdir string `json:"workdir"`

	// Params are the drawn [restarts,tries] values.
	Params Params `json:"params"`

	// Backend is where the command ran.
	Backend Backend `json:"backend"`

	// ExitCode is the child's exit status. It is informational only;
	// a non-zero value does not fail the run.
	ExitCode int `json:"exitCode"`

	// Duration is the wall-clock time the command took.
	Duration time.Duration `json:"duration"`
}

// Succeeded reports whether the child exited with status 0.
func (r *RunResult) Succeeded() bool {
	return r.ExitCode == 0
}

// ManagedContainer is a container created by the docker backend,
// reconstructed from its labels.
type ManagedContainer struct {
	// ContainerID is the full Docker container ID.
	ContainerID string `json:"containerId"`

	// ContainerName is the Docker container name without the leading "/".
	ContainerName string `json:"containerName"`

	// RunID is the ULID of the run that created the container.
	RunID string `json:"runId"`

	// Params is the raw "[r,t]" label value.
	Params string `json:"params"`

	// Image is the image the container was created from.
	Image string `json:"image"`

	// Status is the Docker container state (e.g., "running", "exited").
	Status string `json:"status"`

	// CreatedAt is parsed from the created-at label.
	CreatedAt time.Time `json:"createdAt"`
}

// ExitCode defines the process exit codes of the CLI.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	// Non-fatal problems such as a missing log file still exit with this code.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitInvalidConfig indicates the configuration file or flags were invalid.
	ExitInvalidConfig ExitCode = 2

	// ExitWorkdirUnavailable indicates the working directory does not exist
	// or is not a directory. Nothing is executed in this case.
	ExitWorkdirUnavailable ExitCode = 3

	// ExitLaunchFailed indicates the shell itself could not be started.
	// It is distinct from the launched command exiting non-zero.
	ExitLaunchFailed ExitCode = 4

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 5

	// ExitUserCancelled indicates the user declined a confirmation prompt.
	ExitUserCancelled ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
