package config

import (
	"fmt"
	"strings"

	"github.com/mmr-tortoise/sikraken-assist/internal/model"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// listing every problem found.
//
// The working directory is not required to exist here; that is checked at
// dispatch time so it can fail with its own exit code.
func Validate(cfg *Config) error {
	ve := &ValidationError{}

	if cfg.Workdir == "" {
		ve.Add("workdir must not be empty")
	}
	if cfg.LogFile == "" && cfg.Scan.Enabled {
		ve.Add("logFile must not be empty when scanning is enabled")
	}

	backend, err := model.ParseBackend(cfg.Backend)
	if err != nil {
		ve.Add("%v", err)
	}
	if backend == model.BackendDocker {
		if cfg.Docker.Image == "" {
			ve.Add("docker.image is required when backend is docker")
		}
		if !strings.HasPrefix(cfg.Docker.MountPath, "/") {
			ve.Add("docker.mountPath must be an absolute container path, got %q", cfg.Docker.MountPath)
		}
	}

	if err := cfg.Command.Validate(); err != nil {
		ve.Add("%v", err)
	}
	if err := cfg.Restarts.Validate(); err != nil {
		ve.Add("restarts: %v", err)
	}
	if err := cfg.Tries.Validate(); err != nil {
		ve.Add("tries: %v", err)
	}

	// Patterns are compiled when scanning starts; a bad one only abandons
	// the scan, so they are not validated here.
	if cfg.Scan.MaxLineLength < 0 {
		ve.Add("scan.maxLineLength must not be negative, got %d", cfg.Scan.MaxLineLength)
	}

	if cfg.TestCov.Command == "" {
		ve.Add("testcov.command must not be empty")
	}
	if err := cfg.Optimize.Validate(); err != nil {
		ve.Add("optimize: %v", err)
	}

	switch strings.ToLower(cfg.Logger.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		ve.Add("logger.level must be one of debug, info, warn, error, got %q", cfg.Logger.Level)
	}
	switch strings.ToLower(cfg.Logger.Format) {
	case "text", "json":
	default:
		ve.Add("logger.format must be text or json, got %q", cfg.Logger.Format)
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}
