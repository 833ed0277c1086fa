// Package config loads sikraken-assist settings.
//
// With no config file, flags, or environment variables, the defaults issue
// exactly the stock Sikraken command against the stock checkout. A config file may be YAML or, by a .json/.jsonc extension,
// JSON with comments.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/sikraken-assist/internal/command"
	"github.com/mmr-tortoise/sikraken-assist/internal/logscan"
	"github.com/mmr-tortoise/sikraken-assist/internal/model"
	"github.com/mmr-tortoise/sikraken-assist/internal/optimize"
	"github.com/mmr-tortoise/sikraken-assist/internal/testcov"
)

// Defaults for the stock checkout and benchmark.
const (
	DefaultWorkdir = "/home/kacper_k/SikrakenUserAssistTool/Sikraken"
	DefaultLogFile = "sikraken_output/Problem03_label00/test_run_Problem03_label00.log"

	// DefaultMountPath is where the docker backend mounts the workdir.
	DefaultMountPath = "/work"
)

// Config is the complete settings tree.
type Config struct {
	// Workdir is the Sikraken checkout the command runs in.
	Workdir string `yaml:"workdir" json:"workdir"`

	// LogFile is the session log to scan. A relative path is resolved
	// against Workdir.
	LogFile string `yaml:"logFile" json:"logFile"`

	// Backend is "shell" or "docker".
	Backend string `yaml:"backend" json:"backend"`

	Command  command.Template  `yaml:"command" json:"command"`
	Restarts model.Range       `yaml:"restarts" json:"restarts"`
	Tries    model.Range       `yaml:"tries" json:"tries"`
	Scan     ScanConfig        `yaml:"scan" json:"scan"`
	TestCov  TestCovConfig     `yaml:"testcov" json:"testcov"`
	Optimize optimize.Settings `yaml:"optimize" json:"optimize"`
	Docker   DockerConfig      `yaml:"docker" json:"docker"`
	Logger   LoggerConfig      `yaml:"logger" json:"logger"`
}

// ScanConfig controls the log scanning step.
type ScanConfig struct {
	Enabled       bool              `yaml:"enabled" json:"enabled"`
	Patterns      []logscan.Pattern `yaml:"patterns" json:"patterns"`
	MaxLineLength int               `yaml:"maxLineLength" json:"maxLineLength"`
}

// TestCovConfig configures the coverage probe used by optimize.
type TestCovConfig struct {
	Command string `yaml:"command" json:"command"`
}

// DockerConfig configures the docker backend.
type DockerConfig struct {
	// Image must contain sh and the Sikraken toolchain.
	Image string `yaml:"image" json:"image"`

	// MountPath is where Workdir is bind-mounted inside the container.
	MountPath string `yaml:"mountPath" json:"mountPath"`

	// Keep leaves finished containers in place for inspection.
	Keep bool `yaml:"keep" json:"keep"`
}

// LoggerConfig configures diagnostic logging.
type LoggerConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // text, json
	Output string `yaml:"output" json:"output"` // stderr, stdout, or a file path
}

// Defaults returns a Config holding the built-in values.
func Defaults() *Config {
	return &Config{
		Workdir:  DefaultWorkdir,
		LogFile:  DefaultLogFile,
		Backend:  string(model.BackendShell),
		Command:  command.DefaultTemplate(),
		Restarts: model.Range{Min: 1, Max: 50},
		Tries:    model.Range{Min: 1, Max: 50},
		Scan: ScanConfig{
			Enabled:       true,
			Patterns:      logscan.DefaultPatterns(),
			MaxLineLength: logscan.DefaultMaxLineLength,
		},
		TestCov:  TestCovConfig{Command: testcov.DefaultCommand},
		Optimize: optimize.DefaultSettings(),
		Docker:   DockerConfig{MountPath: DefaultMountPath},
		Logger: LoggerConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
	}
}

// DefaultPath returns the per-user config file location,
// e.g. ~/.config/sikraken-assist/config.yaml on Linux.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sikraken-assist", "config.yaml")
}

// Load reads the config file at path over the defaults, applies
// environment overrides, and validates the result.
//
// When required is false a missing file is not an error; this is how the
// default path is loaded. An explicitly requested file must exist.
func Load(path string, required bool) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decode(path, data, cfg); err != nil {
				return nil, err
			}
		case os.IsNotExist(err) && !required:
			// Fall through to defaults.
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	ApplyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode parses data into cfg, choosing the format by file extension.
func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// jsonc.ToJSON strips comments and trailing commas so the standard
		// decoder can read hand-edited files.
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnvOverrides overwrites fields from SIKRAKEN_ASSIST_* variables.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SIKRAKEN_ASSIST_WORKDIR"); v != "" {
		cfg.Workdir = v
	}
	if v := os.Getenv("SIKRAKEN_ASSIST_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("SIKRAKEN_ASSIST_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("SIKRAKEN_ASSIST_DOCKER_IMAGE"); v != "" {
		cfg.Docker.Image = v
	}
	if v := os.Getenv("SIKRAKEN_ASSIST_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
}

// ResolvedLogFile returns LogFile as an absolute path, joining a relative
// path onto Workdir.
func (c *Config) ResolvedLogFile() string {
	if filepath.IsAbs(c.LogFile) {
		return c.LogFile
	}
	return filepath.Join(c.Workdir, c.LogFile)
}

// BackendKind returns the parsed backend. Validate guarantees it parses.
func (c *Config) BackendKind() model.Backend {
	b, err := model.ParseBackend(c.Backend)
	if err != nil {
		return model.BackendShell
	}
	return b
}
