package command

import (
	"fmt"

	"github.com/mmr-tortoise/sikraken-assist/internal/model"
)

// Default template values. They reproduce the command the tool has always
// issued against the Problem03_label00 benchmark.
const (
	DefaultScript = "./bin/sikraken.sh"
	DefaultMode   = "release"
	DefaultBudget = "regression"
	DefaultArch   = "-m32"
	DefaultSource = "./SampleCode/Problem03_label00.c"
)

// Template describes the fixed parts of the Sikraken command line.
// The drawn Params are substituted into the bracketed budget argument.
type Template struct {
	// Script is the Sikraken launcher, relative to the working directory.
	Script string `yaml:"script" json:"script"`

	// Mode is the build mode argument ("release" or "debug").
	Mode string `yaml:"mode" json:"mode"`

	// Budget is the search budget keyword that takes [restarts,tries].
	Budget string `yaml:"budget" json:"budget"`

	// Arch is the data model flag passed through to the C front end.
	Arch string `yaml:"arch" json:"arch"`

	// Source is the C file under test, relative to the working directory.
	Source string `yaml:"source" json:"source"`
}

// DefaultTemplate returns the template for the stock benchmark.
func DefaultTemplate() Template {
	return Template{
		Script: DefaultScript,
		Mode:   DefaultMode,
		Budget: DefaultBudget,
		Arch:   DefaultArch,
		Source: DefaultSource,
	}
}

// Build renders the command line for p. Integers are rendered as plain
// decimal literals, so Params{3, 27} yields
//
//	./bin/sikraken.sh release regression[3,27] -m32 ./SampleCode/Problem03_label00.c
func (t Template) Build(p model.Params) string {
	return fmt.Sprintf("%s %s %s[%d,%d] %s %s",
		t.Script, t.Mode, t.Budget, p.Restarts, p.Tries, t.Arch, t.Source)
}

// Validate checks that no template part is empty. An empty part would
// shift Sikraken's positional arguments.
func (t Template) Validate() error {
	parts := []struct {
		name  string
		value string
	}{
		{"script", t.Script},
		{"mode", t.Mode},
		{"budget", t.Budget},
		{"arch", t.Arch},
		{"source", t.Source},
	}
	for _, p := range parts {
		if p.value == "" {
			return fmt.Errorf("command template %s must not be empty", p.name)
		}
	}
	return nil
}
