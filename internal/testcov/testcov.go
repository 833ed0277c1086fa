// Package testcov measures the coverage achieved by the tests Sikraken
// generated, by running TestCov through Sikraken's wrapper script and
// reading the percentage it prints.
package testcov

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/mmr-tortoise/sikraken-assist/internal/command"
)

// DefaultCommand is the TestCov invocation for the stock benchmark.
const DefaultCommand = "./bin/run_testcov.sh ./SampleCode/Problem03_label00.c -32"

// coveragePattern matches TestCov's summary line, e.g. "Coverage:  87.5%".
var coveragePattern = regexp.MustCompile(`Coverage:\s+(\d+\.?\d*)%`)

// Parse returns the first coverage percentage found in output.
// The boolean is false when no summary line is present.
func Parse(output string) (float64, bool) {
	m := coveragePattern.FindStringSubmatch(output)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Probe runs TestCov and extracts the coverage percentage.
type Probe struct {
	Runner  command.Runner
	Command string
	Workdir string

	// Stderr receives TestCov's diagnostics. Nil discards them.
	Stderr io.Writer
}

// Measure runs the probe. It fails when TestCov cannot be launched, exits
// non-zero, or prints no coverage line.
func (p *Probe) Measure(ctx context.Context) (float64, error) {
	var stdout bytes.Buffer
	res, err := p.Runner.Run(ctx, command.Request{
		Command: p.Command,
		Workdir: p.Workdir,
		Stdout:  &stdout,
		Stderr:  p.Stderr,
	})
	if err != nil {
		return 0, err
	}
	if res.ExitCode != 0 {
		return 0, fmt.Errorf("testcov exited with status %d", res.ExitCode)
	}

	coverage, ok := Parse(stdout.String())
	if !ok {
		return 0, fmt.Errorf("testcov output has no coverage line")
	}
	return coverage, nil
}
