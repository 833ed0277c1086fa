package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/sikraken-assist/internal/model"
	"github.com/mmr-tortoise/sikraken-assist/internal/optimize"
)

// withTestCov adds a bin/run_testcov.sh running body to the checkout.
func withTestCov(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bin", "run_testcov.sh"), []byte("#!/bin/sh\n"+body), 0755))
}

func TestOptimize_ReportsBest(t *testing.T) {
	isolate(t)
	dir := newCheckout(t, "exit 0\n")
	withTestCov(t, dir, "echo 'Coverage:  62.5%'\n")
	t.Setenv("SIKRAKEN_ASSIST_WORKDIR", dir)

	stdout, _, err := execute(t, "optimize", "--population", "2", "--generations", "2", "--tournament", "1")
	require.NoError(t, err)

	assert.Contains(t, stdout, "\nGeneration 1/2\n")
	assert.Contains(t, stdout, "\nGeneration 2/2\n")
	assert.Regexp(t, `Parameters \[\d+,\d+\] achieved 62\.5% coverage`, stdout)
	assert.Regexp(t, regexp.MustCompile(`(?m)^Final best solution: \[\d+,\d+\]$`), stdout)
	assert.Contains(t, stdout, "\nCoverage: 62.5%\n")
	assert.NotContains(t, stdout, "Running command:", "Sikraken output is not shown during a search")
}

func TestOptimize_NothingScored(t *testing.T) {
	isolate(t)
	dir := newCheckout(t, "exit 1\n")
	withTestCov(t, dir, "echo 'Coverage: 90%'\n")
	t.Setenv("SIKRAKEN_ASSIST_WORKDIR", dir)

	stdout, _, err := execute(t, "optimize", "--population", "2", "--generations", "1", "--tournament", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Final best solution: none\n")
	assert.Contains(t, stdout, "Coverage: 0%\n")
}

func TestOptimize_JSON(t *testing.T) {
	isolate(t)
	dir := newCheckout(t, "exit 0\n")
	withTestCov(t, dir, "echo 'Coverage: 40%'\n")
	t.Setenv("SIKRAKEN_ASSIST_WORKDIR", dir)

	stdout, stderr, err := execute(t, "optimize", "--json",
		"--population", "3", "--generations", "2", "--tournament", "2", "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Generation 1/2")

	var got optimizeResultJSON
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, uint64(7), got.Settings.Seed)
	require.NotNil(t, got.Outcome)
	assert.True(t, got.Outcome.Found)
	assert.InDelta(t, 40.0, got.Outcome.Fitness, 1e-9)
	assert.Len(t, got.Outcome.Generations, 2)
	for _, g := range got.Outcome.Generations {
		assert.Len(t, g.Population, 3)
	}
}

func TestOptimize_InvalidSettings(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "optimize", "--population", "1")
	requireExitCode(t, err, model.ExitInvalidConfig)

	_, _, err = execute(t, "optimize", "--population", "4", "--tournament", "5")
	requireExitCode(t, err, model.ExitInvalidConfig)
}

func TestBestParams(t *testing.T) {
	outcome := &optimize.Outcome{}
	assert.Equal(t, "none", bestParams(outcome))

	outcome.Found = true
	outcome.Best = model.Params{Restarts: 12, Tries: 3}
	assert.Equal(t, "[12,3]", bestParams(outcome))
}
