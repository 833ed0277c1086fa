// Package cli: optimize.go implements the "sikraken-assist optimize" command.
//
// The optimize command searches for the [restarts,tries] budget that gives
// the highest TestCov coverage on the benchmark. Each candidate is scored by
// running Sikraken with it and then running TestCov; a candidate whose run
// fails scores 0. The search is a small genetic algorithm with tournament
// selection, single-point crossover, and per-gene mutation.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/sikraken-assist/internal/model"
	"github.com/mmr-tortoise/sikraken-assist/internal/optimize"
	"github.com/mmr-tortoise/sikraken-assist/internal/params"
	"github.com/mmr-tortoise/sikraken-assist/internal/testcov"
)

// optimizeFlags holds the flag values for the optimize command.
type optimizeFlags struct {
	population  int
	generations int
	tournament  int
	seed        uint64
}

// NewOptimizeCommand creates the "optimize" cobra command.
func NewOptimizeCommand() *cobra.Command {
	flags := &optimizeFlags{}
	defaults := optimize.DefaultSettings()

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Search for the budget with the best TestCov coverage",
		Long: `Search the [restarts,tries] space for the budget that maximises the
coverage TestCov measures on the tests Sikraken generates.

Every candidate costs one Sikraken run and one TestCov run, so a search
takes population x generations runs.

Examples:
  sikraken-assist optimize
  sikraken-assist optimize --population 6 --generations 4
  sikraken-assist optimize --seed 7 --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(cmd, flags)
		},
	}

	cmd.Flags().IntVar(&flags.population, "population", defaults.PopulationSize, "Individuals per generation")
	cmd.Flags().IntVar(&flags.generations, "generations", defaults.Generations, "Number of generations")
	cmd.Flags().IntVar(&flags.tournament, "tournament", defaults.TournamentSize, "Tournament size for selection")
	cmd.Flags().Uint64Var(&flags.seed, "seed", defaults.Seed, "Random seed for the search")

	return cmd
}

// optimizeResultJSON is the --json output of the optimize command.
type optimizeResultJSON struct {
	Settings optimize.Settings `json:"settings"`
	Outcome  *optimize.Outcome `json:"outcome"`
}

func runOptimize(cmd *cobra.Command, flags *optimizeFlags) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.Close()

	settings := env.cfg.Optimize
	changed := cmd.Flags().Changed
	if changed("population") {
		settings.PopulationSize = flags.population
	}
	if changed("generations") {
		settings.Generations = flags.generations
	}
	if changed("tournament") {
		settings.TournamentSize = flags.tournament
	}
	if changed("seed") {
		settings.Seed = flags.seed
	}
	if err := settings.Validate(); err != nil {
		return model.WrapCLIError(model.ExitInvalidConfig, "invalid optimizer settings", err)
	}

	out := cmd.OutOrStdout()
	progress := out
	if IsJSONOutput() {
		progress = cmd.ErrOrStderr()
	}

	runner, release, err := newRunner(cmd.Context(), env)
	if err != nil {
		return err
	}
	defer release()

	// Sikraken's own output would bury the progress lines.
	dispatcher := newDispatcher(env, runner, io.Discard, io.Discard)
	evaluator := &optimize.CoverageEvaluator{
		Dispatcher: dispatcher,
		Probe: &testcov.Probe{
			Runner:  runner,
			Command: env.cfg.TestCov.Command,
			Workdir: env.cfg.Workdir,
		},
		Out:    progress,
		Logger: env.log,
	}

	rng := params.NewSeeded(settings.Seed, env.cfg.Restarts, env.cfg.Tries)
	opt := optimize.New(settings, rng, evaluator)
	opt.Out = progress
	opt.Logger = env.log

	env.log.Debug("starting search",
		"population", settings.PopulationSize, "generations", settings.Generations, "seed", settings.Seed)

	outcome, err := opt.Run(cmd.Context())
	if err != nil {
		// A partial outcome means the context was cancelled mid-search.
		if outcome != nil {
			env.log.Warn("search interrupted", "generations_completed", len(outcome.Generations))
		}
		return model.WrapCLIError(model.ExitGeneralError, "optimization stopped", err)
	}

	if IsJSONOutput() {
		return printJSON(out, optimizeResultJSON{Settings: settings, Outcome: outcome})
	}

	fmt.Fprintf(out, "\nFinal best solution: %s\n", bestParams(outcome))
	fmt.Fprintf(out, "Coverage: %g%%\n", outcome.Fitness)
	return nil
}

// bestParams renders the winning budget, or "none" when every candidate
// scored 0.
func bestParams(o *optimize.Outcome) string {
	if !o.Found {
		return "none"
	}
	return o.Best.String()
}
