package optimize

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/sikraken-assist/internal/model"
	"github.com/mmr-tortoise/sikraken-assist/internal/params"
)

var geneRange = model.Range{Min: 1, Max: 50}

// funcEvaluator adapts a plain function and counts calls.
type funcEvaluator struct {
	fn    func(model.Params) float64
	calls int
}

func (f *funcEvaluator) Evaluate(_ context.Context, p model.Params) float64 {
	f.calls++
	return f.fn(p)
}

// peakAt scores individuals by closeness to a target, 100 at the target.
func peakAt(target model.Params) func(model.Params) float64 {
	return func(p model.Params) float64 {
		d := abs(p.Restarts-target.Restarts) + abs(p.Tries-target.Tries)
		return 100 - float64(d)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func newOptimizer(settings Settings, eval Evaluator) *Optimizer {
	return New(settings, params.NewSeeded(settings.Seed, geneRange, geneRange), eval)
}

// TestRun_EvaluatesEveryIndividual checks the evaluation count and report
// shape for the default settings.
func TestRun_EvaluatesEveryIndividual(t *testing.T) {
	eval := &funcEvaluator{fn: peakAt(model.Params{Restarts: 25, Tries: 25})}
	o := newOptimizer(DefaultSettings(), eval)

	out, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 100, eval.calls, "10 generations x 10 individuals")
	require.Len(t, out.Generations, 10)
	for i, g := range out.Generations {
		assert.Equal(t, i+1, g.Generation)
		assert.Len(t, g.Population, 10)
		assert.Len(t, g.Fitnesses, 10)
		for _, p := range g.Population {
			assert.True(t, geneRange.Contains(p.Restarts))
			assert.True(t, geneRange.Contains(p.Tries))
		}
	}
	assert.True(t, out.Found)
}

// TestRun_BestIsMaximumSeen verifies that the reported best equals the
// highest fitness across every evaluation and never decreases.
func TestRun_BestIsMaximumSeen(t *testing.T) {
	eval := &funcEvaluator{fn: peakAt(model.Params{Restarts: 40, Tries: 7})}
	o := newOptimizer(DefaultSettings(), eval)

	out, err := o.Run(context.Background())
	require.NoError(t, err)

	maxSeen := 0.0
	prevBest := 0.0
	for _, g := range out.Generations {
		for _, f := range g.Fitnesses {
			if f > maxSeen {
				maxSeen = f
			}
		}
		assert.GreaterOrEqual(t, g.BestFitness, prevBest, "best must never decrease")
		prevBest = g.BestFitness
	}
	assert.Equal(t, maxSeen, out.Fitness)
	assert.Equal(t, peakAt(model.Params{Restarts: 40, Tries: 7})(out.Best), out.Fitness)
}

// TestRun_DeterministicForSeed runs the same search twice.
func TestRun_DeterministicForSeed(t *testing.T) {
	fn := peakAt(model.Params{Restarts: 10, Tries: 30})

	a, err := newOptimizer(DefaultSettings(), &funcEvaluator{fn: fn}).Run(context.Background())
	require.NoError(t, err)
	b, err := newOptimizer(DefaultSettings(), &funcEvaluator{fn: fn}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

// TestRun_AllZero reports no solution when every run failed.
func TestRun_AllZero(t *testing.T) {
	settings := DefaultSettings()
	settings.Generations = 2
	var progress bytes.Buffer
	o := newOptimizer(settings, &funcEvaluator{fn: func(model.Params) float64 { return 0 }})
	o.Out = &progress

	out, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, out.Found)
	assert.Zero(t, out.Fitness)
	assert.Contains(t, progress.String(), "Generation 1/2")
	assert.Contains(t, progress.String(), "Generation 2/2")
	assert.Contains(t, progress.String(), "Best solution so far: none with coverage: 0%")
}

// TestRun_Cancelled stops between evaluations.
func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	eval := &funcEvaluator{}
	eval.fn = func(model.Params) float64 {
		if eval.calls == 3 {
			cancel()
		}
		return 1
	}

	out, err := newOptimizer(DefaultSettings(), eval).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotNil(t, out)
	assert.Equal(t, 3, eval.calls)
}

func TestRun_InvalidSettings(t *testing.T) {
	settings := DefaultSettings()
	settings.TournamentSize = 20

	_, err := newOptimizer(settings, &funcEvaluator{fn: func(model.Params) float64 { return 1 }}).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tournament size")
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		errText string
	}{
		{name: "defaults", mutate: func(*Settings) {}},
		{name: "tiny population", mutate: func(s *Settings) { s.PopulationSize = 1 }, errText: "population size"},
		{name: "no generations", mutate: func(s *Settings) { s.Generations = 0 }, errText: "generations"},
		{name: "zero tournament", mutate: func(s *Settings) { s.TournamentSize = 0 }, errText: "tournament size"},
		{name: "crossover above one", mutate: func(s *Settings) { s.CrossoverRate = 1.5 }, errText: "crossover rate"},
		{name: "negative mutation", mutate: func(s *Settings) { s.MutationRate = -0.1 }, errText: "mutation rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.errText == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

// TestCrossover covers both branches with rates that force them.
func TestCrossover(t *testing.T) {
	p1 := model.Params{Restarts: 1, Tries: 2}
	p2 := model.Params{Restarts: 3, Tries: 4}

	always := DefaultSettings()
	always.CrossoverRate = 1
	c1, c2 := newOptimizer(always, nil).crossover(p1, p2)
	assert.Equal(t, model.Params{Restarts: 1, Tries: 4}, c1)
	assert.Equal(t, model.Params{Restarts: 3, Tries: 2}, c2)

	never := DefaultSettings()
	never.CrossoverRate = 0
	c1, c2 = newOptimizer(never, nil).crossover(p1, p2)
	assert.Equal(t, p1, c1)
	assert.Equal(t, p2, c2)
}

// TestMutate_RateBounds verifies that rate 0 keeps genes and rate 1 keeps
// them within range.
func TestMutate_RateBounds(t *testing.T) {
	p := model.Params{Restarts: 5, Tries: 6}

	never := DefaultSettings()
	never.MutationRate = 0
	assert.Equal(t, p, newOptimizer(never, nil).mutate(p))

	always := DefaultSettings()
	always.MutationRate = 1
	o := newOptimizer(always, nil)
	for i := 0; i < 100; i++ {
		m := o.mutate(p)
		assert.True(t, geneRange.Contains(m.Restarts))
		assert.True(t, geneRange.Contains(m.Tries))
	}
}

// TestTournamentSelect_FullTournament picks the global best when every
// individual competes.
func TestTournamentSelect_FullTournament(t *testing.T) {
	settings := DefaultSettings()
	settings.PopulationSize = 4
	settings.TournamentSize = 4
	o := newOptimizer(settings, nil)

	pop := []model.Params{{Restarts: 1, Tries: 1}, {Restarts: 2, Tries: 2}, {Restarts: 3, Tries: 3}, {Restarts: 4, Tries: 4}}
	fit := []float64{10, 80, 30, 5}
	for i := 0; i < 10; i++ {
		assert.Equal(t, pop[1], o.tournamentSelect(pop, fit))
	}
}
