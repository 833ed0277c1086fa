package optimize

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mmr-tortoise/sikraken-assist/internal/model"
	"github.com/mmr-tortoise/sikraken-assist/internal/params"
)

// Evaluator scores one individual. Higher is better; 0 is the worst score
// and is used for any individual whose run failed.
type Evaluator interface {
	Evaluate(ctx context.Context, p model.Params) float64
}

// Settings are the genetic algorithm's tuning knobs.
type Settings struct {
	PopulationSize int     `yaml:"populationSize" json:"populationSize"`
	Generations    int     `yaml:"generations" json:"generations"`
	TournamentSize int     `yaml:"tournamentSize" json:"tournamentSize"`
	CrossoverRate  float64 `yaml:"crossoverRate" json:"crossoverRate"`
	MutationRate   float64 `yaml:"mutationRate" json:"mutationRate"`
	Seed           uint64  `yaml:"seed" json:"seed"`
}

// DefaultSettings returns ten generations of ten individuals with a fixed
// seed, so two searches over an unchanged benchmark draw the same budgets.
func DefaultSettings() Settings {
	return Settings{
		PopulationSize: 10,
		Generations:    10,
		TournamentSize: 3,
		CrossoverRate:  0.7,
		MutationRate:   0.2,
		Seed:           42,
	}
}

// Validate checks the settings for values the algorithm cannot run with.
func (s Settings) Validate() error {
	if s.PopulationSize < 2 {
		return fmt.Errorf("population size must be >= 2, got %d", s.PopulationSize)
	}
	if s.Generations < 1 {
		return fmt.Errorf("generations must be >= 1, got %d", s.Generations)
	}
	if s.TournamentSize < 1 || s.TournamentSize > s.PopulationSize {
		return fmt.Errorf("tournament size must be between 1 and the population size %d, got %d",
			s.PopulationSize, s.TournamentSize)
	}
	if s.CrossoverRate < 0 || s.CrossoverRate > 1 {
		return fmt.Errorf("crossover rate must be within [0,1], got %g", s.CrossoverRate)
	}
	if s.MutationRate < 0 || s.MutationRate > 1 {
		return fmt.Errorf("mutation rate must be within [0,1], got %g", s.MutationRate)
	}
	return nil
}

// GenerationReport summarises one evaluated generation.
type GenerationReport struct {
	Generation  int            `json:"generation"`
	Population  []model.Params `json:"population"`
	Fitnesses   []float64      `json:"fitnesses"`
	BestSoFar   model.Params   `json:"bestSoFar"`
	BestFitness float64        `json:"bestFitness"`
}

// Outcome is the result of a complete search.
type Outcome struct {
	// Best is the highest-scoring individual seen. It is only meaningful
	// when Found is true.
	Best model.Params `json:"best"`

	// Fitness is Best's score.
	Fitness float64 `json:"fitness"`

	// Found is false when every evaluation scored 0.
	Found bool `json:"found"`

	// Generations holds one report per generation, in order.
	Generations []GenerationReport `json:"generations"`
}

// Optimizer runs the genetic search.
type Optimizer struct {
	settings  Settings
	rng       *params.Generator
	evaluator Evaluator

	// Out receives the per-generation progress lines. Nil discards them.
	Out    io.Writer
	Logger *slog.Logger
}

// New creates an Optimizer. The generator supplies both the gene ranges
// and the randomness for selection, crossover, and mutation.
func New(settings Settings, rng *params.Generator, evaluator Evaluator) *Optimizer {
	return &Optimizer{settings: settings, rng: rng, evaluator: evaluator}
}

// Run performs the search. It stops early, returning the outcome so far and
// the context's error, if ctx is cancelled between evaluations.
func (o *Optimizer) Run(ctx context.Context) (*Outcome, error) {
	if err := o.settings.Validate(); err != nil {
		return nil, err
	}

	out := &Outcome{}
	population := o.initialPopulation()

	for gen := 1; gen <= o.settings.Generations; gen++ {
		o.printf("\nGeneration %d/%d\n", gen, o.settings.Generations)

		fitnesses := make([]float64, len(population))
		for i, ind := range population {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			fitnesses[i] = o.evaluator.Evaluate(ctx, ind)
			o.logger().Debug("evaluated individual",
				"generation", gen, "params", ind.String(), "fitness", fitnesses[i])
		}

		// Only a strict improvement replaces the incumbent, so ties keep
		// the earliest individual.
		for i, ind := range population {
			if fitnesses[i] > out.Fitness {
				out.Best = ind
				out.Fitness = fitnesses[i]
				out.Found = true
			}
		}

		out.Generations = append(out.Generations, GenerationReport{
			Generation:  gen,
			Population:  append([]model.Params(nil), population...),
			Fitnesses:   fitnesses,
			BestSoFar:   out.Best,
			BestFitness: out.Fitness,
		})

		population = o.nextGeneration(population, fitnesses)
		o.printf("Best solution so far: %s with coverage: %g%%\n", bestLabel(out), out.Fitness)
	}

	return out, nil
}

func (o *Optimizer) initialPopulation() []model.Params {
	pop := make([]model.Params, o.settings.PopulationSize)
	for i := range pop {
		pop[i] = o.rng.Draw()
	}
	return pop
}

// nextGeneration breeds a replacement population of the same size.
func (o *Optimizer) nextGeneration(population []model.Params, fitnesses []float64) []model.Params {
	next := make([]model.Params, 0, o.settings.PopulationSize+1)
	for len(next) < o.settings.PopulationSize {
		p1 := o.tournamentSelect(population, fitnesses)
		p2 := o.tournamentSelect(population, fitnesses)
		c1, c2 := o.crossover(p1, p2)
		next = append(next, o.mutate(c1), o.mutate(c2))
	}
	return next[:o.settings.PopulationSize]
}

// tournamentSelect samples TournamentSize distinct individuals and returns
// the fittest. Ties go to the first one sampled.
func (o *Optimizer) tournamentSelect(population []model.Params, fitnesses []float64) model.Params {
	contenders := o.rng.Perm(len(population))[:o.settings.TournamentSize]

	best := contenders[0]
	for _, idx := range contenders[1:] {
		if fitnesses[idx] > fitnesses[best] {
			best = idx
		}
	}
	return population[best]
}

// crossover swaps the tails of two parents after the single cut point.
// With two genes the only cut point is between Restarts and Tries.
func (o *Optimizer) crossover(p1, p2 model.Params) (model.Params, model.Params) {
	if o.rng.Float64() > o.settings.CrossoverRate {
		return p1, p2
	}
	return model.Params{Restarts: p1.Restarts, Tries: p2.Tries},
		model.Params{Restarts: p2.Restarts, Tries: p1.Tries}
}

// mutate redraws each gene with probability MutationRate.
func (o *Optimizer) mutate(p model.Params) model.Params {
	if o.rng.Float64() < o.settings.MutationRate {
		p.Restarts = o.rng.Intn(o.rng.Restarts())
	}
	if o.rng.Float64() < o.settings.MutationRate {
		p.Tries = o.rng.Intn(o.rng.Tries())
	}
	return p
}

func (o *Optimizer) printf(format string, args ...any) {
	if o.Out != nil {
		fmt.Fprintf(o.Out, format, args...)
	}
}

func (o *Optimizer) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

func bestLabel(out *Outcome) string {
	if !out.Found {
		return "none"
	}
	return out.Best.String()
}
