package params

import (
	"math/rand/v2"
	"time"

	"github.com/mmr-tortoise/sikraken-assist/internal/model"
)

// Generator draws independent uniform integers from two closed ranges.
// It is not safe for concurrent use.
type Generator struct {
	rng      *rand.Rand
	restarts model.Range
	tries    model.Range
}

// NewTimeSeeded creates a Generator seeded from the current Unix time
// in whole seconds.
func NewTimeSeeded(restarts, tries model.Range) *Generator {
	return NewSeeded(uint64(time.Now().Unix()), restarts, tries)
}

// NewSeeded creates a Generator with a fixed seed. The same seed and ranges
// always produce the same sequence of draws.
func NewSeeded(seed uint64, restarts, tries model.Range) *Generator {
	return &Generator{
		rng:      rand.New(rand.NewPCG(seed, 0)),
		restarts: restarts,
		tries:    tries,
	}
}

// Draw returns a fresh pair of parameters. Restarts is drawn before Tries.
func (g *Generator) Draw() model.Params {
	return model.Params{
		Restarts: g.Intn(g.restarts),
		Tries:    g.Intn(g.tries),
	}
}

// Intn draws a single uniform integer from r. The range must be valid;
// see model.Range.Validate.
func (g *Generator) Intn(r model.Range) int {
	return r.Min + g.rng.IntN(r.Size())
}

// Float64 returns a uniform value in [0.0, 1.0). The optimizer uses it for
// crossover and mutation coin flips so that one seed drives the whole search.
func (g *Generator) Float64() float64 {
	return g.rng.Float64()
}

// Perm returns a pseudo-random permutation of [0, n).
func (g *Generator) Perm(n int) []int {
	return g.rng.Perm(n)
}

// Restarts returns the configured restarts range.
func (g *Generator) Restarts() model.Range {
	return g.restarts
}

// Tries returns the configured tries range.
func (g *Generator) Tries() model.Range {
	return g.tries
}
