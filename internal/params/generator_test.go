package params

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmr-tortoise/sikraken-assist/internal/model"
)

var defaultRange = model.Range{Min: 1, Max: 50}

// TestDraw_StaysInRange draws many times and checks every value against
// the closed interval.
func TestDraw_StaysInRange(t *testing.T) {
	g := NewSeeded(1, defaultRange, defaultRange)

	for i := 0; i < 5000; i++ {
		p := g.Draw()
		assert.True(t, defaultRange.Contains(p.Restarts), "restarts %d out of range", p.Restarts)
		assert.True(t, defaultRange.Contains(p.Tries), "tries %d out of range", p.Tries)
	}
}

// TestDraw_BoundsReachable verifies that both 1 and 50 are produced for
// each parameter. 5000 draws from 50 values makes a miss practically
// impossible for a fixed seed.
func TestDraw_BoundsReachable(t *testing.T) {
	g := NewSeeded(7, defaultRange, defaultRange)

	seenRestarts := map[int]bool{}
	seenTries := map[int]bool{}
	for i := 0; i < 5000; i++ {
		p := g.Draw()
		seenRestarts[p.Restarts] = true
		seenTries[p.Tries] = true
	}

	assert.True(t, seenRestarts[1], "restarts=1 should be reachable")
	assert.True(t, seenRestarts[50], "restarts=50 should be reachable")
	assert.True(t, seenTries[1], "tries=1 should be reachable")
	assert.True(t, seenTries[50], "tries=50 should be reachable")
	assert.Len(t, seenRestarts, 50)
	assert.Len(t, seenTries, 50)
}

// TestNewSeeded_Deterministic checks that equal seeds give equal sequences.
func TestNewSeeded_Deterministic(t *testing.T) {
	a := NewSeeded(42, defaultRange, defaultRange)
	b := NewSeeded(42, defaultRange, defaultRange)

	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Draw(), b.Draw())
	}
}

// TestDraw_SingleValueRange pins a degenerate range to its only value.
func TestDraw_SingleValueRange(t *testing.T) {
	g := NewSeeded(3, model.Range{Min: 9, Max: 9}, model.Range{Min: 1, Max: 1})

	assert.Equal(t, model.Params{Restarts: 9, Tries: 1}, g.Draw())
	assert.Equal(t, model.Range{Min: 9, Max: 9}, g.Restarts())
	assert.Equal(t, model.Range{Min: 1, Max: 1}, g.Tries())
}

func TestNewTimeSeeded_InRange(t *testing.T) {
	g := NewTimeSeeded(defaultRange, defaultRange)
	p := g.Draw()
	assert.True(t, defaultRange.Contains(p.Restarts))
	assert.True(t, defaultRange.Contains(p.Tries))
}

func TestFloat64AndPerm(t *testing.T) {
	g := NewSeeded(5, defaultRange, defaultRange)

	for i := 0; i < 100; i++ {
		f := g.Float64()
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 1.0)
	}
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, g.Perm(4))
}
