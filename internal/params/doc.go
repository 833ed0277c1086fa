// Package params draws the [restarts,tries] budget passed to Sikraken.
//
// A Generator holds one pseudo-random source and two closed ranges. The
// production generator is seeded from the wall clock at second resolution,
// so two runs started within the same second draw the same values. The
// source is not cryptographic and no reproducibility across runs is
// promised; NewSeeded exists for tests and for the optimizer's --seed flag.
package params
