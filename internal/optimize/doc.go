// Package optimize searches the [restarts,tries] space for the budget that
// gives the highest test coverage.
//
// The search is a small generational genetic algorithm. Each individual is
// a model.Params; its fitness is the coverage percentage TestCov reports
// after Sikraken generated tests with that budget. Selection is by
// tournament, recombination is single-point crossover, and mutation
// redraws a gene from its configured range.
//
// Every evaluation runs Sikraken to completion, so individuals are
// evaluated one at a time and a full search can take hours.
package optimize
