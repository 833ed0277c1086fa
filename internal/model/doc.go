// Package model defines the domain types for the sikraken-assist CLI.
//
// These types describe a single invocation of the Sikraken test generator:
// the drawn [restarts,tries] parameters, the command that was dispatched,
// and its outcome. Nothing here is persisted; every value is computed,
// used, and discarded within one process run.
//
// The package also defines CLIError and the ExitCode table, which the cli
// package uses to translate failures into process exit statuses.
package model
