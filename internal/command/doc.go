// Package command formats and dispatches the Sikraken command line.
//
// The command is a single string handed to a shell, e.g.
//
//	./bin/sikraken.sh release regression[3,27] -m32 ./SampleCode/Problem03_label00.c
//
// Its script and source arguments are relative, so it must run from the
// Sikraken checkout. The working directory is passed to the child as a
// launch parameter (exec.Cmd.Dir, or a bind mount for the docker backend);
// the calling process never changes its own directory.
//
// Only two outcomes are failures here: the working directory is unusable
// (nothing is launched), or the shell could not be started. The child's
// own exit status is recorded in the Result but is not treated as an error.
package command
