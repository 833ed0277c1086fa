// Package docker runs the Sikraken command inside a container.
//
// Sikraken needs ECLiPSe Prolog and a 32-bit capable C toolchain, which are
// often easier to ship as an image than to install on the host. With the
// docker backend the working directory is bind-mounted into a fresh
// container, the command runs there through sh -c, and the container is
// removed when it exits.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - Labels that tie each container to the run that created it
//   - Running a command to completion and streaming its output
//   - Listing and removing containers left behind (e.g., with docker.keep)
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
