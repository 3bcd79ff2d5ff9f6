// Package buildinfo replaces an earlier import of
// github.com/perforce/p4prometheus/version (a Perforce-specific build
// stamping helper with no equivalent in this domain) with the same
// Print(name string) string shape cmd/otreplay and cmd/otgraph call at
// startup.
package buildinfo

import "fmt"

// Version is overridden at build time via -ldflags.
var Version = "dev"

// Commit is overridden at build time via -ldflags.
var Commit = "none"

// Print formats a one-line version banner for a named binary.
func Print(name string) string {
	return fmt.Sprintf("%s version %s (%s)", name, Version, Commit)
}
