// SPDX-License-Identifier: MIT

// Package version exposes build metadata set via ldflags.
package version

import "fmt"

var (
	Version   = "1.1.0"
	Commit    = "none"
	BuildDate = "unknown"
)

// String returns a human-readable version line.
func String() string {
	return fmt.Sprintf("epgshift %s (commit: %s, built: %s)", Version, Commit, BuildDate)
}
