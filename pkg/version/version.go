// Package version exposes the build identity of the layerlint binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time via -ldflags "-X github.com/layerlint/layerlint/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// String returns a single-line human-readable version.
func String() string {
	v := Version

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}

	if Commit == "" {
		return v
	}

	if Date == "" {
		return fmt.Sprintf("%s (%s)", v, Commit)
	}

	return fmt.Sprintf("%s (%s, built %s)", v, Commit, Date)
}
