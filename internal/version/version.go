// Package version exposes build metadata set via -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time:
//
//	go build -ldflags "-X sumcache/internal/version.Version=v1.2.3 -X sumcache/internal/version.Commit=$(git rev-parse --short HEAD)"
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns a one-line description of the build.
func Info() string {
	return fmt.Sprintf("sumcache %s (commit %s, built %s, %s)", Version, Commit, Date, runtime.Version())
}
