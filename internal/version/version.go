// Package version carries the build metadata stamped into the zof binaries.
//
// Release builds overwrite the defaults:
//
//	go build -ldflags "-X github.com/zerofn/zof/internal/version.Version=v0.3.0 \
//	  -X github.com/zerofn/zof/internal/version.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/zerofn/zof/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import "fmt"

// Set at build time via -ldflags; the defaults identify a local build.
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// String renders the one-line form the binaries print for --version.
func String() string {
	return fmt.Sprintf("zof %s (%s, built %s)", Version, Commit, BuildTime)
}
