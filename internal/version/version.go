// Package version holds pir-monitor build metadata injected via ldflags:
//
//	go build -ldflags "-X github.com/sweeney/pir-monitor/internal/version.Version=1.2.0 \
//	  -X github.com/sweeney/pir-monitor/internal/version.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/sweeney/pir-monitor/internal/version.BuildTime=$(date -u +%FT%TZ)"
package version

import "fmt"

// Set by the linker.
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// Full returns the daemon name with version, commit and build time, as
// logged at startup and printed by the version command.
func Full() string {
	return fmt.Sprintf("pir-monitor %s (commit %s, built %s)", Version, Commit, BuildTime)
}
