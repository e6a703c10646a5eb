// Package version holds build metadata for the repoviz binary.
package version

import (
	"fmt"
	"runtime"
)

// Overridden at build time:
// go build -ldflags "-X repoviz/internal/version.Version=0.3.0 -X repoviz/internal/version.Commit=$(git rev-parse HEAD)"
var (
	Version   = "0.3.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns the version with a short commit suffix when known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns multi-line build information for `repoviz version`.
func Full() string {
	return fmt.Sprintf("repoviz version %s\nCommit: %s\nBuilt: %s\nGo: %s %s/%s",
		Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent identifies repoviz to remote services such as git hosts.
func UserAgent() string {
	return "repoviz/" + Version
}
