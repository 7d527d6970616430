// Package version holds build information for the catalogai binary,
// injected with -ldflags:
//
//	go build -ldflags="-X github.com/54b3r/catalogai-go/internal/version.Version=v0.3.0 \
//	                    -X github.com/54b3r/catalogai-go/internal/version.Commit=abc1234 \
//	                    -X github.com/54b3r/catalogai-go/internal/version.BuildDate=2026-01-01"
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the semantic version, "dev" for local builds.
	Version = "dev"
	// Commit is the short git SHA.
	Commit = "unknown"
	// BuildDate is the UTC build date.
	BuildDate = "unknown"
)

// String renders the one-line version banner printed by `catalogai version`.
func String() string {
	return fmt.Sprintf("catalogai %s (commit %s, built %s, %s %s/%s)",
		Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
