// Package arcwire is the root of the arcwire module, a Go runtime for the
// A2A (Agent-to-Agent) protocol. The protocol data model lives in pkg/a2a,
// the client side in pkg/client, and the server side in pkg/server; the
// arcwire command under cmd/arcwire runs a reference agent and a shell
// client.
package arcwire

import (
	"fmt"
	"runtime"
)

// Version information, overridable at link time.
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetBuildInfo returns the build information of this binary.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a single-line version string.
func (i BuildInfo) String() string {
	return fmt.Sprintf("arcwire %s (built %s, commit %s, %s %s)",
		i.Version, i.BuildDate, i.GitCommit, i.GoVersion, i.Platform)
}
