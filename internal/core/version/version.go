// Package version reports build metadata stamped at link time
package version

import "fmt"

// BuildInfo describes one build of a namecensus binary
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// String renders the info on one line for --version output
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", b.Service, b.Version, b.Commit, b.Date)
}

// set with
// -ldflags "-X 'namecensus/internal/core/version.version=v0.1.0' -X 'namecensus/internal/core/version.commit=abcd'"
var (
	service = "namecensus-api"
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info returns the stamped build info of the API service
func Info() BuildInfo { return For(service) }

// For returns the stamped build info under another binary name
func For(name string) BuildInfo {
	return BuildInfo{Service: name, Version: version, Commit: commit, Date: date}
}
