// Package contracts holds the types shared between the engine, the HTTP API
// and the command line tool.
package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Name is the program name reported by every surface
	Name = "esgcli"

	// Version is the current version of the application
	Version = "0.3.0"

	// DataFormatVersion is the version of the annotated table format
	DataFormatVersion = "v1"

	// APIVersion is the version of the HTTP API
	APIVersion = "v1"
)

var (
	// BuildTime is set during build using ldflags
	BuildTime = "unknown"

	// GitCommit is set during build using ldflags
	GitCommit = "unknown"
)

// VersionInfo contains detailed version information
type VersionInfo struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	DataFormat   string `json:"data_format"`
	APIVersion   string `json:"api_version"`
}

// GetVersionInfo returns detailed version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Name:         Name,
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		DataFormat:   DataFormatVersion,
		APIVersion:   APIVersion,
	}
}

// GetVersionString returns a formatted version string
func GetVersionString() string {
	return fmt.Sprintf("%s v%s", Name, Version)
}

// String is the detailed one line form, e.g.
// "esgcli v0.3.0 (built: unknown, commit: unknown, go: go1.24.3, os: linux/amd64)".
func (v VersionInfo) String() string {
	return fmt.Sprintf("%s v%s (built: %s, commit: %s, go: %s, os: %s/%s)",
		v.Name, v.Version, v.BuildTime, v.GitCommit, v.GoVersion, v.OS, v.Architecture)
}

// GetFullVersionString returns a detailed version string
func GetFullVersionString() string {
	return GetVersionInfo().String()
}
