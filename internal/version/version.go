// Package version holds the build-time version of dtaprep.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

var (
	// These variables are set during build time with -ldflags "-X ..."
	Version   = "0.2"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// maxListedDeps caps the dependency list of FullVersion
const maxListedDeps = 8

// BuildInfo contains build and runtime information
type BuildInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`

	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	NumCPU    int    `json:"num_cpu"`

	Module    string   `json:"module"`
	BuildDeps []Module `json:"build_deps"`
}

// Module represents a Go module dependency
type Module struct {
	Path    string `json:"path"`
	Version string `json:"version"`
}

// GetBuildInfo returns the build information of the running binary
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		NumCPU:    runtime.NumCPU(),
	}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	info.Module = buildInfo.Main.Path
	for _, setting := range buildInfo.Settings {
		// stamped by the go command when built from a checkout
		if setting.Key == "vcs.revision" && info.GitCommit == "unknown" {
			info.GitCommit = setting.Value
		}
	}
	for _, dep := range buildInfo.Deps {
		info.BuildDeps = append(info.BuildDeps, Module{
			Path:    dep.Path,
			Version: dep.Version,
		})
	}

	return info
}

// FullVersion returns a formatted string with complete version information
func FullVersion() string {
	return formatBuildInfo(GetBuildInfo())
}

func formatBuildInfo(info BuildInfo) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("dtaprep %s\n", info.Version))
	b.WriteString("========================================\n\n")

	b.WriteString("Build Information:\n")
	b.WriteString(fmt.Sprintf("  Version:      %s\n", info.Version))
	b.WriteString(fmt.Sprintf("  Build Date:   %s\n", info.BuildDate))
	b.WriteString(fmt.Sprintf("  Commit:       %s\n", info.GitCommit))
	if info.Module != "" {
		b.WriteString(fmt.Sprintf("  Module:       %s\n", info.Module))
	}
	b.WriteString("\n")

	b.WriteString("Runtime:\n")
	b.WriteString(fmt.Sprintf("  Go Version:   %s\n", info.GoVersion))
	b.WriteString(fmt.Sprintf("  Platform:     %s\n", info.Platform))
	b.WriteString(fmt.Sprintf("  CPUs:         %d\n", info.NumCPU))

	if len(info.BuildDeps) > 0 {
		b.WriteString("\nDependencies:\n")
		for _, dep := range info.BuildDeps[:min(maxListedDeps, len(info.BuildDeps))] {
			b.WriteString(fmt.Sprintf("  - %s@%s\n", dep.Path, dep.Version))
		}
		if len(info.BuildDeps) > maxListedDeps {
			b.WriteString(fmt.Sprintf("  ... and %d more\n", len(info.BuildDeps)-maxListedDeps))
		}
	}

	return b.String()
}
