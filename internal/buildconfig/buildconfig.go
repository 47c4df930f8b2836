package buildconfig

import "runtime"

// Build-time variables injected via ldflags:
//
//	-X github.com/Gianlz/MedBayes/internal/buildconfig.version=v1.2.0
var (
	version = "dev"
	commit  = "unknown"
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// VersionInfo returns the version, commit and Go runtime of this build.
func VersionInfo() map[string]string {
	return map[string]string{
		"version":    version,
		"commit":     commit,
		"go_version": runtime.Version(),
	}
}
