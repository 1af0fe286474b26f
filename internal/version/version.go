// Package version reports the build version of the wsecho binaries.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/wsecho/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/wsecho/internal/version.Commit=abc1234"
//
// Otherwise filled from the VCS stamp in the build info, falling back to
// "dev" and "unknown".
var (
	Version = ""
	Commit  = ""
)

func init() {
	if Version == "" || Commit == "" {
		fromBuildInfo(debug.ReadBuildInfo())
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

func fromBuildInfo(info *debug.BuildInfo, ok bool) {
	if !ok {
		return
	}

	if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if Commit != "" || revision == "" {
		return
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	Commit = revision
	if dirty {
		Commit += "-dirty"
	}
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent returns the User-Agent header value for the named binary
func UserAgent(binary string) string {
	return fmt.Sprintf("%s/%s", binary, Version)
}
