// Package version identifies a tinyhttp-server build.
//
// Release builds stamp both values with the linker:
//
//	go build -ldflags="-X github.com/jobinpa/tinyhttp/internal/version.Version=v0.3.0 \
//	                   -X github.com/jobinpa/tinyhttp/internal/version.Commit=abc123" \
//	    ./cmd/tinyhttp-server
//
// A plain "go build" inside a checkout falls back to the VCS stamp Go embeds.
// The version then reads "devel+<commit date>" and a local edit marks the
// commit "+dirty".
package version

import (
	"runtime/debug"
	"time"
)

// Binary is the program name shown by "version" and sent as User-Agent.
const Binary = "tinyhttp-server"

const (
	unstampedVersion = "devel"
	unknownCommit    = "none"
	shortCommitLen   = 7
)

var (
	// Version is the release tag, e.g. "v0.3.0"
	Version = ""
	// Commit is the abbreviated source revision
	Commit = ""
)

func init() {
	info, _ := debug.ReadBuildInfo()
	Version, Commit = resolve(Version, Commit, info)
}

// resolve fills whichever of version and commit the linker left empty from
// the VCS settings in info. info may be nil.
func resolve(version, commit string, info *debug.BuildInfo) (string, string) {
	var revision, modified, committed string
	if info != nil {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				revision = s.Value
			case "vcs.modified":
				modified = s.Value
			case "vcs.time":
				committed = s.Value
			}
		}
	}

	if commit == "" {
		commit = unknownCommit
		if revision != "" {
			commit = revision[:min(len(revision), shortCommitLen)]
			if modified == "true" {
				commit += "+dirty"
			}
		}
	}

	if version == "" {
		version = unstampedVersion
		if t, err := time.Parse(time.RFC3339, committed); err == nil {
			version += "+" + t.UTC().Format("2006-01-02")
		}
	}
	return version, commit
}

// Full returns "<version> (<commit>)" for the version command
func Full() string {
	return Version + " (" + Commit + ")"
}

// UserAgent is sent by the device client, e.g. "tinyhttp-server/v0.3.0"
func UserAgent() string {
	return Binary + "/" + Version
}
