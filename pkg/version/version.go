// Package version reports the build identity of the localekeys binary.
package version

import (
	"fmt"
	"runtime/debug"
)

const develVersion = "(devel)"

// Build identity, overridden at link time with
// -ldflags "-X github.com/Sumatoshi-tech/localekeys/pkg/version.Version=v1.0.0".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// InitBinaryVersion fills whatever the linker left at its default from the
// module and VCS metadata embedded by the go tool.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	apply(info)
}

func apply(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != develVersion {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == "none" {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == "unknown" {
				Date = setting.Value
			}
		}
	}
}

// String formats the build identity for the version command.
func String() string {
	return fmt.Sprintf("localekeys %s (commit: %s, built: %s)", Version, Commit, Date)
}
