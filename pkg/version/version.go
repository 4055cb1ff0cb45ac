// Package version holds the build version, overridable with
// -ldflags "-X adisglobe/pkg/version.Version=...".
package version

import (
	"runtime"
	"runtime/debug"
)

// Version is the application version.
var Version = "v0.1.0"

// Info describes the running build.
type Info struct {
	Version   string `json:"version"`
	GoVersion string `json:"go"`
	Revision  string `json:"revision,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
}

// Get returns the build description. Revision is only known for binaries
// built from a VCS checkout.
func Get() Info {
	info := Info{Version: Version, GoVersion: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}
