package common

import (
	"runtime"
	"runtime/debug"
)

var (
	// Set with -ldflags "-X github.com/kairos-io/go-cuckoo/internal/common.version=..."
	version   = "v0.0.0"
	gitCommit = ""
	buildDate = ""
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version,omitempty"`
	GitCommit string `json:"gitCommit,omitempty"`
	BuildDate string `json:"buildDate,omitempty"`
	GoVersion string `json:"goVersion,omitempty"`
	Platform  string `json:"platform,omitempty"`
}

func init() {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, bs := range bi.Settings {
		switch bs.Key {
		case "vcs.revision":
			if gitCommit == "" && len(bs.Value) > 6 {
				gitCommit = bs.Value[0:6]
			}
		case "vcs.time":
			if buildDate == "" {
				buildDate = bs.Value
			}
		}
	}
}

func GetVersion() string {
	return version
}

func Get() BuildInfo {
	return BuildInfo{
		Version:   GetVersion(),
		GitCommit: gitCommit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}
