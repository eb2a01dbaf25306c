// Package buildinfo reports which dancespec build produced a document.
//
// Release builds stamp the values with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/dancespec/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/dancespec/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/dancespec/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Unstamped builds (go install, go run) fall back to the module version and
// VCS settings recorded by the toolchain.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// Stamped by ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the resolved build information.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

var (
	readOnce sync.Once
	embedded Info
)

// Current returns the stamped values, filling unstamped ones from the
// binary's embedded build info.
func Current() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date}
	readOnce.Do(func() { embedded = fromBuildInfo(debug.ReadBuildInfo()) })
	if info.Version == "dev" && embedded.Version != "" {
		info.Version = embedded.Version
	}
	if info.Commit == "none" && embedded.Commit != "" {
		info.Commit = embedded.Commit
	}
	if info.Date == "unknown" && embedded.Date != "" {
		info.Date = embedded.Date
	}
	return info
}

func fromBuildInfo(bi *debug.BuildInfo, ok bool) Info {
	var info Info
	if !ok || bi == nil {
		return info
	}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		info.Version = v
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
		case "vcs.time":
			info.Date = s.Value
		}
	}
	return info
}

// Template returns the version template string for cobra.
func Template() string {
	info := Current()
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", info.Version, info.Commit, info.Date)
}

// UserAgent identifies outgoing asset requests.
func UserAgent() string {
	return "dancespec/" + Current().Version
}
