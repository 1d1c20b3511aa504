// Package app wires the fibeval command: it parses the configuration,
// dispatches to the selected mode and maps outcomes to exit codes.
package app

import (
	"fmt"
	"io"
	"runtime"
	"slices"
)

// Build metadata, overridden with -ldflags:
//
//	go build -ldflags="-X github.com/agbru/fibeval/internal/app.Version=v0.3.0 -X github.com/agbru/fibeval/internal/app.Commit=$(git rev-parse --short HEAD)" ./cmd/fibeval
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionFlags = []string{"--version", "-version", "-V"}

// HasVersionFlag reports whether args contain a version flag at any
// position, e.g. "fibeval -n 10 --version".
func HasVersionFlag(args []string) bool {
	return slices.ContainsFunc(args, func(arg string) bool {
		return slices.Contains(versionFlags, arg)
	})
}

// VersionData is the JSON form of the build and runtime information.
type VersionData struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetVersionInfo returns the build and runtime information.
func GetVersionInfo() VersionData {
	return VersionData{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// PrintVersion writes the version block shown by --version. With asJSON it
// writes VersionData instead.
func PrintVersion(out io.Writer, asJSON bool) {
	info := GetVersionInfo()
	if asJSON {
		writeJSON(out, info)
		return
	}
	fmt.Fprintf(out, "fibeval %s\n", info.Version)
	fmt.Fprintf(out, "  Commit:     %s\n", info.Commit)
	fmt.Fprintf(out, "  Built:      %s\n", info.BuildDate)
	fmt.Fprintf(out, "  Go version: %s\n", info.GoVersion)
	fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", info.OS, info.Arch)
}
