// Package version reports what a codelab binary was built from: its own
// version and the versions of the engines that execute, bundle and mentor.
package version

import (
	"fmt"
	"io"
	"runtime/debug"
	"strings"
)

const defaultModule = "pkt.systems/codelab"

// buildVersion is set via -ldflags "-X pkt.systems/codelab/internal/version.buildVersion=...".
var buildVersion = ""

// Engines lists the modules whose versions change what a run produces.
var Engines = []Engine{
	{Name: "javascript", Path: "github.com/dop251/goja"},
	{Name: "bundler", Path: "github.com/evanw/esbuild"},
	{Name: "mentor", Path: "google.golang.org/genai"},
}

// Engine names a runtime dependency worth reporting.
type Engine struct {
	Name string
	Path string
}

// Dependency is a resolved module version.
type Dependency struct {
	Name    string
	Path    string
	Version string
}

// Report describes the running binary.
type Report struct {
	Module    string
	Version   string
	GoVersion string
	Engines   []Dependency
}

// Current returns the codelab version string.
func Current() string {
	return Read().Version
}

// Read builds a Report from the embedded build information.
func Read() Report {
	info, _ := debug.ReadBuildInfo()
	return fromBuildInfo(info)
}

func fromBuildInfo(info *debug.BuildInfo) Report {
	report := Report{Module: defaultModule, Version: "devel"}
	if info != nil {
		if p := strings.TrimSpace(info.Main.Path); p != "" {
			report.Module = p
		}
		report.GoVersion = info.GoVersion
		report.Version = mainVersion(info)
	}
	if v := strings.TrimSpace(buildVersion); v != "" {
		report.Version = v
	}
	for _, engine := range Engines {
		report.Engines = append(report.Engines, Dependency{
			Name:    engine.Name,
			Path:    engine.Path,
			Version: depVersion(info, engine.Path),
		})
	}
	return report
}

// mainVersion prefers a tagged module version, then the VCS revision stamped
// by go build.
func mainVersion(info *debug.BuildInfo) string {
	if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
		return v
	}
	var revision string
	var modified bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if revision == "" {
		return "devel"
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	v := "devel-" + revision
	if modified {
		v += "-dirty"
	}
	return v
}

func depVersion(info *debug.BuildInfo, modulePath string) string {
	if info == nil {
		return "unknown"
	}
	for _, dep := range info.Deps {
		if dep.Path != modulePath {
			continue
		}
		if dep.Replace != nil {
			if dep.Replace.Version != "" {
				return dep.Replace.Version + " (replaced)"
			}
			return "(replaced by " + dep.Replace.Path + ")"
		}
		return dep.Version
	}
	return "not linked"
}

// Write prints the report as aligned text.
func (r Report) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s %s\n", r.Module, r.Version); err != nil {
		return err
	}
	if r.GoVersion != "" {
		if _, err := fmt.Fprintf(w, "  %-10s %s\n", "go", r.GoVersion); err != nil {
			return err
		}
	}
	for _, dep := range r.Engines {
		if _, err := fmt.Fprintf(w, "  %-10s %s %s\n", dep.Name, dep.Path, dep.Version); err != nil {
			return err
		}
	}
	return nil
}
