package main

import (
	"runtime/debug"

	"github.com/mitaan/mitaan/cmd"
)

// Version is injected with -ldflags "-X main.Version=v1.2.3". Builds without
// it fall back to module or VCS information.
var Version = "dev"

func main() {
	cmd.SetVersion(resolveVersion(Version, debug.ReadBuildInfo))
	cmd.Execute()
}

// resolveVersion prefers an injected version, then the module version set
// by `go install module@vX.Y.Z`, then devel+<revision>[+dirty].
func resolveVersion(injected string, buildInfo func() (*debug.BuildInfo, bool)) string {
	if injected != "" && injected != "dev" {
		return injected
	}
	info, ok := buildInfo()
	if !ok || info == nil {
		return injected
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	if v := vcsVersion(info.Settings); v != "" {
		return v
	}
	return injected
}

func vcsVersion(settings []debug.BuildSetting) string {
	var rev string
	dirty := false
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return ""
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	v := "devel+" + rev
	if dirty {
		v += "+dirty"
	}
	return v
}
