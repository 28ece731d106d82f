package engine

import (
	goruntime "runtime"
	"runtime/debug"
)

// moduleVersion returns the version of the named dependency linked into this
// binary, or "dev" when build info is unavailable.
func moduleVersion(path string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	for _, dep := range info.Deps {
		if dep.Path != path {
			continue
		}
		if dep.Replace != nil && dep.Replace.Version != "" {
			return dep.Replace.Version
		}
		return dep.Version
	}
	return "dev"
}

// platform identifies the machine code target of native artifacts.
func platform() string {
	return goruntime.GOOS + "/" + goruntime.GOARCH
}
