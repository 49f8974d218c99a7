package main

import "runtime/debug"

// version is set at release time with -ldflags "-X main.version=v0.1.0".
var version = ""

// getVersion prefers the linked version, then the module version recorded by
// "go install module@version", and falls back to "dev".
func getVersion() string {
	if version != "" {
		return version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}

	return "dev"
}
