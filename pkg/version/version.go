package version

import "runtime/debug"

// fallback is reported when the binary carries no module build info,
// e.g. a plain `go build` during local development.
var fallback = "dev"

// Version reports the module version recorded by the Go toolchain,
// falling back to the locally assigned string.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
		return info.Main.Version
	}
	return fallback
}

// Set overrides the fallback version, typically via -ldflags.
func Set(v string) {
	if v != "" {
		fallback = v
	}
}
