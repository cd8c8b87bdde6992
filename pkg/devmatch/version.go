package devmatch

import "github.com/detectlab/devmatch-go/internal/bindings"

var (
	// Version is the wrapper's semantic version, populated at build time
	// via ldflags. In development it defaults to v0.0.0-dev.
	Version = "v0.0.0-dev"
)

// WrapperVersion returns the version of this Go wrapper.
func WrapperVersion() string {
	return Version
}

// EngineVersion returns the version string reported by the native engine,
// or "unavailable" when the bindings are not built in.
func EngineVersion() string {
	if v := bindings.Version(); v != "" {
		return v
	}
	return "unavailable"
}
