// Package buildinfo holds build-time metadata injected with -ldflags.
package buildinfo

import (
	"runtime"
	"runtime/debug"
)

// UnknownValue is reported for metadata that was not set at build time.
const UnknownValue = "unknown"

// Set with -ldflags "-X github.com/tphakala/aliendaw/internal/buildinfo.version=..."
var (
	version   string
	buildDate string
)

// Context contains build-time metadata that is not user-configurable.
type Context struct {
	version   string
	buildDate string
	goVersion string
}

// NewContext creates a Context from explicit values.
func NewContext(version, buildDate string) *Context {
	return &Context{version: version, buildDate: buildDate, goVersion: runtime.Version()}
}

// Current returns the metadata of the running binary. Without ldflags it
// falls back to the module version recorded by the Go toolchain.
func Current() *Context {
	v := version
	if v == "" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	return NewContext(v, buildDate)
}

// Version returns the version string.
func (c *Context) Version() string {
	if c == nil || c.version == "" {
		return UnknownValue
	}
	return c.version
}

// BuildDate returns the build date string.
func (c *Context) BuildDate() string {
	if c == nil || c.buildDate == "" {
		return UnknownValue
	}
	return c.buildDate
}

// GoVersion returns the toolchain the binary was built with.
func (c *Context) GoVersion() string {
	if c == nil || c.goVersion == "" {
		return UnknownValue
	}
	return c.goVersion
}

// String formats the metadata for the version command.
func (c *Context) String() string {
	return "aliendaw " + c.Version() + " (built " + c.BuildDate() + ", " + c.GoVersion() + ")"
}
