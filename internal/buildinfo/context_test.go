package buildinfo

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContext_Version(t *testing.T) {
	tests := []struct {
		name string
		ctx  *Context
		want string
	}{
		{name: "nil context", ctx: nil, want: UnknownValue},
		{name: "empty version", ctx: NewContext("", "2026-01-01"), want: UnknownValue},
		{name: "valid version", ctx: NewContext("1.0.0", "2026-01-01"), want: "1.0.0"},
		{name: "pre-release tag", ctx: NewContext("1.0.0-beta.1", "2026-01-01"), want: "1.0.0-beta.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ctx.Version())
		})
	}
}

func TestContext_BuildDate(t *testing.T) {
	assert.Equal(t, UnknownValue, (*Context)(nil).BuildDate())
	assert.Equal(t, UnknownValue, NewContext("1.0.0", "").BuildDate())
	assert.Equal(t, "2026-01-01", NewContext("1.0.0", "2026-01-01").BuildDate())
}

func TestContext_String(t *testing.T) {
	ctx := NewContext("1.2.3", "2026-01-01")
	assert.Equal(t, runtime.Version(), ctx.GoVersion())
	assert.Equal(t, "aliendaw 1.2.3 (built 2026-01-01, "+runtime.Version()+")", ctx.String())
	assert.Equal(t, UnknownValue, (*Context)(nil).GoVersion())
}

func TestCurrent(t *testing.T) {
	ctx := Current()
	assert.NotNil(t, ctx)
	assert.NotEmpty(t, ctx.Version())
}
