package version

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/aliendaw/internal/buildinfo"
)

func TestCommandPrintsVersion(t *testing.T) {
	cmd := Command(buildinfo.NewContext("1.2.3", "2026-10-01"))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "aliendaw 1.2.3 (built 2026-10-01")
}
