package devices

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/aliendaw/internal/audio"
)

func TestPrintDevices(t *testing.T) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, printDevices(cmd, []audio.DeviceInfo{
		{Index: 0, Name: "Speakers", ID: "hw:0,0", IsDefault: true},
		{Index: 1, Name: "HDMI", ID: "hw:1,3"},
	}))

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "NAME")
	assert.Contains(t, string(lines[1]), "Speakers")
	assert.Contains(t, string(lines[1]), "*")
	assert.NotContains(t, string(lines[2]), "*")
}

func TestPrintNoDevices(t *testing.T) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, printDevices(cmd, nil))
	assert.Equal(t, "No output devices found\n", out.String())
}
