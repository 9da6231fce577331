package devices

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tphakala/aliendaw/internal/audio"
	"github.com/tphakala/aliendaw/internal/audio/malgo"
)

// Command lists the playback devices of the platform backend.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List audio output devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := malgo.EnumerateDevices()
			if err != nil {
				return err
			}
			return printDevices(cmd, devices)
		},
	}

	return cmd
}

func printDevices(cmd *cobra.Command, devices []audio.DeviceInfo) error {
	if len(devices) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No output devices found")
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tNAME\tID\tDEFAULT")
	for _, d := range devices {
		def := ""
		if d.IsDefault {
			def = "*"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", d.Index, d.Name, d.ID, def)
	}
	return w.Flush()
}
