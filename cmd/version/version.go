package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/aliendaw/internal/buildinfo"
)

// Command creates a new cobra.Command to print build metadata.
func Command(info *buildinfo.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of aliendaw",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return err
		},
	}

	return cmd
}
