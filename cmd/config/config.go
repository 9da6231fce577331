package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/aliendaw/internal/conf"
	"github.com/tphakala/aliendaw/internal/logger"
)

// Command prints the effective configuration, or writes it with --write.
func Command(settings *conf.Settings) *cobra.Command {
	var writePath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long:  "Print the configuration after defaults, config file, environment and flags have been merged.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if writePath != "" {
				if err := conf.SaveYAMLConfig(writePath, settings); err != nil {
					return err
				}
				logger.Global().Module("cmd").Info("configuration written", logger.String("path", writePath))
				return nil
			}
			data, err := settings.YAML()
			if err != nil {
				return fmt.Errorf("error rendering configuration: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&writePath, "write", "", "Write the configuration to this file instead of printing it")

	return cmd
}
