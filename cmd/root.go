package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	configcmd "github.com/tphakala/aliendaw/cmd/config"
	"github.com/tphakala/aliendaw/cmd/devices"
	"github.com/tphakala/aliendaw/cmd/play"
	"github.com/tphakala/aliendaw/cmd/render"
	"github.com/tphakala/aliendaw/cmd/version"
	"github.com/tphakala/aliendaw/internal/buildinfo"
	"github.com/tphakala/aliendaw/internal/conf"
	"github.com/tphakala/aliendaw/internal/errors"
	"github.com/tphakala/aliendaw/internal/logger"
)

// sentryFlushTimeout bounds how long shutdown waits for queued telemetry.
const sentryFlushTimeout = 2 * time.Second

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "aliendaw",
		Short:         "Real-time synth graph player",
		SilenceUsage: true,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		GetLogger().Warn("failed to bind global flags", logger.Error(err))
	}

	versionCmd := version.Command(buildinfo.Current())
	configCmd := configcmd.Command(settings)

	rootCmd.AddCommand(
		play.Command(settings),
		render.Command(settings),
		devices.Command(),
		configCmd,
		versionCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Skip setup for commands that only print
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		if err := conf.ValidateSettings(settings); err != nil {
			return err
		}
		return initialize(settings)
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		errors.FlushSentry(sentryFlushTimeout)
		_ = logger.Global().Flush()
	}

	return rootCmd
}

// initialize sets up logging and telemetry once flags have been merged into settings.
func initialize(settings *conf.Settings) error {
	level := settings.Log.Level
	if settings.Debug {
		level = "debug"
	}
	cfg := &logger.LoggingConfig{
		DefaultLevel: level,
		Console:      &logger.ConsoleOutput{Enabled: true, Level: level},
	}
	if settings.Log.File != "" {
		cfg.FileOutput = &logger.FileOutput{Enabled: true, Path: settings.Log.File, Level: level}
	}
	cl, err := logger.NewCentralLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(cl)

	if err := errors.InitSentry(settings.Telemetry.Sentry.DSN, buildinfo.Current().Version()); err != nil {
		GetLogger().Warn("telemetry disabled", logger.Error(err))
	}
	return nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Audio.Backend, "backend", viper.GetString("audio.backend"), "Audio backend (malgo, oto, headless)")
	rootCmd.PersistentFlags().StringVar(&settings.Audio.Device, "device", viper.GetString("audio.device"), "Output device name or ID")
	rootCmd.PersistentFlags().IntVar(&settings.Audio.SampleRate, "samplerate", viper.GetInt("audio.samplerate"), "Sample rate override, 0 keeps the device rate")
	rootCmd.PersistentFlags().IntVar(&settings.Audio.Channels, "channels", viper.GetInt("audio.channels"), "Channel count override, 0 keeps the device layout")
	rootCmd.PersistentFlags().IntVar(&settings.Audio.BufferFrames, "bufferframes", viper.GetInt("audio.bufferframes"), "Frames per callback, 0 keeps the device default")
	rootCmd.PersistentFlags().StringVar(&settings.Audio.SampleFormat, "sampleformat", viper.GetString("audio.sampleformat"), "Sample format (f32, f64)")
	rootCmd.PersistentFlags().StringVar(&settings.Log.Level, "loglevel", viper.GetString("log.level"), "Log level (trace, debug, info, warn, error)")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
