package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Default values shared with command-line flags.
const (
	DefaultBackend        = "malgo"
	DefaultControlListen  = "127.0.0.1:8090"
	DefaultTapSeconds     = 2.0
	DefaultLogLevel       = "info"
	DefaultDuplicateDelay = 30 * time.Second
	DefaultOverrunLogRate = 5 * time.Second
)

// setDefaultConfig registers a default for every key so environment
// variables and Unmarshal see the full key set.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("audio.backend", DefaultBackend)
	viper.SetDefault("audio.device", "")
	viper.SetDefault("audio.samplerate", 0)
	viper.SetDefault("audio.channels", 0)
	viper.SetDefault("audio.bufferframes", 0)
	viper.SetDefault("audio.sampleformat", "")
	viper.SetDefault("audio.overrunreports", true)
	viper.SetDefault("audio.tap.enabled", false)
	viper.SetDefault("audio.tap.seconds", DefaultTapSeconds)

	viper.SetDefault("control.enabled", false)
	viper.SetDefault("control.listen", DefaultControlListen)

	viper.SetDefault("log.level", DefaultLogLevel)
	viper.SetDefault("log.file", "")

	viper.SetDefault("telemetry.sentry.dsn", "")

	viper.SetDefault("monitor.duplicatewindow", DefaultDuplicateDelay)
	viper.SetDefault("monitor.overrunlograte", DefaultOverrunLogRate)
}
