package conf

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/aliendaw/internal/errors"
	"github.com/tphakala/aliendaw/internal/logger"
)

// Settings is the application configuration.
type Settings struct {
	Debug bool `yaml:"debug"`

	Audio     AudioSettings     `yaml:"audio"`
	Control   ControlSettings   `yaml:"control"`
	Log       LogSettings       `yaml:"log"`
	Telemetry TelemetrySettings `yaml:"telemetry"`
	Monitor   MonitorSettings   `yaml:"monitor"`
}

// AudioSettings selects and shapes the output stream. Zero numeric values
// keep what the device negotiates.
type AudioSettings struct {
	Backend        string      `yaml:"backend"` // malgo, oto or headless
	Device         string      `yaml:"device"`  // device name or ID; empty selects the default
	SampleRate     int         `yaml:"samplerate"`
	Channels       int         `yaml:"channels"`
	BufferFrames   int         `yaml:"bufferframes"`
	SampleFormat   string      `yaml:"sampleformat"` // f32 or f64; empty keeps the device's
	OverrunReports bool        `yaml:"overrunreports"`
	Tap            TapSettings `yaml:"tap"`
}

// TapSettings sizes the output tap used for recording.
type TapSettings struct {
	Enabled bool    `yaml:"enabled"`
	Seconds float64 `yaml:"seconds"`
}

// ControlSettings configures the HTTP control API.
type ControlSettings struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// LogSettings configures logging.
type LogSettings struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // empty disables file output
}

// TelemetrySettings configures error telemetry.
type TelemetrySettings struct {
	Sentry SentrySettings `yaml:"sentry"`
}

// SentrySettings configures the Sentry reporter. An empty DSN disables it.
type SentrySettings struct {
	DSN string `yaml:"dsn"`
}

// MonitorSettings tunes the stream report consumer.
type MonitorSettings struct {
	DuplicateWindow time.Duration `yaml:"duplicatewindow"`
	OverrunLogRate  time.Duration `yaml:"overrunlograte"`
}

const (
	configName = "config"
	envPrefix  = "ALIENDAW"
)

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads defaults, the config file and environment variables into a
// validated Settings. configFile overrides the search paths when set; a
// missing file in the search paths is not an error.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(configFile); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("operation", "validate").
			Build()
	}

	settingsInstance = settings
	return settings, nil
}

// initViper sets defaults, binds the environment and reads the config file.
func initViper(configFile string) error {
	setDefaultConfig()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := bindEnvVars(); err != nil {
		GetLogger().Warn("environment configuration issues", logger.Error(err))
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
		paths, err := GetDefaultConfigPaths()
		if err != nil {
			return err
		}
		for _, path := range paths {
			viper.AddConfigPath(path)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			GetLogger().Debug("no config file found, using defaults")
			return nil
		}
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "read_config").
			Context("file", configFile).
			Build()
	}
	GetLogger().Info("loaded config file", logger.String("file", viper.ConfigFileUsed()))
	return nil
}

// GetSettings returns the settings from the last successful Load.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// YAML renders settings as a config file.
func (s *Settings) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}

// SaveYAMLConfig writes settings to configPath through a temporary file and
// a rename so readers never see a partial file.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return errors.New(err).Component("conf").Category(errors.CategoryConfiguration).Build()
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fileError(err, "create_config_dir", dir)
	}
	tmp, err := os.CreateTemp(dir, "config-*.yaml")
	if err != nil {
		return fileError(err, "create_temp_config", dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fileError(err, "write_temp_config", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return fileError(err, "close_temp_config", tmpName)
	}
	if err := os.Rename(tmpName, configPath); err != nil {
		return fileError(err, "rename_config", configPath)
	}
	return nil
}

func fileError(err error, op, path string) error {
	return errors.New(err).
		Component("conf").
		Category(errors.CategoryFileIO).
		Context("operation", op).
		Context("path", path).
		Build()
}
