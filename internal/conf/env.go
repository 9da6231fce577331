package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding ties a config key to an environment variable with an optional
// validator.
type envBinding struct {
	ConfigKey string
	EnvVar    string
	Validate  func(string) error
}

func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "ALIENDAW_DEBUG", validateEnvBool},
		{"audio.backend", "ALIENDAW_AUDIO_BACKEND", validateEnvBackend},
		{"audio.device", "ALIENDAW_AUDIO_DEVICE", nil},
		{"audio.samplerate", "ALIENDAW_AUDIO_SAMPLERATE", validateEnvNonNegativeInt},
		{"audio.channels", "ALIENDAW_AUDIO_CHANNELS", validateEnvNonNegativeInt},
		{"audio.bufferframes", "ALIENDAW_AUDIO_BUFFERFRAMES", validateEnvNonNegativeInt},
		{"audio.sampleformat", "ALIENDAW_AUDIO_SAMPLEFORMAT", validateEnvSampleFormat},
		{"control.listen", "ALIENDAW_CONTROL_LISTEN", nil},
		{"log.level", "ALIENDAW_LOG_LEVEL", validateEnvLogLevel},
		{"telemetry.sentry.dsn", "ALIENDAW_SENTRY_DSN", nil},
	}
}

// bindEnvVars binds every environment variable and reports invalid values.
// Invalid values are still bound; ValidateSettings rejects them later.
func bindEnvVars() error {
	var warnings []string
	for _, b := range getEnvBindings() {
		if err := viper.BindEnv(b.ConfigKey, b.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to bind %s: %v", b.EnvVar, err))
			continue
		}
		if b.Validate == nil {
			continue
		}
		if value := os.Getenv(b.EnvVar); value != "" {
			if err := b.Validate(value); err != nil {
				warnings = append(warnings, fmt.Sprintf("invalid %s value %q: %v", b.EnvVar, value, err))
			}
		}
	}
	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true/false, 1/0, t/f")
	}
	return nil
}

func validateEnvBackend(value string) error {
	if !isValidBackend(value) {
		return fmt.Errorf("must be one of %s", strings.Join(validBackends, ", "))
	}
	return nil
}

func validateEnvNonNegativeInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("not an integer: %w", err)
	}
	if n < 0 {
		return fmt.Errorf("must not be negative, got %d", n)
	}
	return nil
}

func validateEnvSampleFormat(value string) error {
	if !isValidSampleFormat(value) {
		return fmt.Errorf("must be f32 or f64")
	}
	return nil
}

func validateEnvLogLevel(value string) error {
	if !isValidLogLevel(value) {
		return fmt.Errorf("must be one of %s", strings.Join(validLogLevels, ", "))
	}
	return nil
}
