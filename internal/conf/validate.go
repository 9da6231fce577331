package conf

import (
	"fmt"
	"net"
	"slices"
	"strings"
)

var (
	validBackends  = []string{"malgo", "oto", "headless"}
	validLogLevels = []string{"trace", "debug", "info", "warn", "error"}
)

const (
	maxSampleRate = 384000
	maxChannels   = 32
	// oto only plays mono or stereo
	maxOtoChannels = 2
)

// ValidationError collects every problem found in the settings.
type ValidationError struct {
	Errors []string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings checks the whole Settings struct and normalizes
// case-insensitive values in place.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}
	ve.Errors = append(ve.Errors, validateAudioSettings(&settings.Audio)...)
	ve.Errors = append(ve.Errors, validateControlSettings(&settings.Control)...)
	ve.Errors = append(ve.Errors, validateLogSettings(&settings.Log)...)
	ve.Errors = append(ve.Errors, validateMonitorSettings(&settings.Monitor)...)

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateAudioSettings(a *AudioSettings) []string {
	var errs []string

	a.Backend = strings.ToLower(strings.TrimSpace(a.Backend))
	if !isValidBackend(a.Backend) {
		errs = append(errs, fmt.Sprintf("audio.backend %q must be one of %s", a.Backend, strings.Join(validBackends, ", ")))
	}

	if a.SampleRate < 0 || a.SampleRate > maxSampleRate {
		errs = append(errs, fmt.Sprintf("audio.samplerate must be between 0 and %d, got %d", maxSampleRate, a.SampleRate))
	}
	if a.Channels < 0 || a.Channels > maxChannels {
		errs = append(errs, fmt.Sprintf("audio.channels must be between 0 and %d, got %d", maxChannels, a.Channels))
	}
	if a.Backend == "oto" && a.Channels > maxOtoChannels {
		errs = append(errs, fmt.Sprintf("audio.channels must be 1 or 2 with the oto backend, got %d", a.Channels))
	}
	if a.BufferFrames < 0 {
		errs = append(errs, fmt.Sprintf("audio.bufferframes must not be negative, got %d", a.BufferFrames))
	}

	a.SampleFormat = strings.ToLower(strings.TrimSpace(a.SampleFormat))
	if a.SampleFormat != "" && !isValidSampleFormat(a.SampleFormat) {
		errs = append(errs, fmt.Sprintf("audio.sampleformat %q must be f32 or f64", a.SampleFormat))
	}
	if a.Backend != "headless" && a.SampleFormat == "f64" {
		errs = append(errs, fmt.Sprintf("audio.sampleformat f64 is only available with the headless backend, not %s", a.Backend))
	}

	if a.Tap.Enabled && a.Tap.Seconds <= 0 {
		errs = append(errs, fmt.Sprintf("audio.tap.seconds must be positive when the tap is enabled, got %g", a.Tap.Seconds))
	}
	return errs
}

func validateControlSettings(c *ControlSettings) []string {
	if !c.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return []string{fmt.Sprintf("control.listen %q is not host:port: %v", c.Listen, err)}
	}
	return nil
}

func validateLogSettings(l *LogSettings) []string {
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	if !isValidLogLevel(l.Level) {
		return []string{fmt.Sprintf("log.level %q must be one of %s", l.Level, strings.Join(validLogLevels, ", "))}
	}
	return nil
}

func validateMonitorSettings(m *MonitorSettings) []string {
	var errs []string
	if m.DuplicateWindow < 0 {
		errs = append(errs, fmt.Sprintf("monitor.duplicatewindow must not be negative, got %s", m.DuplicateWindow))
	}
	if m.OverrunLogRate < 0 {
		errs = append(errs, fmt.Sprintf("monitor.overrunlograte must not be negative, got %s", m.OverrunLogRate))
	}
	return errs
}

func isValidBackend(s string) bool {
	return slices.Contains(validBackends, strings.ToLower(s))
}

func isValidSampleFormat(s string) bool {
	s = strings.ToLower(s)
	return s == "f32" || s == "f64"
}

func isValidLogLevel(s string) bool {
	return slices.Contains(validLogLevels, strings.ToLower(s))
}
