package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/aliendaw/internal/errors"
)

// isolate resets viper and points the home directory at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	s, err := Load("")
	require.NoError(t, err)

	assert.False(t, s.Debug)
	assert.Equal(t, DefaultBackend, s.Audio.Backend)
	assert.Zero(t, s.Audio.SampleRate)
	assert.True(t, s.Audio.OverrunReports)
	assert.InDelta(t, DefaultTapSeconds, s.Audio.Tap.Seconds, 0)
	assert.Equal(t, DefaultControlListen, s.Control.Listen)
	assert.Equal(t, DefaultLogLevel, s.Log.Level)
	assert.Equal(t, DefaultDuplicateDelay, s.Monitor.DuplicateWindow)
	assert.Equal(t, DefaultOverrunLogRate, s.Monitor.OverrunLogRate)
	assert.Same(t, s, GetSettings())
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), `
debug: true
audio:
  backend: Headless
  samplerate: 44100
  channels: 1
  sampleformat: F64
  tap:
    enabled: true
    seconds: 0.5
control:
  enabled: true
  listen: ":9000"
monitor:
  duplicatewindow: 1m
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.True(t, s.Debug)
	assert.Equal(t, "headless", s.Audio.Backend, "backend is normalized")
	assert.Equal(t, 44100, s.Audio.SampleRate)
	assert.Equal(t, 1, s.Audio.Channels)
	assert.Equal(t, "f64", s.Audio.SampleFormat)
	assert.True(t, s.Audio.Tap.Enabled)
	assert.True(t, s.Control.Enabled)
	assert.Equal(t, ":9000", s.Control.Listen)
	assert.Equal(t, time.Minute, s.Monitor.DuplicateWindow)
}

func TestLoadFindsConfigInHome(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".config", appDirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeConfig(t, dir, "audio:\n  bufferframes: 256\n")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 256, s.Audio.BufferFrames)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), "audio:\n  backend: oto\n")
	t.Setenv("ALIENDAW_AUDIO_BACKEND", "headless")
	t.Setenv("ALIENDAW_AUDIO_SAMPLERATE", "22050")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "headless", s.Audio.Backend)
	assert.Equal(t, 22050, s.Audio.SampleRate)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), "audio:\n  backend: pulse\n  channels: -1\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	var ve ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Errors, 2)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestSaveYAMLConfigRoundTrip(t *testing.T) {
	isolate(t)
	s, err := Load("")
	require.NoError(t, err)
	s.Audio.Backend = "headless"
	s.Audio.SampleRate = 96000
	s.Monitor.OverrunLogRate = 250 * time.Millisecond

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveYAMLConfig(path, s))

	viper.Reset()
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestSettingsYAML(t *testing.T) {
	s := &Settings{Audio: AudioSettings{Backend: "oto"}, Log: LogSettings{Level: "info"}}
	out, err := s.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "backend: oto")
	assert.Contains(t, string(out), "level: info")
}
