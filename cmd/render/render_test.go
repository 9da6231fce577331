package render

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/aliendaw/internal/audio"
	"github.com/tphakala/aliendaw/internal/conf"
	"github.com/tphakala/aliendaw/internal/errors"
	"github.com/tphakala/aliendaw/internal/sound"
)

func TestStreamConfigOverrides(t *testing.T) {
	cfg, err := StreamConfig(&conf.Settings{})
	require.NoError(t, err)
	assert.Equal(t, audio.DefaultStreamConfig, cfg)

	s := &conf.Settings{}
	s.Audio.SampleRate = 22050
	s.Audio.Channels = 1
	s.Audio.BufferFrames = 256
	s.Audio.SampleFormat = "F64"
	cfg, err = StreamConfig(s)
	require.NoError(t, err)
	assert.Equal(t, audio.StreamConfig{SampleRate: 22050, Channels: 1, Format: audio.FormatF64, BufferFrames: 256}, cfg)

	s.Audio.SampleFormat = "pcm7"
	_, err = StreamConfig(s)
	assert.ErrorIs(t, err, sound.ErrUnsupportedSampleFormat)
}

func TestRenderCommandWritesWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.wav")
	s := &conf.Settings{}
	s.Audio.SampleRate = 8000
	s.Audio.Channels = 1

	cmd := Command(s)
	cmd.SetArgs([]string{path, "--length", "250ms"})
	require.NoError(t, cmd.Execute())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile())
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, uint32(8000), dec.SampleRate)
	assert.Equal(t, uint16(1), dec.NumChans)
	assert.Len(t, buf.Data, 2000)
}

func TestRenderRejectsNonPositiveLength(t *testing.T) {
	err := run(t.Context(), &conf.Settings{}, filepath.Join(t.TempDir(), "x.wav"), -time.Second)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}
