package audio

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/aliendaw/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSampleFormat(t *testing.T) {
	testCases := []struct {
		format SampleFormat
		name   string
		size   int
	}{
		{FormatU8, "u8", 1},
		{FormatI16, "i16", 2},
		{FormatI24, "i24", 3},
		{FormatI32, "i32", 4},
		{FormatF32, "f32", 4},
		{FormatF64, "f64", 8},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.name, tc.format.String())
			assert.Equal(t, tc.size, tc.format.BytesPerSample())
			parsed, ok := ParseSampleFormat(" " + tc.name + " ")
			require.True(t, ok)
			assert.Equal(t, tc.format, parsed)
			text, err := tc.format.MarshalText()
			require.NoError(t, err)
			assert.Equal(t, tc.name, string(text))
		})
	}

	_, ok := ParseSampleFormat("unknown")
	assert.False(t, ok)
	assert.Zero(t, FormatUnknown.BytesPerSample())
}

func TestStreamConfigHelpers(t *testing.T) {
	cfg := StreamConfig{SampleRate: 48000, Channels: 2, Format: FormatF64}
	assert.Equal(t, 16, cfg.FrameBytes())
	assert.Equal(t, 10*time.Millisecond, cfg.FramesDuration(480))
	assert.Zero(t, StreamConfig{}.FramesDuration(480))
}

func TestCallbackInfoMaxElapsed(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 5*time.Millisecond, CallbackInfo{Callback: now, Playback: now.Add(5 * time.Millisecond)}.MaxElapsed())
	assert.Zero(t, CallbackInfo{Callback: now, Playback: now.Add(-time.Millisecond)}.MaxElapsed())
}

func TestHeadlessPump(t *testing.T) {
	host := NewHeadless(WithConfig(StreamConfig{SampleRate: 8000, Channels: 1, Format: FormatF32, BufferFrames: 4}))
	defer host.Close()

	dev, err := host.DefaultOutputDevice()
	require.NoError(t, err)
	cfg, err := dev.DefaultOutputConfig()
	require.NoError(t, err)

	var calls int
	var lastInfo CallbackInfo
	stream, err := dev.BuildOutputStream(cfg, func(out []byte, info CallbackInfo) {
		calls++
		lastInfo = info
		for i := range out {
			out[i] = byte(i)
		}
	}, nil)
	require.NoError(t, err)

	hs := host.LastStream()
	require.NotNil(t, hs)

	_, err = hs.Pump(4)
	assert.ErrorIs(t, err, ErrStreamNotPlaying)

	require.NoError(t, stream.Play())
	out, err := hs.Pump(4)
	require.NoError(t, err)
	assert.Len(t, out, 16)
	assert.Equal(t, byte(15), out[15])
	assert.Equal(t, 1, calls)
	assert.Equal(t, 500*time.Microsecond, lastInfo.MaxElapsed())

	require.NoError(t, stream.Pause())
	_, err = hs.Pump(4)
	assert.ErrorIs(t, err, ErrStreamNotPlaying)

	require.NoError(t, stream.Close())
	assert.ErrorIs(t, stream.Play(), ErrStreamNotPlaying)
}

func TestHeadlessFailureOptions(t *testing.T) {
	_, err := NewHeadless(WithoutDevice()).DefaultOutputDevice()
	assert.ErrorIs(t, err, ErrNoDevice)

	queryErr := errors.NewStd("query failed")
	dev, err := NewHeadless(WithConfigError(queryErr)).DefaultOutputDevice()
	require.NoError(t, err)
	_, err = dev.DefaultOutputConfig()
	assert.ErrorIs(t, err, queryErr)

	buildErr := errors.NewStd("build failed")
	dev, err = NewHeadless(WithBuildError(buildErr)).DefaultOutputDevice()
	require.NoError(t, err)
	_, err = dev.BuildOutputStream(DefaultStreamConfig, func([]byte, CallbackInfo) {}, nil)
	assert.ErrorIs(t, err, buildErr)

	dev, err = NewHeadless().DefaultOutputDevice()
	require.NoError(t, err)
	_, err = dev.BuildOutputStream(StreamConfig{SampleRate: 48000, Channels: 2}, func([]byte, CallbackInfo) {}, nil)
	assert.Error(t, err, "unknown format has no frame size")
}

func TestHeadlessPacedStream(t *testing.T) {
	host := NewHeadless(WithPacing(), WithConfig(StreamConfig{SampleRate: 48000, Channels: 1, Format: FormatF32, BufferFrames: 48}))
	dev, err := host.DefaultOutputDevice()
	require.NoError(t, err)

	var calls atomic.Int32
	stream, err := dev.BuildOutputStream(DefaultStreamConfig, func([]byte, CallbackInfo) {
		calls.Add(1)
	}, nil)
	require.NoError(t, err)

	require.NoError(t, stream.Play())
	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, host.Close())

	stopped := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load(), "no callbacks after close")
}

func TestHeadlessInjectError(t *testing.T) {
	host := NewHeadless()
	dev, err := host.DefaultOutputDevice()
	require.NoError(t, err)

	var got error
	_, err = dev.BuildOutputStream(DefaultStreamConfig, func([]byte, CallbackInfo) {}, func(err error) { got = err })
	require.NoError(t, err)

	injected := errors.NewStd("device unplugged")
	host.LastStream().InjectError(injected)
	assert.Equal(t, injected, got)
}
