package sound

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/aliendaw/internal/audio"
	"github.com/tphakala/aliendaw/internal/errors"
	"github.com/tphakala/aliendaw/internal/synth"
	"github.com/tphakala/aliendaw/internal/testutil"
)

type countingRecorder struct {
	ops    map[string]int
	errors map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{ops: map[string]int{}, errors: map[string]int{}}
}

func (r *countingRecorder) RecordOperation(op, status string) { r.ops[op+"/"+status]++ }
func (r *countingRecorder) RecordDuration(string, float64)    {}
func (r *countingRecorder) RecordError(op, errorType string)  { r.errors[op+"/"+errorType]++ }

func TestDefaultGraphPlaysSilence(t *testing.T) {
	host := audio.NewHeadless()
	defer host.Close()

	srv, err := NewServer(host, ServerOptions{})
	require.NoError(t, err)
	defer srv.Close()

	assert.Equal(t, audio.DefaultStreamConfig, srv.Config())
	assert.Equal(t, audio.HeadlessName, srv.DeviceName())
	require.NoError(t, srv.Play())
	assert.True(t, srv.Playing())

	stream := host.LastStream()
	require.NotNil(t, stream)
	for range 4 {
		var out []byte
		testutil.CompletesWithin(t, testutil.ShortTestTimeout, "callback blocked", func() {
			out, err = stream.Pump(512)
		})
		require.NoError(t, err)
		require.Len(t, out, 512*2*4)
		for i := 0; i < len(out); i += 4 {
			require.Zero(t, math.Float32frombits(binary.LittleEndian.Uint32(out[i:])))
		}
	}
	assert.Equal(t, uint64(4), srv.SyncStats().Fresh)
}

func TestGraphEditsReachTheStream(t *testing.T) {
	host := audio.NewHeadless()
	defer host.Close()
	srv, err := NewServer(host, ServerOptions{})
	require.NoError(t, err)
	defer srv.Close()
	require.NoError(t, srv.Play())

	err = srv.Graph().Update(func(root *synth.Node) error {
		_, err := root.Inner.AddChild(synth.NewConstant(0.8), synth.MustVolume(0.5))
		return err
	})
	require.NoError(t, err)

	out, err := host.LastStream().Pump(8)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, math.Float32frombits(binary.LittleEndian.Uint32(out)), 1e-6)

	err = srv.Graph().Update(func(root *synth.Node) error {
		return root.SetMaxVol(synth.MustVolume(0.1))
	})
	require.NoError(t, err)
	out, err = host.LastStream().Pump(8)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, math.Float32frombits(binary.LittleEndian.Uint32(out)), 1e-6)
}

func TestNewServerFailures(t *testing.T) {
	cause := errors.NewStd("driver said no")

	tests := []struct {
		name     string
		host     *audio.Headless
		opts     ServerOptions
		sentinel error
		op       string
	}{
		{"no device", audio.NewHeadless(audio.WithoutDevice()), ServerOptions{}, ErrNoOutputDevice, "open_device"},
		{"config query", audio.NewHeadless(audio.WithConfigError(cause)), ServerOptions{}, ErrStreamConfigQuery, "query_config"},
		{"stream build", audio.NewHeadless(audio.WithBuildError(cause)), ServerOptions{}, ErrStreamBuild, "build_stream"},
		{"negotiated i16", audio.NewHeadless(audio.WithConfig(audio.StreamConfig{SampleRate: 44100, Channels: 2, Format: audio.FormatI16})), ServerOptions{}, ErrUnsupportedSampleFormat, "build_stream"},
		{"requested u8", audio.NewHeadless(), ServerOptions{Format: audio.FormatU8}, ErrUnsupportedSampleFormat, "build_stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newCountingRecorder()
			tt.opts.Metrics = rec
			srv, err := NewServer(tt.host, tt.opts)
			assert.Nil(t, srv)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			assert.Equal(t, 1, rec.ops[tt.op+"/error"])
		})
	}
}

func TestNewServerKeepsDriverCause(t *testing.T) {
	cause := errors.NewStd("format negotiation failed")
	_, err := NewServer(audio.NewHeadless(audio.WithConfigError(cause)), ServerOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrStreamBuild))
	assert.True(t, errors.IsCategory(err, errors.CategoryStreamConfig))
}

func TestStreamBuildErrorCarriesTiming(t *testing.T) {
	cause := errors.NewStd("device busy")
	_, err := NewServer(audio.NewHeadless(audio.WithBuildError(cause)), ServerOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, cause))

	var ee *errors.EnhancedError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "build_stream", ee.GetContext()["operation"])
	assert.Contains(t, ee.GetContext(), "duration_ms")
}

func TestServerOverridesAndLifecycle(t *testing.T) {
	host := audio.NewHeadless()
	defer host.Close()
	rec := newCountingRecorder()

	srv, err := NewServer(host, ServerOptions{SampleRate: 44100, Channels: 1, BufferFrames: 128, Format: audio.FormatF64, Metrics: rec})
	require.NoError(t, err)

	assert.Equal(t, audio.StreamConfig{SampleRate: 44100, Channels: 1, Format: audio.FormatF64, BufferFrames: 128}, srv.Config())
	assert.Equal(t, 1, rec.ops["build_stream/success"])

	require.NoError(t, srv.Play())
	require.NoError(t, srv.Play())
	require.NoError(t, srv.Pause())
	assert.False(t, srv.Playing())
	_, err = host.LastStream().Pump(16)
	assert.ErrorIs(t, err, audio.ErrStreamNotPlaying)

	require.NoError(t, srv.Close())
	require.NoError(t, srv.Close())
	assert.ErrorIs(t, srv.Play(), ErrServerClosed)
	assert.Equal(t, 1, rec.ops["play/success"])
	assert.Equal(t, 1, rec.ops["pause/success"])
}

func TestStreamErrorsReachTheChannel(t *testing.T) {
	host := audio.NewHeadless()
	defer host.Close()
	errs := make(chan StreamRuntimeError, 1)
	srv, err := NewServer(host, ServerOptions{Errors: errs})
	require.NoError(t, err)
	defer srv.Close()

	host.LastStream().InjectError(errors.NewStd("xrun"))
	ev := testutil.Receive(t, errs, testutil.ShortTestTimeout)
	assert.EqualError(t, ev.Err, "xrun")
}

func TestSnapshotIncludesTap(t *testing.T) {
	host := audio.NewHeadless()
	defer host.Close()
	tap := NewTap(64, TapFormat{SampleRate: 48000, Channels: 2, BytesPerSample: 4})
	srv, err := NewServer(host, ServerOptions{Tap: tap})
	require.NoError(t, err)
	defer srv.Close()
	require.NoError(t, srv.Play())

	_, err = host.LastStream().Pump(16) // 128 bytes into a 64 byte tap
	require.NoError(t, err)

	snap := srv.Snapshot()
	assert.Equal(t, uint64(1), snap.FreshReads)
	assert.Equal(t, uint64(64), snap.TapWritten)
	assert.Equal(t, uint64(64), snap.TapDropped)
}

func TestServerSizesTapFromNegotiatedFormat(t *testing.T) {
	host := audio.NewHeadless()
	defer host.Close()
	srv, err := NewServer(host, ServerOptions{SampleRate: 8000, Channels: 1, TapSeconds: 0.5})
	require.NoError(t, err)
	defer srv.Close()

	tap := srv.Tap()
	require.NotNil(t, tap)
	assert.Equal(t, TapFormat{SampleRate: 8000, Channels: 1, BytesPerSample: 4}, tap.Format())

	require.NoError(t, srv.Play())
	_, err = host.LastStream().Pump(8000) // one second into a half-second tap
	require.NoError(t, err)
	assert.Equal(t, uint64(16000), tap.Written())
	assert.Equal(t, uint64(16000), tap.Dropped())
}
