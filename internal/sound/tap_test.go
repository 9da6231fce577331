package sound

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/aliendaw/internal/audio"
	"github.com/tphakala/aliendaw/internal/testutil"
)

func TestTapNeverBlocksWhenFull(t *testing.T) {
	tap := NewTap(100, TapFormat{SampleRate: 48000, Channels: 2, BytesPerSample: 4})

	testutil.CompletesWithin(t, testutil.ShortTestTimeout, "Offer blocked", func() {
		for range 10 {
			tap.Offer(make([]byte, 64))
		}
	})
	// 100 rounds down to 96, twelve whole frames.
	assert.Equal(t, 96, tap.Buffered())
	assert.Equal(t, uint64(96), tap.Written())
	assert.Equal(t, uint64(640-96), tap.Dropped())

	buf := make([]byte, 128)
	n, err := tap.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 96, n)
	assert.Zero(t, tap.Buffered())
}

func TestFloatBytesToPCM16(t *testing.T) {
	host := audio.NewHeadless(audio.WithConfig(audio.StreamConfig{SampleRate: 8000, Channels: 1, Format: audio.FormatF32, BufferFrames: 4}))
	defer host.Close()
	srv, err := NewServer(host, ServerOptions{Graph: constantGraph(2)})
	require.NoError(t, err)
	defer srv.Close()
	require.NoError(t, srv.Play())

	out, err := host.LastStream().Pump(4)
	require.NoError(t, err)
	// The unity clip limits the constant to full scale.
	assert.Equal(t, []int{32767, 32767, 32767, 32767}, floatBytesToPCM16(out, 4, nil))
	assert.Equal(t, 0, toPCM16(0))
	assert.Equal(t, -32767, toPCM16(-3))
}

func TestRecorderWritesTapToWAV(t *testing.T) {
	cfg := audio.StreamConfig{SampleRate: 8000, Channels: 2, Format: audio.FormatF32, BufferFrames: 80}
	host := audio.NewHeadless(audio.WithConfig(cfg))
	defer host.Close()

	tap := NewTap(64*1024, TapFormat{SampleRate: cfg.SampleRate, Channels: cfg.Channels, BytesPerSample: 4})
	srv, err := NewServer(host, ServerOptions{Graph: constantGraph(0.5), Tap: tap})
	require.NoError(t, err)
	defer srv.Close()
	require.NoError(t, srv.Play())

	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	rec := NewRecorder(tap, f, newCountingRecorder())
	rec.interval = time.Millisecond
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- rec.Run(ctx) }()

	for range 10 {
		_, err := host.LastStream().Pump(80)
		require.NoError(t, err)
	}
	cancel()
	require.NoError(t, testutil.Receive(t, done, testutil.DefaultTestTimeout))
	require.NoError(t, f.Close())

	r, err := os.Open(path)
	require.NoError(t, err)
	defer r.Close()
	dec := wav.NewDecoder(r)
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, uint32(8000), dec.SampleRate)
	assert.Equal(t, uint16(2), dec.NumChans)
	assert.Equal(t, uint16(16), dec.BitDepth)
	// Offers racing the drain may be dropped, but never split a frame.
	assert.Equal(t, uint64(10*80*2*4), tap.Written()+tap.Dropped())
	require.Len(t, buf.Data, int(tap.Written()/4))
	require.NotEmpty(t, buf.Data)
	assert.Equal(t, 16384, buf.Data[0])
	assert.Equal(t, 16384, buf.Data[len(buf.Data)-1])
}
