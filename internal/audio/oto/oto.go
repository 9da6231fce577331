// Package oto provides an output host on ebitengine/oto. Oto pulls samples
// through an io.Reader and supports only mono or stereo f32 here.
package oto

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/tphakala/aliendaw/internal/audio"
	"github.com/tphakala/aliendaw/internal/errors"
	"github.com/tphakala/aliendaw/internal/logger"
)

const (
	component = "audio.oto"
	// HostName is the name reported by Host and its device.
	HostName = "oto"

	errPollInterval = 250 * time.Millisecond
)

// GetLogger returns the oto backend logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("audio").Module("oto")
}

// Config shapes the single oto context. Zero values use defaults.
type Config struct {
	SampleRate   uint32
	Channels     uint16
	BufferFrames uint32
}

// Host owns the process-wide oto context, created on first stream build.
type Host struct {
	config audio.StreamConfig

	mu  sync.Mutex
	ctx *oto.Context
}

// NewHost returns a host; no device is opened until BuildOutputStream.
func NewHost(config Config) *Host {
	cfg := audio.DefaultStreamConfig
	if config.SampleRate > 0 {
		cfg.SampleRate = config.SampleRate
	}
	if config.Channels > 0 {
		cfg.Channels = config.Channels
	}
	if cfg.Channels > 2 {
		cfg.Channels = 2
	}
	if config.BufferFrames > 0 {
		cfg.BufferFrames = config.BufferFrames
	}
	cfg.Format = audio.FormatF32
	return &Host{config: cfg}
}

func (h *Host) Name() string { return HostName }

// DefaultOutputDevice returns the system output oto plays to.
func (h *Host) DefaultOutputDevice() (audio.Device, error) {
	return &device{host: h}, nil
}

// Close suspends the context; oto contexts cannot be destroyed.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ctx == nil {
		return nil
	}
	return h.ctx.Suspend()
}

func (h *Host) context(cfg audio.StreamConfig) (*oto.Context, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ctx != nil {
		return h.ctx, h.ctx.Resume()
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(cfg.SampleRate),
		ChannelCount: int(cfg.Channels),
		Format:       oto.FormatFloat32LE,
		BufferSize:   cfg.FramesDuration(int(cfg.BufferFrames)),
	})
	if err != nil {
		return nil, err
	}
	<-ready
	h.ctx = ctx
	return ctx, nil
}

type device struct {
	host *Host
}

func (d *device) Name() string { return HostName }

func (d *device) DefaultOutputConfig() (audio.StreamConfig, error) {
	return d.host.config, nil
}

func (d *device) BuildOutputStream(cfg audio.StreamConfig, data audio.DataCallback, onErr audio.ErrorCallback) (audio.Stream, error) {
	if cfg.Format != audio.FormatF32 {
		return nil, errors.Newf("oto cannot play %s samples", cfg.Format).
			Component(component).
			Category(errors.CategorySampleFormat).
			Context("format", cfg.Format.String()).
			Build()
	}
	if cfg.Channels == 0 || cfg.Channels > 2 || cfg.SampleRate == 0 {
		return nil, errors.Newf("oto supports mono or stereo only, got %d channels at %d Hz", cfg.Channels, cfg.SampleRate).
			Component(component).
			Category(errors.CategoryStreamBuild).
			Build()
	}

	ctx, err := d.host.context(cfg)
	if err != nil {
		return nil, errors.New(err).
			Component(component).
			Category(errors.CategoryStreamBuild).
			Context("operation", "new_context").
			Build()
	}

	s := &Stream{
		reader: &pullReader{
			data:       data,
			frameBytes: cfg.FrameBytes(),
			rate:       time.Duration(cfg.SampleRate),
		},
		onErr: onErr,
	}
	s.player = ctx.NewPlayer(s.reader)
	return s, nil
}

// pullReader adapts oto's pull model to a DataCallback.
type pullReader struct {
	data       audio.DataCallback
	frameBytes int
	rate       time.Duration
}

// Read fills whole frames only.
func (r *pullReader) Read(p []byte) (int, error) {
	n := len(p) / r.frameBytes * r.frameBytes
	if n == 0 {
		return 0, nil
	}
	frames := n / r.frameBytes
	now := time.Now()
	r.data(p[:n], audio.CallbackInfo{
		Callback: now,
		Playback: now.Add(time.Duration(frames) * time.Second / r.rate),
	})
	return n, nil
}

// Stream is an oto player fed by the data callback.
type Stream struct {
	reader *pullReader
	player *oto.Player
	onErr  audio.ErrorCallback

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	playing atomic.Bool
	closed  atomic.Bool
}

// Play starts pulling samples and polling for player errors.
func (s *Stream) Play() error {
	if s.closed.Load() {
		return errors.New(errors.NewStd("stream closed")).Component(component).Category(errors.CategoryState).Build()
	}
	if !s.playing.CompareAndSwap(false, true) {
		return nil
	}
	s.mu.Lock()
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.watchErrors(s.stop, s.done)
	s.mu.Unlock()

	s.player.Play()
	return nil
}

// Pause stops pulling samples.
func (s *Stream) Pause() error {
	if !s.playing.CompareAndSwap(true, false) {
		return nil
	}
	s.player.Pause()
	s.mu.Lock()
	close(s.stop)
	done := s.done
	s.mu.Unlock()
	<-done
	return nil
}

// Close pauses and releases the player.
func (s *Stream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	_ = s.Pause()
	return s.player.Close()
}

func (s *Stream) watchErrors(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(errPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := s.player.Err(); err != nil {
				GetLogger().Debug("player reported error", logger.Error(err))
				if s.onErr != nil {
					s.onErr(err)
				}
				return
			}
		}
	}
}
