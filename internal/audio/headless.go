package audio

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tphakala/aliendaw/internal/errors"
)

// HeadlessName is the host and device name of the headless backend.
const HeadlessName = "headless"

// DefaultStreamConfig is what the headless device negotiates unless overridden.
var DefaultStreamConfig = StreamConfig{
	SampleRate:   48000,
	Channels:     2,
	Format:       FormatF32,
	BufferFrames: 512,
}

// HeadlessOption configures a Headless host.
type HeadlessOption func(*Headless)

// WithConfig sets the configuration the device reports.
func WithConfig(cfg StreamConfig) HeadlessOption {
	return func(h *Headless) { h.cfg = cfg }
}

// WithoutDevice makes DefaultOutputDevice fail with ErrNoDevice.
func WithoutDevice() HeadlessOption {
	return func(h *Headless) { h.noDevice = true }
}

// WithConfigError makes DefaultOutputConfig fail.
func WithConfigError(err error) HeadlessOption {
	return func(h *Headless) { h.configErr = err }
}

// WithBuildError makes BuildOutputStream fail.
func WithBuildError(err error) HeadlessOption {
	return func(h *Headless) { h.buildErr = err }
}

// WithPacing makes Play drive the callback from a goroutine once per buffer
// period, emulating a device clock.
func WithPacing() HeadlessOption {
	return func(h *Headless) { h.paced = true }
}

// Headless is an in-process Host whose streams are driven by Pump or, when
// paced, by a ticker. It backs tests and offline rendering.
type Headless struct {
	cfg       StreamConfig
	noDevice  bool
	configErr error
	buildErr  error
	paced     bool

	mu      sync.Mutex
	streams []*HeadlessStream
}

// NewHeadless creates a headless host.
func NewHeadless(opts ...HeadlessOption) *Headless {
	h := &Headless{cfg: DefaultStreamConfig}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Headless) Name() string { return HeadlessName }

func (h *Headless) DefaultOutputDevice() (Device, error) {
	if h.noDevice {
		return nil, ErrNoDevice
	}
	return &headlessDevice{host: h}, nil
}

// Close closes every stream the host built.
func (h *Headless) Close() error {
	h.mu.Lock()
	streams := h.streams
	h.streams = nil
	h.mu.Unlock()

	for _, s := range streams {
		_ = s.Close()
	}
	return nil
}

// LastStream returns the most recently built stream, or nil.
func (h *Headless) LastStream() *HeadlessStream {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.streams) == 0 {
		return nil
	}
	return h.streams[len(h.streams)-1]
}

type headlessDevice struct {
	host *Headless
}

func (d *headlessDevice) Name() string { return HeadlessName }

func (d *headlessDevice) DefaultOutputConfig() (StreamConfig, error) {
	if d.host.configErr != nil {
		return StreamConfig{}, d.host.configErr
	}
	return d.host.cfg, nil
}

func (d *headlessDevice) BuildOutputStream(cfg StreamConfig, data DataCallback, onErr ErrorCallback) (Stream, error) {
	if d.host.buildErr != nil {
		return nil, d.host.buildErr
	}
	if cfg.FrameBytes() == 0 || cfg.SampleRate == 0 {
		return nil, errors.Newf("invalid stream config %+v", cfg).
			Component(ComponentAudio).
			Category(errors.CategoryValidation).
			Build()
	}
	frames := cfg.BufferFrames
	if frames == 0 {
		frames = DefaultStreamConfig.BufferFrames
	}
	s := &HeadlessStream{
		cfg:   cfg,
		data:  data,
		onErr: onErr,
		buf:   make([]byte, int(frames)*cfg.FrameBytes()),
		paced: d.host.paced,
	}
	d.host.mu.Lock()
	d.host.streams = append(d.host.streams, s)
	d.host.mu.Unlock()
	return s, nil
}

// HeadlessStream is a stream driven from the caller's goroutine.
type HeadlessStream struct {
	cfg   StreamConfig
	data  DataCallback
	onErr ErrorCallback
	paced bool

	mu      sync.Mutex // serializes callback invocations
	buf     []byte
	playing atomic.Bool
	closed  atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// ErrStreamNotPlaying is returned by Pump on a paused or closed stream.
var ErrStreamNotPlaying = errors.New(errors.NewStd("stream is not playing")).
	Component(ComponentAudio).
	Category(errors.CategoryState).
	Build()

// Config returns the stream's configuration.
func (s *HeadlessStream) Config() StreamConfig { return s.cfg }

// Play starts the stream.
func (s *HeadlessStream) Play() error {
	if s.closed.Load() {
		return ErrStreamNotPlaying
	}
	if !s.playing.CompareAndSwap(false, true) {
		return nil
	}
	if s.paced {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.done = make(chan struct{})
		go s.clock(ctx, s.done)
	}
	return nil
}

// Pause stops callbacks until the next Play.
func (s *HeadlessStream) Pause() error {
	if !s.playing.CompareAndSwap(true, false) {
		return nil
	}
	s.stopClock()
	return nil
}

// Close stops the stream for good.
func (s *HeadlessStream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.playing.Store(false)
	s.stopClock()
	return nil
}

func (s *HeadlessStream) stopClock() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
		s.cancel = nil
	}
}

func (s *HeadlessStream) clock(ctx context.Context, done chan struct{}) {
	defer close(done)
	frames := len(s.buf) / s.cfg.FrameBytes()
	ticker := time.NewTicker(s.cfg.FramesDuration(frames))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Pump(frames); err != nil {
				return
			}
		}
	}
}

// Pump invokes the data callback once for frames frames, with a playback
// deadline one buffer period after now, and returns the filled bytes. The
// returned slice is reused by the next call.
func (s *HeadlessStream) Pump(frames int) ([]byte, error) {
	now := time.Now()
	return s.PumpWithInfo(frames, CallbackInfo{Callback: now, Playback: now.Add(s.cfg.FramesDuration(frames))})
}

// PumpWithInfo is Pump with caller-supplied driver timestamps.
func (s *HeadlessStream) PumpWithInfo(frames int, info CallbackInfo) ([]byte, error) {
	if !s.playing.Load() {
		return nil, ErrStreamNotPlaying
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := frames * s.cfg.FrameBytes()
	if cap(s.buf) < n {
		s.buf = make([]byte, n)
	}
	out := s.buf[:n]
	s.data(out, info)
	return out, nil
}

// InjectError reports err through the stream's error callback, as a driver would.
func (s *HeadlessStream) InjectError(err error) {
	if s.onErr != nil {
		s.onErr(err)
	}
}
