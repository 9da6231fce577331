package sound

import (
	"sync"
	"time"

	"github.com/tphakala/aliendaw/internal/audio"
	"github.com/tphakala/aliendaw/internal/errors"
	"github.com/tphakala/aliendaw/internal/logger"
	"github.com/tphakala/aliendaw/internal/observability/metrics"
	"github.com/tphakala/aliendaw/internal/rtsync"
	"github.com/tphakala/aliendaw/internal/synth"
)

// ServerOptions configures NewServer. Zero values keep what the device
// negotiates.
type ServerOptions struct {
	SampleRate   uint32
	Channels     uint16
	BufferFrames uint32
	Format       audio.SampleFormat

	// Graph is the shared graph to play. Nil creates the default master:
	// an empty mixer inside a unity clip.
	Graph *rtsync.Shared[synth.Node]

	// Errors receives stream errors reported by the driver.
	Errors chan<- StreamRuntimeError
	// Overruns enables the overrun monitor when non-nil.
	Overruns chan<- CallbackOverrun
	// Tap, when set, receives a copy of everything played.
	Tap *Tap
	// TapSeconds creates a tap sized for the negotiated format when Tap is nil.
	TapSeconds float64

	Metrics metrics.Recorder
	// Now overrides the callback clock.
	Now func() time.Time
}

// Server owns one output stream playing the shared synth graph.
type Server struct {
	host    audio.Host
	device  audio.Device
	config  audio.StreamConfig
	graph   *rtsync.Shared[synth.Node]
	reader  *rtsync.Synchronizer[synth.Node]
	stream  audio.Stream
	tap     *Tap
	metrics metrics.Recorder
	log     logger.Logger

	mu      sync.Mutex
	playing bool
	closed  bool
}

// NewServer opens the host's default output device, negotiates its
// configuration and builds a stream bound to the graph. The stream is
// built paused; call Play to start it.
func NewServer(host audio.Host, opts ServerOptions) (*Server, error) {
	s := &Server{
		host:    host,
		metrics: opts.Metrics,
		tap:     opts.Tap,
		log:     GetLogger().Module("server").With(logger.String("host", host.Name())),
	}

	device, err := host.DefaultOutputDevice()
	if err != nil || device == nil {
		s.recordFailure(metrics.OpOpenDevice, ErrNoOutputDevice)
		return nil, wrap(ErrNoOutputDevice, err, "host %s", host.Name())
	}
	s.device = device

	cfg, err := device.DefaultOutputConfig()
	if err != nil {
		s.recordFailure(metrics.OpQueryConfig, ErrStreamConfigQuery)
		return nil, wrap(ErrStreamConfigQuery, err, "device %s", device.Name())
	}
	s.config = applyOverrides(cfg, opts)
	if s.tap == nil && opts.TapSeconds > 0 {
		s.tap = newTapFor(s.config, opts.TapSeconds)
	}

	s.graph = opts.Graph
	if s.graph == nil {
		s.graph = rtsync.NewShared(synth.NewMaster())
	}
	s.reader = rtsync.NewSynchronizer(s.graph, func(dst, src *synth.Node) { dst.CopyFrom(src) })

	data, err := BuildOutputCallback(s.config.Format, s.reader, CallbackOptions{
		Overruns: opts.Overruns,
		Tap:      s.tap,
		Now:      opts.Now,
	})
	if err != nil {
		s.recordFailure(metrics.OpBuildStream, ErrUnsupportedSampleFormat)
		return nil, err
	}

	start := time.Now()
	stream, err := device.BuildOutputStream(s.config, data, BuildErrorCallback(opts.Errors))
	if err != nil {
		s.recordFailure(metrics.OpBuildStream, ErrStreamBuild)
		return nil, errors.Newf("%w: device %s, config %+v: %w", ErrStreamBuild, device.Name(), s.config, err).
			Component(ComponentSound).
			Category(ErrStreamBuild.Category).
			Timing(metrics.OpBuildStream, time.Since(start)).
			Build()
	}
	s.stream = stream
	if s.metrics != nil {
		s.metrics.RecordOperation(metrics.OpBuildStream, metrics.StatusSuccess)
		s.metrics.RecordDuration(metrics.OpBuildStream, time.Since(start).Seconds())
	}

	s.log.Info("output stream ready",
		logger.String("device", device.Name()),
		logger.Int("sample_rate", int(s.config.SampleRate)),
		logger.Int("channels", int(s.config.Channels)),
		logger.String("format", s.config.Format.String()),
		logger.Int("buffer_frames", int(s.config.BufferFrames)))
	return s, nil
}

func applyOverrides(cfg audio.StreamConfig, opts ServerOptions) audio.StreamConfig {
	if opts.SampleRate > 0 {
		cfg.SampleRate = opts.SampleRate
	}
	if opts.Channels > 0 {
		cfg.Channels = opts.Channels
	}
	if opts.BufferFrames > 0 {
		cfg.BufferFrames = opts.BufferFrames
	}
	if opts.Format != audio.FormatUnknown {
		cfg.Format = opts.Format
	}
	return cfg
}

func newTapFor(cfg audio.StreamConfig, seconds float64) *Tap {
	format := TapFormat{
		SampleRate:     cfg.SampleRate,
		Channels:       cfg.Channels,
		BytesPerSample: cfg.Format.BytesPerSample(),
	}
	frames := int(seconds * float64(cfg.SampleRate))
	return NewTap(frames*format.FrameBytes(), format)
}

func (s *Server) recordFailure(op string, sentinel *errors.EnhancedError) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordOperation(op, metrics.StatusError)
	s.metrics.RecordError(op, sentinel.GetCategory())
}

// Play starts or resumes the stream.
func (s *Server) Play() error {
	return s.transition(true)
}

// Pause stops the stream without releasing it.
func (s *Server) Pause() error {
	return s.transition(false)
}

func (s *Server) transition(play bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServerClosed
	}
	if s.playing == play {
		return nil
	}

	op, fn := metrics.OpPause, s.stream.Pause
	if play {
		op, fn = metrics.OpPlay, s.stream.Play
	}
	if err := fn(); err != nil {
		if s.metrics != nil {
			s.metrics.RecordOperation(op, metrics.StatusError)
		}
		return err
	}
	s.playing = play
	if s.metrics != nil {
		s.metrics.RecordOperation(op, metrics.StatusSuccess)
	}
	s.log.Debug("stream state changed", logger.Bool("playing", play))
	return nil
}

// Close stops and releases the stream. The host stays open.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.playing = false
	return s.stream.Close()
}

// Tap returns the output tap, or nil.
func (s *Server) Tap() *Tap { return s.tap }

// Graph returns the shared graph. Edits through Update become audible on a
// later callback.
func (s *Server) Graph() *rtsync.Shared[synth.Node] { return s.graph }

// Config returns the negotiated stream configuration.
func (s *Server) Config() audio.StreamConfig { return s.config }

// DeviceName returns the output device name.
func (s *Server) DeviceName() string { return s.device.Name() }

// Stream returns the underlying stream.
func (s *Server) Stream() audio.Stream { return s.stream }

// Playing reports whether the stream is running.
func (s *Server) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// SyncStats returns how the real-time side's graph reads were served.
func (s *Server) SyncStats() rtsync.Stats { return s.reader.Stats() }

// Snapshot gathers the counters kept by the real-time path.
func (s *Server) Snapshot() metrics.SoundSnapshot {
	st := s.reader.Stats()
	snap := metrics.SoundSnapshot{FreshReads: st.Fresh, StaleReads: st.Stale}
	if s.tap != nil {
		snap.TapWritten = s.tap.Written()
		snap.TapDropped = s.tap.Dropped()
	}
	return snap
}
