package sound

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/tphakala/aliendaw/internal/errors"
	"github.com/tphakala/aliendaw/internal/logger"
)

const (
	DefaultDuplicateWindow = 30 * time.Second
	DefaultOverrunLogRate  = 5 * time.Second

	// seen keys are purged once the cache holds this many
	purgeThreshold = 256
)

// MonitorMetrics is the subset of metrics.SoundMetrics the monitor records.
type MonitorMetrics interface {
	RecordStreamError(category string, suppressed bool)
	RecordOverrun(elapsedSeconds, maxAllowedSeconds float64)
}

// MonitorConfig configures a Monitor. Zero durations use the defaults.
type MonitorConfig struct {
	// DuplicateWindow suppresses logging of an identical stream error
	// seen within the window.
	DuplicateWindow time.Duration
	// OverrunLogRate is the minimum interval between overrun warnings.
	OverrunLogRate time.Duration
	Metrics        MonitorMetrics
}

// MonitorStats counts what the monitor has consumed.
type MonitorStats struct {
	StreamErrors      uint64 `json:"stream_errors"`
	SuppressedErrors  uint64 `json:"suppressed_errors"`
	Overruns          uint64 `json:"overruns"`
	// SuppressedOverrun counts overrun warnings skipped since the last one logged.
	SuppressedOverrun uint64 `json:"suppressed_overrun_logs"`
	LastOverrun       string `json:"last_overrun,omitempty"`
}

// Monitor consumes the stream error and overrun channels on the control
// side.
type Monitor struct {
	errs     <-chan StreamRuntimeError
	overruns <-chan CallbackOverrun
	seen     *cache.Cache
	limiter  *rate.Limiter
	metrics  MonitorMetrics
	log      logger.Logger

	streamErrors      atomic.Uint64
	suppressedErrors  atomic.Uint64
	overrunCount      atomic.Uint64
	suppressedOverrun atomic.Uint64
	lastOverrun       atomic.Pointer[CallbackOverrun]
}

// NewMonitor creates a monitor over the given channels. Either may be nil.
func NewMonitor(errs <-chan StreamRuntimeError, overruns <-chan CallbackOverrun, cfg MonitorConfig) *Monitor {
	window := cfg.DuplicateWindow
	if window <= 0 {
		window = DefaultDuplicateWindow
	}
	every := cfg.OverrunLogRate
	if every <= 0 {
		every = DefaultOverrunLogRate
	}
	return &Monitor{
		errs:     errs,
		overruns: overruns,
		// no janitor goroutine; expired keys are purged from handleError
		seen:    cache.New(window, 0),
		limiter: rate.NewLimiter(rate.Every(every), 1),
		metrics: cfg.Metrics,
		log:     GetLogger().Module("monitor"),
	}
}

// Run consumes both channels until ctx is cancelled. It always returns nil
// so it can sit in an errgroup without cancelling its siblings.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-m.errs:
			m.handleError(ev)
		case ev := <-m.overruns:
			m.handleOverrun(ev)
		}
	}
}

func (m *Monitor) handleError(ev StreamRuntimeError) {
	m.streamErrors.Add(1)

	key := ev.Err.Error()
	suppressed := m.seen.Add(key, struct{}{}, cache.DefaultExpiration) != nil
	if m.seen.ItemCount() > purgeThreshold {
		m.seen.DeleteExpired()
	}

	category := string(errors.CategoryStream)
	var ee *errors.EnhancedError
	if errors.As(ev.Err, &ee) {
		category = ee.GetCategory()
	}
	if m.metrics != nil {
		m.metrics.RecordStreamError(category, suppressed)
	}

	if suppressed {
		m.suppressedErrors.Add(1)
		return
	}

	// Building the enhanced error hands it to telemetry when reporting is on.
	err := errors.New(ev.Err).
		Component(ComponentSound).
		Category(errors.CategoryStream).
		Context("operation", "output_stream").
		Context("reported_at", ev.At.Format(time.RFC3339Nano)).
		Build()
	m.log.Error("output stream error", logger.Error(err))
}

func (m *Monitor) handleOverrun(ev CallbackOverrun) {
	m.overrunCount.Add(1)
	m.lastOverrun.Store(&ev)
	if m.metrics != nil {
		m.metrics.RecordOverrun(ev.Elapsed.Seconds(), ev.MaxAllowed.Seconds())
	}

	if !m.limiter.Allow() {
		m.suppressedOverrun.Add(1)
		return
	}
	m.log.Warn("output callback overrun",
		logger.Duration("elapsed", ev.Elapsed),
		logger.Duration("max_allowed", ev.MaxAllowed),
		logger.Int("samples", ev.DataLen),
		logger.Uint64("suppressed_since_last", m.suppressedOverrun.Swap(0)))
}

// Stats returns the counters so far.
func (m *Monitor) Stats() MonitorStats {
	st := MonitorStats{
		StreamErrors:      m.streamErrors.Load(),
		SuppressedErrors:  m.suppressedErrors.Load(),
		Overruns:          m.overrunCount.Load(),
		SuppressedOverrun: m.suppressedOverrun.Load(),
	}
	if last := m.lastOverrun.Load(); last != nil {
		st.LastOverrun = last.Error()
	}
	return st
}
