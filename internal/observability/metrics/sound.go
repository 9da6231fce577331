package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SoundSnapshot is a point-in-time read of counters owned by the real-time
// path. They are kept as atomics there and exported on scrape.
type SoundSnapshot struct {
	FreshReads uint64
	StaleReads uint64
	TapWritten uint64
	TapDropped uint64
}

// SoundMetrics contains Prometheus metrics for the sound server
type SoundMetrics struct {
	registry *prometheus.Registry

	operationsTotal        *prometheus.CounterVec
	operationDuration      *prometheus.HistogramVec
	operationErrors        *prometheus.CounterVec
	streamErrorsTotal      *prometheus.CounterVec
	streamErrorsSuppressed prometheus.Counter
	overrunsTotal          prometheus.Counter
	overrunElapsed         prometheus.Histogram
	overrunRatio           prometheus.Histogram
	graphNodes             prometheus.Gauge

	syncReadsDesc  *prometheus.Desc
	tapBytesDesc   *prometheus.Desc
	snapshotSource func() SoundSnapshot
}

// NewSoundMetrics creates and registers new sound metrics
func NewSoundMetrics(registry *prometheus.Registry) (*SoundMetrics, error) {
	m := &SoundMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SoundMetrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sound_operations_total",
			Help: "Total number of sound server operations",
		},
		[]string{"operation", "status"}, // status: success, error
	)

	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sound_operation_duration_seconds",
			Help:    "Time taken by sound server operations",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
		},
		[]string{"operation"},
	)

	m.operationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sound_operation_errors_total",
			Help: "Total number of sound server operation errors",
		},
		[]string{"operation", "error_type"},
	)

	m.streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sound_stream_errors_total",
			Help: "Stream errors reported by the audio driver",
		},
		[]string{"category"},
	)

	m.streamErrorsSuppressed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sound_stream_errors_suppressed_total",
		Help: "Stream errors not logged because an identical error was seen recently",
	})

	m.overrunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sound_callback_overruns_total",
		Help: "Output callbacks that took longer than the buffer period",
	})

	m.overrunElapsed = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sound_callback_overrun_elapsed_seconds",
		Help:    "Fill time of overrunning output callbacks",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	})

	m.overrunRatio = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sound_callback_overrun_ratio",
		Help:    "Fill time of overrunning callbacks divided by the allowed time",
		Buckets: []float64{1, 1.1, 1.25, 1.5, 2, 3, 5, 10},
	})

	m.graphNodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sound_graph_nodes",
		Help: "Number of nodes in the synth graph",
	})

	m.syncReadsDesc = prometheus.NewDesc(
		"sound_sync_reads_total",
		"Real-time graph reads by how they were served",
		[]string{"result"}, nil, // result: fresh, stale
	)

	m.tapBytesDesc = prometheus.NewDesc(
		"sound_tap_bytes_total",
		"Bytes offered to the output tap",
		[]string{"status"}, nil, // status: written, dropped
	)
}

// SetSnapshotSource installs the function read on every scrape for
// counters maintained by the real-time path.
func (m *SoundMetrics) SetSnapshotSource(fn func() SoundSnapshot) {
	m.snapshotSource = fn
}

// RecordOperation implements Recorder.
func (m *SoundMetrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder.
func (m *SoundMetrics) RecordDuration(operation string, seconds float64) {
	m.operationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder.
func (m *SoundMetrics) RecordError(operation, errorType string) {
	m.operationErrors.WithLabelValues(operation, errorType).Inc()
}

// RecordStreamError counts a driver-reported stream error.
func (m *SoundMetrics) RecordStreamError(category string, suppressed bool) {
	m.streamErrorsTotal.WithLabelValues(category).Inc()
	if suppressed {
		m.streamErrorsSuppressed.Inc()
	}
}

// RecordOverrun records one callback overrun.
func (m *SoundMetrics) RecordOverrun(elapsedSeconds, maxAllowedSeconds float64) {
	m.overrunsTotal.Inc()
	m.overrunElapsed.Observe(elapsedSeconds)
	if maxAllowedSeconds > 0 {
		m.overrunRatio.Observe(elapsedSeconds / maxAllowedSeconds)
	}
}

// SetGraphNodes updates the graph size gauge.
func (m *SoundMetrics) SetGraphNodes(n int) {
	m.graphNodes.Set(float64(n))
}

// Describe implements the prometheus.Collector interface
func (m *SoundMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.operationsTotal.Describe(ch)
	m.operationDuration.Describe(ch)
	m.operationErrors.Describe(ch)
	m.streamErrorsTotal.Describe(ch)
	m.streamErrorsSuppressed.Describe(ch)
	m.overrunsTotal.Describe(ch)
	m.overrunElapsed.Describe(ch)
	m.overrunRatio.Describe(ch)
	m.graphNodes.Describe(ch)
	ch <- m.syncReadsDesc
	ch <- m.tapBytesDesc
}

// Collect implements the prometheus.Collector interface
func (m *SoundMetrics) Collect(ch chan<- prometheus.Metric) {
	m.operationsTotal.Collect(ch)
	m.operationDuration.Collect(ch)
	m.operationErrors.Collect(ch)
	m.streamErrorsTotal.Collect(ch)
	m.streamErrorsSuppressed.Collect(ch)
	m.overrunsTotal.Collect(ch)
	m.overrunElapsed.Collect(ch)
	m.overrunRatio.Collect(ch)
	m.graphNodes.Collect(ch)

	if m.snapshotSource == nil {
		return
	}
	s := m.snapshotSource()
	ch <- prometheus.MustNewConstMetric(m.syncReadsDesc, prometheus.CounterValue, float64(s.FreshReads), "fresh")
	ch <- prometheus.MustNewConstMetric(m.syncReadsDesc, prometheus.CounterValue, float64(s.StaleReads), "stale")
	ch <- prometheus.MustNewConstMetric(m.tapBytesDesc, prometheus.CounterValue, float64(s.TapWritten), "written")
	ch <- prometheus.MustNewConstMetric(m.tapBytesDesc, prometheus.CounterValue, float64(s.TapDropped), "dropped")
}
