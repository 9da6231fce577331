package sound

import (
	"context"
	"io"
	"time"

	"github.com/tphakala/aliendaw/internal/errors"
	"github.com/tphakala/aliendaw/internal/logger"
	"github.com/tphakala/aliendaw/internal/observability/metrics"
)

const defaultDrainInterval = 50 * time.Millisecond

// Recorder drains a Tap into a WAV file on the control side.
type Recorder struct {
	tap      *Tap
	sink     *wavSink
	chunk    []byte
	interval time.Duration
	metrics  metrics.Recorder
	log      logger.Logger
}

// NewRecorder encodes everything offered to tap into w as 16-bit PCM WAV.
// metricsRecorder may be nil.
func NewRecorder(tap *Tap, w io.WriteSeeker, metricsRecorder metrics.Recorder) *Recorder {
	f := tap.Format()
	chunk := 4096
	if fb := f.FrameBytes(); fb > 0 {
		chunk -= chunk % fb
	}
	return &Recorder{
		tap:      tap,
		sink:     newWAVSink(w, int(f.SampleRate), int(f.Channels), f.BytesPerSample),
		chunk:    make([]byte, chunk),
		interval: defaultDrainInterval,
		metrics:  metricsRecorder,
		log:      GetLogger().Module("recorder"),
	}
}

// Run drains the tap until ctx is cancelled, then writes what is left and
// finalizes the file. It returns nil on cancellation.
func (r *Recorder) Run(ctx context.Context) error {
	start := time.Now()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			err := r.drain()
			if cerr := r.sink.close(); err == nil {
				err = cerr
			}
			r.finish(start, err)
			return err
		case <-ticker.C:
			if err := r.drain(); err != nil {
				_ = r.sink.close()
				r.finish(start, err)
				return err
			}
		}
	}
}

// drain encodes buffered tap bytes until the tap is empty.
func (r *Recorder) drain() error {
	for r.tap.Buffered() > 0 {
		n, _ := r.tap.Read(r.chunk)
		if n == 0 {
			return nil
		}
		if err := r.sink.write(r.chunk[:n]); err != nil {
			return errors.New(err).
				Component(ComponentSound).
				Category(errors.CategoryFileIO).
				Context("operation", "record_wav").
				Build()
		}
	}
	return nil
}

func (r *Recorder) finish(start time.Time, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		r.log.Error("recording failed", logger.Error(err))
	} else {
		r.log.Info("recording finished",
			logger.Int("samples", r.sink.samples),
			logger.Uint64("dropped_bytes", r.tap.Dropped()))
	}
	if r.metrics != nil {
		r.metrics.RecordOperation(metrics.OpRecord, status)
		r.metrics.RecordDuration(metrics.OpRecord, time.Since(start).Seconds())
	}
}
