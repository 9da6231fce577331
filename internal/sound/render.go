package sound

import (
	"context"
	"io"
	"time"

	"github.com/tphakala/aliendaw/internal/audio"
	"github.com/tphakala/aliendaw/internal/errors"
	"github.com/tphakala/aliendaw/internal/logger"
	"github.com/tphakala/aliendaw/internal/observability/metrics"
	"github.com/tphakala/aliendaw/internal/rtsync"
	"github.com/tphakala/aliendaw/internal/synth"
)

// RenderResult summarizes an offline render.
type RenderResult struct {
	Frames   int
	Samples  int
	Duration time.Duration
	Elapsed  time.Duration
}

// Render plays graph through a headless stream as fast as possible for
// length of audio and writes it to w as 16-bit PCM WAV. The graph is read
// through the same callback a device stream uses. metricsRecorder may be nil.
func Render(ctx context.Context, graph *rtsync.Shared[synth.Node], cfg audio.StreamConfig, length time.Duration, w io.WriteSeeker, metricsRecorder metrics.Recorder) (RenderResult, error) {
	start := time.Now()
	host := audio.NewHeadless(audio.WithConfig(cfg))
	defer host.Close()

	srv, err := NewServer(host, ServerOptions{Graph: graph, Metrics: metricsRecorder})
	if err != nil {
		return RenderResult{}, err
	}
	defer srv.Close()
	if err := srv.Play(); err != nil {
		return RenderResult{}, err
	}

	stream := host.LastStream()
	negotiated := srv.Config()
	total := int(time.Duration(negotiated.SampleRate) * length / time.Second)
	block := int(negotiated.BufferFrames)
	if block <= 0 {
		block = int(audio.DefaultStreamConfig.BufferFrames)
	}

	sink := newWAVSink(w, int(negotiated.SampleRate), int(negotiated.Channels), negotiated.Format.BytesPerSample())
	log := GetLogger().Module("render")

	frames := 0
	for frames < total {
		if err := ctx.Err(); err != nil {
			_ = sink.close()
			return RenderResult{Frames: frames}, err
		}
		n := min(block, total-frames)
		out, err := stream.Pump(n)
		if err != nil {
			_ = sink.close()
			return RenderResult{Frames: frames}, err
		}
		if err := sink.write(out); err != nil {
			_ = sink.close()
			return RenderResult{Frames: frames}, renderIOError(err)
		}
		frames += n
	}
	if err := sink.close(); err != nil {
		return RenderResult{Frames: frames}, renderIOError(err)
	}

	res := RenderResult{
		Frames:   frames,
		Samples:  sink.samples,
		Duration: negotiated.FramesDuration(frames),
		Elapsed:  time.Since(start),
	}
	if metricsRecorder != nil {
		metricsRecorder.RecordOperation(metrics.OpRender, metrics.StatusSuccess)
		metricsRecorder.RecordDuration(metrics.OpRender, res.Elapsed.Seconds())
	}
	log.Info("render finished",
		logger.Int("frames", res.Frames),
		logger.Duration("audio", res.Duration),
		logger.Duration("elapsed", res.Elapsed))
	return res, nil
}

func renderIOError(err error) error {
	return errors.New(err).
		Component(ComponentSound).
		Category(errors.CategoryFileIO).
		Context("operation", "render_wav").
		Build()
}
