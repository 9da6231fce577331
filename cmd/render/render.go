package render

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/aliendaw/internal/audio"
	"github.com/tphakala/aliendaw/internal/conf"
	"github.com/tphakala/aliendaw/internal/errors"
	"github.com/tphakala/aliendaw/internal/logger"
	"github.com/tphakala/aliendaw/internal/rtsync"
	"github.com/tphakala/aliendaw/internal/sound"
	"github.com/tphakala/aliendaw/internal/synth"
)

const defaultLength = 5 * time.Second

// Command renders the demo graph to a WAV file without an audio device.
func Command(settings *conf.Settings) *cobra.Command {
	var length time.Duration

	cmd := &cobra.Command{
		Use:   "render [output.wav]",
		Short: "Render the demo graph to a WAV file",
		Long:  "Render the demo graph offline, as fast as possible, into a 16-bit PCM WAV file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, settings, args[0], length)
		},
	}

	cmd.Flags().DurationVar(&length, "length", defaultLength, "Length of audio to render")

	return cmd
}

func run(ctx context.Context, settings *conf.Settings, path string, length time.Duration) error {
	if length <= 0 {
		return errors.Newf("render length must be positive, got %s", length).
			Component("cmd").
			Category(errors.CategoryValidation).
			Build()
	}
	cfg, err := StreamConfig(settings)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.New(err).
			Component("cmd").
			Category(errors.CategoryFileIO).
			Context("operation", "create_output").
			Context("path", path).
			Build()
	}
	defer f.Close()

	graph := rtsync.NewShared(synth.NewDemo(float32(cfg.SampleRate)))
	res, err := sound.Render(ctx, graph, cfg, length, f, nil)
	if err != nil {
		return err
	}

	logger.Global().Module("cmd").Info("rendered WAV",
		logger.String("path", path),
		logger.Int("frames", res.Frames),
		logger.Duration("audio", res.Duration),
		logger.Duration("elapsed", res.Elapsed))
	return f.Sync()
}

// StreamConfig resolves the offline stream format: headless defaults with
// the configured overrides applied.
func StreamConfig(settings *conf.Settings) (audio.StreamConfig, error) {
	cfg := audio.DefaultStreamConfig
	a := settings.Audio
	if a.SampleRate > 0 {
		cfg.SampleRate = uint32(a.SampleRate)
	}
	if a.Channels > 0 {
		cfg.Channels = uint16(a.Channels)
	}
	if a.BufferFrames > 0 {
		cfg.BufferFrames = uint32(a.BufferFrames)
	}
	if a.SampleFormat != "" {
		format, ok := audio.ParseSampleFormat(a.SampleFormat)
		if !ok {
			return audio.StreamConfig{}, errors.Newf("%w: %q", sound.ErrUnsupportedSampleFormat, a.SampleFormat).
				Component("cmd").
				Category(errors.CategorySampleFormat).
				Build()
		}
		cfg.Format = format
	}
	return cfg, nil
}
