package play

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/aliendaw/internal/audio"
	"github.com/tphakala/aliendaw/internal/audio/malgo"
	"github.com/tphakala/aliendaw/internal/audio/oto"
	"github.com/tphakala/aliendaw/internal/conf"
	"github.com/tphakala/aliendaw/internal/control"
	"github.com/tphakala/aliendaw/internal/errors"
	"github.com/tphakala/aliendaw/internal/logger"
	"github.com/tphakala/aliendaw/internal/observability"
	"github.com/tphakala/aliendaw/internal/rtsync"
	"github.com/tphakala/aliendaw/internal/sound"
	"github.com/tphakala/aliendaw/internal/synth"
)

// streamEventBuffer is the capacity of the error and overrun channels.
const streamEventBuffer = 64

// Options holds the flags of the play command.
type Options struct {
	Record   string
	Demo     bool
	Duration time.Duration
}

// Status is served at /api/v1/stats while playing.
type Status struct {
	Device  string             `json:"device"`
	Config  audio.StreamConfig `json:"config"`
	Playing bool               `json:"playing"`
	Sync    rtsync.Stats       `json:"sync"`
	Monitor sound.MonitorStats `json:"monitor"`
}

// Command creates the play command.
func Command(settings *conf.Settings) *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the synth graph on an output device",
		Long:  "Open the output device and play the synth graph until interrupted. The graph can be edited through the control API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Run(ctx, settings, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Record, "record", "", "Record the output to this WAV file")
	cmd.Flags().BoolVar(&opts.Demo, "demo", false, "Start with the demo graph instead of silence")
	cmd.Flags().DurationVar(&opts.Duration, "duration", 0, "Stop after this long, 0 plays until interrupted")
	cmd.Flags().BoolVar(&settings.Control.Enabled, "control", viper.GetBool("control.enabled"), "Serve the control API")
	cmd.Flags().StringVar(&settings.Control.Listen, "listen", viper.GetString("control.listen"), "Control API listen address")

	return cmd
}

// Run plays until ctx is cancelled or opts.Duration elapses.
func Run(ctx context.Context, settings *conf.Settings, opts Options) error {
	log := logger.Global().Module("cmd").Module("play")

	m, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	host, err := NewHost(settings)
	if err != nil {
		return err
	}
	defer host.Close()

	srvOpts, err := serverOptions(settings)
	if err != nil {
		return err
	}
	errs := make(chan sound.StreamRuntimeError, streamEventBuffer)
	srvOpts.Errors = errs
	var overruns chan sound.CallbackOverrun
	if settings.Audio.OverrunReports {
		overruns = make(chan sound.CallbackOverrun, streamEventBuffer)
		srvOpts.Overruns = overruns
	}
	if opts.Record != "" || settings.Audio.Tap.Enabled {
		srvOpts.TapSeconds = settings.Audio.Tap.Seconds
		if srvOpts.TapSeconds <= 0 {
			srvOpts.TapSeconds = conf.DefaultTapSeconds
		}
	}
	srvOpts.Metrics = m.Sound

	srv, err := sound.NewServer(host, srvOpts)
	if err != nil {
		return err
	}
	defer srv.Close()
	m.Sound.SetSnapshotSource(srv.Snapshot)

	cfg := srv.Config()
	graph := srv.Graph()
	if opts.Demo {
		_ = graph.Update(func(root *synth.Node) error {
			*root = synth.NewDemo(float32(cfg.SampleRate))
			return nil
		})
	}
	graph.View(func(root *synth.Node) { m.Sound.SetGraphNodes(root.Count()) })

	monitor := sound.NewMonitor(errs, overruns, sound.MonitorConfig{
		DuplicateWindow: settings.Monitor.DuplicateWindow,
		OverrunLogRate:  settings.Monitor.OverrunLogRate,
		Metrics:         m.Sound,
	})

	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	var recorder *sound.Recorder
	var recordFile *os.File
	if opts.Record != "" {
		recordFile, err = os.Create(opts.Record)
		if err != nil {
			return errors.New(err).
				Component("cmd").
				Category(errors.CategoryFileIO).
				Context("operation", "create_recording").
				Context("path", opts.Record).
				Build()
		}
		recorder = sound.NewRecorder(srv.Tap(), recordFile, m.Sound)
	}

	if err := srv.Play(); err != nil {
		if recordFile != nil {
			_ = recordFile.Close()
		}
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return monitor.Run(gctx) })

	if recorder != nil {
		g.Go(func() error {
			defer recordFile.Close()
			return recorder.Run(gctx)
		})
	}

	if settings.Control.Enabled {
		ctrl := control.New(control.Options{
			Graph:      graph,
			SampleRate: float32(cfg.SampleRate),
			Stats: func() any {
				return Status{
					Device:  srv.DeviceName(),
					Config:  srv.Config(),
					Playing: srv.Playing(),
					Sync:    srv.SyncStats(),
					Monitor: monitor.Stats(),
				}
			},
			Metrics:      m.Handler(),
			GraphMetrics: m.Sound,
		})
		g.Go(func() error { return ctrl.Run(gctx, settings.Control.Listen) })
	}

	log.Info("playing",
		logger.String("host", host.Name()),
		logger.String("device", srv.DeviceName()),
		logger.Bool("demo", opts.Demo),
		logger.String("record", opts.Record))

	err = g.Wait()
	if perr := srv.Pause(); perr != nil {
		log.Warn("failed to pause stream", logger.Error(perr))
	}
	log.Info("stopped", logger.Any("monitor", monitor.Stats()))
	return err
}

// NewHost opens the configured audio backend.
func NewHost(settings *conf.Settings) (audio.Host, error) {
	a := settings.Audio
	switch a.Backend {
	case "malgo", "":
		host, err := malgo.NewHost(malgo.Config{
			DeviceName:   a.Device,
			SampleRate:   uint32(a.SampleRate),
			Channels:     uint16(a.Channels),
			BufferFrames: uint32(a.BufferFrames),
		})
		if err != nil {
			return nil, err
		}
		return host, nil
	case oto.HostName:
		return oto.NewHost(oto.Config{
			SampleRate:   uint32(a.SampleRate),
			Channels:     uint16(a.Channels),
			BufferFrames: uint32(a.BufferFrames),
		}), nil
	case audio.HeadlessName:
		return audio.NewHeadless(audio.WithPacing()), nil
	default:
		return nil, errors.Newf("unknown audio backend %q", a.Backend).
			Component("cmd").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

func serverOptions(settings *conf.Settings) (sound.ServerOptions, error) {
	a := settings.Audio
	opts := sound.ServerOptions{
		SampleRate:   uint32(a.SampleRate),
		Channels:     uint16(a.Channels),
		BufferFrames: uint32(a.BufferFrames),
	}
	if a.SampleFormat != "" {
		format, ok := audio.ParseSampleFormat(a.SampleFormat)
		if !ok {
			return sound.ServerOptions{}, errors.Newf("%w: %q", sound.ErrUnsupportedSampleFormat, a.SampleFormat).
				Component("cmd").
				Category(errors.CategorySampleFormat).
				Build()
		}
		opts.Format = format
	}
	return opts, nil
}
