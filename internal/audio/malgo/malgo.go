// Package malgo provides a miniaudio-backed output host using malgo.
package malgo

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/tphakala/aliendaw/internal/audio"
	"github.com/tphakala/aliendaw/internal/errors"
	"github.com/tphakala/aliendaw/internal/logger"
)

const component = "audio.malgo"

// ErrDeviceStopped is reported when the device stops without being asked to.
var ErrDeviceStopped = errors.New(errors.NewStd("audio device stopped unexpectedly")).
	Component(component).
	Category(errors.CategoryStream).
	Build()

// GetLogger returns the malgo backend logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("audio").Module("malgo")
}

// Config selects and shapes the output device. Zero values fall back to the
// device's native format.
type Config struct {
	DeviceName   string
	SampleRate   uint32
	Channels     uint16
	BufferFrames uint32
}

// Host wraps a miniaudio context on the platform's native backend.
type Host struct {
	config  Config
	backend malgo.Backend
	ctx     *malgo.AllocatedContext
	mu      sync.Mutex
}

// NewHost initializes a miniaudio context.
func NewHost(config Config) (*Host, error) {
	backend, err := getBackendForPlatform()
	if err != nil {
		return nil, err
	}

	ctx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, func(message string) {
		GetLogger().Debug("miniaudio", logger.String("message", message))
	})
	if err != nil {
		return nil, errors.New(err).
			Component(component).
			Category(errors.CategoryAudioDevice).
			Context("backend", runtime.GOOS).
			Context("operation", "init_context").
			Build()
	}

	return &Host{config: config, backend: backend, ctx: ctx}, nil
}

// Name returns the platform backend name.
func (h *Host) Name() string {
	return backendName(h.backend)
}

// DefaultOutputDevice selects the configured device, or the system default.
func (h *Host) DefaultOutputDevice() (audio.Device, error) {
	infos, err := h.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, errors.New(err).
			Component(component).
			Category(errors.CategoryAudioDevice).
			Context("operation", "enumerate_devices").
			Build()
	}
	if len(infos) == 0 {
		return nil, audio.ErrNoDevice
	}

	info, err := SelectDevice(infos, h.config.DeviceName)
	if err != nil {
		return nil, err
	}
	return &Device{host: h, info: *info}, nil
}

// Devices lists playback devices.
func (h *Host) Devices() ([]audio.DeviceInfo, error) {
	infos, err := h.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, errors.New(err).
			Component(component).
			Category(errors.CategoryAudioDevice).
			Context("operation", "enumerate_devices").
			Build()
	}
	devices := make([]audio.DeviceInfo, 0, len(infos))
	for i := range infos {
		decodedID, err := hexToASCII(infos[i].ID.String())
		if err != nil {
			decodedID = infos[i].ID.String()
		}
		devices = append(devices, audio.DeviceInfo{
			Index:     i,
			Name:      infos[i].Name(),
			ID:        decodedID,
			IsDefault: infos[i].IsDefault == 1,
		})
	}
	return devices, nil
}

// Close releases the miniaudio context.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ctx == nil {
		return nil
	}
	err := h.ctx.Uninit()
	h.ctx.Free()
	h.ctx = nil
	return err
}

// Device is a miniaudio playback device.
type Device struct {
	host *Host
	info malgo.DeviceInfo
}

func (d *Device) Name() string {
	return d.info.Name()
}

// DefaultOutputConfig reports the device's first native format, overridden
// by any non-zero Config fields. Samples are always requested as f32;
// miniaudio converts to the native format.
func (d *Device) DefaultOutputConfig() (audio.StreamConfig, error) {
	full, err := d.host.ctx.DeviceInfo(malgo.Playback, d.info.ID, malgo.Shared)
	if err != nil {
		return audio.StreamConfig{}, errors.New(err).
			Component(component).
			Category(errors.CategoryStreamConfig).
			Context("device_name", d.Name()).
			Context("operation", "query_device_info").
			Build()
	}

	cfg := audio.StreamConfig{
		SampleRate:   audio.DefaultStreamConfig.SampleRate,
		Channels:     audio.DefaultStreamConfig.Channels,
		Format:       audio.FormatF32,
		BufferFrames: audio.DefaultStreamConfig.BufferFrames,
	}
	if len(full.Formats) > 0 {
		native := full.Formats[0]
		if native.SampleRate > 0 {
			cfg.SampleRate = native.SampleRate
		}
		if native.Channels > 0 {
			cfg.Channels = uint16(native.Channels)
		}
	}

	c := d.host.config
	if c.SampleRate > 0 {
		cfg.SampleRate = c.SampleRate
	}
	if c.Channels > 0 {
		cfg.Channels = c.Channels
	}
	if c.BufferFrames > 0 {
		cfg.BufferFrames = c.BufferFrames
	}
	return cfg, nil
}

// BuildOutputStream initializes a playback device bound to data.
func (d *Device) BuildOutputStream(cfg audio.StreamConfig, data audio.DataCallback, onErr audio.ErrorCallback) (audio.Stream, error) {
	format, ok := formatToMalgo(cfg.Format)
	if !ok {
		return nil, errors.Newf("miniaudio cannot play %s samples", cfg.Format).
			Component(component).
			Category(errors.CategorySampleFormat).
			Context("format", cfg.Format.String()).
			Build()
	}

	if cfg.SampleRate == 0 || cfg.Channels == 0 {
		return nil, errors.Newf("invalid stream config %+v", cfg).
			Component(component).
			Category(errors.CategoryStreamBuild).
			Build()
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = format
	deviceConfig.Playback.Channels = uint32(cfg.Channels)
	deviceConfig.Playback.DeviceID = d.info.ID.Pointer()
	deviceConfig.Playback.ShareMode = malgo.Shared
	deviceConfig.SampleRate = cfg.SampleRate
	deviceConfig.PeriodSizeInFrames = cfg.BufferFrames
	deviceConfig.Alsa.NoMMap = 1

	s := &Stream{}
	rate := time.Duration(cfg.SampleRate)

	callbacks := malgo.DeviceCallbacks{
		// miniaudio has no playback timestamps; the deadline is one period.
		Data: func(out, _ []byte, frameCount uint32) {
			now := time.Now()
			data(out, audio.CallbackInfo{
				Callback: now,
				Playback: now.Add(time.Duration(frameCount) * time.Second / rate),
			})
		},
		Stop: func() {
			if s.playing.Load() && onErr != nil {
				onErr(ErrDeviceStopped)
			}
		},
	}

	device, err := malgo.InitDevice(d.host.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, errors.New(err).
			Component(component).
			Category(errors.CategoryStreamBuild).
			Context("device_name", d.Name()).
			Context("operation", "init_device").
			Build()
	}
	s.device = device

	GetLogger().Info("playback device initialized",
		logger.String("device", d.Name()),
		logger.Int("sample_rate", int(device.SampleRate())),
		logger.Int("channels", int(device.PlaybackChannels())),
		logger.Int("native_format", int(device.PlaybackFormat())))

	return s, nil
}

// Stream is a miniaudio playback device.
type Stream struct {
	device  *malgo.Device
	playing atomic.Bool
	closed  atomic.Bool
}

// Play starts the device.
func (s *Stream) Play() error {
	if s.closed.Load() {
		return errors.New(errors.NewStd("stream closed")).Component(component).Category(errors.CategoryState).Build()
	}
	s.playing.Store(true)
	if err := s.device.Start(); err != nil {
		s.playing.Store(false)
		return errors.New(err).
			Component(component).
			Category(errors.CategoryStream).
			Context("operation", "start_device").
			Build()
	}
	return nil
}

// Pause stops the device.
func (s *Stream) Pause() error {
	if !s.playing.Swap(false) {
		return nil
	}
	return s.device.Stop()
}

// Close stops and releases the device.
func (s *Stream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := s.Pause()
	s.device.Uninit()
	return err
}

func formatToMalgo(f audio.SampleFormat) (malgo.FormatType, bool) {
	switch f {
	case audio.FormatU8:
		return malgo.FormatU8, true
	case audio.FormatI16:
		return malgo.FormatS16, true
	case audio.FormatI24:
		return malgo.FormatS24, true
	case audio.FormatI32:
		return malgo.FormatS32, true
	case audio.FormatF32:
		return malgo.FormatF32, true
	default:
		return malgo.FormatUnknown, false
	}
}
