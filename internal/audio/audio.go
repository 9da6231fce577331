// Package audio defines the output backend contract the sound server is
// built on, plus a headless in-process backend.
package audio

import (
	"strings"
	"time"

	"github.com/tphakala/aliendaw/internal/errors"
)

// ComponentAudio identifies errors raised by audio backends
const ComponentAudio = "audio"

// ErrNoDevice is returned by a Host with no default output device.
var ErrNoDevice = errors.New(errors.NewStd("no default output device")).
	Component(ComponentAudio).
	Category(errors.CategoryAudioDevice).
	Build()

// SampleFormat is the sample representation negotiated with the device.
type SampleFormat uint8

const (
	FormatUnknown SampleFormat = iota
	FormatU8
	FormatI16
	FormatI24
	FormatI32
	FormatF32
	FormatF64
)

var formatNames = [...]string{
	FormatUnknown: "unknown",
	FormatU8:      "u8",
	FormatI16:     "i16",
	FormatI24:     "i24",
	FormatI32:     "i32",
	FormatF32:     "f32",
	FormatF64:     "f64",
}

func (f SampleFormat) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "unknown"
}

// MarshalText encodes the format by name.
func (f SampleFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// BytesPerSample returns the size of one sample, or 0 for FormatUnknown.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatU8:
		return 1
	case FormatI16:
		return 2
	case FormatI24:
		return 3
	case FormatI32, FormatF32:
		return 4
	case FormatF64:
		return 8
	default:
		return 0
	}
}

// ParseSampleFormat accepts the names produced by String, case-insensitively.
func ParseSampleFormat(s string) (SampleFormat, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range formatNames {
		if name == s && SampleFormat(f) != FormatUnknown {
			return SampleFormat(f), true
		}
	}
	return FormatUnknown, false
}

// StreamConfig is the negotiated output configuration. Samples are
// interleaved little-endian.
type StreamConfig struct {
	SampleRate   uint32
	Channels     uint16
	Format       SampleFormat
	BufferFrames uint32
}

// FrameBytes returns the size of one interleaved frame.
func (c StreamConfig) FrameBytes() int {
	return int(c.Channels) * c.Format.BytesPerSample()
}

// FramesDuration returns the playback duration of n frames.
func (c StreamConfig) FramesDuration(frames int) time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}

// CallbackInfo carries the driver timestamps for one callback: when the
// callback was invoked and when its first frame will be played.
type CallbackInfo struct {
	Callback time.Time
	Playback time.Time
}

// MaxElapsed is the time available to fill the buffer. A playback
// timestamp before the callback timestamp yields zero.
func (ci CallbackInfo) MaxElapsed() time.Duration {
	if d := ci.Playback.Sub(ci.Callback); d > 0 {
		return d
	}
	return 0
}

// DataCallback fills out, the device buffer for one invocation. It runs on
// the driver's real-time thread.
type DataCallback func(out []byte, info CallbackInfo)

// ErrorCallback receives errors the driver reports while the stream runs.
type ErrorCallback func(err error)

// Host is an audio API such as ALSA, CoreAudio or WASAPI.
type Host interface {
	Name() string
	// DefaultOutputDevice returns ErrNoDevice when the host has none.
	DefaultOutputDevice() (Device, error)
	Close() error
}

// Device is one output endpoint.
type Device interface {
	Name() string
	DefaultOutputConfig() (StreamConfig, error)
	BuildOutputStream(cfg StreamConfig, data DataCallback, onErr ErrorCallback) (Stream, error)
}

// Stream is a built output stream. Play and Pause may be called repeatedly.
type Stream interface {
	Play() error
	Pause() error
	Close() error
}

// DeviceInfo describes an enumerated device.
type DeviceInfo struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	ID        string `json:"id"`
	IsDefault bool   `json:"is_default"`
}
