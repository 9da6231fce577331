package sound

import (
	"fmt"
	"time"

	"github.com/tphakala/aliendaw/internal/errors"
)

// ComponentSound identifies errors raised by the sound server
const ComponentSound = "sound"

var (
	// ErrNoOutputDevice is returned when the host has no default output device
	ErrNoOutputDevice = errors.New(errors.NewStd("no output device available")).
				Component(ComponentSound).
				Category(errors.CategoryAudioDevice).
				Build()

	// ErrStreamConfigQuery is returned when the device's output configuration cannot be read
	ErrStreamConfigQuery = errors.New(errors.NewStd("failed to query output stream config")).
				Component(ComponentSound).
				Category(errors.CategoryStreamConfig).
				Build()

	// ErrStreamBuild is returned when the device refuses to build the output stream
	ErrStreamBuild = errors.New(errors.NewStd("failed to build output stream")).
			Component(ComponentSound).
			Category(errors.CategoryStreamBuild).
			Build()

	// ErrUnsupportedSampleFormat is returned for sample formats other than f32 and f64
	ErrUnsupportedSampleFormat = errors.New(errors.NewStd("unsupported sample format")).
					Component(ComponentSound).
					Category(errors.CategorySampleFormat).
					Build()

	// ErrServerClosed is returned by Play and Pause after Close
	ErrServerClosed = errors.New(errors.NewStd("sound server closed")).
			Component(ComponentSound).
			Category(errors.CategoryState).
			Build()
)

// wrap attaches detail and an optional cause to a sentinel. Both stay
// reachable through errors.Is.
func wrap(sentinel *errors.EnhancedError, cause error, format string, args ...any) error {
	args = append([]any{sentinel}, args...)
	if cause != nil {
		format += ": %w"
		args = append(args, cause)
	}
	return errors.Newf("%w: "+format, args...).
		Component(ComponentSound).
		Category(sentinel.Category).
		Build()
}

// CallbackOverrun reports an output callback that took longer to fill its
// buffer than the device allowed.
type CallbackOverrun struct {
	Elapsed    time.Duration
	MaxAllowed time.Duration
	// DataLen is the buffer length in samples.
	DataLen int
}

func (o CallbackOverrun) Error() string {
	return fmt.Sprintf("output callback overrun: filled %d samples in %s, allowed %s", o.DataLen, o.Elapsed, o.MaxAllowed)
}

// StreamRuntimeError is a stream error reported by the driver after the
// stream was built.
type StreamRuntimeError struct {
	Err error
	At  time.Time
}

func (e StreamRuntimeError) Error() string {
	return "stream runtime error: " + e.Err.Error()
}

func (e StreamRuntimeError) Unwrap() error { return e.Err }
