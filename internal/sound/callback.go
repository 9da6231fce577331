// Package sound runs the output side of the synth: it binds the shared
// synth graph to an audio device stream and reports what goes wrong while
// the stream runs.
package sound

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/tphakala/aliendaw/internal/audio"
	"github.com/tphakala/aliendaw/internal/rtsync"
	"github.com/tphakala/aliendaw/internal/synth"
)

// CallbackOptions configures BuildOutputCallback.
type CallbackOptions struct {
	// Overruns receives an event for every buffer filled slower than the
	// device allowed. Nil disables timing.
	Overruns chan<- CallbackOverrun
	// Tap, if set, is offered every filled buffer.
	Tap *Tap
	// Now is the clock used to time buffer fills. Defaults to time.Now.
	Now func() time.Time
}

type fillFunc func(out []byte, root *synth.Node) int

// BuildOutputCallback returns the data callback for a stream of the given
// sample format. Each invocation takes one read guard from reader and pulls
// one sample from the graph root per output slot.
//
// The returned callback never blocks and does not allocate once the graph
// cache has reached its working size.
func BuildOutputCallback(format audio.SampleFormat, reader *rtsync.Synchronizer[synth.Node], opts CallbackOptions) (audio.DataCallback, error) {
	var fill fillFunc
	switch format {
	case audio.FormatF32:
		fill = fillF32
	case audio.FormatF64:
		fill = fillF64
	default:
		return nil, wrap(ErrUnsupportedSampleFormat, nil, "format %s", format)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	overruns := opts.Overruns
	tap := opts.Tap

	return func(out []byte, info audio.CallbackInfo) {
		var start time.Time
		if overruns != nil {
			start = now()
		}

		guard := reader.Acquire()
		samples := fill(out, guard.Value())
		guard.Release()

		if tap != nil {
			tap.Offer(out)
		}

		if overruns == nil {
			return
		}
		elapsed := now().Sub(start)
		if limit := info.MaxElapsed(); elapsed > limit {
			select {
			case overruns <- CallbackOverrun{Elapsed: elapsed, MaxAllowed: limit, DataLen: samples}:
			default:
			}
		}
	}, nil
}

// BuildErrorCallback returns an error callback that forwards driver errors
// to ch, dropping them when nobody is receiving. A nil ch drops everything.
func BuildErrorCallback(ch chan<- StreamRuntimeError) audio.ErrorCallback {
	return func(err error) {
		if err == nil {
			return
		}
		select {
		case ch <- StreamRuntimeError{Err: err, At: time.Now()}:
		default:
		}
	}
}

func fillF32(out []byte, root *synth.Node) int {
	n := len(out) / 4
	for i := range n {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(root.Sample()))
	}
	return n
}

func fillF64(out []byte, root *synth.Node) int {
	n := len(out) / 8
	for i := range n {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(float64(root.Sample())))
	}
	return n
}
