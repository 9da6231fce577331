package sound

import (
	"sync/atomic"

	"github.com/smallnest/ringbuffer"
)

// Tap copies the rendered output into a ring buffer for a control-side
// consumer. Offer never blocks: bytes that do not fit, or that arrive while
// the consumer holds the buffer, are dropped and counted.
type Tap struct {
	rb      *ringbuffer.RingBuffer
	format  TapFormat
	written atomic.Uint64
	dropped atomic.Uint64
}

// TapFormat describes the bytes flowing through a Tap.
type TapFormat struct {
	SampleRate uint32
	Channels   uint16
	// BytesPerSample is 4 for f32 and 8 for f64.
	BytesPerSample int
}

// NewTap creates a tap holding up to size bytes, rounded down to whole
// frames so partial writes never split a frame.
func NewTap(size int, format TapFormat) *Tap {
	if fb := format.FrameBytes(); fb > 0 {
		size -= size % fb
	}
	return &Tap{rb: ringbuffer.New(size), format: format}
}

// FrameBytes returns the size of one interleaved frame.
func (f TapFormat) FrameBytes() int {
	return int(f.Channels) * f.BytesPerSample
}

// Format returns the format the tap was created for.
func (t *Tap) Format() TapFormat { return t.format }

// Offer writes as much of p as fits without waiting.
func (t *Tap) Offer(p []byte) {
	n, _ := t.rb.TryWrite(p)
	t.written.Add(uint64(n))
	if n < len(p) {
		t.dropped.Add(uint64(len(p) - n))
	}
}

// Read drains buffered bytes into p. Callers should pass whole frames. It returns 0 and ringbuffer.ErrIsEmpty
// when there is nothing to read.
func (t *Tap) Read(p []byte) (int, error) {
	return t.rb.Read(p)
}

// Buffered returns the number of bytes waiting to be read.
func (t *Tap) Buffered() int {
	return t.rb.Length()
}

// Written returns the number of bytes accepted so far.
func (t *Tap) Written() uint64 { return t.written.Load() }

// Dropped returns the number of bytes discarded so far.
func (t *Tap) Dropped() uint64 { return t.dropped.Load() }
