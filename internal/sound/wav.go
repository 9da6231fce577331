package sound

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavBitDepth = 16

// wavSink encodes interleaved float output as 16-bit PCM WAV.
type wavSink struct {
	enc            *wav.Encoder
	buf            *audio.IntBuffer
	bytesPerSample int
	samples        int
}

func newWAVSink(w io.WriteSeeker, sampleRate, channels, bytesPerSample int) *wavSink {
	return &wavSink{
		enc: wav.NewEncoder(w, sampleRate, wavBitDepth, channels, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{SampleRate: sampleRate, NumChannels: channels},
			SourceBitDepth: wavBitDepth,
		},
		bytesPerSample: bytesPerSample,
	}
}

// write encodes the whole samples in p.
func (s *wavSink) write(p []byte) error {
	s.buf.Data = floatBytesToPCM16(p, s.bytesPerSample, s.buf.Data[:0])
	if len(s.buf.Data) == 0 {
		return nil
	}
	s.samples += len(s.buf.Data)
	return s.enc.Write(s.buf)
}

// close finalizes the WAV header. It does not close the underlying writer.
func (s *wavSink) close() error {
	return s.enc.Close()
}

// floatBytesToPCM16 appends the little-endian f32 or f64 samples in p to
// dst as 16-bit values, clamping to full scale.
func floatBytesToPCM16(p []byte, bytesPerSample int, dst []int) []int {
	switch bytesPerSample {
	case 4:
		for i := 0; i+4 <= len(p); i += 4 {
			dst = append(dst, toPCM16(float64(math.Float32frombits(binary.LittleEndian.Uint32(p[i:])))))
		}
	case 8:
		for i := 0; i+8 <= len(p); i += 8 {
			dst = append(dst, toPCM16(math.Float64frombits(binary.LittleEndian.Uint64(p[i:]))))
		}
	}
	return dst
}

func toPCM16(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	v = max(-1, min(1, v))
	return int(math.Round(v * math.MaxInt16))
}
