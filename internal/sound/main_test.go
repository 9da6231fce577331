package sound

import (
	"testing"

	"go.uber.org/goleak"

	"github.com/tphakala/aliendaw/internal/rtsync"
	"github.com/tphakala/aliendaw/internal/synth"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func copyNode(dst, src *synth.Node) { dst.CopyFrom(src) }

// constantGraph is the default master shape with one constant child.
func constantGraph(level float32) *rtsync.Shared[synth.Node] {
	return rtsync.NewShared(synth.NewClip(
		synth.NewMixer(synth.NewChannel(synth.NewConstant(level), synth.Unity)),
		synth.Unity,
	))
}
