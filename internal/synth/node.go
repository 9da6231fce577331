// Package synth implements the sample-producing graph: a tree of nodes that
// is pulled once per output frame by the real-time audio callback.
//
// Node is a closed tagged variant. Sample dispatches on Kind so the hot path
// has no interface calls, and a node's children are owned by value except
// for the single boxed child of a Clip.
package synth

import (
	"math"

	"github.com/google/uuid"
)

// Kind selects which variant a Node is.
type Kind uint8

const (
	KindSilence Kind = iota
	KindClip
	KindMixer
	KindConstant
	KindSine
)

var kindNames = [...]string{
	KindSilence:  "silence",
	KindClip:     "clip",
	KindMixer:    "mixer",
	KindConstant: "constant",
	KindSine:     "sine",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return 0, false
}

// Node is one element of the synth graph. Only the fields belonging to Kind
// are meaningful.
type Node struct {
	ID   string
	Kind Kind

	// Clip
	Inner  *Node
	MaxVol VolumeControl

	// Mixer
	Children []Channel

	// Constant
	Level float32

	// Sine
	Freq       float32
	SampleRate float32
	phase      float64
}

// Channel is a mixer input: an owned child node and its weight.
type Channel struct {
	Node   Node
	Weight VolumeControl
}

func newID() string {
	return uuid.NewString()
}

// NewSilence returns a leaf producing constant zero.
func NewSilence() Node {
	return Node{ID: newID(), Kind: KindSilence}
}

// NewConstant returns a leaf producing level on every frame.
func NewConstant(level float32) Node {
	return Node{ID: newID(), Kind: KindConstant, Level: level}
}

// NewSine returns a unit-amplitude oscillator at freq Hz.
func NewSine(freq, sampleRate float32) Node {
	return Node{ID: newID(), Kind: KindSine, Freq: freq, SampleRate: sampleRate}
}

// NewClip wraps inner and clamps its output to [-maxVol, +maxVol].
func NewClip(inner Node, maxVol VolumeControl) Node {
	return Node{ID: newID(), Kind: KindClip, Inner: &inner, MaxVol: maxVol}
}

// NewMixer returns a mixer over the given channels.
func NewMixer(children ...Channel) Node {
	return Node{ID: newID(), Kind: KindMixer, Children: children}
}

// NewChannel pairs a node with its mixer weight.
func NewChannel(node Node, weight VolumeControl) Channel {
	return Channel{Node: node, Weight: weight}
}

// NewMaster returns the default graph root: an empty mixer inside a unity clip.
func NewMaster() Node {
	return NewClip(NewMixer(), Unity)
}

// Sample produces the node's next output value. It does not allocate and
// must only be called by the goroutine that currently owns the node.
func (n *Node) Sample() float32 {
	switch n.Kind {
	case KindClip:
		s := n.Inner.Sample()
		limit := n.MaxVol.v
		if s > limit {
			return limit
		}
		if s < -limit {
			return -limit
		}
		return s
	case KindMixer:
		if len(n.Children) == 0 {
			return 0
		}
		var sum float32
		for i := range n.Children {
			c := &n.Children[i]
			sum += c.Node.Sample() * c.Weight.v
		}
		// Divided by the channel count, not the weight sum.
		return sum / float32(len(n.Children))
	case KindConstant:
		return n.Level
	case KindSine:
		s := float32(math.Sin(2 * math.Pi * n.phase))
		n.phase += float64(n.Freq) / float64(n.SampleRate)
		if n.phase >= 1 {
			n.phase -= math.Floor(n.phase)
		}
		return s
	default:
		return 0
	}
}

// CopyFrom makes n a deep copy of src, reusing n's existing child storage.
// When n already has src's shape, no allocation happens.
func (n *Node) CopyFrom(src *Node) {
	n.ID = src.ID
	n.Kind = src.Kind
	n.MaxVol = src.MaxVol
	n.Level = src.Level
	n.Freq = src.Freq
	n.SampleRate = src.SampleRate
	n.phase = src.phase

	if src.Inner != nil {
		if n.Inner == nil {
			n.Inner = &Node{}
		}
		n.Inner.CopyFrom(src.Inner)
	} else {
		n.Inner = nil
	}

	if src.Children == nil {
		n.Children = n.Children[:0]
		return
	}
	if cap(n.Children) < len(src.Children) {
		grown := make([]Channel, len(src.Children))
		copy(grown, n.Children[:cap(n.Children)])
		n.Children = grown
	}
	n.Children = n.Children[:len(src.Children)]
	for i := range src.Children {
		n.Children[i].Weight = src.Children[i].Weight
		n.Children[i].Node.CopyFrom(&src.Children[i].Node)
	}
}

// Clone returns an independent deep copy of n.
func (n *Node) Clone() Node {
	var c Node
	c.CopyFrom(n)
	return c
}
