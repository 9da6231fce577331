package synth

// NodeView is a JSON-friendly snapshot of a subtree.
type NodeView struct {
	ID         string        `json:"id"`
	Kind       string        `json:"kind"`
	MaxVol     *float32      `json:"max_vol,omitempty"`
	Level      *float32      `json:"level,omitempty"`
	Freq       *float32      `json:"freq,omitempty"`
	SampleRate *float32      `json:"sample_rate,omitempty"`
	Inner      *NodeView     `json:"inner,omitempty"`
	Children   []ChannelView `json:"children,omitempty"`
}

// ChannelView is a mixer input in a NodeView.
type ChannelView struct {
	Weight float32  `json:"weight"`
	Node   NodeView `json:"node"`
}

// Describe renders n's subtree. It allocates and belongs on the control side.
func (n *Node) Describe() NodeView {
	v := NodeView{ID: n.ID, Kind: n.Kind.String()}
	switch n.Kind {
	case KindClip:
		maxVol := n.MaxVol.v
		v.MaxVol = &maxVol
		if n.Inner != nil {
			inner := n.Inner.Describe()
			v.Inner = &inner
		}
	case KindMixer:
		v.Children = make([]ChannelView, 0, len(n.Children))
		for i := range n.Children {
			v.Children = append(v.Children, ChannelView{
				Weight: n.Children[i].Weight.v,
				Node:   n.Children[i].Node.Describe(),
			})
		}
	case KindConstant:
		level := n.Level
		v.Level = &level
	case KindSine:
		freq, rate := n.Freq, n.SampleRate
		v.Freq = &freq
		v.SampleRate = &rate
	}
	return v
}

// Count returns the number of nodes in n's subtree, n included.
func (n *Node) Count() int {
	total := 1
	if n.Inner != nil {
		total += n.Inner.Count()
	}
	for i := range n.Children {
		total += n.Children[i].Node.Count()
	}
	return total
}
