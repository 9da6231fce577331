package synth

import (
	"math"
	"slices"
)

// Graph edits run on the control goroutine while it holds the shared
// graph's writer lock. None of them are safe to call concurrently with Sample.

// Find returns the node with the given ID in n's subtree, or nil.
func (n *Node) Find(id string) *Node {
	if n.ID == id {
		return n
	}
	if n.Inner != nil {
		if found := n.Inner.Find(id); found != nil {
			return found
		}
	}
	for i := range n.Children {
		if found := n.Children[i].Node.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// AddChild appends child to a mixer and returns the child's ID.
func (n *Node) AddChild(child Node, weight VolumeControl) (string, error) {
	if n.Kind != KindMixer {
		return "", wrap(ErrNotMixer, "node %s is a %s", n.ID, n.Kind)
	}
	if child.ID == "" {
		child.ID = newID()
	}
	n.Children = append(n.Children, Channel{Node: child, Weight: weight})
	return child.ID, nil
}

// RemoveChild removes the direct mixer child with the given ID.
func (n *Node) RemoveChild(id string) error {
	i, err := n.childIndex(id)
	if err != nil {
		return err
	}
	n.Children = slices.Delete(n.Children, i, i+1)
	return nil
}

// SetWeight replaces the weight of a direct mixer child.
func (n *Node) SetWeight(id string, weight VolumeControl) error {
	i, err := n.childIndex(id)
	if err != nil {
		return err
	}
	n.Children[i].Weight = weight
	return nil
}

func (n *Node) childIndex(id string) (int, error) {
	if n.Kind != KindMixer {
		return 0, wrap(ErrNotMixer, "node %s is a %s", n.ID, n.Kind)
	}
	for i := range n.Children {
		if n.Children[i].Node.ID == id {
			return i, nil
		}
	}
	return 0, wrap(ErrNodeNotFound, "mixer %s has no child %s", n.ID, id)
}

// SetMaxVol replaces a clip's limit.
func (n *Node) SetMaxVol(maxVol VolumeControl) error {
	if n.Kind != KindClip {
		return wrap(ErrNotClip, "node %s is a %s", n.ID, n.Kind)
	}
	n.MaxVol = maxVol
	return nil
}

// Replace swaps the descendant with the given ID for replacement. The
// replacement keeps its own ID.
func (n *Node) Replace(id string, replacement Node) error {
	if n.ID == id {
		return wrap(ErrReplaceRoot, "node %s", id)
	}
	if err := replacement.Validate(); err != nil {
		return err
	}
	slot := n.findSlot(id)
	if slot == nil {
		return wrap(ErrNodeNotFound, "node %s", id)
	}
	if replacement.ID == "" {
		replacement.ID = newID()
	}
	*slot = replacement
	return nil
}

// findSlot returns the storage holding the descendant with the given ID.
func (n *Node) findSlot(id string) *Node {
	if n.Inner != nil {
		if n.Inner.ID == id {
			return n.Inner
		}
		if slot := n.Inner.findSlot(id); slot != nil {
			return slot
		}
	}
	for i := range n.Children {
		child := &n.Children[i].Node
		if child.ID == id {
			return child
		}
		if slot := child.findSlot(id); slot != nil {
			return slot
		}
	}
	return nil
}

// Validate checks the structural invariants of n's subtree.
func (n *Node) Validate() error {
	switch n.Kind {
	case KindSilence:
	case KindClip:
		if n.Inner == nil {
			return wrap(ErrInvalidNode, "clip %s has no inner node", n.ID)
		}
		if _, err := NewVolumeControl(n.MaxVol.v); err != nil {
			return err
		}
		return n.Inner.Validate()
	case KindMixer:
		for i := range n.Children {
			if _, err := NewVolumeControl(n.Children[i].Weight.v); err != nil {
				return err
			}
			if err := n.Children[i].Node.Validate(); err != nil {
				return err
			}
		}
	case KindConstant:
		if !isFinite(n.Level) {
			return wrap(ErrInvalidNode, "constant %s level %v is not finite", n.ID, n.Level)
		}
	case KindSine:
		if !isFinite(n.Freq) || n.Freq < 0 {
			return wrap(ErrInvalidNode, "sine %s frequency %v", n.ID, n.Freq)
		}
		if !isFinite(n.SampleRate) || n.SampleRate <= 0 {
			return wrap(ErrInvalidNode, "sine %s sample rate %v", n.ID, n.SampleRate)
		}
	default:
		return wrap(ErrInvalidNode, "node %s has unknown kind %d", n.ID, n.Kind)
	}
	return nil
}

func isFinite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
