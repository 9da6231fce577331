package synth

import "github.com/tphakala/aliendaw/internal/errors"

// ComponentSynth identifies errors raised by the synth graph
const ComponentSynth = "synth"

var (
	// ErrInvalidVolume is returned when a gain is negative, NaN, or infinite
	ErrInvalidVolume = errors.New(errors.NewStd("volume control value was negative, inf, or nan which are invalid states")).
				Component(ComponentSynth).
				Category(errors.CategoryValidation).
				Context("resource", "volume_control").
				Build()

	// ErrInvalidNode is returned when a node violates a structural invariant
	ErrInvalidNode = errors.New(errors.NewStd("invalid synth node")).
			Component(ComponentSynth).
			Category(errors.CategoryValidation).
			Context("resource", "synth_node").
			Build()

	// ErrNodeNotFound is returned when no node in the tree carries the requested ID
	ErrNodeNotFound = errors.New(errors.NewStd("synth node not found")).
			Component(ComponentSynth).
			Category(errors.CategoryNotFound).
			Context("resource", "synth_node").
			Build()

	// ErrNotMixer is returned when a mixer-only edit targets another kind
	ErrNotMixer = errors.New(errors.NewStd("synth node is not a mixer")).
			Component(ComponentSynth).
			Category(errors.CategoryConflict).
			Context("resource", "synth_node").
			Build()

	// ErrNotClip is returned when a clip-only edit targets another kind
	ErrNotClip = errors.New(errors.NewStd("synth node is not a clip")).
			Component(ComponentSynth).
			Category(errors.CategoryConflict).
			Context("resource", "synth_node").
			Build()

	// ErrReplaceRoot is returned when Replace targets the node it was called on
	ErrReplaceRoot = errors.New(errors.NewStd("cannot replace the graph root")).
			Component(ComponentSynth).
			Category(errors.CategoryConflict).
			Context("resource", "synth_node").
			Build()
)

// wrap attaches detail to a sentinel while keeping errors.Is matching intact.
func wrap(sentinel *errors.EnhancedError, format string, args ...any) error {
	return errors.Newf("%w: "+format, append([]any{sentinel}, args...)...).
		Component(ComponentSynth).
		Category(sentinel.Category).
		Build()
}
