package synth

// NewDemo returns a master graph holding an A major triad, limited to -3 dB.
// The play and render commands use it when no graph is supplied.
func NewDemo(sampleRate float32) Node {
	mix := NewMixer(
		NewChannel(NewSine(440, sampleRate), MustVolume(0.8)),
		NewChannel(NewSine(554.37, sampleRate), MustVolume(0.6)),
		NewChannel(NewSine(659.25, sampleRate), MustVolume(0.6)),
	)
	limit, err := VolumeFromDB(-3)
	if err != nil {
		panic(err)
	}
	return NewClip(mix, limit)
}
