package synth

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

// VolumeControl is an immutable, validated gain: finite and not negative.
// The zero value is a valid mute.
type VolumeControl struct {
	v float32
}

// Unity is the default gain.
var Unity = VolumeControl{v: 1.0}

// DefaultVolume returns unity gain.
func DefaultVolume() VolumeControl {
	return Unity
}

// NewVolumeControl validates v. Negative values, including -0.0, NaN and
// both infinities are rejected with ErrInvalidVolume.
func NewVolumeControl(v float32) (VolumeControl, error) {
	f := float64(v)
	if math.Signbit(f) || math.IsNaN(f) || math.IsInf(f, 0) {
		return VolumeControl{}, wrap(ErrInvalidVolume, "%v", v)
	}
	return VolumeControl{v: v}, nil
}

// MustVolume is NewVolumeControl for constants known to be valid.
func MustVolume(v float32) VolumeControl {
	vc, err := NewVolumeControl(v)
	if err != nil {
		panic(err)
	}
	return vc
}

// VolumeFromDB converts a decibel gain (20·log10 convention) to a VolumeControl.
func VolumeFromDB(db float64) (VolumeControl, error) {
	if math.IsNaN(db) || math.IsInf(db, 1) {
		return VolumeControl{}, wrap(ErrInvalidVolume, "%v dB", db)
	}
	return NewVolumeControl(float32(core.DBToLinear(db)))
}

// Value returns the linear gain.
func (vc VolumeControl) Value() float32 {
	return vc.v
}

// DB returns the gain in decibels; a mute is -Inf.
func (vc VolumeControl) DB() float64 {
	return core.LinearToDB(float64(vc.v))
}
