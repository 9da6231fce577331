package synth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVolumeControl(t *testing.T) {
	testCases := []struct {
		name    string
		value   float32
		wantErr bool
	}{
		{"zero", 0, false},
		{"unity", 1, false},
		{"boost", 4.5, false},
		{"smallest positive", math.SmallestNonzeroFloat32, false},
		{"max float", math.MaxFloat32, false},
		{"negative", -0.5, true},
		{"negative zero", float32(math.Copysign(0, -1)), true},
		{"nan", float32(math.NaN()), true},
		{"positive infinity", float32(math.Inf(1)), true},
		{"negative infinity", float32(math.Inf(-1)), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			vc, err := NewVolumeControl(tc.value)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidVolume)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.value, vc.Value())
		})
	}
}

func TestDefaultVolumeIsUnity(t *testing.T) {
	assert.Equal(t, float32(1), DefaultVolume().Value())
	assert.Equal(t, Unity, DefaultVolume())
	assert.InDelta(t, 0.0, Unity.DB(), 1e-9)
}

func TestVolumeFromDB(t *testing.T) {
	vc, err := VolumeFromDB(-6)
	require.NoError(t, err)
	assert.InDelta(t, 0.501, vc.Value(), 0.001)
	assert.InDelta(t, -6.0, vc.DB(), 1e-3)

	mute, err := VolumeFromDB(math.Inf(-1))
	require.NoError(t, err)
	assert.Equal(t, float32(0), mute.Value())
	assert.True(t, math.IsInf(mute.DB(), -1))

	_, err = VolumeFromDB(math.NaN())
	assert.ErrorIs(t, err, ErrInvalidVolume)
	_, err = VolumeFromDB(math.Inf(1))
	assert.ErrorIs(t, err, ErrInvalidVolume)
}

func TestMustVolumePanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { MustVolume(-1) })
	assert.NotPanics(t, func() { MustVolume(0.25) })
}
