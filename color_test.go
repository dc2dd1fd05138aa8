package blurhash

import (
	"testing"

	"github.com/bodgit/blurhash/base83"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSRGBRoundTrip(t *testing.T) {
	for v := 0; v < 256; v++ {
		assert.Equal(t, uint8(v), linearToSRGB(sRGBToLinear(uint8(v))), "value %d", v)
	}
}

func TestLinearToSRGBClamps(t *testing.T) {
	assert.Equal(t, uint8(0), linearToSRGB(-0.5))
	assert.Equal(t, uint8(255), linearToSRGB(1.5))
}

func TestSignedPow2(t *testing.T) {
	for _, x := range []float64{0, 0.25, 0.5, 1, 2.5} {
		assert.Equal(t, -signedPow2(x), signedPow2(-x))
		assert.Equal(t, x*x, signedPow2(x))
	}
}

func TestMaximumValue(t *testing.T) {
	prev := 0.0
	for q := 0; q < base83.Base; q++ {
		digit, err := base83.Encode(q, 1)
		require.NoError(t, err)

		h, err := parseHeader("0" + digit + "ErM:")
		require.NoError(t, err)
		assert.InDelta(t, float64(q+1)/166, h.maximumValue, 1e-12)
		assert.Greater(t, h.maximumValue, prev)
		prev = h.maximumValue
	}
}

func TestDecodeAC(t *testing.T) {
	// 9 in every digit is zero
	assert.Equal(t, factor{}, decodeAC(9*19*19+9*19+9, 1))

	f := decodeAC(18*19*19+0*19+9, 0.5)
	assert.InDelta(t, 0.5, f.r, 1e-12)
	assert.InDelta(t, -0.5, f.g, 1e-12)
	assert.InDelta(t, 0, f.b, 1e-12)
}

func TestEncodeACRoundTrip(t *testing.T) {
	for packed := 0; packed < 19*19*19; packed++ {
		assert.Equal(t, packed, encodeAC(decodeAC(packed, 0.25), 0.25))
	}
}
