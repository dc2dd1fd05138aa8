package blurhash

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPixelBufferImage(t *testing.T) {
	pb, err := Decode(testHash, 10, 6)
	require.NoError(t, err)

	var m image.Image = pb
	assert.Equal(t, image.Rect(0, 0, 10, 6), m.Bounds())
	assert.True(t, m.ColorModel() == color.RGBAModel)
	assert.Equal(t, color.RGBA{}, pb.RGBAAt(10, 0))
	assert.Equal(t, color.RGBA{}, pb.RGBAAt(-1, 0))

	rgba := pb.RGBA()
	assert.Equal(t, pb.Pix, rgba.Pix)

	// Copy, not a view
	rgba.Pix[0] ^= 0xff
	assert.NotEqual(t, pb.Pix[0], rgba.Pix[0])
}

func TestPixelBufferPaletted(t *testing.T) {
	pb, err := Decode(testHash, 32, 32)
	require.NoError(t, err)

	for _, colors := range []int{2, 16} {
		p := pb.Paletted(colors)
		assert.Equal(t, pb.Bounds(), p.Bounds())
		assert.LessOrEqual(t, len(p.Palette), colors)
	}

	// Already a single color so the palette can't be any bigger
	pb, err = Decode("00ErM:", 8, 8)
	require.NoError(t, err)
	p := pb.Paletted(16)
	require.NotEmpty(t, p.Palette)
	r, g, b, _ := p.At(4, 4).RGBA()
	assert.Equal(t, [3]uint32{0x7f, 0xbf, 0x3f}, [3]uint32{r >> 8, g >> 8, b >> 8})
}
