package blurhash

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/ericpauley/go-quantize/quantize"
)

// PixelBuffer is a decoded placeholder. Pix holds Width*Height pixels in
// row-major order, four bytes each in R, G, B, A order with A always 0xff.
// It implements image.Image.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []byte
}

func newPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*4),
	}
}

// ColorModel returns color.RGBAModel, the pixels are always opaque so there
// is no premultiplication to account for.
func (pb *PixelBuffer) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds returns the image bounds anchored at (0, 0).
func (pb *PixelBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, pb.Width, pb.Height)
}

// At returns the color of the pixel at (x, y).
func (pb *PixelBuffer) At(x, y int) color.Color {
	return pb.RGBAAt(x, y)
}

// RGBAAt returns the color of the pixel at (x, y).
func (pb *PixelBuffer) RGBAAt(x, y int) color.RGBA {
	if !(image.Point{x, y}.In(pb.Bounds())) {
		return color.RGBA{}
	}
	i := (y*pb.Width + x) * 4
	s := pb.Pix[i : i+4 : i+4]
	return color.RGBA{s[0], s[1], s[2], s[3]}
}

// RGBA returns a copy of the buffer as an *image.RGBA.
func (pb *PixelBuffer) RGBA() *image.RGBA {
	m := image.NewRGBA(pb.Bounds())
	copy(m.Pix, pb.Pix)
	return m
}

// Paletted returns a copy of the buffer reduced to at most colors colors
// using median cut quantization. colors is clamped to 1-256.
func (pb *PixelBuffer) Paletted(colors int) *image.Paletted {
	switch {
	case colors < 1:
		colors = 1
	case colors > 256:
		colors = 256
	}

	b := pb.Bounds()
	q := quantize.MedianCutQuantizer{}
	m := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, colors), pb))
	draw.Draw(m, b, pb, b.Min, draw.Src)
	return m
}
