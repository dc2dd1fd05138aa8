/*
Package blurhash is a library for decoding blurhash strings into placeholder
images.

A blurhash is a short base 83 encoded string holding the first few DCT
coefficients of an image. Decoding evaluates the inverse DCT at each pixel of
the requested output size which is cheap enough for small placeholders but
should be kept off any latency sensitive path; the Service type runs decodes on
a pool of workers for that reason.
*/
package blurhash

import (
	"image/color"
	"math"

	"github.com/pkg/errors"
)

// Options are the decoding options.
type Options struct {
	// Punch scales the AC components to increase or decrease contrast. Zero
	// is treated as 1.
	Punch float64
}

func (o *Options) punch() float64 {
	if o == nil || o.Punch == 0 {
		return 1
	}
	return o.Punch
}

// Decode decodes hash into a width by height pixel buffer.
func Decode(hash string, width, height int, opts ...*Options) (*PixelBuffer, error) {
	var o *Options
	if len(opts) > 0 {
		o = opts[0]
	}

	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimension, "%dx%d", width, height)
	}

	// Both the pixel buffer and the cosine tables must be addressable
	if width > math.MaxInt/4/MaxComponents/height {
		return nil, errors.Wrapf(ErrInvalidDimension, "%dx%d is too large", width, height)
	}

	h, err := parseHeader(hash)
	if err != nil {
		return nil, err
	}

	return synthesize(h.xComponents, h.yComponents, h.colors(o.punch()), width, height), nil
}

func synthesize(xComponents, yComponents int, colors []factor, width, height int) *PixelBuffer {
	pb := newPixelBuffer(width, height)

	// Cosine terms only depend on one axis each
	cosX := make([]float64, width*xComponents)
	for x := 0; x < width; x++ {
		for i := 0; i < xComponents; i++ {
			cosX[x*xComponents+i] = math.Cos(math.Pi * float64(x) * float64(i) / float64(width))
		}
	}
	cosY := make([]float64, height*yComponents)
	for y := 0; y < height; y++ {
		for j := 0; j < yComponents; j++ {
			cosY[y*yComponents+j] = math.Cos(math.Pi * float64(y) * float64(j) / float64(height))
		}
	}

	for y, o := 0, 0; y < height; y++ {
		for x := 0; x < width; x, o = x+1, o+4 {
			var r, g, b float64
			for j := 0; j < yComponents; j++ {
				for i := 0; i < xComponents; i++ {
					basis := cosX[x*xComponents+i] * cosY[y*yComponents+j]
					c := colors[i+j*xComponents]
					r += c.r * basis
					g += c.g * basis
					b += c.b * basis
				}
			}

			pb.Pix[o+0] = linearToSRGB(r)
			pb.Pix[o+1] = linearToSRGB(g)
			pb.Pix[o+2] = linearToSRGB(b)
			pb.Pix[o+3] = 0xff
		}
	}

	return pb
}

// Components returns the number of horizontal and vertical components
// encoded in hash after validating its length.
func Components(hash string) (int, int, error) {
	return parseSize(hash)
}

// AverageColor returns the DC component of hash which is the average color
// of the original image.
func AverageColor(hash string) (color.RGBA, error) {
	h, err := parseHeader(hash)
	if err != nil {
		return color.RGBA{}, err
	}
	return color.RGBA{
		R: uint8(h.dc >> 16 & 0xff),
		G: uint8(h.dc >> 8 & 0xff),
		B: uint8(h.dc & 0xff),
		A: 0xff,
	}, nil
}
