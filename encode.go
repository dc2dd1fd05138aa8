package blurhash

import (
	"image"
	"math"
	"strings"

	"github.com/bodgit/blurhash/base83"
	"github.com/pkg/errors"
)

// Encode returns the blurhash of img using xComponents by yComponents DCT
// components, each between 1 and 9.
func Encode(xComponents, yComponents int, img image.Image) (string, error) {
	if xComponents < 1 || xComponents > MaxComponents || yComponents < 1 || yComponents > MaxComponents {
		return "", errors.Wrapf(ErrInvalidComponents, "%dx%d", xComponents, yComponents)
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= 0 || height <= 0 {
		return "", errors.Wrapf(ErrInvalidDimension, "%dx%d", width, height)
	}

	factors := make([]factor, xComponents*yComponents)

	cosX := make([]float64, xComponents)
	cosY := make([]float64, yComponents)

	for y := 0; y < height; y++ {
		for j := range cosY {
			cosY[j] = math.Cos(math.Pi * float64(y) * float64(j) / float64(height))
		}
		for x := 0; x < width; x++ {
			for i := range cosX {
				cosX[i] = math.Cos(math.Pi * float64(x) * float64(i) / float64(width))
			}

			pr, pg, pb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			r := sRGBToLinear(uint8(pr >> 8))
			g := sRGBToLinear(uint8(pg >> 8))
			bl := sRGBToLinear(uint8(pb >> 8))

			for j := range cosY {
				for i := range cosX {
					basis := cosX[i] * cosY[j]
					f := &factors[j*xComponents+i]
					f.r += basis * r
					f.g += basis * g
					f.b += basis * bl
				}
			}
		}
	}

	dc, ac := factors[0], factors[1:]
	dc.scale(1 / float64(width*height))
	for i := range ac {
		ac[i].scale(2 / float64(width*height))
	}

	var sb strings.Builder
	sb.Grow(encodedLength(xComponents, yComponents))

	write := func(value, length int) error {
		s, err := base83.Encode(value, length)
		if err != nil {
			return err
		}
		sb.WriteString(s)
		return nil
	}

	if err := write((yComponents-1)*MaxComponents+xComponents-1, 1); err != nil {
		return "", err
	}

	maximumValue := 1.0
	quantizedMax := 0
	if len(ac) > 0 {
		var actualMax float64
		for _, f := range ac {
			actualMax = math.Max(actualMax, math.Max(math.Abs(f.r), math.Max(math.Abs(f.g), math.Abs(f.b))))
		}
		quantizedMax = int(math.Max(0, math.Min(82, math.Floor(actualMax*166-0.5))))
		maximumValue = float64(quantizedMax+1) / 166
	}
	if err := write(quantizedMax, 1); err != nil {
		return "", err
	}

	if err := write(encodeDC(dc), 4); err != nil {
		return "", err
	}

	for _, f := range ac {
		if err := write(encodeAC(f, maximumValue), acLength); err != nil {
			return "", err
		}
	}

	return sb.String(), nil
}
