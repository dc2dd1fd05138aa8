package blurhash

import (
	"github.com/bodgit/blurhash/base83"
	"github.com/pkg/errors"
)

// MaxComponents is the largest number of components on either axis.
const MaxComponents = 9

const (
	headerLength  = 6
	acLength      = 2
)

type header struct {
	xComponents  int
	yComponents  int
	maximumValue float64
	dc           int
	ac           []int
}

func encodedLength(xComponents, yComponents int) int {
	return headerLength + (xComponents*yComponents-1)*acLength
}

func parseSize(hash string) (int, int, error) {
	if len(hash) < headerLength {
		return 0, 0, errors.Wrapf(ErrTooShort, "got %d characters", len(hash))
	}

	sizeFlag, err := base83.Decode(hash[:1])
	if err != nil {
		return 0, 0, err
	}
	x, y := sizeFlag%MaxComponents+1, sizeFlag/MaxComponents+1

	if expected := encodedLength(x, y); len(hash) != expected {
		return 0, 0, errors.Wrapf(ErrLengthMismatch, "%dx%d components need %d characters, got %d", x, y, expected, len(hash))
	}

	return x, y, nil
}

func parseHeader(hash string) (*header, error) {
	x, y, err := parseSize(hash)
	if err != nil {
		return nil, err
	}

	quantizedMaxAC, err := base83.Decode(hash[1:2])
	if err != nil {
		return nil, errors.Wrap(err, "maximum value")
	}

	dc, err := base83.Decode(hash[2:headerLength])
	if err != nil {
		return nil, errors.Wrap(err, "DC component")
	}

	h := &header{
		xComponents:  x,
		yComponents:  y,
		maximumValue: float64(quantizedMaxAC+1) / 166,
		dc:           dc,
		ac:           make([]int, x*y-1),
	}

	for i := range h.ac {
		offset := headerLength + i*acLength
		if h.ac[i], err = base83.Decode(hash[offset : offset+acLength]); err != nil {
			return nil, errors.Wrapf(err, "AC component %d", i+1)
		}
	}

	return h, nil
}

// colors returns the linear components in row-major order with the DC
// component first
func (h *header) colors(punch float64) []factor {
	colors := make([]factor, 0, len(h.ac)+1)
	colors = append(colors, decodeDC(h.dc))
	for _, ac := range h.ac {
		colors = append(colors, decodeAC(ac, h.maximumValue*punch))
	}
	return colors
}
