package blurhash

import (
	"github.com/bodgit/blurhash/base83"
	"github.com/pkg/errors"
)

var (
	// ErrTooShort is returned for a hash shorter than the fixed six
	// character header.
	ErrTooShort = errors.New("blurhash: hash too short")
	// ErrLengthMismatch is returned when the number of components declared
	// in the header disagrees with the length of the hash.
	ErrLengthMismatch = errors.New("blurhash: length mismatch")
	// ErrInvalidCharacter is returned when the hash contains a character
	// outside of the base 83 alphabet.
	ErrInvalidCharacter = base83.ErrInvalidCharacter
	// ErrInvalidDimension is returned when the requested output size is not
	// positive.
	ErrInvalidDimension = errors.New("blurhash: invalid dimension")
	// ErrInvalidComponents is returned by the encoder when the number of
	// components on either axis is outside 1-9.
	ErrInvalidComponents = errors.New("blurhash: invalid number of components")
)
