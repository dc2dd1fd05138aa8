/*
Package base83 implements the base 83 integer encoding used by blurhash.

Each character maps to a digit in the range 0-82 and digits are written most
significant first.
*/
package base83

import (
	"github.com/pkg/errors"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz#$%*+,-.:;=?@[]^_{|}~"

// Base is the radix of the encoding.
const Base = len(alphabet)

var (
	// ErrInvalidCharacter is returned when decoding a character that is not
	// part of the alphabet.
	ErrInvalidCharacter = errors.New("base83: invalid character")
	// ErrInvalidLength is returned when a value does not fit in the
	// requested number of digits.
	ErrInvalidLength = errors.New("base83: invalid length")
)

var table = makeTable()

func makeTable() *[256]int8 {
	t := new([256]int8)
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		t[alphabet[i]] = int8(i)
	}
	return t
}

// Decode returns the integer value of s.
func Decode(s string) (int, error) {
	var value int
	for i := 0; i < len(s); i++ {
		digit := table[s[i]]
		if digit < 0 {
			return 0, errors.Wrapf(ErrInvalidCharacter, "%q at offset %d", s[i], i)
		}
		value = value*Base + int(digit)
	}
	return value, nil
}

// Encode returns value as exactly length digits.
func Encode(value, length int) (string, error) {
	if value < 0 || length < 0 {
		return "", ErrInvalidLength
	}

	b := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		b[i] = alphabet[value%Base]
		value /= Base
	}
	if value != 0 {
		return "", errors.Wrapf(ErrInvalidLength, "value does not fit in %d digits", length)
	}

	return string(b), nil
}
