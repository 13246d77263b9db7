package ber

import (
	"errors"
	"fmt"
)

var ErrBitIndexOutOfRange = errors.New("bit index out of range")

// ValueInRange returns the bits of b between from and to, both inclusive.
// Bits are numbered from the most significant one, so ValueInRange(b, 0, 1)
// yields the two leading bits of b.
func ValueInRange(b byte, from, to int) (byte, error) {
	if from < 0 || to > 7 || from > to {
		return 0, fmt.Errorf("%w: %d-%d", ErrBitIndexOutOfRange, from, to)
	}
	width := to - from + 1
	mask := byte((1 << width) - 1)
	return (b >> (7 - to)) & mask, nil
}

// BitAtIndex returns the bit of b at index, counting from the most
// significant bit.
func BitAtIndex(b byte, index int) (byte, error) {
	return ValueInRange(b, index, index)
}
