// Package shiftreg pushes serial frames into a cascade of TPIC6C595
// shift registers and drives the two FET outputs beside them.
package shiftreg

import (
	"fmt"
	"strings"
)

// Registers is the number of 8-bit registers in the cascade.
const Registers = 3

// FrameBits is the length of one serial frame.
const FrameBits = Registers * 8

// Frame is one full serial frame. Index 0 is the first bit shifted out; it
// ends up on the last register of the cascade.
type Frame [FrameBits]bool

// Uint32 packs the frame with the first-shifted bit as bit 23.
func (f Frame) Uint32() uint32 {
	var v uint32
	for _, b := range f {
		v <<= 1
		if b {
			v |= 1
		}
	}
	return v
}

// FrameFromUint32 is the inverse of Frame.Uint32. Bits above 23 are ignored.
func FrameFromUint32(v uint32) Frame {
	var f Frame
	for i := range f {
		f[i] = v&(1<<(FrameBits-1-i)) != 0
	}
	return f
}

// Ones returns the number of set bits.
func (f Frame) Ones() int {
	n := 0
	for _, b := range f {
		if b {
			n++
		}
	}
	return n
}

func (f Frame) String() string {
	return fmt.Sprintf("0x%06X", f.Uint32())
}

// Bits renders the frame in shift order, one group per register,
// e.g. "00000000 00000000 00000011".
func (f Frame) Bits() string {
	var sb strings.Builder
	for i, b := range f {
		if i > 0 && i%8 == 0 {
			sb.WriteByte(' ')
		}
		if b {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
