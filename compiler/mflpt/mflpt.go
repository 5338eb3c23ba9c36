// Package mflpt packs float64 values into the 5 byte floating point
// format used by the Commodore BASIC ROM.
//
// Byte 0 is the exponent biased by 128, 0 meaning the value is zero.
// Bytes 1..4 are the big-endian mantissa normalized to 0.1xxx.. in binary
// with its leading one replaced by the sign bit.
package mflpt

import (
	"math"

	"tlog.app/go/errors"
)

type Bytes [5]byte

const (
	Max = 1.7014118345e+38
	Min = -Max
)

var ErrOverflow = errors.New("float out of range")

func Encode(f float64) (Bytes, error) {
	var b Bytes

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return b, errors.Wrap(ErrOverflow, "%v", f)
	}

	if f == 0 {
		return b, nil
	}

	var sign byte
	if f < 0 {
		sign = 0x80
		f = -f
	}

	exp := 160
	m := f

	for m >= 1<<32 {
		m /= 2
		exp++
	}

	for m < 1<<31 {
		m *= 2
		exp--
	}

	if exp <= 0 {
		return b, nil // underflow
	}

	if exp > 255 {
		return b, errors.Wrap(ErrOverflow, "%v", f)
	}

	mant := uint64(m)

	b[0] = byte(exp)
	b[1] = byte(mant>>24)&0x7f | sign
	b[2] = byte(mant >> 16)
	b[3] = byte(mant >> 8)
	b[4] = byte(mant)

	return b, nil
}

func Decode(b Bytes) float64 {
	if b[0] == 0 {
		return 0
	}

	exp := int(b[0]) - 128

	mant := uint64(0x80000000) |
		uint64(b[1]&0x7f)<<24 |
		uint64(b[2])<<16 |
		uint64(b[3])<<8 |
		uint64(b[4])

	f := math.Ldexp(float64(mant), exp-32)

	if b[1]&0x80 != 0 {
		f = -f
	}

	return f
}
