// Package set is a dense bit set over small non-negative integer keys.
package set

import (
	"math/bits"

	"tlog.app/go/tlog/tlwire"
)

type (
	Key interface {
		~int | ~int64
	}

	Bits[K Key] struct {
		b []uint64
	}
)

func (s *Bits[K]) Set(k K) {
	i, j := ij(k)

	s.grow(i)

	s.b[i] |= 1 << j
}

// SetRange sets [l, r).
func (s *Bits[K]) SetRange(l, r K) {
	for k := l; k < r; k++ {
		s.Set(k)
	}
}

func (s *Bits[K]) IsSet(k K) bool {
	i, j := ij(k)

	if i >= len(s.b) {
		return false
	}

	return s.b[i]&(1<<j) != 0
}

func (s *Bits[K]) Subtract(x Bits[K]) {
	for i, w := range x.b {
		if i == len(s.b) {
			break
		}

		s.b[i] &^= w
	}
}

func (s *Bits[K]) Size() (r int) {
	for _, w := range s.b {
		r += bits.OnesCount64(w)
	}

	return r
}

// each calls f for each key in increasing order.
func (s *Bits[K]) each(f func(k K)) {
	for i, w := range s.b {
		for w != 0 {
			j := bits.TrailingZeros64(w)
			w &^= 1 << j

			f(K(i*64 + j))
		}
	}
}

func (s *Bits[K]) Slice() (r []K) {
	s.each(func(k K) {
		r = append(r, k)
	})

	return r
}

func (s Bits[K]) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	if s.b == nil {
		return e.AppendNil(b)
	}

	b = e.AppendTag(b, tlwire.Array, -1)

	s.each(func(k K) {
		b = e.AppendInt(b, int(k))
	})

	return e.AppendBreak(b)
}

func ij[K Key](k K) (i, j int) {
	if k < 0 {
		panic(k)
	}

	return int(k) / 64, int(k) % 64
}

func (s *Bits[K]) grow(i int) {
	for i >= len(s.b) {
		s.b = append(s.b, 0)
	}
}
