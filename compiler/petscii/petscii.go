// Package petscii implements the Commodore character encodings
// as golang.org/x/text encodings.
//
// Text is PETSCII in the lower/upper case character set,
// Screen is the matching screen code set written directly to video memory.
package petscii

import (
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
	"tlog.app/go/errors"
)

type (
	charmap struct {
		name string
		enc  map[rune]byte
		dec  [256]rune
	}

	encoder struct {
		transform.NopResetter
		*charmap
	}

	decoder struct {
		transform.NopResetter
		*charmap
	}
)

var (
	Text   encoding.Encoding = newCharmap("petscii", textTable)
	Screen encoding.Encoding = newCharmap("screencodes", screenTable)
)

func textTable(set func(byte, rune)) {
	set(0x0d, '\n')

	for c := rune(0x20); c <= 0x3f; c++ {
		set(byte(c), c)
	}

	set(0x40, '@')

	for c := 'a'; c <= 'z'; c++ {
		set(byte(0x41+c-'a'), c)
	}

	set(0x5b, '[')
	set(0x5c, '£')
	set(0x5d, ']')
	set(0x5e, '↑')
	set(0x5f, '←')

	for c := 'A'; c <= 'Z'; c++ {
		set(byte(0xc1+c-'A'), c)
	}
}

func screenTable(set func(byte, rune)) {
	set(0x00, '@')

	for c := 'a'; c <= 'z'; c++ {
		set(byte(0x01+c-'a'), c)
	}

	set(0x1b, '[')
	set(0x1c, '£')
	set(0x1d, ']')
	set(0x1e, '↑')
	set(0x1f, '←')

	for c := rune(0x20); c <= 0x3f; c++ {
		set(byte(c), c)
	}

	for c := 'A'; c <= 'Z'; c++ {
		set(byte(0x41+c-'A'), c)
	}
}

func newCharmap(name string, table func(set func(byte, rune))) *charmap {
	m := &charmap{
		name: name,
		enc:  make(map[rune]byte),
	}

	for i := range m.dec {
		m.dec[i] = utf8.RuneError
	}

	table(func(b byte, r rune) {
		m.enc[r] = b
		m.dec[b] = r
	})

	return m
}

func (m *charmap) NewEncoder() *encoding.Encoder {
	return &encoding.Encoder{Transformer: encoder{charmap: m}}
}

func (m *charmap) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: decoder{charmap: m}}
}

func (m *charmap) String() string { return m.name }

func (e encoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r, size := utf8.DecodeRune(src[nSrc:])

		if r == utf8.RuneError && size <= 1 {
			if !atEOF && !utf8.FullRune(src[nSrc:]) {
				return nDst, nSrc, transform.ErrShortSrc
			}

			return nDst, nSrc, errors.New("%v: invalid utf8 at %d", e.name, nSrc)
		}

		c, ok := e.enc[r]
		if !ok {
			return nDst, nSrc, errors.New("%v: unencodable character %q", e.name, r)
		}

		if nDst >= len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}

		dst[nDst] = c
		nDst++
		nSrc += size
	}

	return nDst, nSrc, nil
}

func (d decoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r := d.dec[src[nSrc]]
		if r == utf8.RuneError {
			return nDst, nSrc, errors.New("%v: undecodable byte $%02x", d.name, src[nSrc])
		}

		if nDst+utf8.RuneLen(r) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}

		nDst += utf8.EncodeRune(dst[nDst:], r)
		nSrc++
	}

	return nDst, nSrc, nil
}
