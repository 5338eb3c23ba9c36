package ir

import (
	"strings"

	"tlog.app/go/errors"
)

type (
	DataType int

	Launcher int
)

const (
	UByte DataType = iota
	Byte
	UWord
	Word
	Float
	Str
	StrP
	StrS
	StrPS
	ArrayUB
	ArrayB
	ArrayUW
	ArrayW
	ArrayF

	numDataTypes
)

const (
	LauncherBasic Launcher = iota
	LauncherPrg
	LauncherRaw
)

var typenames = [numDataTypes]string{
	UByte:   "ubyte",
	Byte:    "byte",
	UWord:   "uword",
	Word:    "word",
	Float:   "float",
	Str:     "str",
	StrP:    "str_p",
	StrS:    "str_s",
	StrPS:   "str_ps",
	ArrayUB: "ubyte[]",
	ArrayB:  "byte[]",
	ArrayUW: "uword[]",
	ArrayW:  "word[]",
	ArrayF:  "float[]",
}

var launchernames = []string{
	LauncherBasic: "basic",
	LauncherPrg:   "prg",
	LauncherRaw:   "raw",
}

func ParseDataType(s string) (DataType, error) {
	s = strings.ToLower(s)

	for t, n := range typenames {
		if n == s {
			return DataType(t), nil
		}
	}

	return 0, errors.New("unknown data type: %q", s)
}

func (t DataType) String() string {
	if t < 0 || t >= numDataTypes {
		return "type(?)"
	}

	return typenames[t]
}

// Size is the number of bytes a value of the type takes
// in a register pair or on the evaluation stack.
// Strings and arrays are passed by address.
func (t DataType) Size() int {
	switch t {
	case UByte, Byte:
		return 1
	case Float:
		return 5
	default:
		return 2
	}
}

func (t DataType) Signed() bool {
	switch t {
	case Byte, Word, Float, ArrayB, ArrayW, ArrayF:
		return true
	}

	return false
}

func (t DataType) IsArray() bool { return t >= ArrayUB && t <= ArrayF }

func (t DataType) IsString() bool { return t >= Str && t <= StrPS }

// Elem returns the element type of an array, or t itself.
func (t DataType) Elem() DataType {
	switch t {
	case ArrayUB:
		return UByte
	case ArrayB:
		return Byte
	case ArrayUW:
		return UWord
	case ArrayW:
		return Word
	case ArrayF:
		return Float
	case Str, StrP, StrS, StrPS:
		return UByte
	}

	return t
}

func ParseLauncher(s string) (Launcher, error) {
	for l, n := range launchernames {
		if n == strings.ToLower(s) {
			return Launcher(l), nil
		}
	}

	return 0, errors.New("unknown launcher: %q", s)
}

func (l Launcher) String() string {
	if l < 0 || int(l) >= len(launchernames) {
		return "launcher(?)"
	}

	return launchernames[l]
}
