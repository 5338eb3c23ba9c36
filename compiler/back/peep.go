package back

import (
	"bytes"
	"strings"

	"github.com/slowlang/tassgen/compiler/set"
)

var cancels = map[string]string{
	"inx": "dex",
	"dex": "inx",
	"iny": "dey",
	"dey": "iny",
}

// Peephole removes adjacent increment and decrement pairs of the same index register.
// It makes one pass. Pairs don't overlap: after a removal the scan goes on past the pair.
// Only unlabelled instruction lines take part, anything else breaks adjacency.
func Peephole(text []byte) []byte {
	lines := bytes.SplitAfter(text, []byte("\n"))

	var del set.Bits[int]

	for i := 0; i+1 < len(lines); i++ {
		a := indexStep(lines[i])
		if a == "" || cancels[a] != indexStep(lines[i+1]) {
			continue
		}

		del.Set(i)
		del.Set(i + 1)
		i++
	}

	if del.Size() == 0 {
		return text
	}

	res := make([]byte, 0, len(text))

	for i, l := range lines {
		if !del.IsSet(i) {
			res = append(res, l...)
		}
	}

	return res
}

// indexStep returns the mnemonic if l is a bare inx, dex, iny or dey instruction.
func indexStep(l []byte) string {
	if len(l) == 0 || l[0] != '\t' && l[0] != ' ' {
		return ""
	}

	s := string(l)

	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}

	s = strings.TrimSpace(s)

	if _, ok := cancels[s]; !ok {
		return ""
	}

	return s
}
