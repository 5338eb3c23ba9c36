package back

import (
	"fmt"
	"strings"

	"github.com/slowlang/tassgen/compiler/format"
	"github.com/slowlang/tassgen/compiler/ir"
)

type (
	// Fragment is generated code for Size instructions.
	Fragment struct {
		Name string
		Asm  string
		Size int
		Raw  bool
	}

	// Rule matches a fixed opcode sequence.
	// Alt is an alternative sequence of the same length.
	// Gen may decline by returning false.
	Rule struct {
		Name string
		Seq  []ir.Opcode
		Alt  []ir.Opcode
		Gen  func(g *Generator, w []ir.Instr) (string, bool)
	}

	// Idiom matches by operand identity rather than by opcodes alone.
	Idiom struct {
		Name  string
		Span  int
		Match func(w []ir.Instr) bool
		Gen   func(g *Generator, w []ir.Instr) (string, bool)
	}

	Matcher struct {
		window int

		idioms []Idiom
		rules  []Rule

		byop [ir.NumOpcodes][]int
	}

	candidate struct {
		Fragment
		order int
	}

	// UnmatchedError is a backend defect: nothing translates the window.
	UnmatchedError struct {
		Block  string
		Window []ir.Instr
	}
)

const DefaultWindow = 6

var defaultMatcher = NewMatcher(DefaultWindow, Idioms(), Rules())

// NewMatcher indexes rules by their first opcode.
// Idioms take precedence over rules of the same length,
// and earlier entries over later ones.
func NewMatcher(window int, idioms []Idiom, rules []Rule) *Matcher {
	m := &Matcher{
		window: window,
		idioms: idioms,
		rules:  rules,
	}

	for j, r := range rules {
		if len(r.Seq) == 0 || r.Alt != nil && len(r.Alt) != len(r.Seq) {
			panic(fmt.Sprintf("rule %v: bad sequence", r.Name))
		}

		m.byop[r.Seq[0]] = append(m.byop[r.Seq[0]], j)

		if r.Alt != nil && r.Alt[0] != r.Seq[0] {
			m.byop[r.Alt[0]] = append(m.byop[r.Alt[0]], j)
		}
	}

	for _, id := range idioms {
		if id.Span <= 0 {
			panic(fmt.Sprintf("idiom %v: bad span", id.Name))
		}
	}

	return m
}

func (m *Matcher) Window() int { return m.window }

func (m *Matcher) Rules() []Rule { return m.rules }

func (m *Matcher) Idioms() []Idiom { return m.idioms }

// Select picks the best translation for the start of code.
// The window stops before the first instruction missing an operand.
func (m *Matcher) Select(g *Generator, code []ir.Instr) (f Fragment, ok bool) {
	w := code[:min(m.window, len(code))]

	for i, x := range w {
		if x.Check() != nil {
			w = w[:i]
			break
		}
	}

	if len(w) == 0 {
		return f, false
	}

	var best candidate

	for i, id := range m.idioms {
		if id.Span > len(w) || !id.Match(w[:id.Span]) {
			continue
		}

		asm, ok := id.Gen(g, w[:id.Span])
		if !ok {
			continue
		}

		c := candidate{Fragment: Fragment{Name: id.Name, Asm: asm, Size: id.Span}, order: i}

		if best.Size == 0 || better(c, best) {
			best = c
		}
	}

	for _, j := range m.byop[w[0].Op] {
		r := m.rules[j]

		n := len(r.Seq)
		if n > len(w) || !prefix(r.Seq, w) && !prefix(r.Alt, w) {
			continue
		}

		asm, ok := r.Gen(g, w[:n])
		if !ok {
			continue
		}

		c := candidate{Fragment: Fragment{Name: r.Name, Asm: asm, Size: n}, order: len(m.idioms) + j}

		if best.Size == 0 || better(c, best) {
			best = c
		}
	}

	if best.Size != 0 {
		return best.Fragment, true
	}

	fb := fallbacks[w[0].Op]
	if fb == nil {
		return f, false
	}

	asm, ok := fb(g, w[0])
	if !ok {
		return f, false
	}

	return Fragment{
		Name: "fallback " + w[0].Op.String(),
		Asm:  asm,
		Size: 1,
		Raw:  w[0].Op == ir.InlineAssembly,
	}, true
}

// better reports whether a should be chosen over b:
// longer match first, then declaration order.
func better(a, b candidate) bool {
	if a.Size != b.Size {
		return a.Size > b.Size
	}

	return a.order < b.order
}

func prefix(seq []ir.Opcode, w []ir.Instr) bool {
	if seq == nil || len(seq) > len(w) {
		return false
	}

	for i, op := range seq {
		if w[i].Op != op {
			return false
		}
	}

	return true
}

// appendFragment splits fragment text into lines.
// Pieces are separated by newlines, or by '|' if there are none.
// A piece starting with a space is an instruction and gets a tab,
// other pieces are labels and stay flush left.
func appendFragment(b []byte, f Fragment) []byte {
	if f.Raw {
		if f.Asm == "" {
			return b
		}

		b = append(b, f.Asm...)

		return append(b, '\n')
	}

	sep := "|"
	if strings.Contains(f.Asm, "\n") {
		sep = "\n"
	}

	for _, l := range strings.Split(f.Asm, sep) {
		t := strings.TrimSpace(l)
		if t == "" {
			continue
		}

		if strings.HasPrefix(l, " ") {
			b = append(b, '\t')
		}

		b = append(b, t...)
		b = append(b, '\n')
	}

	return b
}

func (e *UnmatchedError) Error() string {
	return fmt.Sprintf("block %v: no translation for instructions:\n%s", e.Block, format.FormatCode(e.Window))
}
