package back

import (
	"github.com/slowlang/tassgen/compiler/ir"
)

var idioms = []Idiom{
	{Name: "same var", Span: 3, Match: sameVarMatch, Gen: sameVarGen},
	{Name: "same mem", Span: 3, Match: sameMemMatch, Gen: sameMemGen},
	{Name: "same location add const", Span: 4, Match: addConstMatch, Gen: addConstGen},
	{Name: "same const indexed element", Span: 5, Match: constIndexedMatch, Gen: constIndexedGen},
	{Name: "same var indexed element", Span: 5, Match: varIndexedMatch, Gen: varIndexedGen},
}

// Idioms are patterns recognized by operand identity.
func Idioms() []Idiom { return idioms }

var byteInPlace = map[ir.Opcode]bool{
	ir.ShlByte: true, ir.ShrByte: true, ir.RolByte: true, ir.RorByte: true,
	ir.Rol2Byte: true, ir.Ror2Byte: true, ir.InvByte: true, ir.NegB: true,
}

// inPlaceOp returns the in-place table for op applied to a value of width word.
func inPlaceOp(op ir.Opcode, word bool) (*homeTable, bool) {
	t, ok := inPlace[op]
	if !ok || byteInPlace[op] == word {
		return nil, false
	}

	return t, true
}

func width(op ir.Opcode) (word, float bool) {
	switch op {
	case ir.PushVarWord, ir.PopVarWord, ir.PushMemW, ir.PushMemUW, ir.PopMemWord,
		ir.ReadIndexedVarWord, ir.WriteIndexedVarWord:
		return true, false
	case ir.PushVarFloat, ir.PopVarFloat, ir.PushMemFloat, ir.PopMemFloat:
		return false, true
	}

	return false, false
}

func sameVarMatch(w []ir.Instr) bool {
	switch {
	case w[0].Op == ir.PushVarByte && w[2].Op == ir.PopVarByte,
		w[0].Op == ir.PushVarWord && w[2].Op == ir.PopVarWord,
		w[0].Op == ir.PushVarFloat && w[2].Op == ir.PopVarFloat:
	default:
		return false
	}

	return w[0].Ref().Same(w[2].Ref())
}

func sameVarGen(g *Generator, w []ir.Instr) (string, bool) {
	sym := w[0].Sym
	h := homeOf(sym)

	return inPlaceAt(w[0].Op, w[1].Op, h, sym, sym+"+1")
}

func sameMemMatch(w []ir.Instr) bool {
	switch {
	case (w[0].Op == ir.PushMemB || w[0].Op == ir.PushMemUB) && w[2].Op == ir.PopMemByte,
		(w[0].Op == ir.PushMemW || w[0].Op == ir.PushMemUW) && w[2].Op == ir.PopMemWord,
		w[0].Op == ir.PushMemFloat && w[2].Op == ir.PopMemFloat:
	default:
		return false
	}

	return w[0].Ref().Same(w[2].Ref())
}

func sameMemGen(g *Generator, w []ir.Instr) (string, bool) {
	a := w[0].Arg.Int

	return inPlaceAt(w[0].Op, w[1].Op, HomeMem, hex(a), hex(a+1))
}

// inPlaceAt applies op to the value at home h, lo and hi naming the location.
func inPlaceAt(load, op ir.Opcode, h Home, lo, hi string) (string, bool) {
	word, float := width(load)

	if float {
		if op != ir.NegF || h.IsReg() {
			return "", false
		}

		return seq(" lda  "+addrLo(lo), " ldy  "+addrHi(lo), " jsr  tglib.neg_var_f"), true
	}

	if word && !h.IsPair() && h.IsReg() || !word && h.IsPair() {
		return "", false
	}

	t, ok := inPlaceOp(op, word)
	if !ok {
		return "", false
	}

	s, ok := t.get(h)
	if !ok {
		return "", false
	}

	return expand(s, "lo", lo, "hi", hi), true
}

var pushByteLoc = map[ir.Opcode]bool{ir.PushVarByte: true, ir.PushMemB: true, ir.PushMemUB: true}
var pushWordLoc = map[ir.Opcode]bool{ir.PushVarWord: true, ir.PushMemW: true, ir.PushMemUW: true}

var addByteOps = map[ir.Opcode]bool{ir.AddUB: true, ir.AddB: true, ir.SubUB: false, ir.SubB: false}
var addWordOps = map[ir.Opcode]bool{ir.AddUW: true, ir.AddW: true, ir.SubUW: false, ir.SubW: false}

// addConstMatch matches x = x + n and x = x - n, and x = n + x.
func addConstMatch(w []ir.Instr) bool {
	loc, c, swapped := addOperands(w)

	var add bool
	var ok bool

	switch {
	case pushByteLoc[loc.Op] && c.Op == ir.PushByte:
		add, ok = addByteOps[w[2].Op]
		ok = ok && (w[3].Op == ir.PopVarByte || w[3].Op == ir.PopMemByte)
	case pushWordLoc[loc.Op] && c.Op == ir.PushWord:
		add, ok = addWordOps[w[2].Op]
		ok = ok && (w[3].Op == ir.PopVarWord || w[3].Op == ir.PopMemWord)
	}

	if !ok || c.Arg == nil || c.Arg.IsFloat {
		return false
	}

	if swapped && !add {
		return false
	}

	return loc.Ref().Same(w[3].Ref())
}

func addConstGen(g *Generator, w []ir.Instr) (string, bool) {
	loc, c, _ := addOperands(w)

	word, _ := width(loc.Op)
	add := addByteOps[w[2].Op] || addWordOps[w[2].Op]

	h := HomeMem
	var lo, hi string

	if r := loc.Ref(); r.Kind == ir.RefVar {
		h = homeOf(r.Sym)
		lo, hi = r.Sym, r.Sym+"+1"
	} else {
		lo, hi = hex(r.Addr), hex(r.Addr+1)
	}

	if word {
		return addWord(h, lo, hi, c.Arg.Int&0xffff, add)
	}

	return addByte(h, lo, c.Arg.Int&0xff, add)
}

// addOperands tells the location push from the constant push.
func addOperands(w []ir.Instr) (loc, c ir.Instr, swapped bool) {
	if w[0].Op == ir.PushByte || w[0].Op == ir.PushWord {
		return w[1], w[0], true
	}

	return w[0], w[1], false
}

func addByte(h Home, lo string, n int64, add bool) (string, bool) {
	if h.IsPair() {
		return "", false
	}

	if n == 0 {
		return "", true
	}

	if n == 1 {
		t := &incByte
		if !add {
			t = &decByte
		}

		s, ok := t.get(h)

		return expand(s, "lo", lo), ok
	}

	op := " clc |  adc  " + imm8(n)
	if !add {
		op = " sec |  sbc  " + imm8(n)
	}

	switch h {
	case HomeA:
		return op, true
	case HomeX:
		return seq(" txa", op, " tax"), true
	case HomeY:
		return seq(" tya", op, " tay"), true
	}

	return seq(" lda  "+lo, op, " sta  "+lo), true
}

func addWord(h Home, lo, hi string, n int64, add bool) (string, bool) {
	if h.IsReg() && !h.IsPair() {
		return "", false
	}

	if n == 0 {
		return "", true
	}

	if n == 1 {
		t := &incWord
		if !add {
			t = &decWord
		}

		s, ok := t.get(h)

		return expand(s, "lo", lo, "hi", hi), ok
	}

	c, ins := " clc", " adc  "
	if !add {
		c, ins = " sec", " sbc  "
	}

	l, m := imm8(n), imm8(n>>8)

	switch h {
	case HomeAX:
		return seq(c, ins+l, " pha", " txa", ins+m, " tax", " pla"), true
	case HomeAY:
		return seq(c, ins+l, " pha", " tya", ins+m, " tay", " pla"), true
	case HomeXY:
		return seq(" txa", c, ins+l, " tax", " tya", ins+m, " tay"), true
	}

	return seq(" lda  "+lo, c, ins+l, " sta  "+lo, " lda  "+hi, ins+m, " sta  "+hi), true
}

func constIndexedMatch(w []ir.Instr) bool {
	switch {
	case w[1].Op == ir.ReadIndexedVarByte && w[4].Op == ir.WriteIndexedVarByte,
		w[1].Op == ir.ReadIndexedVarWord && w[4].Op == ir.WriteIndexedVarWord:
	default:
		return false
	}

	return w[0].Op == ir.PushByte && w[3].Op == ir.PushByte &&
		w[0].Arg.Equal(w[3].Arg) && w[0].Arg != nil &&
		w[1].Ref().Same(w[4].Ref())
}

func constIndexedGen(g *Generator, w []ir.Instr) (string, bool) {
	word, _ := width(w[1].Op)
	arr, i := w[1].Sym, w[0].Arg.Int

	var lo, hi string

	if word {
		lo = elem(arr, i, 2)
		hi = lo + "+1"
	} else {
		lo = elem(arr, i, 1)
	}

	return elemOp(w[2].Op, word, lo, hi)
}

func varIndexedMatch(w []ir.Instr) bool {
	switch {
	case w[1].Op == ir.ReadIndexedVarByte && w[4].Op == ir.WriteIndexedVarByte,
		w[1].Op == ir.ReadIndexedVarWord && w[4].Op == ir.WriteIndexedVarWord:
	default:
		return false
	}

	return w[0].Op == ir.PushVarByte && w[3].Op == ir.PushVarByte &&
		w[0].Ref().Same(w[3].Ref()) &&
		w[1].Ref().Same(w[4].Ref())
}

// varIndexedGen addresses the element through X, saving the stack pointer.
func varIndexedGen(g *Generator, w []ir.Instr) (string, bool) {
	word, _ := width(w[1].Op)
	arr, iv := w[1].Sym, w[0].Sym

	idx := &indexX
	if word {
		idx = &indexX2
	}

	load, ok := idx.get(homeOf(iv))
	if !ok {
		return "", false
	}

	body, ok := elemOp(w[2].Op, word, arr+",x", arr+"+1,x")
	if !ok {
		return "", false
	}

	return seq(" stx  $02", expand(load, "lo", iv), body, " ldx  $02"), true
}

func elemOp(op ir.Opcode, word bool, lo, hi string) (string, bool) {
	t, ok := inPlaceOp(op, word)
	if !ok {
		return "", false
	}

	s, ok := t.get(HomeVar)
	if !ok {
		return "", false
	}

	return expand(s, "lo", lo, "hi", hi), true
}
