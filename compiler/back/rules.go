package back

import (
	"strconv"
	"strings"

	"github.com/slowlang/tassgen/compiler/ir"
)

type (
	// byteVal is a byte operand: a register or a location readable with lda.
	byteVal struct {
		reg  Home   // HomeVar if not a register
		loc  string // "#$05", "name", "$d020", "arr+3", "arr,y"
		pre  string // sets up Y for indexed loc
		useY bool
	}

	// wordVal is a word operand: a register pair or a lo/hi location pair.
	wordVal struct {
		reg    Home
		lo, hi string
	}

	byteSource struct {
		name string
		seq  []ir.Opcode
		alt  []ir.Opcode
		val  func(w []ir.Instr) (byteVal, bool)
	}

	byteDest struct {
		name string
		seq  []ir.Opcode
		alt  []ir.Opcode
		gen  func(v byteVal, w []ir.Instr) (string, bool)
	}

	wordSource struct {
		name string
		seq  []ir.Opcode
		alt  []ir.Opcode
		gen  func(w []ir.Instr, d wordVal) (string, bool)
	}

	wordDest struct {
		name string
		seq  []ir.Opcode
		val  func(w []ir.Instr) (wordVal, bool)
	}

	floatSource struct {
		name string
		seq  []ir.Opcode
		addr func(g *Generator, w []ir.Instr) (string, bool)
	}

	floatDest struct {
		name string
		seq  []ir.Opcode
		addr func(w []ir.Instr) string
	}
)

var catalog = buildRules()

// Rules is the ordered library of fixed-sequence patterns.
func Rules() []Rule { return catalog }

func buildRules() (rs []Rule) {
	for _, d := range byteDests {
		for _, s := range byteSources {
			rs = append(rs, byteRule(s, d))
		}
	}

	for _, d := range wordDests {
		for _, s := range wordSources {
			rs = append(rs, wordRule(s, d))
		}
	}

	for _, d := range floatDests {
		for _, s := range floatSources {
			rs = append(rs, floatRule(s, d))
		}
	}

	return rs
}

func byteRule(s byteSource, d byteDest) Rule {
	ns := len(s.seq)

	r := Rule{
		Name: "byte " + d.name + " = " + s.name,
		Seq:  concat(s.seq, d.seq),
		Gen: func(g *Generator, w []ir.Instr) (string, bool) {
			v, ok := s.val(w[:ns])
			if !ok {
				return "", false
			}

			return d.gen(v, w[ns:])
		},
	}

	if s.alt != nil || d.alt != nil {
		r.Alt = concat(either(s.alt, s.seq), either(d.alt, d.seq))
	}

	return r
}

func wordRule(s wordSource, d wordDest) Rule {
	ns := len(s.seq)

	r := Rule{
		Name: "word " + d.name + " = " + s.name,
		Seq:  concat(s.seq, d.seq),
		Gen: func(g *Generator, w []ir.Instr) (string, bool) {
			dv, ok := d.val(w[ns:])
			if !ok {
				return "", false
			}

			return s.gen(w[:ns], dv)
		},
	}

	if s.alt != nil {
		r.Alt = concat(s.alt, d.seq)
	}

	return r
}

func floatRule(s floatSource, d floatDest) Rule {
	ns := len(s.seq)

	return Rule{
		Name: "float " + d.name + " = " + s.name,
		Seq:  concat(s.seq, d.seq),
		Gen: func(g *Generator, w []ir.Instr) (string, bool) {
			src, ok := s.addr(g, w[:ns])
			if !ok {
				return "", false
			}

			dst := d.addr(w[ns:])

			return copyFloat(src, dst), true
		},
	}
}

var byteSources = []byteSource{
	{name: "const", seq: ops(ir.PushByte), val: func(w []ir.Instr) (byteVal, bool) {
		return byteVal{reg: HomeVar, loc: imm8(w[0].Arg.Int)}, true
	}},
	{name: "var", seq: ops(ir.PushVarByte), val: func(w []ir.Instr) (byteVal, bool) {
		return varByte(w[0].Sym)
	}},
	{name: "mem", seq: ops(ir.PushMemB), alt: ops(ir.PushMemUB), val: func(w []ir.Instr) (byteVal, bool) {
		return byteVal{reg: HomeVar, loc: hex(w[0].Arg.Int)}, true
	}},
	{name: "array[const]", seq: ops(ir.PushByte, ir.ReadIndexedVarByte), val: func(w []ir.Instr) (byteVal, bool) {
		return byteVal{reg: HomeVar, loc: elem(w[1].Sym, w[0].Arg.Int, 1)}, true
	}},
	{name: "array[var]", seq: ops(ir.PushVarByte, ir.ReadIndexedVarByte), val: func(w []ir.Instr) (byteVal, bool) {
		t, ok := indexY.get(homeOf(w[0].Sym))
		if !ok {
			return byteVal{}, false
		}

		return byteVal{reg: HomeVar, loc: w[1].Sym + ",y", pre: expand(t, "lo", w[0].Sym), useY: true}, true
	}},
	{name: "array[mem]", seq: ops(ir.PushMemB, ir.ReadIndexedVarByte), alt: ops(ir.PushMemUB, ir.ReadIndexedVarByte), val: func(w []ir.Instr) (byteVal, bool) {
		return byteVal{reg: HomeVar, loc: w[1].Sym + ",y", pre: " ldy  " + hex(w[0].Arg.Int), useY: true}, true
	}},
}

var byteDests = []byteDest{
	{name: "var", seq: ops(ir.PopVarByte), gen: func(v byteVal, w []ir.Instr) (string, bool) {
		h := homeOf(w[0].Sym)

		switch {
		case h == HomeVar:
			return v.storeTo(w[0].Sym), true
		case h.IsPair():
			return "", false
		}

		return v.loadInto(h)
	}},
	{name: "mem", seq: ops(ir.PopMemByte), gen: func(v byteVal, w []ir.Instr) (string, bool) {
		return v.storeTo(hex(w[0].Arg.Int)), true
	}},
	{name: "array[const]", seq: ops(ir.PushByte, ir.WriteIndexedVarByte), gen: func(v byteVal, w []ir.Instr) (string, bool) {
		return v.storeTo(elem(w[1].Sym, w[0].Arg.Int, 1)), true
	}},
	{name: "array[var]", seq: ops(ir.PushVarByte, ir.WriteIndexedVarByte), gen: func(v byteVal, w []ir.Instr) (string, bool) {
		return v.storeIndexed(w[1].Sym, homeOf(w[0].Sym), w[0].Sym)
	}},
	{name: "array[mem]", seq: ops(ir.PushMemB, ir.WriteIndexedVarByte), alt: ops(ir.PushMemUB, ir.WriteIndexedVarByte), gen: func(v byteVal, w []ir.Instr) (string, bool) {
		return v.storeIndexed(w[1].Sym, HomeMem, hex(w[0].Arg.Int))
	}},
}

var wordSources = []wordSource{
	{name: "const", seq: ops(ir.PushWord), gen: func(w []ir.Instr, d wordVal) (string, bool) {
		v := w[0].Arg.Int
		return wordVal{reg: HomeVar, lo: imm8(v), hi: imm8(v >> 8)}.moveTo(d)
	}},
	{name: "var", seq: ops(ir.PushVarWord), gen: func(w []ir.Instr, d wordVal) (string, bool) {
		s, ok := varWord(w[0].Sym)
		if !ok {
			return "", false
		}

		return s.moveTo(d)
	}},
	{name: "mem", seq: ops(ir.PushMemW), alt: ops(ir.PushMemUW), gen: func(w []ir.Instr, d wordVal) (string, bool) {
		a := w[0].Arg.Int
		return wordVal{reg: HomeVar, lo: hex(a), hi: hex(a + 1)}.moveTo(d)
	}},
	{name: "array[const]", seq: ops(ir.PushByte, ir.ReadIndexedVarWord), gen: func(w []ir.Instr, d wordVal) (string, bool) {
		i := w[0].Arg.Int
		return wordVal{reg: HomeVar, lo: elem(w[1].Sym, i, 2), hi: elem(w[1].Sym, i, 2) + "+1"}.moveTo(d)
	}},
	{name: "ubyte const", seq: ops(ir.PushByte, ir.UB2UWord), gen: func(w []ir.Instr, d wordVal) (string, bool) {
		return zeroExtend(byteVal{reg: HomeVar, loc: imm8(w[0].Arg.Int)}, d)
	}},
	{name: "ubyte var", seq: ops(ir.PushVarByte, ir.UB2UWord), gen: func(w []ir.Instr, d wordVal) (string, bool) {
		v, ok := varByte(w[0].Sym)
		if !ok {
			return "", false
		}

		return zeroExtend(v, d)
	}},
	{name: "ubyte mem", seq: ops(ir.PushMemUB, ir.UB2UWord), gen: func(w []ir.Instr, d wordVal) (string, bool) {
		return zeroExtend(byteVal{reg: HomeVar, loc: hex(w[0].Arg.Int)}, d)
	}},
	{name: "ubyte array[const]", seq: ops(ir.PushByte, ir.ReadIndexedVarByte, ir.UB2UWord), gen: func(w []ir.Instr, d wordVal) (string, bool) {
		return zeroExtend(byteVal{reg: HomeVar, loc: elem(w[1].Sym, w[0].Arg.Int, 1)}, d)
	}},
	{name: "byte var", seq: ops(ir.PushVarByte, ir.B2Word), gen: func(w []ir.Instr, d wordVal) (string, bool) {
		v, ok := varByte(w[0].Sym)
		if !ok {
			return "", false
		}

		return signExtendTo(v, d)
	}},
	{name: "byte mem", seq: ops(ir.PushMemB, ir.B2Word), gen: func(w []ir.Instr, d wordVal) (string, bool) {
		return signExtendTo(byteVal{reg: HomeVar, loc: hex(w[0].Arg.Int)}, d)
	}},
	{name: "byte array[const]", seq: ops(ir.PushByte, ir.ReadIndexedVarByte, ir.B2Word), gen: func(w []ir.Instr, d wordVal) (string, bool) {
		return signExtendTo(byteVal{reg: HomeVar, loc: elem(w[1].Sym, w[0].Arg.Int, 1)}, d)
	}},
}

var wordDests = []wordDest{
	{name: "var", seq: ops(ir.PopVarWord), val: func(w []ir.Instr) (wordVal, bool) {
		return varWord(w[0].Sym)
	}},
	{name: "mem", seq: ops(ir.PopMemWord), val: func(w []ir.Instr) (wordVal, bool) {
		a := w[0].Arg.Int
		return wordVal{reg: HomeVar, lo: hex(a), hi: hex(a + 1)}, true
	}},
	{name: "array[const]", seq: ops(ir.PushByte, ir.WriteIndexedVarWord), val: func(w []ir.Instr) (wordVal, bool) {
		lo := elem(w[1].Sym, w[0].Arg.Int, 2)
		return wordVal{reg: HomeVar, lo: lo, hi: lo + "+1"}, true
	}},
}

var floatSources = []floatSource{
	{name: "const", seq: ops(ir.PushFloat), addr: func(g *Generator, w []ir.Instr) (string, bool) {
		f, ok := floatArg(w[0])
		if !ok {
			return "", false
		}

		return g.floatLabel(f)
	}},
	{name: "var", seq: ops(ir.PushVarFloat), addr: func(g *Generator, w []ir.Instr) (string, bool) {
		return w[0].Sym, w[0].Sym != ""
	}},
	{name: "mem", seq: ops(ir.PushMemFloat), addr: func(g *Generator, w []ir.Instr) (string, bool) {
		return hex(w[0].Arg.Int), true
	}},
	{name: "array[const]", seq: ops(ir.PushByte, ir.ReadIndexedVarFloat), addr: func(g *Generator, w []ir.Instr) (string, bool) {
		return elem(w[1].Sym, w[0].Arg.Int, 5), true
	}},
}

var floatDests = []floatDest{
	{name: "var", seq: ops(ir.PopVarFloat), addr: func(w []ir.Instr) string { return w[0].Sym }},
	{name: "mem", seq: ops(ir.PopMemFloat), addr: func(w []ir.Instr) string { return hex(w[0].Arg.Int) }},
	{name: "array[const]", seq: ops(ir.PushByte, ir.WriteIndexedVarFloat), addr: func(w []ir.Instr) string {
		return elem(w[1].Sym, w[0].Arg.Int, 5)
	}},
}

func varByte(sym string) (byteVal, bool) {
	h := homeOf(sym)

	switch {
	case h == HomeVar:
		return byteVal{reg: HomeVar, loc: sym}, true
	case h.IsPair():
		return byteVal{}, false
	}

	return byteVal{reg: h}, true
}

func varWord(sym string) (wordVal, bool) {
	h := homeOf(sym)

	switch {
	case h == HomeVar:
		return wordVal{reg: HomeVar, lo: sym, hi: sym + "+1"}, true
	case !h.IsPair():
		return wordVal{}, false
	}

	return wordVal{reg: h}, true
}

// toA loads the value into A.
func (v byteVal) toA() string {
	if v.reg != HomeVar {
		t, _ := loadA.get(v.reg)
		return t
	}

	return seq(v.pre, " lda  "+v.loc)
}

// loadInto loads the value into register h.
func (v byteVal) loadInto(h Home) (string, bool) {
	if v.reg != HomeVar {
		return xfer(xferByte, v.reg, h)
	}

	if h == HomeY && v.useY {
		return seq(v.pre, " lda  "+v.loc, " tay"), true
	}

	t, ok := loadByte.get(h)
	if !ok {
		return "", false
	}

	return seq(v.pre, expand(t, "src", v.loc)), true
}

// storeTo stores the value at location d.
func (v byteVal) storeTo(d string) string {
	if v.reg != HomeVar {
		t, _ := storeByte.get(v.reg)
		return expand(t, "dst", d)
	}

	return seq(v.pre, " lda  "+v.loc, " sta  "+d)
}

// storeIndexed stores the value at arr indexed by the byte at idx.
// The value goes through A and the index through Y,
// so an index living in A can't be used.
func (v byteVal) storeIndexed(arr string, ih Home, idx string) (string, bool) {
	if ih == HomeA {
		return "", false
	}

	t, ok := indexY.get(ih)
	if !ok {
		return "", false
	}

	return seq(v.toA(), expand(t, "lo", idx), " sta  "+arr+",y"), true
}

func (v wordVal) moveTo(d wordVal) (string, bool) {
	switch {
	case v.reg != HomeVar && d.reg != HomeVar:
		return xfer(xferWord, v.reg, d.reg)
	case v.reg != HomeVar:
		t, _ := storeWord.get(v.reg)
		return expand(t, "dst", d.lo, "dsthi", d.hi), true
	case d.reg != HomeVar:
		t, _ := loadWord.get(d.reg)
		return expand(t, "src", v.lo, "srchi", v.hi), true
	}

	return seq(" lda  "+v.lo, " sta  "+d.lo, " lda  "+v.hi, " sta  "+d.hi), true
}

func zeroExtend(v byteVal, d wordVal) (string, bool) {
	var low string

	if d.reg == HomeVar {
		low = v.storeTo(d.lo)
	} else {
		lr := HomeA
		if d.reg == HomeXY {
			lr = HomeX
		}

		var ok bool

		low, ok = v.loadInto(lr)
		if !ok {
			return "", false
		}
	}

	t, _ := zeroHigh.get(d.reg)

	return seq(low, expand(t, "dsthi", d.hi)), true
}

func signExtendTo(v byteVal, d wordVal) (string, bool) {
	t, _ := signExtend.get(d.reg)

	return seq(v.toA(), expand(t, "dst", d.lo, "dsthi", d.hi)), true
}

func copyFloat(src, dst string) string {
	return seq(
		" lda  "+addrLo(src), " ldy  "+addrHi(src),
		" sta  $fb", " sty  $fc",
		" lda  "+addrLo(dst), " ldy  "+addrHi(dst),
		" jsr  tglib.copy_float",
	)
}

func xfer(m map[[2]Home]string, src, dst Home) (string, bool) {
	t, ok := m[[2]Home{src, dst}]

	switch {
	case !ok:
		return "", false
	case t == nothing:
		return "", true
	}

	return t, true
}

// elem is the location of element i of size sz bytes.
func elem(arr string, i, sz int64) string {
	off := i * sz
	if off == 0 {
		return arr
	}

	return arr + "+" + strconv.FormatInt(off, 10)
}

func addrLo(a string) string {
	if strings.Contains(a, "+") {
		return "#<(" + a + ")"
	}

	return "#<" + a
}

func addrHi(a string) string {
	if strings.Contains(a, "+") {
		return "#>(" + a + ")"
	}

	return "#>" + a
}

func floatArg(x ir.Instr) (float64, bool) {
	if x.Arg == nil {
		return 0, false
	}

	if x.Arg.IsFloat {
		return x.Arg.Float, true
	}

	return float64(x.Arg.Int), true
}

func ops(o ...ir.Opcode) []ir.Opcode { return o }

func concat(a, b []ir.Opcode) []ir.Opcode {
	r := make([]ir.Opcode, 0, len(a)+len(b))
	r = append(r, a...)

	return append(r, b...)
}

func either(a, b []ir.Opcode) []ir.Opcode {
	if a != nil {
		return a
	}

	return b
}
