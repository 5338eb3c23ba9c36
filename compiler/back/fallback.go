package back

import (
	"strconv"

	"github.com/slowlang/tassgen/compiler/ir"
	"github.com/slowlang/tassgen/compiler/set"
)

type fallback func(g *Generator, x ir.Instr) (string, bool)

// fallbacks translate one instruction through the evaluation stack.
var fallbacks [ir.NumOpcodes]fallback

// Top of the evaluation stack.
const (
	topLo = "$ce01,x"
	topHi = "$cf01,x"
)

// syscalls maps call numbers to runtime library routines.
// Numbers below simSyscalls only exist in the simulator.
const simSyscalls = 16

var syscalls = map[int64]string{
	16: "func_sin",
	17: "func_cos",
	18: "func_abs",
	19: "func_acos",
	20: "func_asin",
	21: "func_tan",
	22: "func_atan",
	23: "func_ln",
	24: "func_log2",
	25: "func_log10",
	26: "func_sqrt",
	27: "func_rad",
	28: "func_deg",
	29: "func_round",
	30: "func_floor",
	31: "func_ceil",
	32: "func_max",
	33: "func_min",
	34: "func_avg",
	35: "func_sum",
	36: "func_len",
	37: "func_any",
	38: "func_all",
	39: "func_rnd",
	40: "func_rndw",
	41: "func_rndf",
	42: "func_wrd",
	43: "func_uwrd",
}

func init() {
	text := func(s string) fallback {
		return func(g *Generator, x ir.Instr) (string, bool) { return s, true }
	}

	with := func(f func(x ir.Instr) string) fallback {
		return func(g *Generator, x ir.Instr) (string, bool) { return f(x), true }
	}

	lib := func(g *Generator, x ir.Instr) (string, bool) {
		return " jsr  tglib." + x.Op.Routine(), true
	}

	libAt := func(g *Generator, x ir.Instr) (string, bool) {
		a, ok := symOrAddr(x)
		if !ok {
			return "", false
		}

		return seq(" lda  "+addrLo(a), " ldy  "+addrHi(a), " jsr  tglib."+x.Op.Routine()), true
	}

	onTop := func(g *Generator, x ir.Instr) (string, bool) {
		word := !byteInPlace[x.Op]

		return elemOp(x.Op, word, topLo, topHi)
	}

	f := &fallbacks

	f[ir.Label] = func(g *Generator, x ir.Instr) (string, bool) {
		if g.block != nil && x.Sym == g.block.Short {
			return "", true
		}

		return x.Sym, x.Sym != ""
	}

	f[ir.Line] = with(func(x ir.Instr) string { return " ;\tsrc line: " + x.Sym })
	f[ir.Nop] = text(" nop")
	f[ir.Terminate] = text(" brk")
	f[ir.Sec] = text(" sec")
	f[ir.Clc] = text(" clc")
	f[ir.Sei] = text(" sei")
	f[ir.Cli] = text(" cli")
	f[ir.Return] = text(" rts")
	f[ir.Rsave] = text(" php |  pha |  txa |  pha |  tya |  pha")
	f[ir.Rrestore] = text(" pla |  tay |  pla |  tax |  pla |  plp")

	f[ir.InlineAssembly] = with(func(x ir.Instr) string { return x.Sym })

	jump := func(ins string) fallback {
		return func(g *Generator, x ir.Instr) (string, bool) {
			t, ok := symOrAddr(x)
			return " " + ins + "  " + t, ok
		}
	}

	f[ir.Jump] = jump("jmp")
	f[ir.Call] = jump("jsr")
	f[ir.Bcs] = jump("bcs")
	f[ir.Bcc] = jump("bcc")
	f[ir.Bneg] = jump("bmi")
	f[ir.Bpos] = jump("bpl")
	f[ir.Bvc] = jump("bvc")
	f[ir.Bvs] = jump("bvs")
	f[ir.Bz] = jump("beq")
	f[ir.Bnz] = jump("bne")

	f[ir.Syscall] = func(g *Generator, x ir.Instr) (string, bool) {
		if x.Arg == nil || x.Arg.Int < simSyscalls {
			return "", false
		}

		name, ok := syscalls[x.Arg.Int]
		if !ok {
			return "", false
		}

		return " jsr  tglib." + name, true
	}

	f[ir.Breakpoint] = func(g *Generator, x ir.Instr) (string, bool) {
		g.breakpoints++

		return "_tg_breakpoint_" + strconv.Itoa(g.breakpoints) + "\tnop", true
	}

	f[ir.PushByte] = with(func(x ir.Instr) string {
		return seq(" lda  "+imm8(x.Arg.Int), " sta  $ce00,x", " dex")
	})

	f[ir.PushWord] = with(func(x ir.Instr) string {
		return seq(" lda  "+imm8(x.Arg.Int), " sta  $ce00,x", " lda  "+imm8(x.Arg.Int>>8), " sta  $cf00,x", " dex")
	})

	f[ir.PushFloat] = func(g *Generator, x ir.Instr) (string, bool) {
		v, ok := floatArg(x)
		if !ok {
			return "", false
		}

		l, ok := g.floatLabel(v)
		if !ok {
			return "", false
		}

		return seq(" lda  #<"+l, " ldy  #>"+l, " jsr  tglib.push_float"), true
	}

	f[ir.PushVarByte] = onHome(&pushByte)
	f[ir.PushVarWord] = onHome(&pushWord)
	f[ir.PopVarByte] = onHome(&popByte)
	f[ir.PopVarWord] = onHome(&popWord)

	f[ir.IncVarUB] = onHome(&incByte)
	f[ir.IncVarB] = onHome(&incByte)
	f[ir.IncVarUW] = onHome(&incWord)
	f[ir.IncVarW] = onHome(&incWord)
	f[ir.DecVarUB] = onHome(&decByte)
	f[ir.DecVarB] = onHome(&decByte)
	f[ir.DecVarUW] = onHome(&decWord)
	f[ir.DecVarW] = onHome(&decWord)

	f[ir.PushMemB] = onMem(&pushByte)
	f[ir.PushMemUB] = onMem(&pushByte)
	f[ir.PushMemW] = onMem(&pushWord)
	f[ir.PushMemUW] = onMem(&pushWord)
	f[ir.PopMemByte] = onMem(&popByte)
	f[ir.PopMemWord] = onMem(&popWord)

	f[ir.PushVarFloat] = floatAt("push_float")
	f[ir.PushMemFloat] = floatAt("push_float")
	f[ir.PopVarFloat] = floatAt("pop_var_float")
	f[ir.PopMemFloat] = floatAt("pop_var_float")

	f[ir.IncVarF] = libAt
	f[ir.DecVarF] = libAt
	f[ir.ReadIndexedVarFloat] = libAt
	f[ir.WriteIndexedVarFloat] = libAt

	f[ir.DiscardByte] = text(" inx")
	f[ir.DiscardWord] = text(" inx")
	f[ir.DiscardFloat] = text(" inx |  inx |  inx")

	f[ir.ReadIndexedVarByte] = with(func(x ir.Instr) string {
		return seq(" ldy  "+topLo, " lda  "+x.Sym+",y", " sta  "+topLo)
	})

	f[ir.ReadIndexedVarWord] = with(func(x ir.Instr) string {
		return seq(" lda  "+topLo, " asl  a", " tay",
			" lda  "+x.Sym+",y", " sta  "+topLo,
			" lda  "+x.Sym+"+1,y", " sta  "+topHi)
	})

	f[ir.WriteIndexedVarByte] = with(func(x ir.Instr) string {
		return seq(" inx", " ldy  $ce00,x", " inx", " lda  $ce00,x", " sta  "+x.Sym+",y")
	})

	f[ir.WriteIndexedVarWord] = with(func(x ir.Instr) string {
		return seq(" inx", " lda  $ce00,x", " asl  a", " tay", " inx",
			" lda  $ce00,x", " sta  "+x.Sym+",y",
			" lda  $cf00,x", " sta  "+x.Sym+"+1,y")
	})

	binByte := func(ins string) fallback {
		return text(seq(" lda  $ce02,x", ins+"  "+topLo, " inx", " sta  "+topLo))
	}

	f[ir.AddUB] = binByte(" clc |  adc")
	f[ir.AddB] = binByte(" clc |  adc")
	f[ir.SubUB] = binByte(" sec |  sbc")
	f[ir.SubB] = binByte(" sec |  sbc")
	f[ir.AndByte] = binByte(" and")
	f[ir.OrByte] = binByte(" ora")
	f[ir.XorByte] = binByte(" eor")

	binWord := func(ins string) fallback {
		return text(seq(
			" lda  $ce02,x", " "+ins+"  "+topLo, " sta  $ce02,x",
			" lda  $cf02,x", " "+ins+"  "+topHi, " sta  $cf02,x",
			" inx"))
	}

	f[ir.AndWord] = binWord("and")
	f[ir.OrWord] = binWord("ora")
	f[ir.XorWord] = binWord("eor")

	for _, op := range []ir.Opcode{
		ir.AddUW, ir.AddW, ir.AddF,
		ir.SubUW, ir.SubW, ir.SubF,
		ir.MulUB, ir.MulB, ir.MulUW, ir.MulW, ir.MulF,
		ir.DivUB, ir.DivB, ir.DivUW, ir.DivW, ir.DivF,
		ir.NegF,
		ir.LessUB, ir.LessB, ir.LessUW, ir.LessW, ir.LessF,
		ir.GreaterUB, ir.GreaterB, ir.GreaterUW, ir.GreaterW, ir.GreaterF,
		ir.LesseqUB, ir.LesseqB, ir.LesseqUW, ir.LesseqW, ir.LesseqF,
		ir.GreatereqUB, ir.GreatereqB, ir.GreatereqUW, ir.GreatereqW, ir.GreatereqF,
		ir.EqualByte, ir.EqualWord, ir.EqualF,
		ir.NotequalByte, ir.NotequalWord, ir.NotequalF,
		ir.UB2Float, ir.B2Float, ir.UW2Float, ir.W2Float,
	} {
		f[op] = lib
	}

	for op := range inPlace {
		f[op] = onTop
	}

	f[ir.NotByte] = text(seq(" lda  "+topLo, " beq  +", " lda  #0", " beq  ++", "+", " lda  #1", "+", " sta  "+topLo))
	f[ir.NotWord] = text(seq(" lda  "+topLo, " ora  "+topHi, " beq  +", " lda  #0", " beq  ++", "+", " lda  #1",
		"+", " sta  "+topLo, " lda  #0", " sta  "+topHi))

	f[ir.UB2UWord] = text(seq(" lda  #0", " sta  "+topHi))
	f[ir.B2Word] = text(seq(" lda  "+topLo, " ora  #$7f", " bmi  +", " lda  #0", "+", " sta  "+topHi))
	f[ir.B2UB] = text("")
	f[ir.UB2B] = text("")
	f[ir.LSB] = text("")
	f[ir.MSB] = text(seq(" lda  "+topHi, " sta  "+topLo))
}

// onHome applies a home table to the variable or register in Sym.
func onHome(t *homeTable) fallback {
	return func(g *Generator, x ir.Instr) (string, bool) {
		if x.Sym == "" {
			return "", false
		}

		s, ok := t.get(homeOf(x.Sym))

		return expand(s, "lo", x.Sym, "hi", x.Sym+"+1"), ok
	}
}

// onMem applies the memory form of a home table to the address in Arg.
func onMem(t *homeTable) fallback {
	return func(g *Generator, x ir.Instr) (string, bool) {
		if x.Arg == nil {
			return "", false
		}

		s, ok := t.get(HomeMem)
		a := x.Arg.Int

		return expand(s, "lo", hex(a), "hi", hex(a+1)), ok
	}
}

func floatAt(routine string) fallback {
	return func(g *Generator, x ir.Instr) (string, bool) {
		a, ok := symOrAddr(x)
		if !ok {
			return "", false
		}

		return seq(" lda  "+addrLo(a), " ldy  "+addrHi(a), " jsr  tglib."+routine), true
	}
}

func symOrAddr(x ir.Instr) (string, bool) {
	switch {
	case x.Sym != "":
		return x.Sym, true
	case x.Arg != nil && !x.Arg.IsFloat:
		return hex(x.Arg.Int), true
	}

	return "", false
}

// Coverage reports opcodes no translation handles at all
// and catalog entries that can never produce code.
func Coverage(m *Matcher) (missing []ir.Opcode, bad []string) {
	var have set.Bits[ir.Opcode]

	for op, f := range fallbacks {
		if f != nil {
			have.Set(ir.Opcode(op))
		}
	}

	var all set.Bits[ir.Opcode]
	all.SetRange(0, ir.NumOpcodes)
	all.Subtract(have)

	names := map[string]bool{}

	for _, r := range m.rules {
		if r.Gen == nil || names[r.Name] {
			bad = append(bad, r.Name)
		}

		names[r.Name] = true
	}

	for _, id := range m.idioms {
		if id.Match == nil || id.Gen == nil || names[id.Name] {
			bad = append(bad, id.Name)
		}

		names[id.Name] = true
	}

	return all.Slice(), bad
}
