package ir

import (
	"strconv"

	"tlog.app/go/errors"
	"tlog.app/go/tlog/tlwire"
)

type (
	Program struct {
		Name        string
		Launcher    Launcher
		LoadAddress int // 0 is the launcher default
		Blocks      []*Block
	}

	Block struct {
		Name    string // qualified
		Short   string // .proc label
		Address int    // pinned if not 0

		Decls []Decl
		Code  []Instr
	}

	// Instr is a value. Passes that change instructions build new ones.
	Instr struct {
		Op   Opcode
		Arg  *Value
		Arg2 *Value
		Sym  string
		Sym2 string
	}

	Value struct {
		Int     int64
		Float   float64
		IsFloat bool
	}

	Decl struct {
		Name   string
		Type   DataType
		Value  *Value
		HeapID int // 0 means no payload
		Const  bool
	}

	// Heap holds string and array payloads by handle.
	// Code generation never modifies it.
	Heap map[int]Payload

	Payload struct {
		Str    string
		Array  []int64
		Floats []float64
	}

	RefKind int

	// Ref names the storage an instruction reads or writes.
	// Two instructions touch the same location iff their Refs are equal and valid.
	Ref struct {
		Kind RefKind
		Sym  string
		Addr int64
	}
)

const (
	RefNone RefKind = iota
	RefVar
	RefMem
)

func Int(v int64) *Value { return &Value{Int: v} }

func Float64(f float64) *Value { return &Value{Float: f, IsFloat: true} }

func NewLabel(name string) Instr { return Instr{Op: Label, Sym: name} }

func Op(op Opcode) Instr { return Instr{Op: op} }

func OpInt(op Opcode, v int64) Instr { return Instr{Op: op, Arg: Int(v)} }

func OpFloat(op Opcode, f float64) Instr { return Instr{Op: op, Arg: Float64(f)} }

func OpSym(op Opcode, sym string) Instr { return Instr{Op: op, Sym: sym} }

func (p *Program) Block(name string) *Block {
	for _, b := range p.Blocks {
		if b.Name == name {
			return b
		}
	}

	return nil
}

func (b *Block) Pinned() bool { return b.Address != 0 }

func (b *Block) Decl(name string) (Decl, bool) {
	for _, d := range b.Decls {
		if d.Name == name {
			return d, true
		}
	}

	return Decl{}, false
}

func (x Instr) IsLabel() bool { return x.Op == Label }

func (x Instr) Ref() Ref {
	switch x.Op {
	case PushVarByte, PushVarWord, PushVarFloat,
		PopVarByte, PopVarWord, PopVarFloat,
		IncVarUB, IncVarB, IncVarUW, IncVarW, IncVarF,
		DecVarUB, DecVarB, DecVarUW, DecVarW, DecVarF,
		ReadIndexedVarByte, ReadIndexedVarWord, ReadIndexedVarFloat,
		WriteIndexedVarByte, WriteIndexedVarWord, WriteIndexedVarFloat:
		if x.Sym == "" {
			return Ref{}
		}

		return Ref{Kind: RefVar, Sym: x.Sym}
	case PushMemB, PushMemUB, PushMemW, PushMemUW, PushMemFloat,
		PopMemByte, PopMemWord, PopMemFloat:
		if x.Arg == nil || x.Arg.IsFloat {
			return Ref{}
		}

		return Ref{Kind: RefMem, Addr: x.Arg.Int}
	}

	return Ref{}
}

func (r Ref) Valid() bool { return r.Kind != RefNone }

func (r Ref) Same(x Ref) bool { return r.Valid() && r == x }

func (v *Value) Equal(x *Value) bool {
	if v == nil || x == nil {
		return v == x
	}

	return *v == *x
}

func (v Value) String() string {
	if v.IsFloat {
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	}

	return strconv.FormatInt(v.Int, 10)
}

func (x Instr) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	n := 1
	if x.Arg != nil {
		n++
	}
	if x.Arg2 != nil {
		n++
	}
	if x.Sym != "" {
		n++
	}
	if x.Sym2 != "" {
		n++
	}

	b = e.AppendMap(b, n)
	b = e.AppendKeyValue(b, "op", x.Op.String())

	if x.Arg != nil {
		b = e.AppendKeyValue(b, "arg", x.Arg.String())
	}
	if x.Arg2 != nil {
		b = e.AppendKeyValue(b, "arg2", x.Arg2.String())
	}
	if x.Sym != "" {
		b = e.AppendKeyValue(b, "sym", x.Sym)
	}
	if x.Sym2 != "" {
		b = e.AppendKeyValue(b, "sym2", x.Sym2)
	}

	return b
}

// Check reports an instruction missing the operand its opcode needs.
func (x Instr) Check() error {
	if x.Op < 0 || x.Op >= NumOpcodes {
		return errors.New("bad opcode: %d", int(x.Op))
	}

	intArg := x.Arg != nil && !x.Arg.IsFloat

	switch x.Op.Operand() {
	case IntOperand:
		if intArg {
			return nil
		}
	case NumOperand:
		if x.Arg != nil {
			return nil
		}
	case NameOperand:
		if x.Sym != "" {
			return nil
		}
	case TargetOperand:
		if x.Sym != "" || intArg {
			return nil
		}
	default:
		return nil
	}

	return errors.New("%v: missing operand", x.Op)
}
