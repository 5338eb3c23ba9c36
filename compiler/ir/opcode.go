package ir

import (
	"strings"

	"tlog.app/go/errors"
)

type Opcode int

const (
	Label Opcode = iota
	Line
	Nop
	Terminate
	Sec
	Clc
	Sei
	Cli
	Jump
	Call
	Return
	Bcs
	Bcc
	Bneg
	Bpos
	Bvc
	Bvs
	Bz
	Bnz
	Rsave
	Rrestore
	InlineAssembly
	Syscall
	Breakpoint

	PushByte
	PushWord
	PushFloat
	PushVarByte
	PushVarWord
	PushVarFloat
	PushMemB
	PushMemUB
	PushMemW
	PushMemUW
	PushMemFloat

	PopVarByte
	PopVarWord
	PopVarFloat
	PopMemByte
	PopMemWord
	PopMemFloat

	DiscardByte
	DiscardWord
	DiscardFloat

	ReadIndexedVarByte
	ReadIndexedVarWord
	ReadIndexedVarFloat
	WriteIndexedVarByte
	WriteIndexedVarWord
	WriteIndexedVarFloat

	IncVarUB
	IncVarB
	IncVarUW
	IncVarW
	IncVarF
	DecVarUB
	DecVarB
	DecVarUW
	DecVarW
	DecVarF

	AddUB
	AddB
	AddUW
	AddW
	AddF
	SubUB
	SubB
	SubUW
	SubW
	SubF
	MulUB
	MulB
	MulUW
	MulW
	MulF
	DivUB
	DivB
	DivUW
	DivW
	DivF

	NegB
	NegW
	NegF
	InvByte
	InvWord
	NotByte
	NotWord

	AndByte
	OrByte
	XorByte
	AndWord
	OrWord
	XorWord

	ShlByte
	ShrByte
	ShlWord
	ShrWord
	Shl8Word
	Shr8Word
	RolByte
	RorByte
	RolWord
	RorWord
	Rol2Byte
	Ror2Byte
	Rol2Word
	Ror2Word

	LessUB
	LessB
	LessUW
	LessW
	LessF
	GreaterUB
	GreaterB
	GreaterUW
	GreaterW
	GreaterF
	LesseqUB
	LesseqB
	LesseqUW
	LesseqW
	LesseqF
	GreatereqUB
	GreatereqB
	GreatereqUW
	GreatereqW
	GreatereqF
	EqualByte
	EqualWord
	EqualF
	NotequalByte
	NotequalWord
	NotequalF

	UB2UWord
	B2Word
	B2UB
	UB2B
	MSB
	LSB
	UB2Float
	B2Float
	UW2Float
	W2Float

	NumOpcodes
)

var opnames = [NumOpcodes]string{
	Label:          "LABEL",
	Line:           "LINE",
	Nop:            "NOP",
	Terminate:      "TERMINATE",
	Sec:            "SEC",
	Clc:            "CLC",
	Sei:            "SEI",
	Cli:            "CLI",
	Jump:           "JUMP",
	Call:           "CALL",
	Return:         "RETURN",
	Bcs:            "BCS",
	Bcc:            "BCC",
	Bneg:           "BNEG",
	Bpos:           "BPOS",
	Bvc:            "BVC",
	Bvs:            "BVS",
	Bz:             "BZ",
	Bnz:            "BNZ",
	Rsave:          "RSAVE",
	Rrestore:       "RRESTORE",
	InlineAssembly: "INLINE_ASSEMBLY",
	Syscall:        "SYSCALL",
	Breakpoint:     "BREAKPOINT",

	PushByte:     "PUSH_BYTE",
	PushWord:     "PUSH_WORD",
	PushFloat:    "PUSH_FLOAT",
	PushVarByte:  "PUSH_VAR_BYTE",
	PushVarWord:  "PUSH_VAR_WORD",
	PushVarFloat: "PUSH_VAR_FLOAT",
	PushMemB:     "PUSH_MEM_B",
	PushMemUB:    "PUSH_MEM_UB",
	PushMemW:     "PUSH_MEM_W",
	PushMemUW:    "PUSH_MEM_UW",
	PushMemFloat: "PUSH_MEM_FLOAT",

	PopVarByte:  "POP_VAR_BYTE",
	PopVarWord:  "POP_VAR_WORD",
	PopVarFloat: "POP_VAR_FLOAT",
	PopMemByte:  "POP_MEM_BYTE",
	PopMemWord:  "POP_MEM_WORD",
	PopMemFloat: "POP_MEM_FLOAT",

	DiscardByte:  "DISCARD_BYTE",
	DiscardWord:  "DISCARD_WORD",
	DiscardFloat: "DISCARD_FLOAT",

	ReadIndexedVarByte:   "READ_INDEXED_VAR_BYTE",
	ReadIndexedVarWord:   "READ_INDEXED_VAR_WORD",
	ReadIndexedVarFloat:  "READ_INDEXED_VAR_FLOAT",
	WriteIndexedVarByte:  "WRITE_INDEXED_VAR_BYTE",
	WriteIndexedVarWord:  "WRITE_INDEXED_VAR_WORD",
	WriteIndexedVarFloat: "WRITE_INDEXED_VAR_FLOAT",

	IncVarUB: "INC_VAR_UB",
	IncVarB:  "INC_VAR_B",
	IncVarUW: "INC_VAR_UW",
	IncVarW:  "INC_VAR_W",
	IncVarF:  "INC_VAR_F",
	DecVarUB: "DEC_VAR_UB",
	DecVarB:  "DEC_VAR_B",
	DecVarUW: "DEC_VAR_UW",
	DecVarW:  "DEC_VAR_W",
	DecVarF:  "DEC_VAR_F",

	AddUB: "ADD_UB",
	AddB:  "ADD_B",
	AddUW: "ADD_UW",
	AddW:  "ADD_W",
	AddF:  "ADD_F",
	SubUB: "SUB_UB",
	SubB:  "SUB_B",
	SubUW: "SUB_UW",
	SubW:  "SUB_W",
	SubF:  "SUB_F",
	MulUB: "MUL_UB",
	MulB:  "MUL_B",
	MulUW: "MUL_UW",
	MulW:  "MUL_W",
	MulF:  "MUL_F",
	DivUB: "DIV_UB",
	DivB:  "DIV_B",
	DivUW: "DIV_UW",
	DivW:  "DIV_W",
	DivF:  "DIV_F",

	NegB:    "NEG_B",
	NegW:    "NEG_W",
	NegF:    "NEG_F",
	InvByte: "INV_BYTE",
	InvWord: "INV_WORD",
	NotByte: "NOT_BYTE",
	NotWord: "NOT_WORD",

	AndByte: "AND_BYTE",
	OrByte:  "OR_BYTE",
	XorByte: "XOR_BYTE",
	AndWord: "AND_WORD",
	OrWord:  "OR_WORD",
	XorWord: "XOR_WORD",

	ShlByte:  "SHL_BYTE",
	ShrByte:  "SHR_BYTE",
	ShlWord:  "SHL_WORD",
	ShrWord:  "SHR_WORD",
	Shl8Word: "SHL8_WORD",
	Shr8Word: "SHR8_WORD",
	RolByte:  "ROL_BYTE",
	RorByte:  "ROR_BYTE",
	RolWord:  "ROL_WORD",
	RorWord:  "ROR_WORD",
	Rol2Byte: "ROL2_BYTE",
	Ror2Byte: "ROR2_BYTE",
	Rol2Word: "ROL2_WORD",
	Ror2Word: "ROR2_WORD",

	LessUB:       "LESS_UB",
	LessB:        "LESS_B",
	LessUW:       "LESS_UW",
	LessW:        "LESS_W",
	LessF:        "LESS_F",
	GreaterUB:    "GREATER_UB",
	GreaterB:     "GREATER_B",
	GreaterUW:    "GREATER_UW",
	GreaterW:     "GREATER_W",
	GreaterF:     "GREATER_F",
	LesseqUB:     "LESSEQ_UB",
	LesseqB:      "LESSEQ_B",
	LesseqUW:     "LESSEQ_UW",
	LesseqW:      "LESSEQ_W",
	LesseqF:      "LESSEQ_F",
	GreatereqUB:  "GREATEREQ_UB",
	GreatereqB:   "GREATEREQ_B",
	GreatereqUW:  "GREATEREQ_UW",
	GreatereqW:   "GREATEREQ_W",
	GreatereqF:   "GREATEREQ_F",
	EqualByte:    "EQUAL_BYTE",
	EqualWord:    "EQUAL_WORD",
	EqualF:       "EQUAL_F",
	NotequalByte: "NOTEQUAL_BYTE",
	NotequalWord: "NOTEQUAL_WORD",
	NotequalF:    "NOTEQUAL_F",

	UB2UWord: "UB2UWORD",
	B2Word:   "B2WORD",
	B2UB:     "B2UB",
	UB2B:     "UB2B",
	MSB:      "MSB",
	LSB:      "LSB",
	UB2Float: "UB2FLOAT",
	B2Float:  "B2FLOAT",
	UW2Float: "UW2FLOAT",
	W2Float:  "W2FLOAT",
}

var opbyname map[string]Opcode

func init() {
	opbyname = make(map[string]Opcode, len(opnames))

	for op, n := range opnames {
		if n == "" {
			panic(op)
		}

		opbyname[n] = Opcode(op)
	}
}

// ParseOpcode accepts the canonical upper-case name in any case.
func ParseOpcode(s string) (Opcode, error) {
	op, ok := opbyname[strings.ToUpper(s)]
	if !ok {
		return 0, errors.New("unknown opcode: %q", s)
	}

	return op, nil
}

func (op Opcode) String() string {
	if op < 0 || op >= NumOpcodes {
		return "OPCODE(?)"
	}

	return opnames[op]
}

// Routine is the runtime library entry implementing op.
func (op Opcode) Routine() string {
	return strings.ToLower(op.String())
}

func (op Opcode) IsBranch() bool {
	switch op {
	case Bcs, Bcc, Bneg, Bpos, Bvc, Bvs, Bz, Bnz:
		return true
	}

	return false
}

// Operand is the shape of the operand an opcode carries.
type Operand int

const (
	NoOperand Operand = iota
	IntOperand    // Arg, integer
	NumOperand    // Arg, integer or float
	NameOperand   // Sym
	TargetOperand // Sym or integer Arg
)

var operands = func() (t [NumOpcodes]Operand) {
	for _, op := range []Opcode{
		PushByte, PushWord, Syscall,
		PushMemB, PushMemUB, PushMemW, PushMemUW, PushMemFloat,
		PopMemByte, PopMemWord, PopMemFloat,
	} {
		t[op] = IntOperand
	}

	t[PushFloat] = NumOperand

	for _, op := range []Opcode{
		Label,
		PushVarByte, PushVarWord, PushVarFloat,
		PopVarByte, PopVarWord, PopVarFloat,
		ReadIndexedVarByte, ReadIndexedVarWord, ReadIndexedVarFloat,
		WriteIndexedVarByte, WriteIndexedVarWord, WriteIndexedVarFloat,
		IncVarUB, IncVarB, IncVarUW, IncVarW,
		DecVarUB, DecVarB, DecVarUW, DecVarW,
	} {
		t[op] = NameOperand
	}

	for _, op := range []Opcode{Jump, Call, Bcs, Bcc, Bneg, Bpos, Bvc, Bvs, Bz, Bnz, IncVarF, DecVarF} {
		t[op] = TargetOperand
	}

	return
}()

func (op Opcode) Operand() Operand {
	if op < 0 || op >= NumOpcodes {
		return NoOperand
	}

	return operands[op]
}
