package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/tassgen/compiler/ir"
)

func TestFormatBlock(t *testing.T) {
	b := &ir.Block{
		Name:    "main",
		Address: 0x2000,
		Decls: []ir.Decl{
			{Name: "counter", Type: ir.UByte, Value: ir.Int(3)},
			{Name: "pi", Type: ir.Float, Value: ir.Float64(3), Const: true},
			{Name: "msg", Type: ir.Str, HeapID: 1},
		},
		Code: []ir.Instr{
			ir.NewLabel("start"),
			ir.OpSym(ir.PushVarByte, "counter"),
			ir.OpInt(ir.PushByte, 1),
			ir.Op(ir.AddUB),
			ir.OpSym(ir.PopVarByte, "counter"),
			ir.Op(ir.Return),
		},
	}

	res, err := Format(context.Background(), nil, b)
	require.NoError(t, err)

	assert.Equal(t, `block main @ $2000 {
	var ubyte counter = 3
	const float pi = 3.0
	var str msg heap 1

start:
	PUSH_VAR_BYTE counter
	PUSH_BYTE 1
	ADD_UB
	POP_VAR_BYTE counter
	RETURN
}
`, string(res))
}

func TestInstrParsesBack(t *testing.T) {
	for _, x := range []ir.Instr{
		ir.OpInt(ir.PushWord, -5),
		ir.OpFloat(ir.PushFloat, 2),
		ir.OpFloat(ir.PushFloat, 1e300),
		ir.OpSym(ir.Jump, "main.loop"),
		ir.OpSym(ir.Line, "file.p8:3"),
		{Op: ir.Call, Sym: "f", Sym2: "g", Arg: ir.Int(1), Arg2: ir.Int(2)},
	} {
		s := Instr(x)

		p, err := ir.ParseInstr(s)
		require.NoError(t, err, "%q", s)
		assert.Equal(t, x, p, "%q", s)
	}
}

func TestFormatUnsupported(t *testing.T) {
	_, err := Format(context.Background(), nil, 3)
	assert.Error(t, err)
}
