package back

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/tassgen/compiler/ir"
)

func testProgram(l ir.Launcher) (*ir.Program, ir.Heap) {
	p := &ir.Program{
		Name:     "hello",
		Launcher: l,
		Blocks: []*ir.Block{{
			Name:  "main",
			Short: "main",
			Decls: []ir.Decl{
				{Name: "main.pi", Type: ir.Float, Value: ir.Float64(3.5), Const: true},
				{Name: "main.border", Type: ir.UWord, Value: ir.Int(0xd020), Const: true},
				{Name: "main.msg", Type: ir.Str, HeapID: 1},
				{Name: "main.counter", Type: ir.UByte},
				{Name: "main.f", Type: ir.Float},
			},
			Code: []ir.Instr{
				ir.NewLabel("main"),
				ir.NewLabel("main.start"),
				ir.OpSym(ir.PushVarByte, "main.counter"),
				ir.OpInt(ir.PushByte, 1),
				ir.Op(ir.AddUB),
				ir.OpSym(ir.PopVarByte, "main.counter"),
				ir.OpFloat(ir.PushFloat, 1.5),
				ir.OpSym(ir.PopVarFloat, "main.f"),
				ir.OpInt(ir.PushByte, 7),
				ir.Op(ir.DiscardByte),
				ir.Op(ir.Breakpoint),
				ir.Op(ir.Return),
			},
		}, {
			Name:    "irq",
			Short:   "irq",
			Address: 0xc000,
			Code: []ir.Instr{
				ir.OpFloat(ir.PushFloat, 1.5),
				ir.OpSym(ir.PopVarFloat, "main.f"),
				ir.Op(ir.Breakpoint),
				ir.Op(ir.Return),
			},
		}},
	}

	return p, ir.Heap{1: {Str: "hi"}}
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	p, heap := testProgram(ir.LauncherBasic)

	g := New(DefaultOptions())

	b, err := g.Generate(ctx, p, heap)
	require.NoError(t, err)

	text := string(b)

	for _, exp := range []string{
		"; 6502 assembly code for 'hello'\n",
		".cpu  '6502'\n",
		"* = $0801\n",
		"\t.word  (+), 10\n",
		"_tg_entrypoint\t; assembly code starts here\n",
		"\tjsr  c64utils.init_system\n",
		"\tjmp  main.start\t; jump to program entrypoint\n",
		"main\t.proc\n",
		"\tpi = tg_const_float_0\n",
		"\tborder = $d020\n",
		"counter\t.byte  $00\n",
		"f\t.fill  5  ; float\n",
		"msg\t; str \"hi\"\n\t.byte  $48, $49, $00\n",
		"\nstart\n\tinc  counter\n",
		"\tlda  #<tg_const_float_1\n",
		"_tg_breakpoint_1\tnop\n",
		"_tg_breakpoint_2\tnop\n",
		".cerror * > $c000, 'block address overlaps by ', *-$c000,' bytes'\n* = $c000\nirq\t.proc\n",
		"\tlda  #<main.f\n",
		"\t.pend\n",
		"\n; ---- float constants ----\n",
		"tg_const_float_0\t.byte  ",
		"  ; float 3.5\n",
		"  ; float 1.5\n",
	} {
		assert.Contains(t, text, exp)
	}

	assert.Equal(t, 1, strings.Count(text, "tg_const_float_1\t.byte"), "float constants are shared")
	assert.NotContains(t, text, "tg_const_float_2")
	assert.NotContains(t, text, "main.counter")
	assert.NotContains(t, text, "main\n", "block label is the .proc itself")

	// PUSH_BYTE then DISCARD_BYTE leaves a dex inx pair for the peephole pass.
	assert.NotContains(t, text, "\tdex\n\tinx\n")

	assert.Equal(t, 2, g.Stats["fallback BREAKPOINT"])
	assert.Equal(t, 1, g.Stats["same location add const"])
	assert.Equal(t, 2, g.Stats["float var = const"])

	again, err := g.Generate(ctx, p, heap)
	require.NoError(t, err)
	assert.Equal(t, text, string(again), "generation is repeatable")
}

func TestLaunchers(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		Launcher ir.Launcher
		Load     int
		Has      []string
		Hasnt    []string
	}{
		{ir.LauncherBasic, 0, []string{"* = $0801\n", "c64utils.init_system"}, nil},
		{ir.LauncherPrg, 0, []string{"; ---- program without sys call ----\n", "* = $c000\n\n", "c64utils.init_system"}, []string{"_tg_entrypoint"}},
		{ir.LauncherRaw, 0x2000, []string{"; ---- raw assembler program ----\n", "* = $2000\n\n"}, []string{"init_system", "_tg_entrypoint"}},
	} {
		p, heap := testProgram(tc.Launcher)
		p.LoadAddress = tc.Load

		b, err := New(DefaultOptions()).Generate(ctx, p, heap)
		require.NoError(t, err, "%v", tc.Launcher)

		for _, s := range tc.Has {
			assert.Contains(t, string(b), s, "%v", tc.Launcher)
		}

		for _, s := range tc.Hasnt {
			assert.NotContains(t, string(b), s, "%v", tc.Launcher)
		}
	}

	p, heap := testProgram(ir.LauncherBasic)
	p.LoadAddress = 0xc000

	_, err := New(DefaultOptions()).Generate(ctx, p, heap)
	assert.Error(t, err)

	raw := ir.LauncherRaw
	b, err := New(Options{Launcher: &raw}).Generate(ctx, p, heap)
	require.NoError(t, err)
	assert.Contains(t, string(b), "* = $c000\n")
}

func TestGenerateUnmatched(t *testing.T) {
	p := &ir.Program{Name: "bad", Launcher: ir.LauncherRaw, Blocks: []*ir.Block{{
		Name:  "main",
		Short: "main",
		Code: []ir.Instr{
			ir.Op(ir.Nop),
			ir.OpSym(ir.PushVarByte, "X"),
			ir.Op(ir.Return),
		},
	}}}

	_, err := New(DefaultOptions()).Generate(context.Background(), p, nil)
	require.Error(t, err)

	var ue *UnmatchedError
	require.True(t, errors.As(err, &ue), "%v", err)

	assert.Equal(t, "main", ue.Block)
	assert.Equal(t, []ir.Instr{ir.OpSym(ir.PushVarByte, "X"), ir.Op(ir.Return)}, ue.Window)
	assert.Contains(t, ue.Error(), "PUSH_VAR_BYTE")

	p.Blocks[0].Code = []ir.Instr{ir.OpInt(ir.Syscall, 3)}

	_, err = New(DefaultOptions()).Generate(context.Background(), p, nil)
	assert.True(t, errors.As(err, &ue), "%v", err)
}

func TestWriteFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	p, heap := testProgram(ir.LauncherPrg)

	name, err := New(DefaultOptions()).WriteFile(ctx, dir, p, heap)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "hello.asm"), name)

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Contains(t, string(data), "main\t.proc\n")

	p.Name = "broken"
	p.Blocks[0].Code = append(p.Blocks[0].Code, ir.OpSym(ir.PushVarByte, "X"))

	_, err = New(DefaultOptions()).WriteFile(ctx, dir, p, heap)
	require.Error(t, err)

	_, err = os.Stat(filepath.Join(dir, "broken.asm"))
	assert.True(t, os.IsNotExist(err), "nothing is written on failure")
}

func TestFloatConstantsShared(t *testing.T) {
	p := &ir.Program{Name: "floats", Launcher: ir.LauncherRaw, Blocks: []*ir.Block{{
		Name:  "main",
		Short: "main",
		Decls: []ir.Decl{
			{Name: "main.a", Type: ir.Float, Value: ir.Float64(3.5), Const: true},
			{Name: "main.b", Type: ir.Float, Value: ir.Float64(3.5), Const: true},
		},
		Code: []ir.Instr{ir.Op(ir.Return)},
	}}}

	b, err := New(DefaultOptions()).Generate(context.Background(), p, nil)
	require.NoError(t, err)

	text := string(b)

	assert.Contains(t, text, "\ta = tg_const_float_0\n")
	assert.Contains(t, text, "\tb = tg_const_float_0\n")
	assert.Equal(t, 1, strings.Count(text, "\t.byte  "), "one pool entry")
	assert.Contains(t, text, "tg_const_float_0\t.byte  ")
	assert.NotContains(t, text, "tg_const_float_1")
}
