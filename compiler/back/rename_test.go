package back

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/tassgen/compiler/ir"
)

func TestSymname(t *testing.T) {
	for _, tc := range []struct {
		In, Exp string
	}{
		{"main.start", "start"},
		{"main.loop.inner", "loop_inner"},
		{"c64.CHROUT", "c64.CHROUT"},
		{"c64.scr.x", "c64.scr_x"},
		{"main.<<<str>>>1", "tg_str1"},
		{"<<<tmp>>>", "tg_tmp"},
		{"main.a-b", "ab"},
		{"-", "-"},
		{"--", "--"},
		{"+", "+"},
		{"++", "++"},
		{"main.-", "-"},
		{"main", "main"},
		{"", ""},
		{"lda #1", "lda #1"},
	} {
		assert.Equal(t, tc.Exp, symname(tc.In, "main"), "%q", tc.In)
	}
}

func TestRename(t *testing.T) {
	p := &ir.Program{
		Name: "prog",
		Blocks: []*ir.Block{{
			Name:  "main",
			Short: "main",
			Decls: []ir.Decl{{Name: "main.counter", Type: ir.UByte}},
			Code: []ir.Instr{
				ir.NewLabel("main.start"),
				ir.OpSym(ir.Line, "main.p8:3"),
				ir.OpSym(ir.PushVarByte, "main.counter"),
				ir.OpSym(ir.PopVarByte, "c64.scr.x"),
				ir.OpSym(ir.InlineAssembly, " jmp main.start"),
				{Op: ir.Call, Sym: "main.sub", Sym2: "main.counter"},
			},
		}},
	}

	r, err := Rename(p)
	require.NoError(t, err)

	b := r.Blocks[0]
	assert.Equal(t, "counter", b.Decls[0].Name)
	assert.Equal(t, ir.NewLabel("start"), b.Code[0])
	assert.Equal(t, "main.p8:3", b.Code[1].Sym)
	assert.Equal(t, "counter", b.Code[2].Sym)
	assert.Equal(t, "c64.scr_x", b.Code[3].Sym)
	assert.Equal(t, " jmp main.start", b.Code[4].Sym)
	assert.Equal(t, "sub", b.Code[5].Sym)
	assert.Equal(t, "counter", b.Code[5].Sym2)

	assert.Equal(t, "main.counter", p.Blocks[0].Decls[0].Name, "input modified")
	assert.Equal(t, "main.start", p.Blocks[0].Code[0].Sym, "input modified")
}

func TestRenameAnonymousLabels(t *testing.T) {
	p := &ir.Program{Name: "loops", Launcher: ir.LauncherRaw, Blocks: []*ir.Block{{
		Name:  "main",
		Short: "main",
		Decls: []ir.Decl{{Name: "main.v", Type: ir.UByte}},
		Code: []ir.Instr{
			ir.NewLabel("-"),
			ir.OpSym(ir.IncVarUB, "main.v"),
			ir.OpSym(ir.Bnz, "-"),
			ir.NewLabel("-"),
			ir.OpSym(ir.DecVarUB, "main.v"),
			ir.OpSym(ir.Bnz, "-"),
			ir.OpSym(ir.Bz, "+"),
			ir.NewLabel("+"),
			ir.NewLabel("+"),
			ir.Op(ir.Return),
		},
	}}}

	r, err := Rename(p)
	require.NoError(t, err)
	assert.Equal(t, ir.NewLabel("-"), r.Blocks[0].Code[3])
	assert.Equal(t, "-", r.Blocks[0].Code[5].Sym)

	b, err := New(DefaultOptions()).Generate(context.Background(), p, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(b), "\n-\n"))
	assert.Equal(t, 2, strings.Count(string(b), "\tbne  -\n"))
}

func TestRenameConflicts(t *testing.T) {
	for _, blocks := range [][]*ir.Block{{
		{Name: "main", Short: "main", Decls: []ir.Decl{{Name: "main.x_y"}, {Name: "main.x.y"}}},
	}, {
		{Name: "main", Short: "main", Decls: []ir.Decl{{Name: "main.loop"}}, Code: []ir.Instr{ir.NewLabel("main.loop")}},
	}, {
		{Name: "main", Short: "main", Code: []ir.Instr{ir.NewLabel("main.l"), ir.NewLabel("main.l")}},
	}, {
		{Name: "a.util", Short: "util"},
		{Name: "b.util", Short: "util"},
	}} {
		_, err := Rename(&ir.Program{Name: "p", Blocks: blocks})
		assert.Error(t, err)
	}
}
