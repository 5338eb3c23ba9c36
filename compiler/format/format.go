package format

import (
	"context"
	"strconv"
	"strings"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/tassgen/compiler/ir"
)

// Format appends a listing of x to b.
// x is one of *ir.Program, *ir.Block, []ir.Instr, ir.Instr.
func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	return format(ctx, b, x, 0)
}

func format(ctx context.Context, b []byte, x any, d int) ([]byte, error) {
	switch x := x.(type) {
	case *ir.Program:
		return formatProgram(ctx, b, x, d)
	case *ir.Block:
		return formatBlock(ctx, b, x, d), nil
	case []ir.Instr:
		return formatCode(b, x, d), nil
	case ir.Instr:
		return formatInstr(b, x, d), nil
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatProgram(ctx context.Context, b []byte, x *ir.Program, d int) ([]byte, error) {
	b = app(b, d, "program %v launcher %v", x.Name, x.Launcher)

	if x.LoadAddress != 0 {
		b = hfmt.Appendf(b, " load $%04x", x.LoadAddress)
	}

	b = append(b, '\n')

	for _, blk := range x.Blocks {
		b = append(b, '\n')
		b = formatBlock(ctx, b, blk, d)
	}

	return b, nil
}

func formatBlock(ctx context.Context, b []byte, x *ir.Block, d int) []byte {
	b = app(b, d, "block %v", x.Name)

	if x.Short != "" && x.Short != x.Name {
		b = hfmt.Appendf(b, " (%v)", x.Short)
	}

	if x.Pinned() {
		b = hfmt.Appendf(b, " @ $%04x", x.Address)
	}

	b = append(b, " {\n"...)

	for _, decl := range x.Decls {
		b = formatDecl(b, decl, d+1)
	}

	if len(x.Decls) != 0 && len(x.Code) != 0 {
		b = append(b, '\n')
	}

	b = formatCode(b, x.Code, d+1)

	b = app(b, d, "}\n")

	return b
}

func formatDecl(b []byte, x ir.Decl, d int) []byte {
	kw := "var"
	if x.Const {
		kw = "const"
	}

	b = app(b, d, "%v %v %v", kw, x.Type, x.Name)

	if x.Value != nil {
		b = append(b, " = "...)
		b = appendValue(b, *x.Value)
	}

	if x.HeapID != 0 {
		b = hfmt.Appendf(b, " heap %d", x.HeapID)
	}

	return append(b, '\n')
}

// FormatCode is a listing of instructions, one per line.
func FormatCode(code []ir.Instr) string {
	return string(formatCode(nil, code, 1))
}

func formatCode(b []byte, code []ir.Instr, d int) []byte {
	for _, x := range code {
		b = formatInstr(b, x, d)
	}

	return b
}

func formatInstr(b []byte, x ir.Instr, d int) []byte {
	switch x.Op {
	case ir.Label:
		return app(b, max(d-1, 0), "%v:\n", x.Sym)
	case ir.InlineAssembly:
		b = app(b, d, "%v\n", x.Op)

		for _, l := range strings.Split(x.Sym, "\n") {
			b = app(b, d+1, "%s\n", l)
		}

		return b
	case ir.Line:
		return app(b, d, "%v %s\n", x.Op, x.Sym)
	}

	b = app(b, d, "%v", x.Op)

	for _, s := range []string{x.Sym, x.Sym2} {
		if s != "" {
			b = append(b, ' ')
			b = append(b, s...)
		}
	}

	for _, v := range []*ir.Value{x.Arg, x.Arg2} {
		if v != nil {
			b = append(b, ' ')
			b = appendValue(b, *v)
		}
	}

	return append(b, '\n')
}

// Instr is the one-line form of x, parsable back by ir.ParseInstr
// for everything except labels and multi-line inline assembly.
func Instr(x ir.Instr) string {
	b := formatInstr(nil, x, 0)

	return string(b[:len(b)-1])
}

func appendValue(b []byte, v ir.Value) []byte {
	if !v.IsFloat {
		return strconv.AppendInt(b, v.Int, 10)
	}

	st := len(b)
	b = strconv.AppendFloat(b, v.Float, 'g', -1, 64)

	if !strings.ContainsAny(string(b[st:]), ".eEIN") {
		b = append(b, ".0"...)
	}

	return b
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
