package compiler

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/tassgen/compiler/back"
	"github.com/slowlang/tassgen/compiler/ir"
)

// GenerateFile loads an IR program from name and writes its assembly into dir.
// The generator is returned for its statistics even on failure.
func GenerateFile(ctx context.Context, name, dir string, opts back.Options) (out string, g *back.Generator, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "generate_file", "name", name, "dir", dir)
	defer tr.Finish("err", &err)

	p, heap, err := ir.LoadFile(name)
	if err != nil {
		return "", nil, errors.Wrap(err, "load")
	}

	tr.Printw("program loaded", "program", p.Name, "launcher", p.Launcher, "blocks", len(p.Blocks), "heap", len(heap))

	g = back.New(opts)

	out, err = g.WriteFile(ctx, dir, p, heap)
	if err != nil {
		return "", g, errors.Wrap(err, "program %v", p.Name)
	}

	return out, g, nil
}

// Generate translates IR program text into assembly text.
func Generate(ctx context.Context, text []byte, opts back.Options) ([]byte, error) {
	p, heap, err := ir.Load(text)
	if err != nil {
		return nil, errors.Wrap(err, "load")
	}

	return back.New(opts).Generate(ctx, p, heap)
}
