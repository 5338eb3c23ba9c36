package back

import (
	"context"
	"os"
	"path/filepath"

	"github.com/nikandfor/hacked/hfmt"
	"golang.org/x/text/encoding"
	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/tassgen/compiler/format"
	"github.com/slowlang/tassgen/compiler/ir"
	"github.com/slowlang/tassgen/compiler/petscii"
)

type (
	Options struct {
		Launcher    *ir.Launcher // overrides the program's
		LoadAddress int          // overrides the program's if not 0
		BasicLine   int          // line number of the BASIC stub

		Text   encoding.Encoding // str and str_p
		Screen encoding.Encoding // str_s and str_ps

		Matcher *Matcher // default if nil
	}

	// Generator turns one program at a time into assembly.
	// It's not safe for concurrent use.
	Generator struct {
		opts Options
		m    *Matcher

		pool        floatPool
		block       *ir.Block
		breakpoints int

		// Stats counts committed fragments by rule name.
		Stats map[string]int
	}
)

const (
	BasicLoadAddress = 0x0801
	RawLoadAddress   = 0xc000
)

func DefaultOptions() Options {
	return Options{
		BasicLine: 10,
		Text:      petscii.Text,
		Screen:    petscii.Screen,
	}
}

func New(opts Options) *Generator {
	def := DefaultOptions()

	if opts.BasicLine == 0 {
		opts.BasicLine = def.BasicLine
	}
	if opts.Text == nil {
		opts.Text = def.Text
	}
	if opts.Screen == nil {
		opts.Screen = def.Screen
	}

	m := opts.Matcher
	if m == nil {
		m = defaultMatcher
	}

	return &Generator{
		opts:  opts,
		m:     m,
		Stats: map[string]int{},
	}
}

// WriteFile generates p into dir/<name>.asm.
// Nothing is written if generation fails.
func (g *Generator) WriteFile(ctx context.Context, dir string, p *ir.Program, heap ir.Heap) (name string, err error) {
	text, err := g.Generate(ctx, p, heap)
	if err != nil {
		return "", err
	}

	name = filepath.Join(dir, p.Name+".asm")

	f, err := os.Create(name)
	if err != nil {
		return "", errors.Wrap(err, "create")
	}

	defer func() {
		e := f.Close()
		if err == nil && e != nil {
			err = errors.Wrap(e, "close")
		}
	}()

	_, err = f.Write(text)
	if err != nil {
		return "", errors.Wrap(err, "write")
	}

	tlog.SpanFromContext(ctx).Printw("assembly written", "name", name, "size", len(text))

	return name, nil
}

// Generate returns the whole assembly text for p.
func (g *Generator) Generate(ctx context.Context, p *ir.Program, heap ir.Heap) (_ []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "generate", "program", p.Name, "blocks", len(p.Blocks))
	defer tr.Finish("err", &err)

	p, err = Rename(p)
	if err != nil {
		return nil, errors.Wrap(err, "rename")
	}

	if tr.If("dump_ir") {
		l, _ := format.Format(ctx, nil, p)
		tr.Printw("renamed ir", "listing", string(l))
	}

	launcher, load, err := g.target(p)
	if err != nil {
		return nil, err
	}

	g.pool.reset()
	g.breakpoints = 0

	err = g.collectFloats(p)
	if err != nil {
		return nil, errors.Wrap(err, "float constants")
	}

	b := g.header(nil, p, launcher, load)

	for _, blk := range p.Blocks {
		b, err = g.appendBlock(ctx, b, blk, heap)
		if err != nil {
			return nil, errors.Wrap(err, "block %v", blk.Name)
		}
	}

	b, err = g.appendPool(b)
	if err != nil {
		return nil, errors.Wrap(err, "float constants")
	}

	b = Peephole(b)

	tr.Printw("generated", "size", len(b), "floats", len(g.pool.vals), "breakpoints", g.breakpoints)

	return b, nil
}

func (g *Generator) target(p *ir.Program) (l ir.Launcher, load int, err error) {
	l = p.Launcher
	if g.opts.Launcher != nil {
		l = *g.opts.Launcher
	}

	load = p.LoadAddress
	if g.opts.LoadAddress != 0 {
		load = g.opts.LoadAddress
	}

	if load == 0 {
		load = RawLoadAddress

		if l == ir.LauncherBasic {
			load = BasicLoadAddress
		}
	}

	if l == ir.LauncherBasic && load != BasicLoadAddress {
		return l, load, errors.New("basic launcher needs load address $%04x, got $%04x", BasicLoadAddress, load)
	}

	return l, load, nil
}

func (g *Generator) header(b []byte, p *ir.Program, l ir.Launcher, load int) []byte {
	b = hfmt.Appendf(b, "; 6502 assembly code for '%s'\n", p.Name)
	b = append(b, "; generated by tassgen\n"...)
	b = append(b, "; assembler syntax is for the 64tasm cross-assembler\n"...)
	b = hfmt.Appendf(b, "; output options: launcher=%v load=%s\n", l, hex(int64(load)))
	b = append(b, "\n.cpu  '6502'\n.enc  'none'\n\n"...)

	switch l {
	case ir.LauncherBasic:
		b = append(b, "; ---- basic program with sys call ----\n"...)
		b = hfmt.Appendf(b, "* = %s\n", hex(int64(load)))
		b = hfmt.Appendf(b, "\t.word  (+), %d\n", g.opts.BasicLine)
		b = append(b, "\t.null  $9e, format(' %d ', _tg_entrypoint), $3a, $8f, ' tassgen'\n"...)
		b = append(b, "+\t.word  0\n"...)
		b = append(b, "_tg_entrypoint\t; assembly code starts here\n\n"...)
		b = append(b, "\tjsr  c64utils.init_system\n"...)
	case ir.LauncherPrg:
		b = append(b, "; ---- program without sys call ----\n"...)
		b = hfmt.Appendf(b, "* = %s\n\n", hex(int64(load)))
		b = append(b, "\tjsr  c64utils.init_system\n"...)
	default:
		b = append(b, "; ---- raw assembler program ----\n"...)
		b = hfmt.Appendf(b, "* = %s\n\n", hex(int64(load)))
	}

	b = append(b, "\tldx  #$ff\t; init estack pointer\n"...)
	b = append(b, "\tclc\n"...)
	b = append(b, "\tjmp  main.start\t; jump to program entrypoint\n\n"...)

	return b
}

func (g *Generator) appendBlock(ctx context.Context, b []byte, blk *ir.Block, heap ir.Heap) (_ []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "block", "name", blk.Name, "decls", len(blk.Decls), "code", len(blk.Code))
	defer tr.Finish("err", &err)

	g.block = blk
	defer func() { g.block = nil }()

	b = hfmt.Appendf(b, "\n; ---- block: '%s' ----\n", blk.Short)

	if blk.Pinned() {
		a := hex(int64(blk.Address))

		b = hfmt.Appendf(b, ".cerror * > %s, 'block address overlaps by ', *-%s,' bytes'\n", a, a)
		b = hfmt.Appendf(b, "* = %s\n", a)
	}

	b = hfmt.Appendf(b, "%s\t.proc\n\n", blk.Short)

	b = append(b, "\n; memdefs and kernel subroutines\n"...)

	b, err = g.appendMemdefs(b, blk)
	if err != nil {
		return nil, errors.Wrap(err, "memdefs")
	}

	b = append(b, "\n; variables\n"...)

	b, err = g.appendVars(b, blk, heap)
	if err != nil {
		return nil, errors.Wrap(err, "variables")
	}

	b = append(b, '\n')

	b, err = g.appendCode(ctx, b, blk)
	if err != nil {
		return nil, err
	}

	b = append(b, "\n\t.pend\n\n"...)

	return b, nil
}

// appendCode runs the matcher over the block code.
// Every step commits at least one instruction.
func (g *Generator) appendCode(ctx context.Context, b []byte, blk *ir.Block) ([]byte, error) {
	code := blk.Code
	tr := tlog.SpanFromContext(ctx)

	for i := 0; i < len(code); {
		f, ok := g.m.Select(g, code[i:])
		if !ok {
			end := min(i+g.m.Window(), len(code))

			return nil, &UnmatchedError{Block: blk.Name, Window: code[i:end]}
		}

		if tr.If("match") {
			tr.Printw("fragment", "at", i, "rule", f.Name, "size", f.Size, "instr", code[i], "from", loc.Caller(0))
		}

		b = appendFragment(b, f)
		g.Stats[f.Name]++

		i += f.Size
	}

	return b, nil
}
