package back

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/encoding"
	"tlog.app/go/errors"

	"github.com/slowlang/tassgen/compiler/ir"
	"github.com/slowlang/tassgen/compiler/mflpt"
)

// floatPool holds float literals shared by the whole program.
type floatPool struct {
	labels map[uint64]string
	vals   []float64
}

const perLine = 16

func (p *floatPool) reset() {
	p.labels = map[uint64]string{}
	p.vals = p.vals[:0]
}

func (p *floatPool) add(v float64) (string, bool) {
	if math.IsNaN(v) {
		return "", false
	}

	if p.labels == nil {
		p.labels = map[uint64]string{}
	}

	k := math.Float64bits(v)

	if l, ok := p.labels[k]; ok {
		return l, true
	}

	l := "tg_const_float_" + strconv.Itoa(len(p.vals))

	p.labels[k] = l
	p.vals = append(p.vals, v)

	return l, true
}

func (g *Generator) floatLabel(v float64) (string, bool) {
	return g.pool.add(v)
}

// collectFloats fills the pool in first-seen order:
// block by block, declarations before code.
func (g *Generator) collectFloats(p *ir.Program) error {
	for _, blk := range p.Blocks {
		for _, d := range blk.Decls {
			if !d.Const || d.Type != ir.Float || d.Value == nil {
				continue
			}

			if _, ok := g.pool.add(floatOf(*d.Value)); !ok {
				return errors.New("block %v: const %v: bad float", blk.Name, d.Name)
			}
		}

		for _, x := range blk.Code {
			v, ok := floatArg(x)
			if !ok || x.Op != ir.PushFloat && !x.Arg.IsFloat {
				continue
			}

			if _, ok := g.pool.add(v); !ok {
				return errors.New("block %v: %v: bad float", blk.Name, x.Op)
			}
		}
	}

	return nil
}

func (g *Generator) appendPool(b []byte) ([]byte, error) {
	if len(g.pool.vals) == 0 {
		return b, nil
	}

	b = append(b, "\n; ---- float constants ----\n"...)

	for _, v := range g.pool.vals {
		fl, err := floatBytes(v)
		if err != nil {
			return nil, err
		}

		b = append(b, g.pool.labels[math.Float64bits(v)]...)
		b = append(b, "\t.byte  "...)
		b = append(b, fl...)
		b = append(b, "  ; float "...)
		b = strconv.AppendFloat(b, v, 'g', -1, 64)
		b = append(b, '\n')
	}

	return b, nil
}

// appendMemdefs emits constants as assembler symbols.
func (g *Generator) appendMemdefs(b []byte, blk *ir.Block) ([]byte, error) {
	for _, d := range blk.Decls {
		if !isMemdef(d) {
			continue
		}

		b = append(b, '\t')
		b = append(b, d.Name...)
		b = append(b, " = "...)

		if d.Type != ir.Float {
			if d.Value.IsFloat {
				return nil, errors.New("const %v: float value %v for %v", d.Name, *d.Value, d.Type)
			}

			b = append(b, hex(d.Value.Int)...)
			b = append(b, '\n')

			continue
		}

		l, ok := g.pool.add(floatOf(*d.Value))
		if !ok {
			return nil, errors.New("const %v: bad float", d.Name)
		}

		b = append(b, l...)
		b = append(b, '\n')
	}

	return b, nil
}

// appendVars emits storage sorted by data type.
func (g *Generator) appendVars(b []byte, blk *ir.Block, heap ir.Heap) (_ []byte, err error) {
	vars := lo.Filter(blk.Decls, func(d ir.Decl, _ int) bool { return !isMemdef(d) })

	sort.SliceStable(vars, func(i, j int) bool { return vars[i].Type < vars[j].Type })

	for _, d := range vars {
		b, err = g.appendVar(b, d, heap)
		if err != nil {
			return nil, errors.Wrap(err, "var %v", d.Name)
		}
	}

	return b, nil
}

func (g *Generator) appendVar(b []byte, d ir.Decl, heap ir.Heap) ([]byte, error) {
	var v ir.Value
	if d.Value != nil {
		v = *d.Value
	}

	switch d.Type {
	case ir.UByte, ir.Byte, ir.UWord, ir.Word:
		if v.IsFloat {
			return nil, errors.New("float value %v for %v", v, d.Type)
		}

		return appendLine(b, d.Name, directive(d.Type), hex(v.Int)), nil
	case ir.Float:
		f := floatOf(v)
		if f == 0 {
			return appendLine(b, d.Name, ".fill", "5  ; float"), nil
		}

		fl, err := floatBytes(f)
		if err != nil {
			return nil, err
		}

		return appendLine(b, d.Name, ".byte", fl+"  ; float "+strconv.FormatFloat(f, 'g', -1, 64)), nil
	}

	pl, ok := heap[d.HeapID]
	if d.HeapID == 0 || !ok {
		return nil, errors.New("no heap payload %d", d.HeapID)
	}

	switch {
	case d.Type == ir.ArrayF:
		if len(pl.Floats) == 0 {
			return nil, errors.New("empty array")
		}

		b = append(b, d.Name...)
		b = append(b, '\n')

		for _, f := range pl.Floats {
			fl, err := floatBytes(f)
			if err != nil {
				return nil, err
			}

			b = appendLine(b, "", ".byte", fl+"  ; float "+strconv.FormatFloat(f, 'g', -1, 64))
		}

		return b, nil
	case d.Type.IsArray():
		if len(pl.Array) == 0 {
			return nil, errors.New("empty array")
		}

		vals := lo.Map(pl.Array, func(x int64, _ int) string { return hex(x) })

		return appendChunks(b, d.Name, directive(d.Type), vals), nil
	case d.Type.IsString():
		data, err := g.encodeStr(pl.Str, d.Type)
		if err != nil {
			return nil, err
		}

		b = append(b, d.Name...)
		b = append(b, "\t; "...)
		b = append(b, d.Type.String()...)
		b = append(b, ' ')
		b = strconv.AppendQuote(b, pl.Str)
		b = append(b, '\n')

		vals := lo.Map(data, func(x byte, _ int) string { return hex(int64(x)) })

		for _, c := range lo.Chunk(vals, perLine) {
			b = appendLine(b, "", ".byte", strings.Join(c, ", "))
		}

		return b, nil
	}

	return nil, errors.New("unsupported type: %v", d.Type)
}

func (g *Generator) encodeStr(s string, tp ir.DataType) ([]byte, error) {
	var enc encoding.Encoding

	switch tp {
	case ir.Str, ir.StrP:
		enc = g.opts.Text
	default:
		enc = g.opts.Screen
	}

	data, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, errors.Wrap(err, "encode %q", s)
	}

	switch tp {
	case ir.Str, ir.StrS:
		return append(data, 0), nil
	}

	if len(data) > 255 {
		return nil, errors.New("string too long for length prefix: %d", len(data))
	}

	return append([]byte{byte(len(data))}, data...), nil
}

// appendChunks puts short lists on the label line
// and longer ones on lines of their own.
func appendChunks(b []byte, name, dir string, vals []string) []byte {
	if len(vals) <= perLine {
		return appendLine(b, name, dir, strings.Join(vals, ", "))
	}

	b = append(b, name...)
	b = append(b, '\n')

	for _, c := range lo.Chunk(vals, perLine) {
		b = appendLine(b, "", dir, strings.Join(c, ", "))
	}

	return b
}

func appendLine(b []byte, label, dir, args string) []byte {
	b = append(b, label...)
	b = append(b, '\t')
	b = append(b, dir...)
	b = append(b, "  "...)
	b = append(b, args...)

	return append(b, '\n')
}

func directive(tp ir.DataType) string {
	switch tp {
	case ir.Byte, ir.ArrayB:
		return ".char"
	case ir.UWord, ir.ArrayUW:
		return ".word"
	case ir.Word, ir.ArrayW:
		return ".sint"
	}

	return ".byte"
}

func isMemdef(d ir.Decl) bool {
	return d.Const && d.Value != nil && !d.Type.IsArray() && !d.Type.IsString()
}

func floatOf(v ir.Value) float64 {
	if v.IsFloat {
		return v.Float
	}

	return float64(v.Int)
}

func floatBytes(f float64) (string, error) {
	m, err := mflpt.Encode(f)
	if err != nil {
		return "", err
	}

	return strings.Join(lo.Map(m[:], func(x byte, _ int) string { return hex(int64(x)) }), ", "), nil
}

// DecodeDirective parses a data line back into its directive and values.
// Labels and comments are skipped.
func DecodeDirective(line string) (dir string, vals []int64, err error) {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}

	fs := strings.Fields(line)

	for len(fs) != 0 && !strings.HasPrefix(fs[0], ".") {
		fs = fs[1:]
	}

	if len(fs) == 0 {
		return "", nil, errors.New("no directive")
	}

	dir = fs[0]
	args := strings.Join(fs[1:], "")

	if args == "" {
		return dir, nil, nil
	}

	for _, a := range strings.Split(args, ",") {
		v, err := ir.ParseValue(a)
		if err != nil {
			return "", nil, errors.Wrap(err, "value %q", a)
		}

		if v.IsFloat {
			return "", nil, errors.New("unexpected float: %q", a)
		}

		vals = append(vals, v.Int)
	}

	return dir, vals, nil
}
