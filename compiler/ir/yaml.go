package ir

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"
)

type (
	yamlProgram struct {
		Name     string      `yaml:"name"`
		Launcher string      `yaml:"launcher"`
		Load     *Value      `yaml:"load"`
		Blocks   []yamlBlock `yaml:"blocks"`

		Heap map[int]yamlPayload `yaml:"heap"`
	}

	yamlBlock struct {
		Name    string     `yaml:"name"`
		Short   string     `yaml:"short"`
		Address *Value     `yaml:"address"`
		Decls   []yamlDecl `yaml:"decls"`
		Code    []Instr    `yaml:"code"`
	}

	yamlDecl struct {
		Name  string `yaml:"name"`
		Type  string `yaml:"type"`
		Value *Value `yaml:"value"`
		Heap  int    `yaml:"heap"`
		Const bool   `yaml:"const"`
	}

	yamlPayload struct {
		Str    *string   `yaml:"str"`
		Array  []Value   `yaml:"array"`
		Floats []float64 `yaml:"floats"`
	}
)

func LoadFile(name string) (*Program, Heap, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read")
	}

	p, h, err := Load(data)
	if err != nil {
		return nil, nil, errors.Wrap(err, "%v", name)
	}

	return p, h, nil
}

// Load decodes a program and its heap.
//
//	name: hello
//	launcher: basic
//	blocks:
//	  - name: main
//	    decls:
//	      - { name: counter, type: ubyte }
//	    code:
//	      - LABEL start
//	      - PUSH_VAR_BYTE counter
//	      - PUSH_BYTE 1
//	      - ADD_UB
//	      - POP_VAR_BYTE counter
//	      - RETURN
func Load(data []byte) (_ *Program, _ Heap, err error) {
	var y yamlProgram

	err = yaml.Unmarshal(data, &y)
	if err != nil {
		return nil, nil, errors.Wrap(err, "decode")
	}

	p := &Program{
		Name: y.Name,
	}

	if y.Launcher != "" {
		p.Launcher, err = ParseLauncher(y.Launcher)
		if err != nil {
			return nil, nil, err
		}
	}

	if y.Load != nil {
		if y.Load.IsFloat {
			return nil, nil, errors.New("load address: integer expected")
		}

		p.LoadAddress = int(y.Load.Int)
	}

	for _, yb := range y.Blocks {
		b, err := yb.block()
		if err != nil {
			return nil, nil, errors.Wrap(err, "block %v", yb.Name)
		}

		p.Blocks = append(p.Blocks, b)
	}

	h := make(Heap, len(y.Heap))

	for id, yp := range y.Heap {
		var pl Payload

		if yp.Str != nil {
			pl.Str = *yp.Str
		}

		for _, v := range yp.Array {
			if v.IsFloat {
				return nil, nil, errors.New("heap %d: integer array expected", id)
			}

			pl.Array = append(pl.Array, v.Int)
		}

		pl.Floats = yp.Floats

		h[id] = pl
	}

	return p, h, nil
}

func (yb yamlBlock) block() (*Block, error) {
	if yb.Name == "" {
		return nil, errors.New("no name")
	}

	b := &Block{
		Name:  yb.Name,
		Short: yb.Short,
		Code:  yb.Code,
	}

	if b.Short == "" {
		b.Short = yb.Name
	}

	if yb.Address != nil {
		b.Address = int(yb.Address.Int)
	}

	for _, yd := range yb.Decls {
		tp, err := ParseDataType(yd.Type)
		if err != nil {
			return nil, errors.Wrap(err, "decl %v", yd.Name)
		}

		b.Decls = append(b.Decls, Decl{
			Name:   yd.Name,
			Type:   tp,
			Value:  yd.Value,
			HeapID: yd.Heap,
			Const:  yd.Const,
		})
	}

	return b, nil
}

func (x *Instr) UnmarshalYAML(n *yaml.Node) (err error) {
	if n.Kind != yaml.ScalarNode {
		return errors.New("line %d: instruction string expected", n.Line)
	}

	*x, err = ParseInstr(n.Value)
	if err != nil {
		return errors.Wrap(err, "line %d", n.Line)
	}

	return nil
}

func (v *Value) UnmarshalYAML(n *yaml.Node) (err error) {
	if n.Kind != yaml.ScalarNode {
		return errors.New("line %d: scalar expected", n.Line)
	}

	switch n.Tag {
	case "!!int":
		*v = Value{}
		return n.Decode(&v.Int)
	case "!!float":
		*v = Value{IsFloat: true}
		return n.Decode(&v.Float)
	}

	*v, err = ParseValue(n.Value)

	return err
}

// ParseInstr parses "OPCODE operands...".
// Numeric operands fill Arg and Arg2, names fill Sym and Sym2.
// LABEL, LINE and INLINE_ASSEMBLY take the rest of the line as Sym.
// Opcodes missing their operand are rejected.
func ParseInstr(s string) (x Instr, err error) {
	s = strings.TrimSpace(s)

	name, rest, _ := strings.Cut(s, " ")

	x.Op, err = ParseOpcode(name)
	if err != nil {
		return x, err
	}

	switch x.Op {
	case Label, Line:
		x.Sym = strings.TrimSpace(rest)

		if x.Op == Label && x.Sym == "" {
			return x, errors.New("label without name")
		}

		return x, nil
	case InlineAssembly:
		x.Sym = strings.TrimLeft(rest, " \t")

		return x, nil
	}

	for _, f := range strings.Fields(rest) {
		if !numeric(f) {
			switch {
			case x.Sym == "":
				x.Sym = f
			case x.Sym2 == "":
				x.Sym2 = f
			default:
				return x, errors.New("%v: too many names", x.Op)
			}

			continue
		}

		v, err := ParseValue(f)
		if err != nil {
			return x, errors.Wrap(err, "%v", x.Op)
		}

		switch {
		case x.Arg == nil:
			x.Arg = &v
		case x.Arg2 == nil:
			x.Arg2 = &v
		default:
			return x, errors.New("%v: too many values", x.Op)
		}
	}

	return x, x.Check()
}

// ParseValue accepts decimal, 0x, $ and % prefixed integers and floats.
func ParseValue(s string) (Value, error) {
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")

	base := 0

	switch {
	case strings.HasPrefix(digits, "$"):
		base, digits = 16, digits[1:]
	case strings.HasPrefix(digits, "%"):
		base, digits = 2, digits[1:]
	}

	i, err := strconv.ParseInt(digits, base, 64)
	if err == nil {
		if neg {
			i = -i
		}

		return Value{Int: i}, nil
	}

	if base == 0 {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr == nil {
			return Value{Float: f, IsFloat: true}, nil
		}
	}

	return Value{}, errors.New("bad number: %q", s)
}

func numeric(s string) bool {
	if s == "" {
		return false
	}

	switch c := s[0]; {
	case c >= '0' && c <= '9', c == '-', c == '+', c == '$', c == '%', c == '.':
		return true
	}

	return false
}
