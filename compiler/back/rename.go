package back

import (
	"strings"

	"tlog.app/go/errors"

	"github.com/slowlang/tassgen/compiler/ir"
)

// Rename rewrites scoped names into names the assembler accepts.
// Block-local names lose the block prefix since every block is a .proc scope.
// p is not modified.
func Rename(p *ir.Program) (*ir.Program, error) {
	r := &ir.Program{
		Name:        p.Name,
		Launcher:    p.Launcher,
		LoadAddress: p.LoadAddress,
		Blocks:      make([]*ir.Block, 0, len(p.Blocks)),
	}

	shorts := map[string]string{}

	for _, b := range p.Blocks {
		if prev, ok := shorts[b.Short]; ok {
			return nil, errors.New("blocks %v and %v share name %v", prev, b.Name, b.Short)
		}

		shorts[b.Short] = b.Name

		nb, err := renameBlock(b)
		if err != nil {
			return nil, errors.Wrap(err, "block %v", b.Name)
		}

		r.Blocks = append(r.Blocks, nb)
	}

	return r, nil
}

func renameBlock(b *ir.Block) (*ir.Block, error) {
	nb := &ir.Block{
		Name:    b.Name,
		Short:   b.Short,
		Address: b.Address,
		Decls:   make([]ir.Decl, len(b.Decls)),
		Code:    make([]ir.Instr, len(b.Code)),
	}

	names := map[string]bool{}

	for i, d := range b.Decls {
		d.Name = symname(d.Name, b.Short)

		if names[d.Name] {
			return nil, errors.New("duplicate declaration: %v", d.Name)
		}

		names[d.Name] = true
		nb.Decls[i] = d
	}

	for i, x := range b.Code {
		switch x.Op {
		case ir.InlineAssembly, ir.Line:
		case ir.Label:
			x.Sym = symname(x.Sym, b.Short)

			if anonymous(x.Sym) {
				break
			}

			if names[x.Sym] {
				return nil, errors.New("duplicate label: %v", x.Sym)
			}

			names[x.Sym] = true
		default:
			x.Sym = symname(x.Sym, b.Short)
			x.Sym2 = symname(x.Sym2, b.Short)
		}

		nb.Code[i] = x
	}

	return nb, nil
}

func symname(scoped, short string) string {
	if scoped == "" || strings.Contains(scoped, " ") {
		return scoped
	}

	name, local := strings.CutPrefix(scoped, short+".")

	name = strings.ReplaceAll(name, "<<<", "tg_")
	name = strings.ReplaceAll(name, ">>>", "")

	if anonymous(name) {
		return name
	}

	if local {
		name = strings.ReplaceAll(name, ".", "_")
	} else if pkg, rest, ok := strings.Cut(name, "."); ok {
		name = pkg + "." + strings.ReplaceAll(rest, ".", "_")
	}

	return strings.ReplaceAll(name, "-", "")
}

// anonymous reports 64tass anonymous labels: "-", "+", "--", "++" and so on.
// They may be defined many times.
func anonymous(name string) bool {
	return name != "" && (strings.Trim(name, "-") == "" || strings.Trim(name, "+") == "")
}
