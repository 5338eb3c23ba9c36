package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/tebeka/atexit"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/tassgen/compiler"
	"github.com/slowlang/tassgen/compiler/back"
	"github.com/slowlang/tassgen/compiler/format"
	"github.com/slowlang/tassgen/compiler/ir"
)

func main() {
	genCmd := &cli.Command{
		Name:        "gen",
		Description: "generate 64tass assembly from ir programs",
		Action:      genAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("out,o", ".", "output directory"),
			cli.NewFlag("launcher", "", "override program launcher: basic, prg or raw"),
			cli.NewFlag("load", "", "override load address"),
			cli.NewFlag("window", back.DefaultWindow, "matcher lookahead window"),
			cli.NewFlag("stats", false, "print rule usage statistics"),
		},
	}

	dumpCmd := &cli.Command{
		Name:        "dump",
		Description: "print ir programs",
		Action:      dumpAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("renamed", false, "print names the way the assembler sees them"),
		},
	}

	rulesCmd := &cli.Command{
		Name:        "rules",
		Description: "list code selection patterns",
		Action:      rulesAct,
	}

	checkCmd := &cli.Command{
		Name:        "check",
		Description: "check every opcode has a translation",
		Action:      checkAct,
	}

	app := &cli.Command{
		Name:        "tassgen",
		Description: "tassgen is a 6502 code generator for 64tass",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("verbosity,v", "", "logger verbosity topics: match, dump_ir"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			genCmd,
			dumpCmd,
			rulesCmd,
			checkCmd,
		},
	}

	err := cli.Run(app, os.Args, os.Environ())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func before(c *cli.Command) error {
	if v := c.String("verbosity"); v != "" {
		tlog.SetVerbosity(v)
	}

	return nil
}

func genAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	opts := back.DefaultOptions()

	if q := c.String("launcher"); q != "" {
		l, err := ir.ParseLauncher(q)
		if err != nil {
			return err
		}

		opts.Launcher = &l
	}

	if q := c.String("load"); q != "" {
		v, err := ir.ParseValue(q)
		if err != nil || v.IsFloat || v.Int <= 0 || v.Int > 0xffff {
			return errors.New("bad load address: %q", q)
		}

		opts.LoadAddress = int(v.Int)
	}

	if w := c.Int("window"); w != back.DefaultWindow {
		if w <= 0 {
			return errors.New("bad window: %d", w)
		}

		opts.Matcher = back.NewMatcher(w, back.Idioms(), back.Rules())
	}

	stats := map[string]int{}

	if c.Bool("stats") {
		atexit.Register(func() { printStats(stats) })
	}

	for _, a := range c.Args {
		out, g, err := compiler.GenerateFile(ctx, a, c.String("out"), opts)

		if g != nil {
			for n, k := range g.Stats {
				stats[n] += k
			}
		}

		if err != nil {
			return errors.Wrap(err, "generate %v", a)
		}

		fmt.Printf("%v -> %v\n", a, out)
	}

	return nil
}

func dumpAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		p, _, err := ir.LoadFile(a)
		if err != nil {
			return errors.Wrap(err, "load %v", a)
		}

		if c.Bool("renamed") {
			p, err = back.Rename(p)
			if err != nil {
				return errors.Wrap(err, "rename %v", a)
			}
		}

		text, err := format.Format(ctx, nil, p)
		if err != nil {
			return errors.Wrap(err, "format %v", a)
		}

		fmt.Printf("%s", text)
	}

	return nil
}

func rulesAct(c *cli.Command) error {
	t := table.NewWriter()
	t.SetTitle("Code selection patterns")
	t.AppendHeader(table.Row{"#", "Kind", "Name", "Size", "Pattern"})

	for i, id := range back.Idioms() {
		t.AppendRow(table.Row{i, "idiom", id.Name, id.Span, "same operands"})
	}

	for i, r := range back.Rules() {
		pat := opcodes(r.Seq)
		if r.Alt != nil {
			pat += "\n" + opcodes(r.Alt)
		}

		t.AppendRow(table.Row{len(back.Idioms()) + i, "rule", r.Name, len(r.Seq), pat})
	}

	t.AppendFooter(table.Row{"", "", "window", back.DefaultWindow, ""})

	fmt.Println(t.Render())

	return nil
}

func checkAct(c *cli.Command) error {
	missing, bad := back.Coverage(back.NewMatcher(back.DefaultWindow, back.Idioms(), back.Rules()))

	if len(missing) == 0 && len(bad) == 0 {
		fmt.Printf("all %d opcodes covered, %d idioms, %d rules\n", ir.NumOpcodes, len(back.Idioms()), len(back.Rules()))
		return nil
	}

	for _, op := range missing {
		fmt.Printf("no translation: %v\n", op)
	}

	for _, n := range bad {
		fmt.Printf("bad pattern: %v\n", n)
	}

	return errors.New("%d opcodes missing, %d bad patterns", len(missing), len(bad))
}

func printStats(stats map[string]int) {
	names := lo.Keys(stats)
	sort.Slice(names, func(i, j int) bool {
		if stats[names[i]] != stats[names[j]] {
			return stats[names[i]] > stats[names[j]]
		}

		return names[i] < names[j]
	})

	t := table.NewWriter()
	t.SetTitle("Rule usage")
	t.AppendHeader(table.Row{"Rule", "Used"})

	for _, n := range names {
		t.AppendRow(table.Row{n, stats[n]})
	}

	t.AppendFooter(table.Row{"total", lo.Sum(lo.Values(stats))})

	fmt.Fprintln(os.Stderr, t.Render())
}

func opcodes(ops []ir.Opcode) string {
	return strings.Join(lo.Map(ops, func(op ir.Opcode, _ int) string { return op.String() }), " ")
}
