package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/tassgen/compiler/back"
)

const hello = `
name: hello
launcher: basic
blocks:
  - name: main
    decls:
      - { name: main.counter, type: ubyte }
      - { name: main.msg, type: str, heap: 1 }
    code:
      - LABEL main.start
      - PUSH_VAR_BYTE main.counter
      - PUSH_BYTE 1
      - ADD_UB
      - POP_VAR_BYTE main.counter
      - PUSH_BYTE 0
      - PUSH_VAR_BYTE main.counter
      - WRITE_INDEXED_VAR_BYTE main.msg
      - RETURN
heap:
  1: { str: "hello" }
`

func TestGenerateFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	src := filepath.Join(dir, "hello.yaml")
	require.NoError(t, os.WriteFile(src, []byte(hello), 0o644))

	out, g, err := GenerateFile(ctx, src, dir, back.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "hello.asm"), out)
	assert.Equal(t, 1, g.Stats["same location add const"])
	assert.Equal(t, 1, g.Stats["byte array[var] = const"])

	text, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(text), "\tinc  counter\n")
	assert.Contains(t, string(text), "\tlda  #$00\n\tldy  counter\n\tsta  msg,y\n")

	_, _, err = GenerateFile(ctx, filepath.Join(dir, "missing.yaml"), dir, back.DefaultOptions())
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	text, err := Generate(context.Background(), []byte(hello), back.DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, string(text), "main\t.proc\n")

	_, err = Generate(context.Background(), []byte("blocks: [{ code: [NOP] }]"), back.DefaultOptions())
	assert.Error(t, err)
}

func TestGenerateMissingOperand(t *testing.T) {
	for _, code := range []string{
		"[PUSH_BYTE, POP_VAR_BYTE x]",
		"[PUSH_MEM_UB, POP_VAR_BYTE x]",
		"[PUSH_WORD, RETURN]",
	} {
		src := "name: bad\nblocks: [{ name: main, code: " + code + " }]\n"

		_, err := Generate(context.Background(), []byte(src), back.DefaultOptions())
		assert.ErrorContains(t, err, "missing operand", "%v", code)
	}
}
