package back

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/tassgen/compiler/ir"
	"github.com/slowlang/tassgen/compiler/mflpt"
)

func textLines(b []byte) []string {
	return strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
}

func decodeAll(t *testing.T, ls []string) (dir string, vals []int64) {
	t.Helper()

	for _, l := range ls {
		d, v, err := DecodeDirective(l)
		require.NoError(t, err, "%q", l)

		dir = d
		vals = append(vals, v...)
	}

	return
}

func TestArrayChunks(t *testing.T) {
	g := New(DefaultOptions())

	vals := make([]int64, 17)
	for i := range vals {
		vals[i] = int64(i * 3)
	}

	heap := ir.Heap{1: {Array: vals}}

	b, err := g.appendVar(nil, ir.Decl{Name: "arr", Type: ir.ArrayUB, HeapID: 1}, heap)
	require.NoError(t, err)

	ls := textLines(b)
	require.Len(t, ls, 3)
	assert.Equal(t, "arr", ls[0])

	_, first, err := DecodeDirective(ls[1])
	require.NoError(t, err)
	assert.Len(t, first, 16)

	dir, got := decodeAll(t, ls[1:])
	assert.Equal(t, ".byte", dir)
	assert.Equal(t, vals, got)

	heap[1] = ir.Payload{Array: vals[:16]}

	b, err = g.appendVar(nil, ir.Decl{Name: "arr", Type: ir.ArrayUB, HeapID: 1}, heap)
	require.NoError(t, err)

	ls = textLines(b)
	require.Len(t, ls, 1)
	assert.True(t, strings.HasPrefix(ls[0], "arr\t.byte  $00, $03,"), "%q", ls[0])
}

func TestArrayTypes(t *testing.T) {
	g := New(DefaultOptions())

	for _, tc := range []struct {
		Type ir.DataType
		Vals []int64
		Dir  string
	}{
		{ir.ArrayB, []int64{-5, 3, -128}, ".char"},
		{ir.ArrayUW, []int64{0x1234, 2}, ".word"},
		{ir.ArrayW, []int64{-1000, 1000}, ".sint"},
	} {
		heap := ir.Heap{7: {Array: tc.Vals}}

		b, err := g.appendVar(nil, ir.Decl{Name: "a", Type: tc.Type, HeapID: 7}, heap)
		require.NoError(t, err, "%v", tc.Type)

		dir, got := decodeAll(t, textLines(b))
		assert.Equal(t, tc.Dir, dir, "%v", tc.Type)
		assert.Equal(t, tc.Vals, got, "%v", tc.Type)
	}
}

func TestStrings(t *testing.T) {
	g := New(DefaultOptions())

	for _, tc := range []struct {
		Type ir.DataType
		Exp  []int64
	}{
		{ir.Str, []int64{0x48, 0x49, 0}},
		{ir.StrP, []int64{2, 0x48, 0x49}},
		{ir.StrS, []int64{0x08, 0x09, 0}},
		{ir.StrPS, []int64{2, 0x08, 0x09}},
	} {
		heap := ir.Heap{1: {Str: "hi"}}

		b, err := g.appendVar(nil, ir.Decl{Name: "s", Type: tc.Type, HeapID: 1}, heap)
		require.NoError(t, err, "%v", tc.Type)

		ls := textLines(b)
		require.Len(t, ls, 2, "%v", tc.Type)
		assert.Equal(t, "s\t; "+tc.Type.String()+` "hi"`, ls[0])

		dir, got := decodeAll(t, ls[1:])
		assert.Equal(t, ".byte", dir)
		assert.Equal(t, tc.Exp, got, "%v", tc.Type)
	}

	long := strings.Repeat("a", 300)

	_, err := g.appendVar(nil, ir.Decl{Name: "s", Type: ir.StrP, HeapID: 1}, ir.Heap{1: {Str: long}})
	assert.Error(t, err)

	b, err := g.appendVar(nil, ir.Decl{Name: "s", Type: ir.Str, HeapID: 1}, ir.Heap{1: {Str: long}})
	require.NoError(t, err)

	_, got := decodeAll(t, textLines(b)[1:])
	assert.Len(t, got, 301)
	assert.Equal(t, int64(0), got[300])

	_, err = g.appendVar(nil, ir.Decl{Name: "s", Type: ir.Str, HeapID: 1}, ir.Heap{1: {Str: "{}"}})
	assert.Error(t, err, "unencodable")
}

func TestMissingPayload(t *testing.T) {
	g := New(DefaultOptions())

	_, err := g.appendVar(nil, ir.Decl{Name: "arr", Type: ir.ArrayUB}, nil)
	assert.Error(t, err)

	_, err = g.appendVar(nil, ir.Decl{Name: "s", Type: ir.Str, HeapID: 3}, ir.Heap{1: {Str: "x"}})
	assert.Error(t, err)

	_, err = g.appendVar(nil, ir.Decl{Name: "arr", Type: ir.ArrayUB, HeapID: 1}, ir.Heap{1: {}})
	assert.Error(t, err)
}

func TestScalarsAndFloats(t *testing.T) {
	g := New(DefaultOptions())

	b, err := g.appendVar(nil, ir.Decl{Name: "c", Type: ir.UByte}, nil)
	require.NoError(t, err)
	assert.Equal(t, "c\t.byte  $00\n", string(b))

	b, err = g.appendVar(nil, ir.Decl{Name: "w", Type: ir.Word, Value: ir.Int(-2)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "w\t.sint  -$02\n", string(b))

	b, err = g.appendVar(nil, ir.Decl{Name: "f", Type: ir.Float}, nil)
	require.NoError(t, err)
	assert.Equal(t, "f\t.fill  5  ; float\n", string(b))

	b, err = g.appendVar(nil, ir.Decl{Name: "f", Type: ir.Float, Value: ir.Float64(1.5)}, nil)
	require.NoError(t, err)

	dir, vals := decodeAll(t, textLines(b))
	assert.Equal(t, ".byte", dir)
	require.Len(t, vals, 5)

	var m mflpt.Bytes
	for i, v := range vals {
		m[i] = byte(v)
	}

	assert.Equal(t, 1.5, mflpt.Decode(m))

	heap := ir.Heap{2: {Floats: []float64{1, -2.5}}}

	b, err = g.appendVar(nil, ir.Decl{Name: "fa", Type: ir.ArrayF, HeapID: 2}, heap)
	require.NoError(t, err)

	ls := textLines(b)
	require.Len(t, ls, 3)
	assert.Equal(t, "fa", ls[0])
	assert.Contains(t, ls[2], "; float -2.5")

	_, err = g.appendVar(nil, ir.Decl{Name: "f", Type: ir.Float, Value: ir.Float64(1e39)}, nil)
	assert.ErrorIs(t, err, mflpt.ErrOverflow)
}

func TestIntegerDeclWithFloatValue(t *testing.T) {
	g := New(DefaultOptions())

	for _, tp := range []ir.DataType{ir.UByte, ir.Byte, ir.UWord, ir.Word} {
		_, err := g.appendVar(nil, ir.Decl{Name: "v", Type: tp, Value: ir.Float64(1.5)}, nil)
		assert.ErrorContains(t, err, "float value 1.5", "%v", tp)
	}

	_, err := g.appendMemdefs(nil, &ir.Block{Decls: []ir.Decl{
		{Name: "border", Type: ir.UWord, Value: ir.Float64(2.5), Const: true},
	}})
	assert.ErrorContains(t, err, "const border")

	b, err := g.appendVar(nil, ir.Decl{Name: "f", Type: ir.Float, Value: ir.Int(2)}, nil)
	require.NoError(t, err, "integer value for a float")
	assert.Contains(t, string(b), "; float 2\n")
}

func TestVarsSortedByType(t *testing.T) {
	g := New(DefaultOptions())

	blk := &ir.Block{Decls: []ir.Decl{
		{Name: "w", Type: ir.UWord},
		{Name: "border", Type: ir.UWord, Value: ir.Int(0xd020), Const: true},
		{Name: "b", Type: ir.UByte},
		{Name: "w2", Type: ir.UWord},
	}}

	b, err := g.appendVars(nil, blk, nil)
	require.NoError(t, err)
	assert.Equal(t, "b\t.byte  $00\nw\t.word  $00\nw2\t.word  $00\n", string(b))

	b, err = g.appendMemdefs(nil, blk)
	require.NoError(t, err)
	assert.Equal(t, "\tborder = $d020\n", string(b))
}

func TestFloatPool(t *testing.T) {
	var p floatPool

	l0, ok := p.add(1.5)
	require.True(t, ok)
	assert.Equal(t, "tg_const_float_0", l0)

	l1, ok := p.add(2)
	require.True(t, ok)
	assert.Equal(t, "tg_const_float_1", l1)

	l, ok := p.add(1.5)
	require.True(t, ok)
	assert.Equal(t, l0, l)

	_, ok = p.add(math.NaN())
	assert.False(t, ok)

	assert.Equal(t, []float64{1.5, 2}, p.vals)

	p.reset()
	assert.Empty(t, p.vals)

	l, _ = p.add(2)
	assert.Equal(t, "tg_const_float_0", l)
}

func TestDecodeDirective(t *testing.T) {
	dir, vals, err := DecodeDirective("label\t.byte  $01, -$02, 3  ; comment, 4")
	require.NoError(t, err)
	assert.Equal(t, ".byte", dir)
	assert.Equal(t, []int64{1, -2, 3}, vals)

	dir, vals, err = DecodeDirective("\t.fill  5  ; float")
	require.NoError(t, err)
	assert.Equal(t, ".fill", dir)
	assert.Equal(t, []int64{5}, vals)

	_, _, err = DecodeDirective("; just a comment")
	assert.Error(t, err)

	_, _, err = DecodeDirective("\t.byte  $zz")
	assert.Error(t, err)
}
