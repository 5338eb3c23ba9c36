package back

import (
	"strconv"
	"strings"

	"github.com/slowlang/tassgen/compiler/ir"
)

type (
	// Home is where a value operand lives.
	Home int

	// homeTable holds a template per home.
	// Templates use {lo} {hi} for the operand location,
	// {dst} {dsthi} for the destination, {src} {srchi} for the source.
	homeTable [numHomes]string
)

const (
	HomeA Home = iota
	HomeX
	HomeY
	HomeAX
	HomeAY
	HomeXY
	HomeVar
	HomeMem

	numHomes
)

// Template sentinels. forbidden declines the match, nothing commits with no code.
const (
	forbidden = "!forbidden"
	nothing   = "!nothing"
)

var homeNames = [numHomes]string{"A", "X", "Y", "AX", "AY", "XY", "var", "mem"}

var byteHomes = []Home{HomeA, HomeX, HomeY, HomeVar, HomeMem}
var wordHomes = []Home{HomeAX, HomeAY, HomeXY, HomeVar, HomeMem}

func (h Home) String() string { return homeNames[h] }

func (h Home) IsPair() bool { return h >= HomeAX && h <= HomeXY }

func (h Home) IsReg() bool { return h <= HomeXY }

// homeOf tells registers from named variables.
func homeOf(sym string) Home {
	switch sym {
	case "A":
		return HomeA
	case "X":
		return HomeX
	case "Y":
		return HomeY
	case "AX":
		return HomeAX
	case "AY":
		return HomeAY
	case "XY":
		return HomeXY
	}

	return HomeVar
}

func isRegister(sym string) bool { return homeOf(sym) != HomeVar }

// get returns the template for h. ok is false if h is forbidden or missing.
func (t *homeTable) get(h Home) (string, bool) {
	s := t[h]

	switch s {
	case "", forbidden:
		return "", false
	case nothing:
		return "", true
	}

	return s, true
}

var (
	pushByte = homeTable{
		HomeA:   " sta  $ce00,x |  dex",
		HomeX:   forbidden,
		HomeY:   " tya |  sta  $ce00,x |  dex",
		HomeAX:  forbidden,
		HomeAY:  forbidden,
		HomeXY:  forbidden,
		HomeVar: " lda  {lo} |  sta  $ce00,x |  dex",
		HomeMem: " lda  {lo} |  sta  $ce00,x |  dex",
	}

	pushWord = homeTable{
		HomeA:   forbidden,
		HomeX:   forbidden,
		HomeY:   forbidden,
		HomeAX:  forbidden,
		HomeAY:  " sta  $ce00,x |  pha |  tya |  sta  $cf00,x |  pla |  dex",
		HomeXY:  forbidden,
		HomeVar: " lda  {lo} |  sta  $ce00,x |  lda  {hi} |  sta  $cf00,x |  dex",
		HomeMem: " lda  {lo} |  sta  $ce00,x |  lda  {hi} |  sta  $cf00,x |  dex",
	}

	popByte = homeTable{
		HomeA:   " inx |  lda  $ce00,x",
		HomeX:   forbidden,
		HomeY:   " inx |  ldy  $ce00,x",
		HomeAX:  forbidden,
		HomeAY:  forbidden,
		HomeXY:  forbidden,
		HomeVar: " inx |  lda  $ce00,x |  sta  {lo}",
		HomeMem: " inx |  lda  $ce00,x |  sta  {lo}",
	}

	popWord = homeTable{
		HomeA:   forbidden,
		HomeX:   forbidden,
		HomeY:   forbidden,
		HomeAX:  forbidden,
		HomeAY:  " inx |  lda  $ce00,x |  ldy  $cf00,x",
		HomeXY:  forbidden,
		HomeVar: " inx |  lda  $ce00,x |  sta  {lo} |  lda  $cf00,x |  sta  {hi}",
		HomeMem: " inx |  lda  $ce00,x |  sta  {lo} |  lda  $cf00,x |  sta  {hi}",
	}

	incByte = homeTable{
		HomeA:   " clc |  adc  #1",
		HomeX:   " inx",
		HomeY:   " iny",
		HomeAX:  forbidden,
		HomeAY:  forbidden,
		HomeXY:  forbidden,
		HomeVar: " inc  {lo}",
		HomeMem: " inc  {lo}",
	}

	decByte = homeTable{
		HomeA:   " sec |  sbc  #1",
		HomeX:   " dex",
		HomeY:   " dey",
		HomeAX:  forbidden,
		HomeAY:  forbidden,
		HomeXY:  forbidden,
		HomeVar: " dec  {lo}",
		HomeMem: " dec  {lo}",
	}

	incWord = homeTable{
		HomeA:   forbidden,
		HomeX:   forbidden,
		HomeY:   forbidden,
		HomeAX:  " clc |  adc  #1 |  bne  + |  inx |+",
		HomeAY:  " clc |  adc  #1 |  bne  + |  iny |+",
		HomeXY:  " inx |  bne  + |  iny |+",
		HomeVar: " inc  {lo} |  bne  + |  inc  {hi} |+",
		HomeMem: " inc  {lo} |  bne  + |  inc  {hi} |+",
	}

	decWord = homeTable{
		HomeA:   forbidden,
		HomeX:   forbidden,
		HomeY:   forbidden,
		HomeAX:  " cmp  #0 |  bne  + |  dex |+ |  sec |  sbc  #1",
		HomeAY:  " cmp  #0 |  bne  + |  dey |+ |  sec |  sbc  #1",
		HomeXY:  " cpx  #0 |  bne  + |  dey |+ |  dex",
		HomeVar: " lda  {lo} |  bne  + |  dec  {hi} |+ |  dec  {lo}",
		HomeMem: " lda  {lo} |  bne  + |  dec  {hi} |+ |  dec  {lo}",
	}

	// loadA puts a byte operand into A.
	loadA = homeTable{
		HomeA:   nothing,
		HomeX:   " txa",
		HomeY:   " tya",
		HomeAX:  forbidden,
		HomeAY:  forbidden,
		HomeXY:  forbidden,
		HomeVar: " lda  {lo}",
		HomeMem: " lda  {lo}",
	}

	// storeA puts A into a byte destination.
	storeA = homeTable{
		HomeA:   nothing,
		HomeX:   " tax",
		HomeY:   " tay",
		HomeAX:  forbidden,
		HomeAY:  forbidden,
		HomeXY:  forbidden,
		HomeVar: " sta  {dst}",
		HomeMem: " sta  {dst}",
	}

	// loadByte puts the byte at {src} into a destination.
	loadByte = homeTable{
		HomeA:   " lda  {src}",
		HomeX:   " ldx  {src}",
		HomeY:   " ldy  {src}",
		HomeAX:  forbidden,
		HomeAY:  forbidden,
		HomeXY:  forbidden,
		HomeVar: " lda  {src} |  sta  {dst}",
		HomeMem: " lda  {src} |  sta  {dst}",
	}

	// storeByte puts a byte operand into {dst}.
	storeByte = homeTable{
		HomeA:   " sta  {dst}",
		HomeX:   " stx  {dst}",
		HomeY:   " sty  {dst}",
		HomeAX:  forbidden,
		HomeAY:  forbidden,
		HomeXY:  forbidden,
		HomeVar: " lda  {src} |  sta  {dst}",
		HomeMem: " lda  {src} |  sta  {dst}",
	}

	// loadWord puts the word at {src} {srchi} into a destination.
	loadWord = homeTable{
		HomeA:   forbidden,
		HomeX:   forbidden,
		HomeY:   forbidden,
		HomeAX:  " lda  {src} |  ldx  {srchi}",
		HomeAY:  " lda  {src} |  ldy  {srchi}",
		HomeXY:  " ldx  {src} |  ldy  {srchi}",
		HomeVar: " lda  {src} |  sta  {dst} |  lda  {srchi} |  sta  {dsthi}",
		HomeMem: " lda  {src} |  sta  {dst} |  lda  {srchi} |  sta  {dsthi}",
	}

	// storeWord puts a word operand into {dst} {dsthi}.
	storeWord = homeTable{
		HomeA:   forbidden,
		HomeX:   forbidden,
		HomeY:   forbidden,
		HomeAX:  " sta  {dst} |  stx  {dsthi}",
		HomeAY:  " sta  {dst} |  sty  {dsthi}",
		HomeXY:  " stx  {dst} |  sty  {dsthi}",
		HomeVar: " lda  {src} |  sta  {dst} |  lda  {srchi} |  sta  {dsthi}",
		HomeMem: " lda  {src} |  sta  {dst} |  lda  {srchi} |  sta  {dsthi}",
	}

	// zeroHigh clears the high byte of a word destination.
	zeroHigh = homeTable{
		HomeA:   forbidden,
		HomeX:   forbidden,
		HomeY:   forbidden,
		HomeAX:  " ldx  #0",
		HomeAY:  " ldy  #0",
		HomeXY:  " ldy  #0",
		HomeVar: " lda  #0 |  sta  {dsthi}",
		HomeMem: " lda  #0 |  sta  {dsthi}",
	}

	// signExtend stores the signed byte in A into a word destination.
	signExtend = homeTable{
		HomeA:   forbidden,
		HomeX:   forbidden,
		HomeY:   forbidden,
		HomeAX:  " ldx  #0 |  cmp  #$80 |  bcc  + |  dex |+",
		HomeAY:  " ldy  #0 |  cmp  #$80 |  bcc  + |  dey |+",
		HomeXY:  " tax |  ldy  #0 |  cmp  #$80 |  bcc  + |  dey |+",
		HomeVar: " sta  {dst} |  ora  #$7f |  bmi  + |  lda  #0 |+ |  sta  {dsthi}",
		HomeMem: " sta  {dst} |  ora  #$7f |  bmi  + |  lda  #0 |+ |  sta  {dsthi}",
	}

	// indexY puts a byte index into Y leaving A intact.
	indexY = homeTable{
		HomeA:   " tay",
		HomeX:   " stx  $02 |  ldy  $02",
		HomeY:   nothing,
		HomeAX:  forbidden,
		HomeAY:  forbidden,
		HomeXY:  forbidden,
		HomeVar: " ldy  {lo}",
		HomeMem: " ldy  {lo}",
	}

	// indexX and indexX2 put a byte index, or twice it, into X.
	// X must be saved by the caller.
	indexX = homeTable{
		HomeA:   " tax",
		HomeX:   nothing,
		HomeY:   " tya |  tax",
		HomeAX:  forbidden,
		HomeAY:  forbidden,
		HomeXY:  forbidden,
		HomeVar: " ldx  {lo}",
		HomeMem: " ldx  {lo}",
	}

	indexX2 = homeTable{
		HomeA:   " asl  a |  tax",
		HomeX:   " txa |  asl  a |  tax",
		HomeY:   " tya |  asl  a |  tax",
		HomeAX:  forbidden,
		HomeAY:  forbidden,
		HomeXY:  forbidden,
		HomeVar: " lda  {lo} |  asl  a |  tax",
		HomeMem: " lda  {lo} |  asl  a |  tax",
	}
)

// xferByte and xferWord move between registers, keyed by {src, dst}.
var xferByte = map[[2]Home]string{
	{HomeA, HomeA}: nothing,
	{HomeA, HomeX}: " tax",
	{HomeA, HomeY}: " tay",
	{HomeX, HomeA}: " txa",
	{HomeX, HomeX}: nothing,
	{HomeX, HomeY}: " txa |  tay",
	{HomeY, HomeA}: " tya",
	{HomeY, HomeX}: " tya |  tax",
	{HomeY, HomeY}: nothing,
}

var xferWord = map[[2]Home]string{
	{HomeAX, HomeAX}: nothing,
	{HomeAX, HomeAY}: " stx  $02 |  ldy  $02",
	{HomeAX, HomeXY}: " stx  $02 |  tax |  ldy  $02",
	{HomeAY, HomeAX}: " sty  $02 |  ldx  $02",
	{HomeAY, HomeAY}: nothing,
	{HomeAY, HomeXY}: " tax",
	{HomeXY, HomeAX}: " txa |  sty  $02 |  ldx  $02",
	{HomeXY, HomeAY}: " txa",
	{HomeXY, HomeXY}: nothing,
}

// inPlace maps a unary operation to its in-place form per home.
// Array elements use the variable form with element locations.
var inPlace = map[ir.Opcode]*homeTable{
	ir.ShlByte: byteOp(" asl  a", " asl  {lo}"),
	ir.ShrByte: byteOp(" lsr  a", " lsr  {lo}"),
	ir.RolByte: byteOp(" rol  a", " rol  {lo}"),
	ir.RorByte: byteOp(" ror  a", " ror  {lo}"),
	ir.Rol2Byte: byteOp(" cmp  #$80 |  rol  a",
		" lda  {lo} |  cmp  #$80 |  rol  {lo}"),
	ir.Ror2Byte: byteOp(" lsr  a |  bcc  + |  ora  #$80 |+",
		" lda  {lo} |  lsr  a |  bcc  + |  ora  #$80 |+ |  sta  {lo}"),
	ir.InvByte: byteOp(" eor  #$ff",
		" lda  {lo} |  eor  #$ff |  sta  {lo}"),
	ir.NegB: byteOp(" eor  #$ff |  clc |  adc  #1",
		" lda  #0 |  sec |  sbc  {lo} |  sta  {lo}"),

	ir.ShlWord: {
		HomeAX: " asl  a |  tay |  txa |  rol  a |  tax |  tya",
		HomeAY: " sty  $02 |  asl  a |  rol  $02 |  ldy  $02",
		HomeXY: " sty  $02 |  txa |  asl  a |  rol  $02 |  ldy  $02 |  tax",
		HomeVar: " asl  {lo} |  rol  {hi}",
	},
	ir.ShrWord: {
		HomeAX:  " tay |  txa |  lsr  a |  tax |  tya |  ror  a",
		HomeAY:  " sty  $02 |  lsr  $02 |  ror  a |  ldy  $02",
		HomeXY:  " sty  $02 |  lsr  $02 |  txa |  ror  a |  tax |  ldy  $02",
		HomeVar: " lsr  {hi} |  ror  {lo}",
	},
	ir.RolWord: {
		HomeAX:  " rol  a |  tay |  txa |  rol  a |  tax |  tya",
		HomeAY:  " sty  $02 |  rol  a |  rol  $02 |  ldy  $02",
		HomeXY:  " sty  $02 |  txa |  rol  a |  rol  $02 |  ldy  $02 |  tax",
		HomeVar: " rol  {lo} |  rol  {hi}",
	},
	ir.RorWord: {
		HomeAX:  " tay |  txa |  ror  a |  tax |  tya |  ror  a",
		HomeAY:  " sty  $02 |  ror  $02 |  ror  a |  ldy  $02",
		HomeXY:  " sty  $02 |  ror  $02 |  txa |  ror  a |  tax |  ldy  $02",
		HomeVar: " ror  {hi} |  ror  {lo}",
	},
	ir.Rol2Word: {
		HomeAX:  " stx  $02 |  asl  a |  rol  $02 |  adc  #0 |  ldx  $02",
		HomeAY:  " sty  $02 |  asl  a |  rol  $02 |  adc  #0 |  ldy  $02",
		HomeXY:  " stx  $fb |  sty  $fc |  asl  $fb |  rol  $fc |  lda  $fb |  adc  #0 |  tax |  ldy  $fc",
		HomeVar: " asl  {lo} |  rol  {hi} |  bcc  + |  inc  {lo} |+",
	},
	ir.Ror2Word: {
		HomeAX:  " sta  $fb |  stx  $fc |  jsr  tglib.ror2_word |  lda  $fb |  ldx  $fc",
		HomeAY:  " sta  $fb |  sty  $fc |  jsr  tglib.ror2_word |  lda  $fb |  ldy  $fc",
		HomeXY:  " stx  $fb |  sty  $fc |  jsr  tglib.ror2_word |  ldx  $fb |  ldy  $fc",
		HomeVar: " lsr  {hi} |  ror  {lo} |  bcc  + |  lda  {hi} |  ora  #$80 |  sta  {hi} |+",
	},
	ir.Shl8Word: {
		HomeAX:  " tax |  lda  #0",
		HomeAY:  " tay |  lda  #0",
		HomeXY:  " txa |  tay |  ldx  #0",
		HomeVar: " lda  {lo} |  sta  {hi} |  lda  #0 |  sta  {lo}",
	},
	ir.Shr8Word: {
		HomeAX:  " txa |  ldx  #0",
		HomeAY:  " tya |  ldy  #0",
		HomeXY:  " tya |  tax |  ldy  #0",
		HomeVar: " lda  {hi} |  sta  {lo} |  lda  #0 |  sta  {hi}",
	},
	ir.InvWord: {
		HomeAX:  " eor  #$ff |  pha |  txa |  eor  #$ff |  tax |  pla",
		HomeAY:  " eor  #$ff |  pha |  tya |  eor  #$ff |  tay |  pla",
		HomeXY:  " txa |  eor  #$ff |  tax |  tya |  eor  #$ff |  tay",
		HomeVar: " lda  {lo} |  eor  #$ff |  sta  {lo} |  lda  {hi} |  eor  #$ff |  sta  {hi}",
	},
	ir.NegW: {
		HomeAX:  " stx  $02 |  eor  #$ff |  clc |  adc  #1 |  pha |  lda  $02 |  eor  #$ff |  adc  #0 |  tax |  pla",
		HomeAY:  " sty  $02 |  eor  #$ff |  clc |  adc  #1 |  pha |  lda  $02 |  eor  #$ff |  adc  #0 |  tay |  pla",
		HomeXY:  " txa |  eor  #$ff |  clc |  adc  #1 |  tax |  tya |  eor  #$ff |  adc  #0 |  tay",
		HomeVar: " lda  #0 |  sec |  sbc  {lo} |  sta  {lo} |  lda  #0 |  sbc  {hi} |  sta  {hi}",
	},
}

func init() {
	for _, t := range inPlace {
		if t[HomeVar] != "" && t[HomeMem] == "" {
			t[HomeMem] = t[HomeVar]
		}

		for h := range t {
			if t[h] == "" {
				t[h] = forbidden
			}
		}
	}
}

// byteOp derives register forms from the accumulator form.
func byteOp(acc, loc string) *homeTable {
	return &homeTable{
		HomeA:   acc,
		HomeX:   " txa |" + acc + " |  tax",
		HomeY:   " tya |" + acc + " |  tay",
		HomeAX:  forbidden,
		HomeAY:  forbidden,
		HomeXY:  forbidden,
		HomeVar: loc,
		HomeMem: loc,
	}
}

// expand fills template placeholders, kv is pairs of name and value.
func expand(t string, kv ...string) string {
	if len(kv) == 0 {
		return t
	}

	pairs := make([]string, len(kv))

	for i := 0; i < len(kv); i += 2 {
		pairs[i] = "{" + kv[i] + "}"
		pairs[i+1] = kv[i+1]
	}

	return strings.NewReplacer(pairs...).Replace(t)
}

// seq joins template pieces skipping empty ones.
func seq(parts ...string) string {
	var b strings.Builder

	for _, p := range parts {
		if p == "" {
			continue
		}

		if b.Len() != 0 {
			b.WriteString(" |")
		}

		b.WriteString(p)
	}

	return b.String()
}

// hex formats the way the rest of the output does:
// $xx for bytes, $xxxx for words, with a leading minus if negative.
func hex(v int64) string {
	sign := ""
	u := uint64(v)

	if v < 0 {
		sign, u = "-", -u
	}

	s := strconv.FormatUint(u, 16)

	switch {
	case len(s) < 2:
		s = "0" + s
	case u > 0xff && len(s) < 4:
		s = strings.Repeat("0", 4-len(s)) + s
	}

	return sign + "$" + s
}

func imm8(v int64) string { return "#" + hex(v&0xff) }

func word16(v int64) string { return hex(v & 0xffff) }
