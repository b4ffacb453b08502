package asm

import (
	"fmt"
	"sort"

	"fortio.org/safecast"

	"kone/internal/diag"
	"kone/internal/source"
)

// MaxImage is the number of addressable words. The address field of an
// instruction is sign-extended on decode, so only the positive half of the
// 16-bit range is addressable.
const MaxImage = 0x8000

// Built-in symbols every program can reference.
var builtins = map[string]int32{
	"CRT":  0,  // output device
	"KBD":  1,  // input device
	"HALT": 11, // supervisor call: stop the machine
}

// Image is an assembled program: machine words, the resolved symbol table,
// and the address-to-span source map. All three are read-only after Compile.
type Image struct {
	Words     []int32
	CodeLen   int // words [0, CodeLen) are instructions
	Symbols   map[string]uint16
	SourceMap map[uint16]source.Span
}

// Compile lays out the program (code first, then data), resolves symbols,
// and encodes every instruction. Failures come back as parse errors with
// suggestion context attached.
func Compile(p *Program) (*Image, []*ParseError) {
	c := &compiler{prog: p}
	img := c.run()
	if len(c.errs) > 0 {
		return nil, c.errs
	}
	return img, nil
}

type symbol struct {
	value   int32
	defSpan source.Span
	addr    bool // true for labels, false for EQU constants
}

type compiler struct {
	prog    *Program
	symbols map[string]symbol
	errs    []*ParseError
}

func (c *compiler) report(e *ParseError) {
	c.errs = append(c.errs, e)
}

func (c *compiler) run() *Image {
	codeLen := len(c.prog.Instructions)
	c.collectSymbols(codeLen)

	total := codeLen
	for _, d := range c.prog.Data {
		switch d.Kind {
		case DataDC:
			total++
		case DataDS:
			total += int(d.Value)
		}
	}
	if total > MaxImage {
		c.report(&ParseError{
			Code: diag.SymImageTooLarge,
			Msg:  fmt.Sprintf("program needs %d words, the machine addresses %d", total, MaxImage),
		})
		return nil
	}

	img := &Image{
		Words:     make([]int32, total),
		CodeLen:   codeLen,
		Symbols:   make(map[string]uint16),
		SourceMap: make(map[uint16]source.Span),
	}

	for name, sym := range c.symbols {
		v, err := safecast.Conv[uint16](sym.value)
		if err != nil {
			// Negative EQU constants stay usable in operands but are
			// omitted from the address-valued symbol table.
			continue
		}
		img.Symbols[name] = v
	}

	for i, ins := range c.prog.Instructions {
		addr := uint16(i)
		word, ok := c.encode(&ins)
		if !ok {
			continue
		}
		img.Words[addr] = word
		img.SourceMap[addr] = ins.Span
	}

	// Data section: DC and DS words in source order after the code.
	next := codeLen
	for _, d := range c.prog.Data {
		switch d.Kind {
		case DataDC:
			img.Words[next] = d.Value
			img.SourceMap[uint16(next)] = d.Span
			next++
		case DataDS:
			img.SourceMap[uint16(next)] = d.Span
			next += int(d.Value)
		}
	}

	if len(c.errs) > 0 {
		return nil
	}
	return img
}

// collectSymbols is the first pass: label addresses and EQU constants.
func (c *compiler) collectSymbols(codeLen int) {
	c.symbols = make(map[string]symbol)

	define := func(name string, span source.Span, value int32, isAddr bool) {
		if _, clash := builtins[name]; clash {
			c.report(errAt(diag.SymRedefinedBuiltin, span,
				"%q is a built-in symbol and cannot be redefined", name))
			return
		}
		if prev, dup := c.symbols[name]; dup {
			e := errAt(diag.SynDuplicateLabel, span, "duplicate symbol %q", name)
			e.Note(prev.defSpan, fmt.Sprintf("%q was first defined here", name))
			c.report(e)
			return
		}
		c.symbols[name] = symbol{value: value, defSpan: span, addr: isAddr}
	}

	for i, ins := range c.prog.Instructions {
		if ins.Label != "" {
			define(ins.Label, ins.LabelSpan, int32(i), true)
		}
	}

	next := int32(codeLen)
	for _, d := range c.prog.Data {
		switch d.Kind {
		case DataDC:
			define(d.Label, d.LabelSpan, next, true)
			next++
		case DataDS:
			define(d.Label, d.LabelSpan, next, true)
			next += d.Value
		case DataEQU:
			define(d.Label, d.LabelSpan, d.Value, false)
		}
	}
}

// resolve turns a symbolic operand base into its numeric value.
func (c *compiler) resolve(op *Operand) (int32, bool) {
	if op.Sym == "" {
		return op.Value, true
	}
	if sym, ok := c.symbols[op.Sym]; ok {
		return sym.value, true
	}
	if v, ok := builtins[normalizeBuiltin(op.Sym)]; ok {
		return v, true
	}

	e := errAt(diag.SymUndefined, op.Span, "undefined symbol %q", op.Sym)
	if near := c.nearestSymbol(op.Sym); near != "" {
		e.Suggest(op.Span, fmt.Sprintf("did you mean %q?", near))
	}
	c.report(e)
	return 0, false
}

func normalizeBuiltin(name string) string {
	// Built-ins are case-insensitive the way mnemonics are.
	up := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		b := name[i]
		if b >= 'a' && b <= 'z' {
			b -= 'a' - 'A'
		}
		up[i] = b
	}
	return string(up)
}

func (c *compiler) nearestSymbol(name string) string {
	best := ""
	bestDist := len(name)/2 + 1
	for cand := range c.symbols {
		d := editDistance(name, cand)
		if d < bestDist || (d == bestDist && best != "" && cand < best) {
			best = cand
			bestDist = d
		}
	}
	return best
}

// encode packs one instruction into a machine word:
// opcode(8) | Rj(3) | M(2) | Ri(3) | addr(16).
func (c *compiler) encode(ins *Instruction) (int32, bool) {
	word := uint32(ins.Opcode) << 24
	word |= uint32(ins.Reg&7) << 21

	if ins.Operand != nil {
		op := ins.Operand
		base, ok := c.resolve(op)
		if !ok {
			return 0, false
		}
		if base < -0x8000 || base > 0x7FFF {
			c.report(errAt(diag.SymValueOutOfRange, op.Span,
				"operand value %d does not fit the 16-bit address field", base))
			return 0, false
		}
		word |= uint32(op.Mode&3) << 19
		if op.HasIdx {
			word |= uint32(op.Index&7) << 16
		}
		word |= uint32(uint16(base))
	}

	return int32(word), true
}

// SortedSymbols returns symbol names in deterministic order, for listings.
func (img *Image) SortedSymbols() []string {
	names := make([]string, 0, len(img.Symbols))
	for name := range img.Symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
