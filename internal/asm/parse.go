package asm

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"kone/internal/diag"
	"kone/internal/source"
)

// Parse scans the whole file and returns the symbolic program together with
// every parse failure found. A nil slice means the program parsed cleanly;
// callers must not use the program when failures are present.
func Parse(file *source.File) (*Program, []*ParseError) {
	p := &parser{file: file, prog: &Program{File: file}}
	p.run()
	if len(p.errs) > 0 {
		return nil, p.errs
	}
	return p.prog, nil
}

type parser struct {
	file *source.File
	prog *Program
	errs []*ParseError

	// per-line cursor state
	line    []byte
	lineNo  uint32
	base    uint32 // byte offset of the current line start
	pos     int
}

func (p *parser) run() {
	content := p.file.Content
	start := 0
	lineNo := uint32(1)
	for start <= len(content) {
		end := start
		for end < len(content) && content[end] != '\n' {
			end++
		}
		p.line = content[start:end]
		p.lineNo = lineNo
		p.base = mustU32(start)
		p.pos = 0
		p.parseLine()
		start = end + 1
		lineNo++
		if end == len(content) {
			break
		}
	}
}

func mustU32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return v
}

// span builds a file span for the [from, to) slice of the current line.
func (p *parser) span(from, to int) source.Span {
	return source.Span{
		File:  p.file.ID,
		Start: p.base + mustU32(from),
		End:   p.base + mustU32(to),
	}
}

func (p *parser) report(e *ParseError) {
	p.errs = append(p.errs, e)
}

func (p *parser) skipSpace() {
	for p.pos < len(p.line) && (p.line[p.pos] == ' ' || p.line[p.pos] == '\t') {
		p.pos++
	}
}

// atEnd reports whether only trailing space or a comment remains.
func (p *parser) atEnd() bool {
	p.skipSpace()
	return p.pos >= len(p.line) || p.line[p.pos] == ';'
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// word consumes one identifier/number-like token and returns it with its
// start position.
func (p *parser) word() (string, int) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.line) && isWordByte(p.line[p.pos]) {
		p.pos++
	}
	return string(p.line[start:p.pos]), start
}

func (p *parser) parseLine() {
	if p.atEnd() {
		return
	}

	first, firstPos := p.word()
	if first == "" {
		p.report(errAt(diag.LexBadChar, p.span(p.pos, p.pos+1),
			"unexpected character %q", string(p.line[p.pos])))
		return
	}

	label := ""
	labelSpan := source.Span{}
	mnemonic := first
	mnemonicPos := firstPos

	// A leading word is a label only when a known mnemonic or directive
	// follows it; otherwise it is itself the (possibly misspelled)
	// mnemonic, which keeps the suggestion pointing at the right word.
	if _, known := mnemonics[strings.ToUpper(first)]; !known && !isDirective(first) {
		save := p.pos
		second, secondPos := p.word()
		_, secondKnown := mnemonics[strings.ToUpper(second)]
		if second != "" && (secondKnown || isDirective(second)) {
			label = first
			labelSpan = p.span(firstPos, firstPos+len(first))
			mnemonic, mnemonicPos = second, secondPos
		} else {
			p.pos = save
		}
	}

	upper := strings.ToUpper(mnemonic)
	mnemonicSpan := p.span(mnemonicPos, mnemonicPos+len(mnemonic))

	if isDirective(upper) {
		p.parseDirective(upper, label, labelSpan, mnemonicSpan)
		return
	}

	info, ok := mnemonics[upper]
	if !ok {
		e := errAt(diag.SynUnknownMnemonic, mnemonicSpan, "unknown instruction %q", mnemonic)
		if near := nearestMnemonic(upper); near != "" {
			e.Suggest(mnemonicSpan, fmt.Sprintf("did you mean %q?", near))
		}
		p.report(e)
		return
	}

	ins := Instruction{
		Label:     label,
		LabelSpan: labelSpan,
		Opcode:    info.op,
		Shape:     info.shape,
		Line:      p.lineNo,
	}

	switch info.shape {
	case ShapeNone:
		// no operands

	case ShapeReg:
		reg, ok := p.parseRegister()
		if !ok {
			return
		}
		ins.Reg = reg

	case ShapeRegOperand, ShapeRegAddr:
		reg, ok := p.parseRegister()
		if !ok {
			return
		}
		ins.Reg = reg
		if !p.expectComma() {
			return
		}
		op, ok := p.parseOperand()
		if !ok {
			return
		}
		ins.Operand = op

	case ShapeOperand:
		op, ok := p.parseOperand()
		if !ok {
			return
		}
		ins.Operand = op
	}

	if !p.atEnd() {
		p.report(errAt(diag.SynExtraOperand, p.span(p.pos, len(p.line)),
			"unexpected text after %s instruction", upper))
		return
	}

	ins.Span = p.span(mnemonicPos, p.trimmedEnd())
	p.prog.Instructions = append(p.prog.Instructions, ins)
}

// trimmedEnd is the line length without trailing comment and space.
func (p *parser) trimmedEnd() int {
	end := len(p.line)
	if i := strings.IndexByte(string(p.line), ';'); i >= 0 {
		end = i
	}
	for end > 0 && (p.line[end-1] == ' ' || p.line[end-1] == '\t') {
		end--
	}
	return end
}

func isDirective(s string) bool {
	switch strings.ToUpper(s) {
	case "DC", "DS", "EQU":
		return true
	}
	return false
}

func (p *parser) parseDirective(kind, label string, labelSpan, dirSpan source.Span) {
	if label == "" {
		p.report(errAt(diag.SynBadOperand, dirSpan, "%s directive requires a label", kind))
		return
	}

	valStr, valPos := p.word()
	neg := false
	if valStr == "" && p.pos < len(p.line) && p.line[p.pos] == '-' {
		neg = true
		p.pos++
		valStr, valPos = p.word()
		valPos--
	}
	if valStr == "" {
		p.report(errAt(diag.SynMissingOperand, dirSpan, "%s directive requires a value", kind))
		return
	}
	val, err := strconv.ParseInt(valStr, 0, 32)
	if err != nil {
		p.report(errAt(diag.LexBadNumber, p.span(valPos, p.pos), "bad %s value %q", kind, valStr))
		return
	}
	if neg {
		val = -val
	}

	d := DataDirective{
		Label:     label,
		LabelSpan: labelSpan,
		Value:     int32(val),
		Span:      labelSpan.Cover(p.span(valPos, p.pos)),
		Line:      p.lineNo,
	}
	switch kind {
	case "DC":
		d.Kind = DataDC
	case "DS":
		d.Kind = DataDS
		if val < 1 {
			p.report(errAt(diag.SynBadOperand, p.span(valPos, p.pos),
				"DS size must be positive, got %d", val))
			return
		}
	case "EQU":
		d.Kind = DataEQU
	}

	if !p.atEnd() {
		p.report(errAt(diag.SynExtraOperand, p.span(p.pos, len(p.line)),
			"unexpected text after %s directive", kind))
		return
	}
	p.prog.Data = append(p.prog.Data, d)
}

// register parses R0..R7, SP or FP.
func parseRegisterName(s string) (Register, bool) {
	switch strings.ToUpper(s) {
	case "SP":
		return SP, true
	case "FP":
		return FP, true
	}
	if len(s) == 2 && (s[0] == 'R' || s[0] == 'r') && s[1] >= '0' && s[1] <= '7' {
		return Register(s[1] - '0'), true
	}
	return 0, false
}

func (p *parser) parseRegister() (Register, bool) {
	name, pos := p.word()
	if name == "" {
		p.report(errAt(diag.SynMissingOperand, p.span(p.pos, p.pos),
			"expected a register"))
		return 0, false
	}
	reg, ok := parseRegisterName(name)
	if !ok {
		p.report(errAt(diag.SynExpectedRegister, p.span(pos, p.pos),
			"expected a register, got %q", name))
		return 0, false
	}
	return reg, true
}

func (p *parser) expectComma() bool {
	p.skipSpace()
	if p.pos >= len(p.line) || p.line[p.pos] != ',' {
		p.report(errAt(diag.SynMissingOperand, p.span(p.pos, p.pos),
			"expected ',' and a second operand"))
		return false
	}
	p.pos++
	return true
}

// parseOperand scans [=|@] base [(Rk)] where base is a number, a symbol, or
// a bare register (shorthand for "=0(Rk)").
func (p *parser) parseOperand() (*Operand, bool) {
	p.skipSpace()
	start := p.pos
	op := &Operand{Mode: ModeDirect}

	if p.pos < len(p.line) {
		switch p.line[p.pos] {
		case '=':
			op.Mode = ModeImmediate
			op.explicit = true
			p.pos++
		case '@':
			op.Mode = ModeIndirect
			op.explicit = true
			p.pos++
		}
	}

	neg := false
	if p.pos < len(p.line) && p.line[p.pos] == '-' {
		neg = true
		p.pos++
	}

	base, basePos := p.word()
	if base == "" {
		p.report(errAt(diag.SynMissingOperand, p.span(start, p.pos),
			"expected an operand"))
		return nil, false
	}

	if reg, ok := parseRegisterName(base); ok && !neg {
		// Bare register: value of Rk, regardless of written mode sigil.
		if op.explicit {
			p.report(errAt(diag.SynBadAddressMode, p.span(start, p.pos),
				"addressing mode cannot be applied to a register"))
			return nil, false
		}
		op.Mode = ModeImmediate
		op.Index = reg
		op.HasIdx = true
		op.Span = p.span(start, p.pos)
		if !p.parseIndexSuffix(op) {
			return nil, false
		}
		return op, true
	}

	if base[0] >= '0' && base[0] <= '9' {
		val, err := strconv.ParseInt(base, 0, 32)
		if err != nil {
			p.report(errAt(diag.LexBadNumber, p.span(basePos, p.pos),
				"bad number %q", base))
			return nil, false
		}
		if neg {
			val = -val
		}
		op.Value = int32(val)
	} else {
		if neg {
			p.report(errAt(diag.SynBadOperand, p.span(start, p.pos),
				"symbol operand cannot be negated"))
			return nil, false
		}
		op.Sym = base
	}

	op.Span = p.span(start, p.pos)
	if !p.parseIndexSuffix(op) {
		return nil, false
	}
	return op, true
}

// parseIndexSuffix consumes an optional "(Rk)" index suffix.
func (p *parser) parseIndexSuffix(op *Operand) bool {
	if p.pos >= len(p.line) || p.line[p.pos] != '(' {
		return true
	}
	open := p.pos
	p.pos++
	name, _ := p.word()
	reg, ok := parseRegisterName(name)
	if !ok {
		p.report(errAt(diag.SynExpectedRegister, p.span(open, p.pos),
			"expected an index register, got %q", name))
		return false
	}
	if p.pos >= len(p.line) || p.line[p.pos] != ')' {
		p.report(errAt(diag.SynBadOperand, p.span(open, p.pos),
			"unclosed index register"))
		return false
	}
	p.pos++
	if op.HasIdx {
		p.report(errAt(diag.SynBadOperand, p.span(open, p.pos),
			"duplicate index register"))
		return false
	}
	op.Index = reg
	op.HasIdx = true
	op.Span.End = p.base + mustU32(p.pos)
	return true
}
