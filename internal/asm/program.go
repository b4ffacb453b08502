package asm

import (
	"kone/internal/source"
)

// Mode is the addressing mode of an operand.
type Mode uint8

const (
	// ModeImmediate uses the effective value itself (written "=x").
	ModeImmediate Mode = 0
	// ModeDirect fetches one word at the effective address (written "x").
	ModeDirect Mode = 1
	// ModeIndirect fetches through a pointer word (written "@x").
	ModeIndirect Mode = 2
)

func (m Mode) String() string {
	switch m {
	case ModeImmediate:
		return "="
	case ModeDirect:
		return ""
	case ModeIndirect:
		return "@"
	}
	return "?"
}

// Register is a register index 0..7. SP and FP are aliases for R6 and R7.
type Register uint8

const (
	SP Register = 6
	FP Register = 7
)

// Operand is one parsed operand: an addressing mode, a base value given
// either as a literal or a symbol, and an optional index register.
type Operand struct {
	Mode     Mode
	Value    int32  // literal base, ignored when Sym != ""
	Sym      string // symbolic base, resolved at compile time
	Index    Register
	HasIdx   bool
	Span     source.Span
	explicit bool // mode sigil was written out
}

// Instruction is one parsed instruction line.
type Instruction struct {
	Label     string
	LabelSpan source.Span
	Opcode    Opcode
	Shape     Shape
	Reg       Register // Rj field for ShapeRegOperand/ShapeReg/ShapeRegAddr
	Operand   *Operand // nil for ShapeNone and ShapeReg
	Span      source.Span
	Line      uint32 // 1-based source line
}

// DataKind distinguishes the pseudo instructions.
type DataKind uint8

const (
	// DataDC reserves one initialized word.
	DataDC DataKind = iota
	// DataDS reserves N zeroed words.
	DataDS
	// DataEQU binds a symbol to a constant without reserving storage.
	DataEQU
)

// DataDirective is one parsed DC/DS/EQU line.
type DataDirective struct {
	Kind      DataKind
	Label     string
	LabelSpan source.Span
	Value     int32
	Span      source.Span
	Line      uint32
}

// Program is a parsed symbolic program: instructions in source order
// followed by data directives, as laid out by Compile.
type Program struct {
	File         *source.File
	Instructions []Instruction
	Data         []DataDirective
}
