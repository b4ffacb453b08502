package asm

// Opcode identifies one K91 machine instruction.
type Opcode uint8

const (
	OpNOP   Opcode = 0x00
	OpSTORE Opcode = 0x01
	OpLOAD  Opcode = 0x02
	OpIN    Opcode = 0x03
	OpOUT   Opcode = 0x04

	OpADD Opcode = 0x11
	OpSUB Opcode = 0x12
	OpMUL Opcode = 0x13
	OpDIV Opcode = 0x14
	OpMOD Opcode = 0x15
	OpAND Opcode = 0x16
	OpOR  Opcode = 0x17
	OpXOR Opcode = 0x18
	OpSHL Opcode = 0x19
	OpSHR Opcode = 0x1A

	OpCOMP Opcode = 0x1F

	OpJUMP Opcode = 0x20
	OpJNEG Opcode = 0x21
	OpJZER Opcode = 0x22
	OpJPOS Opcode = 0x23
	OpJLES Opcode = 0x27
	OpJEQU Opcode = 0x28
	OpJGRE Opcode = 0x29

	OpCALL Opcode = 0x31
	OpEXIT Opcode = 0x32
	OpPUSH Opcode = 0x33
	OpPOP  Opcode = 0x34

	OpSVC Opcode = 0x70
)

// Shape describes the operand form a mnemonic expects.
type Shape uint8

const (
	// ShapeNone takes no operands (NOP).
	ShapeNone Shape = iota
	// ShapeRegOperand takes a register and a general operand (LOAD R1, =42).
	ShapeRegOperand
	// ShapeOperand takes a single general operand (OUT =42, SVC =HALT, JUMP loop).
	ShapeOperand
	// ShapeReg takes a single register (IN R1, POP R1).
	ShapeReg
	// ShapeRegAddr takes a register and an address operand (JZER R1, loop).
	ShapeRegAddr
)

type opcodeInfo struct {
	op    Opcode
	shape Shape
}

var mnemonics = map[string]opcodeInfo{
	"NOP":   {OpNOP, ShapeNone},
	"STORE": {OpSTORE, ShapeRegOperand},
	"LOAD":  {OpLOAD, ShapeRegOperand},
	"IN":    {OpIN, ShapeReg},
	"OUT":   {OpOUT, ShapeOperand},

	"ADD":  {OpADD, ShapeRegOperand},
	"SUB":  {OpSUB, ShapeRegOperand},
	"MUL":  {OpMUL, ShapeRegOperand},
	"DIV":  {OpDIV, ShapeRegOperand},
	"MOD":  {OpMOD, ShapeRegOperand},
	"AND":  {OpAND, ShapeRegOperand},
	"OR":   {OpOR, ShapeRegOperand},
	"XOR":  {OpXOR, ShapeRegOperand},
	"SHL":  {OpSHL, ShapeRegOperand},
	"SHR":  {OpSHR, ShapeRegOperand},
	"COMP": {OpCOMP, ShapeRegOperand},

	"JUMP": {OpJUMP, ShapeOperand},
	"JNEG": {OpJNEG, ShapeRegAddr},
	"JZER": {OpJZER, ShapeRegAddr},
	"JPOS": {OpJPOS, ShapeRegAddr},
	"JLES": {OpJLES, ShapeOperand},
	"JEQU": {OpJEQU, ShapeOperand},
	"JGRE": {OpJGRE, ShapeOperand},

	"CALL": {OpCALL, ShapeOperand},
	"EXIT": {OpEXIT, ShapeOperand},
	"PUSH": {OpPUSH, ShapeOperand},
	"POP":  {OpPOP, ShapeReg},

	"SVC": {OpSVC, ShapeOperand},
}

var opcodeNames = func() map[Opcode]string {
	names := make(map[Opcode]string, len(mnemonics))
	for name, info := range mnemonics {
		names[info.op] = name
	}
	return names
}()

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return "???"
}
