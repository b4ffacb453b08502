package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexInfo        Code = 1000
	LexBadNumber   Code = 1001
	LexBadChar     Code = 1002
	LexBadRegister Code = 1003

	// Syntactic
	SynInfo             Code = 2000
	SynUnknownMnemonic  Code = 2001
	SynMissingOperand   Code = 2002
	SynExtraOperand     Code = 2003
	SynBadOperand       Code = 2004
	SynDuplicateLabel   Code = 2005
	SynBadAddressMode   Code = 2006
	SynExpectedRegister Code = 2007

	// Symbol resolution
	SymInfo             Code = 3000
	SymUndefined        Code = 3001
	SymAddressRange     Code = 3002
	SymImageTooLarge    Code = 3003
	SymValueOutOfRange  Code = 3004
	SymRedefinedBuiltin Code = 3005

	// Attached hints
	HintSuggestion Code = 9000
)

func (c Code) String() string {
	return fmt.Sprintf("K%04d", uint16(c))
}

// ID returns the stable string identifier used in machine-readable output.
func (c Code) ID() string {
	return c.String()
}
