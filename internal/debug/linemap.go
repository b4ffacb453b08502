// Package debug is the host-facing bridge over one loaded program: it
// advances the machine a step at a time, reports what changed, and maps
// addresses back to source lines for step-debugging UIs.
package debug

import (
	"kone/internal/source"
)

// LineMap answers "which source line owns this address". It is built once
// from the assembler's address-to-span output, converted to line-only
// resolution at load time so the per-step lookup never rescans the text.
// Read-only after construction; share it freely.
type LineMap struct {
	lines map[uint16]uint32
}

// NewLineMap resolves every mapped span against the file's line index.
func NewLineMap(fs *source.FileSet, spans map[uint16]source.Span) *LineMap {
	lines := make(map[uint16]uint32, len(spans))
	for addr, span := range spans {
		start, _ := fs.Resolve(span)
		lines[addr] = start.Line
	}
	return &LineMap{lines: lines}
}

// LineFor returns the 1-based source line owning the address, or false for
// addresses with no attribution (stack, DS padding).
func (lm *LineMap) LineFor(addr uint16) (uint32, bool) {
	line, ok := lm.lines[addr]
	return line, ok
}

// LineOrZero is LineFor with 0 standing in for "unknown".
func (lm *LineMap) LineOrZero(addr uint16) uint32 {
	line, ok := lm.lines[addr]
	if !ok {
		return 0
	}
	return line
}

// Len returns the number of mapped addresses.
func (lm *LineMap) Len() int {
	return len(lm.lines)
}
