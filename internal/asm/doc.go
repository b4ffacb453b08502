// Package asm parses and assembles K91 symbolic assembly.
//
// Parse turns source text into a symbolic Program, collecting every parse
// failure with its span and attached suggestions. Compile lays the program
// out into machine words and produces the symbol table and the
// address-to-span source map consumed by the debugger.
package asm
