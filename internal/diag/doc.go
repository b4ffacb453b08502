// Package diag defines the diagnostics produced when an assembly program
// fails to parse or assemble: leveled, span-carrying messages collected into
// a Bag for deterministic output.
package diag
