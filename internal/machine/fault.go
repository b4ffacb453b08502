package machine

import (
	"fmt"

	"kone/internal/device"
)

// FaultCode identifies the type of execution fault.
type FaultCode int

// Stable fault codes - do not change values.
const (
	FaultBadOpcode      FaultCode = 1001 // EM1001: unknown opcode
	FaultAddressRange   FaultCode = 1002 // EM1002: memory access outside the image
	FaultDivideByZero   FaultCode = 1003 // EM1003: DIV or MOD by zero
	FaultBadAddressMode FaultCode = 1004 // EM1004: addressing mode invalid for instruction
	FaultInputUnderflow FaultCode = 1005 // EM1005: input requested with nothing queued
	FaultStackUnderflow FaultCode = 1006 // EM1006: POP or EXIT below the stack base
)

// String returns the code as "EM1001" format.
func (c FaultCode) String() string {
	return fmt.Sprintf("EM%d", int(c))
}

// Fault is a typed, recoverable execution error. The machine does not abort
// the process on any fault; the host decides whether the run continues.
type Fault struct {
	Code FaultCode
	PC   uint16 // address of the faulting instruction
	Msg  string
	err  error // wrapped cause, if any
}

// Error implements the error interface.
func (f *Fault) Error() string {
	return fmt.Sprintf("fault %s at %04x: %s", f.Code, f.PC, f.Msg)
}

func (f *Fault) Unwrap() error {
	return f.err
}

// IsUnderflow reports whether the fault wraps an empty input queue, so the
// host can surface a "blocked on input" state instead of a hard failure.
func (f *Fault) IsUnderflow() bool {
	return f.Code == FaultInputUnderflow
}

func (m *Machine) faultf(code FaultCode, format string, args ...any) *Fault {
	return &Fault{Code: code, PC: m.lastPC, Msg: fmt.Sprintf(format, args...)}
}

func (m *Machine) underflow(cause error) *Fault {
	f := m.faultf(FaultInputUnderflow, "input requested with nothing queued")
	if cause == nil {
		cause = device.ErrUnderflow
	}
	f.err = cause
	return f
}

// AddressError reports a memory access outside the loaded image. It is
// recoverable and distinct from an execution fault: probing memory from the
// host never stops the machine.
type AddressError struct {
	Addr uint16
	Size int
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("address %04x outside the %d-word image", e.Addr, e.Size)
}
