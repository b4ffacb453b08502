// Package machine implements the K91 register machine: a fixed bank of
// eight general-purpose registers, a program counter, and word-addressed
// memory holding the assembled image. Execution is synchronous; every side
// effect of a step is emitted as an event before Step returns.
package machine

import (
	"kone/internal/event"
)

// Word is the machine word.
type Word = int32

// Registers by convention.
const (
	SP = 6 // stack pointer
	FP = 7 // frame pointer
)

// Devices and supervisor codes shared with the assembler's built-ins.
const (
	DeviceCRT = 0 // output
	DeviceKBD = 1 // input
	SvcHalt   = 11
)

// InputOutput is the I/O back end the machine consumes during execution.
type InputOutput interface {
	Input(device uint16) (Word, error)
	Output(device uint16, data Word) error
	SupervisorCall(code uint16) error
}

// Listener observes execution events. A non-nil error aborts the step that
// produced the event.
type Listener func(event.Event) error

// Machine is one loaded program instance.
type Machine struct {
	r      [8]Word
	pc     uint16
	lastPC uint16 // address of the instruction being executed
	mem    []Word
	io     InputOutput

	listeners []Listener

	// COMP state consumed by the conditional jumps.
	less, equal, greater bool

	halted bool
}

// StackWords is the room reserved above the image for the call stack.
const StackWords = 256

// New creates a machine over the assembled image, bound to the given I/O
// back end. Memory is the image followed by the stack region; SP starts
// just below the first stack slot, since push pre-increments.
func New(image []Word, io InputOutput) *Machine {
	mem := make([]Word, len(image)+StackWords)
	copy(mem, image)
	m := &Machine{mem: mem, io: io}
	m.r[SP] = Word(len(image)) - 1
	return m
}

// AddListener registers an execution event listener. Listeners run in
// registration order, synchronously, during Step.
func (m *Machine) AddListener(fn Listener) {
	if fn != nil {
		m.listeners = append(m.listeners, fn)
	}
}

// Registers returns a snapshot copy of the register file.
func (m *Machine) Registers() []Word {
	out := make([]Word, len(m.r))
	copy(out, m.r[:])
	return out
}

// Register returns one register value.
func (m *Machine) Register(i uint8) Word {
	return m.r[i&7]
}

// PC returns the current program counter.
func (m *Machine) PC() uint16 {
	return m.pc
}

// Halted reports whether the program has executed its halting supervisor
// call. A halted machine steps as a no-op and produces no further events.
func (m *Machine) Halted() bool {
	return m.halted
}

// Size returns the number of words in the loaded image.
func (m *Machine) Size() int {
	return len(m.mem)
}

// GetData reads one memory cell without stepping. Out-of-range addresses
// return an AddressError.
func (m *Machine) GetData(addr uint16) (Word, error) {
	if int(addr) >= len(m.mem) {
		return 0, &AddressError{Addr: addr, Size: len(m.mem)}
	}
	return m.mem[addr], nil
}

func (m *Machine) emit(ev event.Event) error {
	for _, fn := range m.listeners {
		if err := fn(ev); err != nil {
			return err
		}
	}
	return nil
}

// setReg writes a register and emits the register-change event.
func (m *Machine) setReg(i uint8, v Word) error {
	m.r[i&7] = v
	return m.emit(event.RegisterChange(i&7, v))
}

// read fetches one word, faulting outside the image.
func (m *Machine) read(addr Word) (Word, *Fault) {
	if addr < 0 || int(addr) >= len(m.mem) {
		f := m.faultf(FaultAddressRange, "read of %d outside the %d-word image", addr, len(m.mem))
		f.err = &AddressError{Addr: uint16(addr), Size: len(m.mem)}
		return 0, f
	}
	return m.mem[addr], nil
}

// write stores one word and emits the memory-change event.
func (m *Machine) write(addr Word, v Word) error {
	if addr < 0 || int(addr) >= len(m.mem) {
		f := m.faultf(FaultAddressRange, "write of %d outside the %d-word image", addr, len(m.mem))
		f.err = &AddressError{Addr: uint16(addr), Size: len(m.mem)}
		return f
	}
	m.mem[addr] = v
	return m.emit(event.MemoryChange(uint16(addr), v))
}

// Run steps until the program halts or a step fails. Non-terminating
// programs are the caller's concern; Run has no internal budget.
func (m *Machine) Run() error {
	for !m.halted {
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}
