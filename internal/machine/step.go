package machine

import (
	"errors"

	"kone/internal/asm"
	"kone/internal/device"
	"kone/internal/event"
)

// Step executes exactly one instruction, emitting every resulting event
// before returning. A halted machine steps as a no-op. Failures are typed:
// *Fault for execution errors (the input-underflow fault wraps
// device.ErrUnderflow), or the verbatim error of a listener that rejected
// an event.
//
// A faulting instruction is not retired: the program counter stays on it,
// so an underflow answered by seeding input re-executes the same IN.
func (m *Machine) Step() error {
	err := m.step()
	if err != nil {
		var fault *Fault
		if errors.As(err, &fault) {
			m.pc = m.lastPC
		}
	}
	return err
}

func (m *Machine) step() error {
	if m.halted {
		return nil
	}

	m.lastPC = m.pc
	word, fault := m.read(Word(m.pc))
	if fault != nil {
		return fault
	}
	m.pc++

	uw := uint32(word)
	op := asm.Opcode(uw >> 24)
	rj := uint8(uw >> 21 & 7)
	mode := asm.Mode(uw >> 19 & 3)
	ri := uint8(uw >> 16 & 7)
	addr := Word(int16(uw)) // sign-extended address field

	// Effective base: address plus index register. R0 as index reads as
	// zero, so an absent index and R0 encode the same thing.
	base := addr
	if ri != 0 {
		base += m.r[ri]
	}

	switch op {
	case asm.OpNOP:
		return nil

	case asm.OpSTORE:
		target, fault := m.storeTarget(mode, base)
		if fault != nil {
			return fault
		}
		return m.write(target, m.r[rj])

	case asm.OpLOAD:
		v, fault := m.value(mode, base)
		if fault != nil {
			return fault
		}
		return m.setReg(rj, v)

	case asm.OpIN:
		v, err := m.io.Input(DeviceKBD)
		if err != nil {
			if errors.Is(err, device.ErrUnderflow) {
				return m.underflow(err)
			}
			return err
		}
		return m.setReg(rj, v)

	case asm.OpOUT:
		v, fault := m.value(mode, base)
		if fault != nil {
			return fault
		}
		if err := m.io.Output(DeviceCRT, v); err != nil {
			return err
		}
		return m.emit(event.Output(DeviceCRT, v))

	case asm.OpADD, asm.OpSUB, asm.OpMUL, asm.OpDIV, asm.OpMOD,
		asm.OpAND, asm.OpOR, asm.OpXOR, asm.OpSHL, asm.OpSHR:
		v, fault := m.value(mode, base)
		if fault != nil {
			return fault
		}
		res, fault := m.arith(op, m.r[rj], v)
		if fault != nil {
			return fault
		}
		return m.setReg(rj, res)

	case asm.OpCOMP:
		v, fault := m.value(mode, base)
		if fault != nil {
			return fault
		}
		m.less = m.r[rj] < v
		m.equal = m.r[rj] == v
		m.greater = m.r[rj] > v
		return nil

	case asm.OpJUMP, asm.OpJNEG, asm.OpJZER, asm.OpJPOS,
		asm.OpJLES, asm.OpJEQU, asm.OpJGRE:
		target, fault := m.jumpTarget(mode, base)
		if fault != nil {
			return fault
		}
		if m.jumpTaken(op, rj) {
			m.pc = uint16(target)
		}
		return nil

	case asm.OpCALL:
		target, fault := m.jumpTarget(mode, base)
		if fault != nil {
			return fault
		}
		if err := m.push(Word(m.pc)); err != nil {
			return err
		}
		m.pc = uint16(target)
		return nil

	case asm.OpEXIT:
		v, fault := m.value(mode, base)
		if fault != nil {
			return fault
		}
		ret, err := m.pop()
		if err != nil {
			return err
		}
		// Discard the arguments the caller pushed.
		sp := m.r[SP] - v
		if err := m.setReg(SP, sp); err != nil {
			return err
		}
		m.pc = uint16(ret)
		return nil

	case asm.OpPUSH:
		v, fault := m.value(mode, base)
		if fault != nil {
			return fault
		}
		return m.push(v)

	case asm.OpPOP:
		v, err := m.pop()
		if err != nil {
			return err
		}
		return m.setReg(rj, v)

	case asm.OpSVC:
		v, fault := m.value(mode, base)
		if fault != nil {
			return fault
		}
		code := uint16(v)
		if err := m.io.SupervisorCall(code); err != nil {
			return err
		}
		if err := m.emit(event.SupervisorCall(code)); err != nil {
			return err
		}
		if code == SvcHalt {
			m.halted = true
		}
		return nil
	}

	return m.faultf(FaultBadOpcode, "unknown opcode %#02x", uint8(op))
}

// value evaluates a data operand: the effective base dereferenced once per
// addressing-mode level.
func (m *Machine) value(mode asm.Mode, base Word) (Word, *Fault) {
	v := base
	for i := 0; i < int(mode); i++ {
		var fault *Fault
		if v, fault = m.read(v); fault != nil {
			return 0, fault
		}
	}
	return v, nil
}

// storeTarget evaluates the destination of a STORE: direct mode writes to
// the effective address itself, indirect through one pointer word.
func (m *Machine) storeTarget(mode asm.Mode, base Word) (Word, *Fault) {
	switch mode {
	case asm.ModeDirect:
		return base, nil
	case asm.ModeIndirect:
		return m.read(base)
	}
	return 0, m.faultf(FaultBadAddressMode, "cannot store to an immediate")
}

// jumpTarget evaluates a branch target. Immediate and direct both name the
// address itself; indirect fetches the target through memory.
func (m *Machine) jumpTarget(mode asm.Mode, base Word) (Word, *Fault) {
	v := base
	if mode == asm.ModeIndirect {
		var fault *Fault
		if v, fault = m.read(v); fault != nil {
			return 0, fault
		}
	}
	if v < 0 || v >= Word(len(m.mem)) {
		return 0, m.faultf(FaultAddressRange, "jump to %d outside the %d-word image", v, len(m.mem))
	}
	return v, nil
}

func (m *Machine) jumpTaken(op asm.Opcode, rj uint8) bool {
	switch op {
	case asm.OpJUMP:
		return true
	case asm.OpJNEG:
		return m.r[rj] < 0
	case asm.OpJZER:
		return m.r[rj] == 0
	case asm.OpJPOS:
		return m.r[rj] > 0
	case asm.OpJLES:
		return m.less
	case asm.OpJEQU:
		return m.equal
	case asm.OpJGRE:
		return m.greater
	}
	return false
}

func (m *Machine) arith(op asm.Opcode, a, b Word) (Word, *Fault) {
	switch op {
	case asm.OpADD:
		return a + b, nil
	case asm.OpSUB:
		return a - b, nil
	case asm.OpMUL:
		return a * b, nil
	case asm.OpDIV:
		if b == 0 {
			return 0, m.faultf(FaultDivideByZero, "division by zero")
		}
		return a / b, nil
	case asm.OpMOD:
		if b == 0 {
			return 0, m.faultf(FaultDivideByZero, "modulo by zero")
		}
		return a % b, nil
	case asm.OpAND:
		return a & b, nil
	case asm.OpOR:
		return a | b, nil
	case asm.OpXOR:
		return a ^ b, nil
	case asm.OpSHL:
		return a << (uint32(b) & 31), nil
	case asm.OpSHR:
		return Word(uint32(a) >> (uint32(b) & 31)), nil
	}
	return 0, m.faultf(FaultBadOpcode, "unknown arithmetic opcode %#02x", uint8(op))
}

// push grows the stack upward: SP is incremented, then the word stored.
func (m *Machine) push(v Word) error {
	if err := m.setReg(SP, m.r[SP]+1); err != nil {
		return err
	}
	return m.write(m.r[SP], v)
}

func (m *Machine) pop() (Word, error) {
	sp := m.r[SP]
	if sp <= 0 {
		return 0, m.faultf(FaultStackUnderflow, "pop below the stack base")
	}
	v, fault := m.read(sp)
	if fault != nil {
		return 0, fault
	}
	if err := m.setReg(SP, sp-1); err != nil {
		return 0, err
	}
	return v, nil
}
