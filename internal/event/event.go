// Package event defines the execution events the machine emits while
// stepping and the relay that fans them out to host listeners.
package event

// Kind represents the type of execution event.
type Kind uint8

const (
	// KindSupervisorCall is emitted when the program traps into the host.
	KindSupervisorCall Kind = iota + 1
	// KindMemoryChange is emitted for every memory word write.
	KindMemoryChange
	// KindRegisterChange is emitted for every register write.
	KindRegisterChange
	// KindOutput is emitted when a word is written to a device.
	KindOutput
)

// String returns the listener-facing type name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSupervisorCall:
		return "supervisor-call"
	case KindMemoryChange:
		return "memory-change"
	case KindRegisterChange:
		return "register-change"
	case KindOutput:
		return "output"
	default:
		return "unknown"
	}
}

// KindByName resolves a listener-facing type name back to its kind.
func KindByName(name string) (Kind, bool) {
	switch name {
	case "supervisor-call":
		return KindSupervisorCall, true
	case "memory-change":
		return KindMemoryChange, true
	case "register-change":
		return KindRegisterChange, true
	case "output":
		return KindOutput, true
	}
	return 0, false
}

// Event is one observed side effect of executing a single instruction.
// The union is closed: exactly the fields named by the kind are meaningful.
// Instances are immutable once emitted.
type Event struct {
	Kind Kind

	Code     uint16 // KindSupervisorCall
	Address  uint16 // KindMemoryChange
	Register uint8  // KindRegisterChange
	Device   uint16 // KindOutput
	Data     int32  // change/output payload word
}

// SupervisorCall builds a supervisor-call event.
func SupervisorCall(code uint16) Event {
	return Event{Kind: KindSupervisorCall, Code: code}
}

// MemoryChange builds a memory-write event.
func MemoryChange(address uint16, data int32) Event {
	return Event{Kind: KindMemoryChange, Address: address, Data: data}
}

// RegisterChange builds a register-write event.
func RegisterChange(register uint8, data int32) Event {
	return Event{Kind: KindRegisterChange, Register: register, Data: data}
}

// Output builds a device-output event.
func Output(device uint16, data int32) Event {
	return Event{Kind: KindOutput, Device: device, Data: data}
}
