package event

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// SchemaVersion is the version of the cross-boundary payload schema.
// Increment when any payload struct changes shape.
const SchemaVersion uint16 = 1

// Envelope is the uniform payload handed to listeners and serialized across
// the host boundary: the event type name plus the variant-specific fields.
type Envelope struct {
	Schema  uint16 `msgpack:"schema" json:"schema"`
	Type    string `msgpack:"type" json:"type"`
	Payload any    `msgpack:"payload" json:"payload"`
}

// SupervisorCallPayload carries the fields of a supervisor-call event.
type SupervisorCallPayload struct {
	Code uint16 `msgpack:"code" json:"code"`
}

// MemoryChangePayload carries the fields of a memory-change event.
type MemoryChangePayload struct {
	Address uint16 `msgpack:"address" json:"address"`
	Data    int32  `msgpack:"data" json:"data"`
}

// RegisterChangePayload carries the fields of a register-change event.
// The register is identified by its numeric index.
type RegisterChangePayload struct {
	Register uint8 `msgpack:"register" json:"register"`
	Data     int32 `msgpack:"data" json:"data"`
}

// OutputPayload carries the fields of a device-output event.
type OutputPayload struct {
	Device uint16 `msgpack:"device" json:"device"`
	Data   int32  `msgpack:"data" json:"data"`
}

// Envelope converts the event into its cross-boundary form. The payload
// cases are enumerated here, once, rather than constructed per dispatch
// site.
func (e Event) Envelope() Envelope {
	env := Envelope{Schema: SchemaVersion, Type: e.Kind.String()}
	switch e.Kind {
	case KindSupervisorCall:
		env.Payload = SupervisorCallPayload{Code: e.Code}
	case KindMemoryChange:
		env.Payload = MemoryChangePayload{Address: e.Address, Data: e.Data}
	case KindRegisterChange:
		env.Payload = RegisterChangePayload{Register: e.Register, Data: e.Data}
	case KindOutput:
		env.Payload = OutputPayload{Device: e.Device, Data: e.Data}
	}
	return env
}

// Encode serializes the envelope with msgpack.
func (env Envelope) Encode() ([]byte, error) {
	b, err := msgpack.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", env.Type, err)
	}
	return b, nil
}
