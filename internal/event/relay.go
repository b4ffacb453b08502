package event

import (
	"fmt"
	"sync"
)

// Wildcard subscribes a listener to every event kind.
const Wildcard = "*"

// Listener receives the uniform envelope form of an event. A non-nil error
// aborts the dispatch that triggered it; the relay never swallows listener
// failures.
type Listener func(Envelope) error

// Relay fans execution events out to registered listeners. One Relay is
// owned by a stepper session; callers get the *Relay handle, never a copy,
// so every registration routes to the same registry.
//
// The registry lock covers registration and the dispatch snapshot only;
// listener callbacks run outside it and may register further listeners.
type Relay struct {
	mu        sync.Mutex
	listeners map[Kind][]Listener
	universal []Listener
}

// NewRelay creates an empty relay.
func NewRelay() *Relay {
	return &Relay{
		listeners: make(map[Kind][]Listener),
	}
}

// Register subscribes the listener under an event type name or under
// Wildcard. Insertion order is the invocation order within each group.
func (r *Relay) Register(name string, fn Listener) error {
	if fn == nil {
		return fmt.Errorf("nil listener for %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if name == Wildcard {
		r.universal = append(r.universal, fn)
		return nil
	}
	kind, ok := KindByName(name)
	if !ok {
		return fmt.Errorf("unknown event type %q", name)
	}
	r.listeners[kind] = append(r.listeners[kind], fn)
	return nil
}

// Dispatch invokes every type-specific listener, then every universal
// listener, synchronously and in registration order. The invocation list is
// snapshotted under the registry lock, so a listener registered from inside
// a callback is never invoked within the same dispatch pass. The first
// listener error stops the pass and propagates to the caller.
func (r *Relay) Dispatch(ev Event) error {
	r.mu.Lock()
	pass := make([]Listener, 0, len(r.listeners[ev.Kind])+len(r.universal))
	pass = append(pass, r.listeners[ev.Kind]...)
	pass = append(pass, r.universal...)
	r.mu.Unlock()

	env := ev.Envelope()
	for _, fn := range pass {
		if err := fn(env); err != nil {
			return fmt.Errorf("%s listener: %w", ev.Kind, err)
		}
	}
	return nil
}
