package event_test

import (
	"errors"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"kone/internal/event"
)

func TestDispatchSpecificBeforeUniversal(t *testing.T) {
	relay := event.NewRelay()

	var order []string
	add := func(name, tag string) {
		t.Helper()
		err := relay.Register(name, func(env event.Envelope) error {
			order = append(order, tag)
			return nil
		})
		if err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	add("output", "specific")
	add(event.Wildcard, "universal")

	if err := relay.Dispatch(event.Output(0, 42)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	want := []string{"specific", "universal"}
	if len(order) != len(want) {
		t.Fatalf("order = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestDispatchRegistrationOrderWithinGroup(t *testing.T) {
	relay := event.NewRelay()

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		if err := relay.Register("register-change", func(event.Envelope) error {
			order = append(order, i)
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	}

	if err := relay.Dispatch(event.RegisterChange(1, 5)); err != nil {
		t.Fatal(err)
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("order = %v", order)
		}
	}
}

func TestDispatchSkipsOtherKinds(t *testing.T) {
	relay := event.NewRelay()

	called := false
	if err := relay.Register("memory-change", func(event.Envelope) error {
		called = true
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if err := relay.Dispatch(event.Output(0, 1)); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("memory-change listener ran for an output event")
	}
}

func TestDispatchSnapshotsRegistrations(t *testing.T) {
	relay := event.NewRelay()

	var calls []string
	if err := relay.Register("output", func(event.Envelope) error {
		calls = append(calls, "first")
		return relay.Register(event.Wildcard, func(event.Envelope) error {
			calls = append(calls, "late")
			return nil
		})
	}); err != nil {
		t.Fatal(err)
	}

	// A listener registered mid-dispatch must not run in the same pass.
	if err := relay.Dispatch(event.Output(0, 1)); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 || calls[0] != "first" {
		t.Fatalf("calls = %v", calls)
	}

	if err := relay.Dispatch(event.Output(0, 2)); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 3 || calls[2] != "late" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestDispatchPropagatesListenerError(t *testing.T) {
	relay := event.NewRelay()

	boom := errors.New("listener rejected")
	if err := relay.Register(event.Wildcard, func(event.Envelope) error {
		return boom
	}); err != nil {
		t.Fatal(err)
	}

	err := relay.Dispatch(event.SupervisorCall(11))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestRegisterUnknownType(t *testing.T) {
	relay := event.NewRelay()
	if err := relay.Register("bogus", func(event.Envelope) error { return nil }); err == nil {
		t.Fatal("expected an error for an unknown event type")
	}
}

func TestEnvelopePayloads(t *testing.T) {
	tests := []struct {
		ev       event.Event
		wantType string
		want     any
	}{
		{event.SupervisorCall(11), "supervisor-call", event.SupervisorCallPayload{Code: 11}},
		{event.MemoryChange(7, -1), "memory-change", event.MemoryChangePayload{Address: 7, Data: -1}},
		{event.RegisterChange(3, 9), "register-change", event.RegisterChangePayload{Register: 3, Data: 9}},
		{event.Output(0, 42), "output", event.OutputPayload{Device: 0, Data: 42}},
	}
	for _, tc := range tests {
		env := tc.ev.Envelope()
		if env.Type != tc.wantType {
			t.Errorf("type = %q, want %q", env.Type, tc.wantType)
		}
		if env.Schema != event.SchemaVersion {
			t.Errorf("schema = %d", env.Schema)
		}
		if env.Payload != tc.want {
			t.Errorf("payload = %+v, want %+v", env.Payload, tc.want)
		}
	}
}

func TestEnvelopeEncodeRoundTrip(t *testing.T) {
	env := event.Output(0, 42).Envelope()
	b, err := env.Encode()
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := msgpack.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["type"] != "output" {
		t.Errorf("type = %v", decoded["type"])
	}
	payload, ok := decoded["payload"].(map[string]any)
	if !ok {
		t.Fatalf("payload = %T", decoded["payload"])
	}
	if _, ok := payload["data"]; !ok {
		t.Error("payload has no data field")
	}
}
