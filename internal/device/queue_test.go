package device_test

import (
	"errors"
	"testing"

	"kone/internal/device"
)

func TestInputFIFO(t *testing.T) {
	q := device.NewQueue(7, 9, 11)

	for _, want := range []int32{7, 9, 11} {
		got, err := q.Input(1)
		if err != nil {
			t.Fatalf("Input: %v", err)
		}
		if got != want {
			t.Errorf("Input = %d, want %d", got, want)
		}
	}
}

func TestInputUnderflow(t *testing.T) {
	q := device.NewQueue()

	if _, err := q.Input(1); !errors.Is(err, device.ErrUnderflow) {
		t.Fatalf("err = %v, want ErrUnderflow", err)
	}

	// Seeding after an underflow makes the queue usable again.
	q.Seed(5)
	got, err := q.Input(1)
	if err != nil || got != 5 {
		t.Fatalf("Input after Seed = %d, %v", got, err)
	}
}

func TestLogsOnlyGrow(t *testing.T) {
	q := device.NewQueue()

	if err := q.Output(0, 1); err != nil {
		t.Fatal(err)
	}
	if err := q.Output(3, 2); err != nil {
		t.Fatal(err)
	}
	if err := q.SupervisorCall(11); err != nil {
		t.Fatal(err)
	}

	out := q.OutputLog()
	if len(out) != 2 || out[0] != 1 || out[1] != 2 {
		t.Errorf("output = %v", out)
	}
	calls := q.CallLog()
	if len(calls) != 1 || calls[0] != 11 {
		t.Errorf("calls = %v", calls)
	}

	// Snapshots are copies; mutating one must not reach the queue.
	out[0] = 99
	if q.OutputLog()[0] != 1 {
		t.Error("OutputLog does not return a copy")
	}
}

func TestDeviceIDsShareOneQueue(t *testing.T) {
	q := device.NewQueue(42)

	// Any device id drains the same queue.
	got, err := q.Input(6)
	if err != nil || got != 42 {
		t.Fatalf("Input = %d, %v", got, err)
	}
	if q.Pending() != 0 {
		t.Errorf("Pending = %d", q.Pending())
	}
}
