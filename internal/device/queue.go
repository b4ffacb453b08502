// Package device models the machine's I/O back end: one shared input queue
// consumed on demand, an append-only output log, and an append-only
// supervisor-call log.
package device

import (
	"errors"
)

// ErrUnderflow is returned when the program requests input and the queue is
// empty. It is a recoverable condition: the host can seed more input and
// step again.
var ErrUnderflow = errors.New("device input queue is empty")

// Queue is the single-peripheral I/O model bound to one machine instance.
// Device identifiers are accepted but not used for routing; every device
// shares the one input queue and output log. Output and Calls only ever
// grow during a run.
type Queue struct {
	input  []int32
	output []int32
	calls  []uint16
}

// NewQueue creates a queue pre-seeded with the given input words.
func NewQueue(input ...int32) *Queue {
	q := &Queue{}
	q.Seed(input...)
	return q
}

// Seed appends words to the back of the input queue.
func (q *Queue) Seed(words ...int32) {
	q.input = append(q.input, words...)
}

// Input removes and returns the front of the input queue.
func (q *Queue) Input(device uint16) (int32, error) {
	_ = device
	if len(q.input) == 0 {
		return 0, ErrUnderflow
	}
	word := q.input[0]
	q.input = q.input[1:]
	return word, nil
}

// Output appends the word to the output log.
func (q *Queue) Output(device uint16, data int32) error {
	_ = device
	q.output = append(q.output, data)
	return nil
}

// SupervisorCall appends the code to the calls log.
func (q *Queue) SupervisorCall(code uint16) error {
	q.calls = append(q.calls, code)
	return nil
}

// Pending returns the number of words waiting in the input queue.
func (q *Queue) Pending() int {
	return len(q.input)
}

// OutputLog returns a snapshot copy of the accumulated output words.
func (q *Queue) OutputLog() []int32 {
	out := make([]int32, len(q.output))
	copy(out, q.output)
	return out
}

// CallLog returns a snapshot copy of the accumulated supervisor-call codes.
func (q *Queue) CallLog() []uint16 {
	out := make([]uint16, len(q.calls))
	copy(out, q.calls)
	return out
}
