package debug

import (
	"fmt"
	"io"

	"kone/internal/event"
)

// Tracer writes a one-line record per step or event, for --trace output.
type Tracer struct {
	w io.Writer
}

// NewTracer creates a tracer that writes to w.
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{w: w}
}

// TraceStep records the post-step machine state.
// Format: step pc=NNNN line=N sp=N out=N calls=N
func (t *Tracer) TraceStep(s *Session, rep StepReport) {
	if t == nil || t.w == nil {
		return
	}
	fmt.Fprintf(t.w, "step pc=%04x line=%d sp=%d out=%d calls=%d\n",
		s.ProgramCounter(), rep.SourceLine, s.StackPointer(), len(rep.Output), len(rep.Calls))
}

// TraceEvent records one dispatched event in envelope form.
func (t *Tracer) TraceEvent(env event.Envelope) {
	if t == nil || t.w == nil {
		return
	}
	fmt.Fprintf(t.w, "event %s %+v\n", env.Type, env.Payload)
}

// Listener adapts the tracer into a relay listener.
func (t *Tracer) Listener() event.Listener {
	return func(env event.Envelope) error {
		t.TraceEvent(env)
		return nil
	}
}
