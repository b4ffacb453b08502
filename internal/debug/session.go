package debug

import (
	"errors"
	"fmt"

	"kone/internal/asm"
	"kone/internal/device"
	"kone/internal/diag"
	"kone/internal/event"
	"kone/internal/machine"
	"kone/internal/source"
)

// LoadError carries the diagnostics of a source text that failed to parse
// or assemble. A failing program is never partially loaded: either every
// diagnostic comes back here, or the session is created with none.
type LoadError struct {
	Files *source.FileSet
	File  source.FileID
	Bag   *diag.Bag
}

func (e *LoadError) Error() string {
	n := 0
	for _, d := range e.Bag.Items() {
		if d.Severity == diag.SevError {
			n++
		}
	}
	return fmt.Sprintf("program did not assemble: %d error(s)", n)
}

// Options configures a session.
type Options struct {
	Input []int32 // pre-seeded device input words
}

// Session is one interactive stepping session: the machine, its device
// queue, the event relay, and the load-time symbol table and line map, all
// created together and sharing one lifetime.
//
// A session is single-threaded: sharing one across goroutines is not
// supported. Only the relay registry carries a lock, so listener
// registration cannot interleave with an in-flight dispatch.
type Session struct {
	files   *source.FileSet
	file    source.FileID
	mach  *machine.Machine
	queue *device.Queue
	relay *event.Relay
	lines *LineMap
	img   *asm.Image

	fault *machine.Fault // latched execution fault
}

// StepReport is the observable result of one step: the full accumulated
// output and supervisor-call logs (callers diff against their previous
// report), and the source line owning the new program counter, 0 when
// unknown.
type StepReport struct {
	Output     []int32
	Calls      []uint16
	SourceLine uint32
}

// NewSession parses and assembles the source text and binds a fresh device
// queue and event relay. Failures come back as a *LoadError holding the
// full diagnostics bag.
func NewSession(name string, text []byte, opts Options) (*Session, error) {
	files := source.NewFileSet()
	id := files.AddVirtual(name, text)
	file := files.Get(id)

	prog, perrs := asm.Parse(file)
	if perrs != nil {
		return nil, &LoadError{Files: files, File: id, Bag: asm.Diagnostics(files, id, perrs)}
	}
	img, cerrs := asm.Compile(prog)
	if cerrs != nil {
		return nil, &LoadError{Files: files, File: id, Bag: asm.Diagnostics(files, id, cerrs)}
	}

	queue := device.NewQueue(opts.Input...)
	relay := event.NewRelay()
	mach := machine.New(img.Words, queue)
	mach.AddListener(relay.Dispatch)

	return &Session{
		files: files,
		file:  id,
		mach:  mach,
		queue: queue,
		relay: relay,
		lines: NewLineMap(files, img.SourceMap),
		img:   img,
	}, nil
}

// Step advances the machine exactly one instruction, dispatching its events
// through the relay before returning. An execution fault latches the
// session: further calls re-signal the same fault. The input-underflow
// fault does not latch, so the host can seed more input and continue.
func (s *Session) Step() (StepReport, error) {
	if s.fault != nil {
		return StepReport{}, s.fault
	}

	if err := s.mach.Step(); err != nil {
		var fault *machine.Fault
		if errors.As(err, &fault) && !fault.IsUnderflow() {
			s.fault = fault
		}
		return StepReport{}, err
	}
	return s.report(), nil
}

func (s *Session) report() StepReport {
	return StepReport{
		Output:     s.queue.OutputLog(),
		Calls:      s.queue.CallLog(),
		SourceLine: s.lines.LineOrZero(s.mach.PC()),
	}
}

// Registers returns a snapshot copy of the register file.
func (s *Session) Registers() []int32 {
	return s.mach.Registers()
}

// ProgramCounter returns the current instruction pointer.
func (s *Session) ProgramCounter() uint16 {
	return s.mach.PC()
}

// StackPointer returns the value of R6, the conventional stack register.
func (s *Session) StackPointer() int32 {
	return s.mach.Register(machine.SP)
}

// ReadAddress reads one memory cell. Out-of-range addresses report a
// recoverable *machine.AddressError without disturbing the session.
func (s *Session) ReadAddress(addr uint16) (int32, error) {
	return s.mach.GetData(addr)
}

// SymbolTable returns the read-only symbol table built at load time.
// Callers must not modify the returned map.
func (s *Session) SymbolTable() map[string]uint16 {
	return s.img.Symbols
}

// SymbolNames returns the symbol names in listing order.
func (s *Session) SymbolNames() []string {
	return s.img.SortedSymbols()
}

// SourceMap returns the read-only address-to-line index.
func (s *Session) SourceMap() *LineMap {
	return s.lines
}

// AddListener subscribes a callback under an event type name or under
// event.Wildcard, forwarding to the session's relay.
func (s *Session) AddListener(name string, fn event.Listener) error {
	return s.relay.Register(name, fn)
}

// SeedInput appends words to the device input queue, typically after a
// step reported an input underflow.
func (s *Session) SeedInput(words ...int32) {
	s.queue.Seed(words...)
}

// PendingInput returns the number of unconsumed input words.
func (s *Session) PendingInput() int {
	return s.queue.Pending()
}

// Halted reports whether the program has executed its halting call.
func (s *Session) Halted() bool {
	return s.mach.Halted()
}

// Faulted returns the latched execution fault, or nil while the session is
// still runnable.
func (s *Session) Faulted() *machine.Fault {
	return s.fault
}

// Files exposes the file set holding the program source, for rendering
// diagnostics and source listings.
func (s *Session) Files() (*source.FileSet, source.FileID) {
	return s.files, s.file
}
