package debug_test

import (
	"errors"
	"testing"

	"kone/internal/debug"
	"kone/internal/device"
	"kone/internal/event"
	"kone/internal/machine"
)

func mustSession(t *testing.T, text string, input ...int32) *debug.Session {
	t.Helper()
	s, err := debug.NewSession("test.k91", []byte(text), debug.Options{Input: input})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func stepUntilHalt(t *testing.T, s *debug.Session) debug.StepReport {
	t.Helper()
	var last debug.StepReport
	for i := 0; !s.Halted(); i++ {
		if i > 10000 {
			t.Fatal("program did not halt")
		}
		rep, err := s.Step()
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		last = rep
	}
	return last
}

func TestFirstStepReport(t *testing.T) {
	s := mustSession(t, "OUT =42\nSVC =HALT\n")

	rep, err := s.Step()
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Output) != 1 || rep.Output[0] != 42 {
		t.Errorf("output = %v", rep.Output)
	}
	if len(rep.Calls) != 0 {
		t.Errorf("calls = %v", rep.Calls)
	}
	// The counter already points at the next instruction.
	if rep.SourceLine != 2 {
		t.Errorf("source line = %d", rep.SourceLine)
	}
}

func TestStepMatchesBatchRun(t *testing.T) {
	text := `      LOAD R1, =5
loop  OUT  R1
      SUB  R1, =1
      COMP R1, =0
      JGRE loop
      SVC  =HALT
`
	want, err := debug.ExecuteToCompletion("test.k91", []byte(text))
	if err != nil {
		t.Fatal(err)
	}

	s := mustSession(t, text)
	rep := stepUntilHalt(t, s)

	if len(rep.Output) != len(want) {
		t.Fatalf("stepped output = %v, batch = %v", rep.Output, want)
	}
	for i := range want {
		if rep.Output[i] != want[i] {
			t.Fatalf("stepped output = %v, batch = %v", rep.Output, want)
		}
	}
}

func TestEchoWithSeededInput(t *testing.T) {
	s := mustSession(t, "IN R1\nOUT R1\nSVC =HALT\n", 7)

	rep := stepUntilHalt(t, s)
	if len(rep.Output) != 1 || rep.Output[0] != 7 {
		t.Errorf("output = %v", rep.Output)
	}
	if s.PendingInput() != 0 {
		t.Errorf("pending input = %d", s.PendingInput())
	}
}

func TestUnderflowRecovery(t *testing.T) {
	s := mustSession(t, "IN R1\nOUT R1\nSVC =HALT\n")

	_, err := s.Step()
	var fault *machine.Fault
	if !errors.As(err, &fault) || !fault.IsUnderflow() {
		t.Fatalf("err = %v", err)
	}
	if !errors.Is(err, device.ErrUnderflow) {
		t.Error("underflow should wrap device.ErrUnderflow")
	}
	if s.Faulted() != nil {
		t.Fatal("underflow must not latch the session")
	}

	s.SeedInput(9)
	rep := stepUntilHalt(t, s)
	if len(rep.Output) != 1 || rep.Output[0] != 9 {
		t.Errorf("output after reseed = %v", rep.Output)
	}
}

func TestFaultLatches(t *testing.T) {
	s := mustSession(t, "LOAD R1, =1\nDIV R1, =0\nSVC =HALT\n")

	if _, err := s.Step(); err != nil {
		t.Fatal(err)
	}
	_, err := s.Step()
	var fault *machine.Fault
	if !errors.As(err, &fault) || fault.Code != machine.FaultDivideByZero {
		t.Fatalf("err = %v", err)
	}
	if s.Faulted() != fault {
		t.Error("fault should be latched")
	}

	// Every further step re-signals the same fault.
	_, again := s.Step()
	if !errors.As(again, &fault) || fault.Code != machine.FaultDivideByZero {
		t.Fatalf("relatched err = %v", again)
	}
}

func TestHaltedStep(t *testing.T) {
	s := mustSession(t, "SVC =HALT\n")
	stepUntilHalt(t, s)

	rep, err := s.Step()
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Calls) != 1 || rep.Calls[0] != machine.SvcHalt {
		t.Errorf("calls = %v", rep.Calls)
	}
}

func TestReadAddress(t *testing.T) {
	s := mustSession(t, "SVC =HALT\nx DC 7\n")

	got, err := s.ReadAddress(1)
	if err != nil || got != 7 {
		t.Fatalf("ReadAddress(1) = %d, %v", got, err)
	}

	_, err = s.ReadAddress(0x7FFF)
	var addrErr *machine.AddressError
	if !errors.As(err, &addrErr) {
		t.Fatalf("err = %v, want AddressError", err)
	}
	if s.Faulted() != nil {
		t.Error("an out-of-range read must not disturb the session")
	}
}

func TestSymbolTable(t *testing.T) {
	s := mustSession(t, "      LOAD R1, x\n      SVC =HALT\nx     DC 7\n")

	syms := s.SymbolTable()
	if addr, ok := syms["x"]; !ok || addr != 2 {
		t.Errorf("symbols = %v", syms)
	}
}

func TestSourceMapLines(t *testing.T) {
	s := mustSession(t, "OUT =1\nOUT =2\nSVC =HALT\n")

	lm := s.SourceMap()
	for addr, want := range map[uint16]uint32{0: 1, 1: 2, 2: 3} {
		if got := lm.LineOrZero(addr); got != want {
			t.Errorf("line of %d = %d, want %d", addr, got, want)
		}
	}
	if lm.LineOrZero(0x7FFF) != 0 {
		t.Error("unmapped address should resolve to 0")
	}
}

func TestSessionListeners(t *testing.T) {
	s := mustSession(t, "OUT =42\nSVC =HALT\n")

	var got []string
	listen := func(name string) {
		if err := s.AddListener(name, func(env event.Envelope) error {
			got = append(got, name+":"+env.Type)
			return nil
		}); err != nil {
			t.Fatalf("AddListener(%q): %v", name, err)
		}
	}
	listen("output")
	listen(event.Wildcard)

	stepUntilHalt(t, s)

	want := []string{
		"output:output",
		"*:output",
		"*:supervisor-call",
	}
	if len(got) != len(want) {
		t.Fatalf("deliveries = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("deliveries = %v, want %v", got, want)
		}
	}
}

func TestUnknownListenerName(t *testing.T) {
	s := mustSession(t, "SVC =HALT\n")
	if err := s.AddListener("no-such-event", func(event.Envelope) error { return nil }); err == nil {
		t.Fatal("registration under an unknown name should fail")
	}
}

func TestLoadErrorDiagnostics(t *testing.T) {
	_, err := debug.NewSession("bad.k91", []byte("LAOD R1, =42\n"), debug.Options{})
	var le *debug.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v", err)
	}
	if !le.Bag.HasErrors() {
		t.Error("load error should carry error diagnostics")
	}
}

func TestExecuteToCompletionLoadError(t *testing.T) {
	_, err := debug.ExecuteToCompletion("bad.k91", []byte("JUMP nowhere\n"))
	var le *debug.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v", err)
	}
}

func TestParseOnly(t *testing.T) {
	prog, _, lerr := debug.Parse("ok.k91", []byte("OUT =1\nSVC =HALT\n"))
	if lerr != nil {
		t.Fatalf("parse: %v", lerr)
	}
	if len(prog.Instructions) != 2 {
		t.Errorf("instructions = %d", len(prog.Instructions))
	}

	if _, _, lerr := debug.Parse("bad.k91", []byte("LAOD R1\n")); lerr == nil {
		t.Fatal("misspelled mnemonic should fail to parse")
	}
}
