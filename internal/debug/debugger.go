package debug

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"kone/internal/event"
	"kone/internal/machine"
)

// Debugger provides an interactive command loop over a Session.
type Debugger struct {
	session *Session

	in          *bufio.Scanner
	out         io.Writer
	interactive bool

	report StepReport
	quit   bool
}

// DebuggerResult contains the result of a debugger session.
type DebuggerResult struct {
	Quit   bool
	Halted bool
}

// NewDebugger creates a debugger over the session. Interactive mode prints a
// prompt; script mode reads commands until EOF and then runs to completion.
func NewDebugger(session *Session, in io.Reader, out io.Writer, interactive bool) *Debugger {
	if in == nil {
		in = strings.NewReader("")
	}
	if out == nil {
		out = io.Discard
	}
	return &Debugger{
		session:     session,
		in:          bufio.NewScanner(in),
		out:         out,
		interactive: interactive,
	}
}

// Run executes the debugger session.
func (d *Debugger) Run() (DebuggerResult, error) {
	for {
		if d.session.Halted() {
			return DebuggerResult{Halted: true}, nil
		}
		if d.quit {
			return DebuggerResult{Quit: true}, nil
		}

		if d.interactive {
			fmt.Fprint(d.out, "(konedb) ")
		}
		if !d.in.Scan() {
			break
		}
		line := strings.TrimSpace(d.in.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := d.execCommand(line); err != nil {
			return DebuggerResult{}, err
		}
	}

	// Script mode: when input ends, continue to completion.
	if !d.interactive && !d.quit {
		if err := d.runToHalt(); err != nil {
			return DebuggerResult{}, err
		}
	}

	return DebuggerResult{Quit: d.quit, Halted: d.session.Halted()}, nil
}

func (d *Debugger) execCommand(line string) error {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "help", "h":
		d.help()
	case "step", "s":
		return d.cmdStep()
	case "continue", "c", "run":
		return d.runToHalt()
	case "regs", "r":
		d.cmdRegs()
	case "mem", "m":
		d.cmdMem(args)
	case "sym":
		d.cmdSym()
	case "out":
		fmt.Fprintf(d.out, "output: %v\n", d.report.Output)
		fmt.Fprintf(d.out, "calls:  %v\n", d.report.Calls)
	case "seed":
		d.cmdSeed(args)
	case "watch":
		d.cmdWatch(args)
	case "quit", "q":
		d.quit = true
	default:
		fmt.Fprintf(d.out, "error: unknown command %q (try help)\n", cmd)
	}
	return nil
}

// cmdStep advances one instruction. Faults print but do not end the loop:
// an underflow can be answered with seed, and a latched fault keeps
// reporting itself until the user quits.
func (d *Debugger) cmdStep() error {
	rep, err := d.session.Step()
	if err != nil {
		fmt.Fprintf(d.out, "fault: %s\n", err.Error())
		return nil
	}
	d.report = rep
	fmt.Fprintf(d.out, "pc=%04x line=%d\n", d.session.ProgramCounter(), rep.SourceLine)
	return nil
}

// continueBudget bounds continue so a looping program cannot wedge the
// session.
const continueBudget = 1_000_000

func (d *Debugger) runToHalt() error {
	for i := 0; i < continueBudget; i++ {
		if d.session.Halted() {
			return nil
		}
		rep, err := d.session.Step()
		if err != nil {
			fmt.Fprintf(d.out, "fault: %s\n", err.Error())
			return nil
		}
		d.report = rep
	}
	fmt.Fprintf(d.out, "error: program did not halt after %d steps\n", continueBudget)
	return nil
}

func (d *Debugger) cmdRegs() {
	regs := d.session.Registers()
	for i, v := range regs {
		name := fmt.Sprintf("R%d", i)
		switch i {
		case machine.SP:
			name = "SP"
		case machine.FP:
			name = "FP"
		}
		fmt.Fprintf(d.out, "%-3s %11d\n", name, v)
	}
	fmt.Fprintf(d.out, "PC  %11d\n", d.session.ProgramCounter())
}

func (d *Debugger) cmdMem(args []string) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(d.out, "error: mem expects <addr> [count]")
		return
	}
	addr, err := d.parseAddr(args[0])
	if err != nil {
		fmt.Fprintf(d.out, "error: %s\n", err.Error())
		return
	}
	count := uint16(1)
	if len(args) == 2 {
		n, err := strconv.ParseUint(args[1], 0, 16)
		if err != nil || n == 0 {
			fmt.Fprintf(d.out, "error: bad count %q\n", args[1])
			return
		}
		count = uint16(n)
	}
	for i := uint16(0); i < count; i++ {
		v, err := d.session.ReadAddress(addr + i)
		if err != nil {
			fmt.Fprintf(d.out, "error: %s\n", err.Error())
			return
		}
		fmt.Fprintf(d.out, "%04x: %d\n", addr+i, v)
	}
}

// parseAddr accepts a numeric address or a symbol name.
func (d *Debugger) parseAddr(s string) (uint16, error) {
	if addr, ok := d.session.SymbolTable()[s]; ok {
		return addr, nil
	}
	n, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("bad address %q", s)
	}
	return uint16(n), nil
}

func (d *Debugger) cmdSym() {
	syms := d.session.SymbolTable()
	if len(syms) == 0 {
		fmt.Fprintln(d.out, "no symbols")
		return
	}
	for _, name := range d.session.SymbolNames() {
		fmt.Fprintf(d.out, "%-16s %04x\n", name, syms[name])
	}
}

func (d *Debugger) cmdSeed(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(d.out, "error: seed expects one or more words")
		return
	}
	words := make([]int32, 0, len(args))
	for _, a := range args {
		n, err := strconv.ParseInt(a, 0, 32)
		if err != nil {
			fmt.Fprintf(d.out, "error: bad word %q\n", a)
			return
		}
		words = append(words, int32(n))
	}
	d.session.SeedInput(words...)
	fmt.Fprintf(d.out, "seeded %d word(s), %d pending\n", len(words), d.session.PendingInput())
}

// cmdWatch prints every event of the named type (or "*") as it is
// dispatched. Watches cannot be removed; they live as long as the session.
func (d *Debugger) cmdWatch(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(d.out, "error: watch expects an event type or *")
		return
	}
	name := args[0]
	err := d.session.AddListener(name, func(env event.Envelope) error {
		fmt.Fprintf(d.out, "watch %s %+v\n", env.Type, env.Payload)
		return nil
	})
	if err != nil {
		fmt.Fprintf(d.out, "error: %s\n", err.Error())
		return
	}
	fmt.Fprintf(d.out, "watching %s\n", name)
}

func (d *Debugger) help() {
	fmt.Fprint(d.out, `commands:
  step, s          execute one instruction
  continue, c      run until halt or fault
  regs, r          print the register file
  mem <addr> [n]   print n memory words at addr (number or symbol)
  sym              print the symbol table
  out              print the output and supervisor-call logs
  seed <w>...      append words to the input device
  watch <type>     print events of a type (or *) as they happen
  quit, q          leave the debugger
`)
}
