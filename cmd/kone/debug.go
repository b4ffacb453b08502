package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"kone/internal/debug"
	"kone/internal/event"
	"kone/internal/ui"
)

var debugCmd = &cobra.Command{
	Use:   "debug [flags] <file.k91>",
	Short: "Step through a K91 program interactively",
	Long: `Assemble a K91 source file and open a stepping session. With a terminal
the default is a command loop (step, regs, mem, seed); --ui opens the
full-screen view instead. Piped stdin is read as a debugger script`,
	Args: cobra.ExactArgs(1),
	RunE: runDebug,
}

func init() {
	debugCmd.Flags().Int32Slice("input", nil, "words pre-seeded on the input device")
	debugCmd.Flags().Bool("ui", false, "open the full-screen stepping view")
	debugCmd.Flags().Bool("trace", false, "print a trace line per dispatched event")
	debugCmd.Flags().String("events", "", "append every event as a msgpack envelope to this file ('-' for stdout)")
}

func runDebug(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	input, err := cmd.Flags().GetInt32Slice("input")
	if err != nil {
		return fmt.Errorf("failed to get input flag: %w", err)
	}
	useUI, err := cmd.Flags().GetBool("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	trace, err := cmd.Flags().GetBool("trace")
	if err != nil {
		return fmt.Errorf("failed to get trace flag: %w", err)
	}
	eventsPath, err := cmd.Flags().GetString("events")
	if err != nil {
		return fmt.Errorf("failed to get events flag: %w", err)
	}

	text, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	session, err := debug.NewSession(filePath, text, debug.Options{Input: input})
	if err != nil {
		if printLoadError(cmd, err) {
			os.Exit(1)
		}
		return err
	}

	if trace {
		tracer := debug.NewTracer(os.Stderr)
		if err := session.AddListener(event.Wildcard, tracer.Listener()); err != nil {
			return err
		}
	}
	if eventsPath != "" {
		sink, closeSink, err := openEventSink(eventsPath)
		if err != nil {
			return err
		}
		defer closeSink()
		if err := session.AddListener(event.Wildcard, streamEvents(sink)); err != nil {
			return err
		}
	}

	if useUI {
		if !isTerminal(os.Stdout) {
			return fmt.Errorf("--ui requires a terminal")
		}
		model := ui.NewStepperModel(filePath, session)
		program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
		_, err := program.Run()
		return err
	}

	repl := debug.NewDebugger(session, os.Stdin, os.Stdout, isTerminal(os.Stdin))
	res, err := repl.Run()
	if err != nil {
		return err
	}
	if fault := session.Faulted(); fault != nil {
		return fault
	}
	if res.Quit {
		return nil
	}
	return nil
}

func openEventSink(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}

// streamEvents appends the msgpack encoding of every envelope to the sink.
func streamEvents(w io.Writer) event.Listener {
	return func(env event.Envelope) error {
		data, err := env.Encode()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
}
