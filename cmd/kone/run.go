package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kone/internal/debug"
	"kone/internal/diagfmt"
	"kone/internal/observ"
	"kone/internal/project"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [file.k91]",
	Short: "Assemble and execute a K91 program",
	Long:  `Assemble a K91 source file and run it to completion, printing the output device log. Without an argument the program comes from the kone.toml manifest`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExecution,
}

func init() {
	runCmd.Flags().Int32Slice("input", nil, "words pre-seeded on the input device")
	runCmd.Flags().Bool("trace", false, "print a trace line per executed step")
	runCmd.Flags().String("manifest", "", "explicit kone.toml path (default: discovered upward)")
}

func runExecution(cmd *cobra.Command, args []string) error {
	input, err := cmd.Flags().GetInt32Slice("input")
	if err != nil {
		return fmt.Errorf("failed to get input flag: %w", err)
	}
	trace, err := cmd.Flags().GetBool("trace")
	if err != nil {
		return fmt.Errorf("failed to get trace flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	manifestPath, err := cmd.Flags().GetString("manifest")
	if err != nil {
		return fmt.Errorf("failed to get manifest flag: %w", err)
	}

	filePath, input, trace, err := resolveRunTarget(args, manifestPath, input, trace)
	if err != nil {
		return err
	}

	timer := observ.NewTimer()
	loadPhase := timer.Begin("load")
	text, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	timer.End(loadPhase, filePath)

	runPhase := timer.Begin("assemble+run")
	var output []int32
	if trace {
		output, err = runTraced(filePath, text, input)
	} else {
		output, err = debug.ExecuteToCompletion(filePath, text, input...)
	}
	timer.End(runPhase, "")

	if err != nil {
		if printLoadError(cmd, err) {
			os.Exit(1)
		}
		return err
	}

	if !quiet {
		for _, word := range output {
			fmt.Fprintln(cmd.OutOrStdout(), word)
		}
	}
	if showTimings {
		fmt.Fprint(os.Stderr, timer.Summary())
	}
	return nil
}

// resolveRunTarget picks the program path and run settings: the argument
// wins, the manifest fills in the rest.
func resolveRunTarget(args []string, manifestPath string, input []int32, trace bool) (string, []int32, bool, error) {
	if len(args) == 1 {
		return args[0], input, trace, nil
	}
	var (
		manifest *project.Manifest
		err      error
	)
	if manifestPath != "" {
		manifest, err = project.LoadFile(manifestPath)
		if err != nil {
			return "", nil, false, err
		}
	} else {
		var ok bool
		manifest, ok, err = project.Load("")
		if err != nil {
			return "", nil, false, err
		}
		if !ok {
			return "", nil, false, fmt.Errorf("no %s found\nplease specify the program explicitly, e.g.:\n  kone run path/to/program.k91", project.ManifestName)
		}
	}
	if len(input) == 0 {
		input = manifest.Config.Run.Input
	}
	trace = trace || manifest.Config.Run.Trace
	return manifest.MainPath(), input, trace, nil
}

// runTraced steps a session manually so every instruction leaves a trace
// line on stderr.
func runTraced(name string, text []byte, input []int32) ([]int32, error) {
	session, err := debug.NewSession(name, text, debug.Options{Input: input})
	if err != nil {
		return nil, err
	}
	tracer := debug.NewTracer(os.Stderr)

	var last debug.StepReport
	for !session.Halted() {
		rep, err := session.Step()
		if err != nil {
			return nil, err
		}
		tracer.TraceStep(session, rep)
		last = rep
	}
	return last.Output, nil
}

// printLoadError renders assembler diagnostics; it reports whether the error
// was one.
func printLoadError(cmd *cobra.Command, err error) bool {
	var lerr *debug.LoadError
	if !errors.As(err, &lerr) {
		return false
	}
	maxDiagnostics, flagErr := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if flagErr != nil {
		maxDiagnostics = 0
	}
	lerr.Bag.Sort()
	diagfmt.Pretty(os.Stderr, lerr.Bag, lerr.Files, diagfmt.PrettyOpts{
		Color:     useColor(cmd),
		Max:       maxDiagnostics,
		ShowNotes: true,
	})
	return true
}
