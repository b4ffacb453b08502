package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"kone/internal/debug"
	"kone/internal/diag"
	"kone/internal/diagfmt"
	"kone/internal/observ"
	"kone/internal/source"
)

var diagCmd = &cobra.Command{
	Use:   "diag [flags] <file.k91|directory>",
	Short: "Run diagnostics on K91 source files",
	Long:  `Assemble one file or every *.k91 file within a directory and report syntax and symbol issues without executing anything`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDiagnose,
}

func init() {
	diagCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	diagCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	diagCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	path := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	switch format {
	case "pretty", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}

	timer := observ.NewTimer()
	collectPhase := timer.Begin("collect")
	paths, err := collectSources(path)
	if err != nil {
		return err
	}
	files := source.NewFileSet()
	ids := make([]source.FileID, len(paths))
	for i, p := range paths {
		if ids[i], err = files.Load(p); err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
	}
	timer.End(collectPhase, fmt.Sprintf("%d file(s)", len(paths)))

	diagnosePhase := timer.Begin("diagnose")
	bag, err := diagnoseAll(cmd, files, ids, jobs)
	timer.End(diagnosePhase, "")
	if err != nil {
		return err
	}

	// One merged, sorted report: diagnostics group by file in load order.
	bag.Sort()
	switch format {
	case "json":
		err = diagfmt.JSON(cmd.OutOrStdout(), bag, files, diagfmt.JSONOpts{
			IncludePositions: true,
			Max:              maxDiagnostics,
			IncludeNotes:     withNotes,
		})
		if err != nil {
			return err
		}
	default:
		diagfmt.Pretty(cmd.OutOrStdout(), bag, files, diagfmt.PrettyOpts{
			Color:     useColor(cmd),
			Max:       maxDiagnostics,
			ShowNotes: withNotes,
		})
	}

	if showTimings {
		fmt.Fprint(os.Stderr, timer.Summary())
	}
	if bag.HasErrors() {
		os.Exit(1)
	}
	return nil
}

// collectSources expands a directory into its *.k91 files, sorted for a
// deterministic report order.
func collectSources(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var paths []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".k91") {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no .k91 files found in %q", path)
	}
	sort.Strings(paths)
	return paths, nil
}

// diagnoseAll assembles every file on a bounded worker group and merges the
// per-file bags into one.
func diagnoseAll(cmd *cobra.Command, files *source.FileSet, ids []source.FileID, jobs int) (*diag.Bag, error) {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	// Each worker owns one slot, so no lock is needed.
	bags := make([]*diag.Bag, len(ids))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(jobs)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, lerr := debug.Assemble(files, id); lerr != nil {
				bags[i] = lerr.Bag
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := diag.NewBag(0)
	for _, bag := range bags {
		if bag != nil {
			merged.Merge(bag)
		}
	}
	return merged, nil
}
