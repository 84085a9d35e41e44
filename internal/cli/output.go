package cli

import (
	"fmt"
	"io"

	"github.com/vpclean/preprocess/internal/logger"
	"github.com/vpclean/preprocess/internal/profile"
	"github.com/vpclean/preprocess/internal/runtime"
)

// OutputOptions configures CLI output behavior.
type OutputOptions struct {
	Verbose bool
	Quiet   bool
}

// PrintRunResult displays a cleaning run summary. Verbose output lists every
// stage including skipped ones.
func PrintRunResult(w io.Writer, result *runtime.Result, opts OutputOptions) {
	if result == nil {
		fmt.Fprintln(w, "✗ No run result available")
		return
	}
	if opts.Quiet {
		return
	}

	fmt.Fprintln(w, "✓ Cleaning completed")
	fmt.Fprintf(w, "  Run: %s\n", result.RunID)
	fmt.Fprintf(w, "  Rows: %d in, %d out\n", result.RowsIn(), result.Table.Len())
	if opts.Verbose {
		fmt.Fprintf(w, "  Duration: %s\n", logger.FormatDuration(result.Duration))
	}

	printed := false
	for _, stage := range result.Stages {
		if stage.Skipped && !opts.Verbose {
			continue
		}
		if !opts.Verbose && stage.Removed() == 0 {
			continue
		}
		if !printed {
			fmt.Fprintln(w, "  Stages:")
			printed = true
		}
		printStageReport(w, stage)
	}
}

func printStageReport(w io.Writer, stage runtime.StageReport) {
	if stage.Skipped {
		fmt.Fprintf(w, "    %-26s skipped (%s)\n", stage.Name, stage.Reason)
		return
	}
	fmt.Fprintf(w, "    %-26s %d → %d", stage.Name, stage.RowsIn, stage.RowsOut)
	if removed := stage.Removed(); removed > 0 {
		fmt.Fprintf(w, " (-%d)", removed)
	}
	fmt.Fprintf(w, " %s\n", logger.FormatDuration(stage.Duration))
}

// PrintProfileSummary displays the counts behind each profiled variable.
func PrintProfileSummary(w io.Writer, summaries []profile.Summary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "ℹ No numeric variables to profile")
		return
	}
	fmt.Fprintf(w, "✓ Profiled %d variable(s)\n", len(summaries))
	for _, s := range summaries {
		fmt.Fprintf(w, "  %s: n=%d", s.Variable, s.Count)
		if s.Skipped > 0 {
			fmt.Fprintf(w, " skipped=%d", s.Skipped)
		}
		fmt.Fprintf(w, " mean=%.4g std=%.4g\n", s.Mean, s.StdDev)
	}
}
