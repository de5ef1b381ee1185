package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fortrace/internal/diag"
	"fortrace/internal/instrument"
	"fortrace/internal/observ"
)

var instrumentCmd = &cobra.Command{
	Use:   "instrument [flags] <file>",
	Short: "Insert trace markers into a single Fortran file",
	Long: `Insert a start marker after the declarations and a finish marker before the
end (or before "contains") of every routine in the file. The result goes to
stdout unless -o is given; an output file is only rewritten when it differs.`,
	Args: cobra.ExactArgs(1),
	RunE: runInstrument,
}

func init() {
	instrumentCmd.Flags().StringP("output", "o", "", "write the instrumented file here instead of stdout")
	instrumentCmd.Flags().StringArray("ignore", nil, "skip routines matching pattern (name:x, contains:x, file:x)")
	instrumentCmd.Flags().Bool("verbose", false, "report every skipped routine")
}

func runInstrument(cmd *cobra.Command, args []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	extra, err := cmd.Flags().GetStringArray("ignore")
	if err != nil {
		return err
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}
	quiet, err := quietFlag(cmd)
	if err != nil {
		return err
	}
	maxDiagnostics, err := maxDiagnosticsFlag(cmd)
	if err != nil {
		return err
	}
	timer, err := newTimer(cmd)
	if err != nil {
		return err
	}

	manifest, _, err := loadManifestOptional(".")
	if err != nil {
		return err
	}
	patterns, err := ignorePatterns(manifest, extra)
	if err != nil {
		return err
	}

	engine := instrument.New(instrument.Options{
		IgnorePatterns: patterns,
		MaxDiagnostics: maxDiagnostics,
	})

	var res *instrument.Result
	if err := timer.Measure(observ.PhaseScan, func() error {
		var ierr error
		res, ierr = engine.InstrumentFile(args[0])
		return ierr
	}); err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	if output == "" {
		if _, err := cmd.OutOrStdout().Write(res.Content()); err != nil {
			return err
		}
	} else {
		var changed bool
		if err := timer.Measure(observ.PhaseWrite, func() error {
			var werr error
			changed, werr = instrument.WriteIfChanged(output, res.Content())
			return werr
		}); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		logger.Debug().Str("file", output).Bool("changed", changed).Msg("instrumented")
	}

	if !quiet {
		floor := diag.SevWarning
		if verbose {
			floor = diag.SevInfo
		}
		printDiagnostics(stderr, res.Bag, floor, "")
		fmt.Fprintf(stderr, "%s: %d routine(s) instrumented, %d skipped\n", res.Origin, res.Inserted, len(res.Skipped))
	}
	printTimings(stderr, timer)
	return nil
}
