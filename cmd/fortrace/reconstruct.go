package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fortrace/internal/calltree"
	"fortrace/internal/diag"
	"fortrace/internal/observ"
)

var reconstructCmd = &cobra.Command{
	Use:   "reconstruct [flags] <log>",
	Short: "Rebuild an indented call tree from marker output",
	Long: `Read the output of an instrumented run, keep the marker lines, drop markers
that repeat too often and indent every remaining line by its call depth.`,
	Args: cobra.ExactArgs(1),
	RunE: runReconstruct,
}

func init() {
	reconstructCmd.Flags().StringP("output", "o", "", "write the trace here instead of stdout")
	reconstructCmd.Flags().Int("threshold", calltree.DefaultThreshold, "drop lines seen at least this many times (0 disables)")
	reconstructCmd.Flags().StringArray("files", nil, "keep only markers from these source files")
	reconstructCmd.Flags().String("indent", calltree.DefaultIndent, "indent unit per depth level")
	reconstructCmd.Flags().Bool("verbose", false, "report malformed and unmatched markers")
}

func runReconstruct(cmd *cobra.Command, args []string) error {
	output, err := cmd.Flags().GetString("output")
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
	opts := calltree.DefaultOptions()
	if manifest != nil {
		opts.FrequencyThreshold = manifest.Threshold()
		opts.Origins = manifest.Config.Trace.Files
		if indent := manifest.Indent(); indent != "" {
			opts.Indent = indent
		}
	}
	// флаги важнее манифеста
	if cmd.Flags().Changed("threshold") {
		if opts.FrequencyThreshold, err = cmd.Flags().GetInt("threshold"); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("files") {
		if opts.Origins, err = cmd.Flags().GetStringArray("files"); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("indent") {
		if opts.Indent, err = cmd.Flags().GetString("indent"); err != nil {
			return err
		}
	}
	bag := diag.NewBag(maxDiagnostics)
	opts.Reporter = diag.BagReporter{Bag: bag}

	var res *calltree.Result
	if err := timer.Measure(observ.PhaseReconstruct, func() error {
		var rerr error
		res, rerr = calltree.ReconstructFile(args[0], output, opts)
		return rerr
	}); err != nil {
		return err
	}
	if output == "" {
		if err := timer.Measure(observ.PhaseWrite, func() error {
			_, werr := res.WriteTo(cmd.OutOrStdout())
			return werr
		}); err != nil {
			return err
		}
	}

	stderr := cmd.ErrOrStderr()
	if verbose {
		printDiagnostics(stderr, bag, diag.SevInfo, "")
	}
	if !quiet {
		fmt.Fprintln(stderr, res.Stats.Summary())
	}
	logger.Debug().
		Int("markers", res.Stats.Markers).
		Int("kept", res.Stats.Kept).
		Int("unmatched", res.Stats.Unmatched).
		Msg("reconstructed")
	printTimings(stderr, timer)
	return nil
}
