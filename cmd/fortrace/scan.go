package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"fortrace/internal/diag"
	"fortrace/internal/observ"
	"fortrace/internal/project"
	"fortrace/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan [flags] <file|directory>",
	Short: "Show routine boundaries and insertion points without writing",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().String("format", "text", "output format (text|json|yaml)")
	scanCmd.Flags().Int("jobs", 0, "max parallel workers for directory scans (0=auto)")
	scanCmd.Flags().StringArray("ignore", nil, "skip routines matching pattern (name:x, contains:x, file:x)")
}

func runScan(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	switch format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unsupported format %q (must be text, json or yaml)", format)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	extra, err := cmd.Flags().GetStringArray("ignore")
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

	target := args[0]
	st, err := os.Stat(target)
	if err != nil {
		return err
	}
	paths := []string{target}
	displayRoot := ""
	if st.IsDir() {
		displayRoot = target
		exts := project.DefaultExtensions
		if manifest != nil {
			exts = manifest.Extensions()
		}
		if paths, err = scan.ListSources(target, exts); err != nil {
			return err
		}
	}

	var reports []scan.FileReport
	if err := timer.Measure(observ.PhaseScan, func() error {
		var serr error
		reports, serr = scan.ScanFiles(cmd.Context(), paths, patterns, maxDiagnostics, jobs)
		return serr
	}); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(reports)
	case "yaml":
		var data []byte
		if data, err = yaml.Marshal(reports); err == nil {
			_, err = out.Write(data)
		}
	default:
		renderScanText(out, reports, displayRoot)
	}
	if err != nil {
		return err
	}

	failed := 0
	stderr := cmd.ErrOrStderr()
	for i := range reports {
		if reports[i].Bag.HasErrors() {
			printDiagnostics(stderr, reports[i].Bag, diag.SevError, "")
			failed++
		}
	}
	printTimings(stderr, timer)
	if failed > 0 {
		return fmt.Errorf("%d file(s) could not be scanned", failed)
	}
	return nil
}

func renderScanText(out io.Writer, reports []scan.FileReport, root string) {
	for _, rep := range reports {
		fmt.Fprintf(out, "%s\n", formatPathForOutput(root, rep.Path))
		for _, r := range rep.Routines {
			status := r.Status.String()
			if r.Reason != "" {
				status += " (" + r.Reason + ")"
			}
			if r.End < 0 {
				fmt.Fprintf(out, "  %6d  %-32s %s\n", r.Header+1, r.Label, status)
				continue
			}
			fmt.Fprintf(out, "  %6d  %-32s start@%d finish@%d end@%d  %s\n",
				r.Header+1, r.Label, r.Insertion+1, r.FinishAt+1, r.End+1, status)
		}
	}
}
