package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fortrace/internal/diag"
	"fortrace/internal/instrument"
	"fortrace/internal/mirror"
	"fortrace/internal/observ"
)

var syncCmd = &cobra.Command{
	Use:   "sync [flags] [group | files...]",
	Short: "Instrument a file group into the mirror tree",
	Long: `Instrument the selected pristine files into the mirror tree and restore every
other mirror file that still carries markers from an earlier selection. Only
files whose content changes are written.

A single argument naming a group (see "fortrace sync --list") selects that
group; anything else is a list of files relative to the pristine root.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().String("pristine", "", "pristine source tree (overrides the manifest)")
	syncCmd.Flags().String("mirror", "", "instrumented mirror tree (overrides the manifest)")
	syncCmd.Flags().Bool("no-reset", false, "leave markers from earlier selections in place")
	syncCmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
	syncCmd.Flags().Bool("watch", false, "re-sync whenever a selected file changes")
	syncCmd.Flags().Bool("list", false, "list available groups and exit")
}

func runSync(cmd *cobra.Command, args []string) error {
	pristineFlag, err := cmd.Flags().GetString("pristine")
	if err != nil {
		return err
	}
	mirrorFlag, err := cmd.Flags().GetString("mirror")
	if err != nil {
		return err
	}
	noReset, err := cmd.Flags().GetBool("no-reset")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return err
	}
	list, err := cmd.Flags().GetBool("list")
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
	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	timer, err := newTimer(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	manifest, _, err := loadManifestOptional(".")
	if err != nil {
		return err
	}
	pristine, mirrorRoot, err := treeRoots(manifest, pristineFlag, mirrorFlag)
	if err != nil {
		return err
	}
	resolver := resolverFor(manifest, pristine)

	if list {
		for _, name := range resolver.Names() {
			fmt.Fprintln(out, name)
		}
		return nil
	}
	if len(args) == 0 {
		return fmt.Errorf("nothing to sync: name a group or files (groups: %s)", strings.Join(resolver.Names(), ", "))
	}

	var selected, universe []string
	var group string
	if err := timer.Measure(observ.PhaseSelect, func() error {
		var serr error
		selected, group, serr = resolver.Select(args)
		if serr != nil {
			return serr
		}
		universe, serr = resolver.Universe()
		return serr
	}); err != nil {
		return err
	}

	patterns, err := ignorePatterns(manifest, nil)
	if err != nil {
		return err
	}
	reset := !noReset
	if manifest != nil && !manifest.Reset() && !cmd.Flags().Changed("no-reset") {
		reset = false
	}

	req := mirror.Request{
		Pristine: pristine,
		Mirror:   mirrorRoot,
		Group:    group,
		Selected: selected,
		Universe: universe,
		Reset:    reset,
		Engine: instrument.New(instrument.Options{
			IgnorePatterns: patterns,
			MaxDiagnostics: maxDiagnostics,
		}),
		Logger:         &logger,
		MaxDiagnostics: maxDiagnostics,
	}
	logger.Debug().
		Str("group", group).
		Int("selected", len(selected)).
		Int("universe", len(universe)).
		Bool("reset", reset).
		Msg("sync request")

	if watch {
		return watchSync(cmd.Context(), out, stderr, req, quiet)
	}

	var rep *mirror.Report
	err = timer.Measure(observ.PhaseSync, func() error {
		var serr error
		if shouldUseTUI(uiModeValue) && !quiet {
			rep, serr = runSyncWithUI(cmd.Context(), "fortrace sync", &req)
		} else {
			rep, serr = mirror.Sync(cmd.Context(), req)
		}
		return serr
	})
	if rep != nil && !quiet {
		printDiagnostics(stderr, rep.Bag, diag.SevWarning, mirrorRoot)
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w\nthe mirror tree must already hold a copy of every selected file", err)
		}
		return err
	}
	if !quiet {
		printSyncSummary(out, rep, group)
	}
	printTimings(stderr, timer)
	return nil
}

func printSyncSummary(out io.Writer, rep *mirror.Report, group string) {
	label := group
	if label == "" {
		label = "selection"
	}
	fmt.Fprintf(out, "synced %s: %d written, %d unchanged, %d reset (%s)\n",
		label, rep.Written, rep.Unchanged, len(rep.Reset), rep.Elapsed.Round(time.Millisecond))
}

func watchSync(parent context.Context, out, stderr io.Writer, req mirror.Request, quiet bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	if !quiet {
		fmt.Fprintf(stderr, "watching %d file(s), press Ctrl-C to stop\n", len(req.Selected))
	}
	return mirror.Watch(ctx, req, mirror.WatchOptions{
		OnSync: func(rep *mirror.Report, err error) {
			if err != nil {
				fmt.Fprintf(stderr, "sync failed: %v\n", err)
				return
			}
			if !quiet {
				printDiagnostics(stderr, rep.Bag, diag.SevWarning, req.Mirror)
				printSyncSummary(out, rep, req.Group)
			}
		},
	})
}
