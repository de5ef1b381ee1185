package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fortrace/internal/mirror"
)

var statusCmd = &cobra.Command{
	Use:   "status [flags]",
	Short: "Show what the last sync left in the mirror",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().String("mirror", "", "instrumented mirror tree (overrides the manifest)")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	mirrorFlag, err := cmd.Flags().GetString("mirror")
	if err != nil {
		return err
	}
	mirrorRoot := mirrorFlag
	if mirrorRoot == "" {
		manifest, found, err := loadManifestOptional(".")
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no mirror given\nplease pass --mirror or run inside a project with a manifest")
		}
		mirrorRoot = manifest.Config.Project.Mirror
	}
	if mirrorRoot, err = filepath.Abs(mirrorRoot); err != nil {
		return err
	}

	st, ok, err := mirror.LoadState(mirrorRoot)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !ok {
		fmt.Fprintf(out, "no sync recorded in %s\n", mirrorRoot)
		return nil
	}

	bold := color.New(color.Bold)
	written := color.New(color.FgGreen)
	faint := color.New(color.Faint)

	group := st.Group
	if group == "" {
		group = "(explicit files)"
	}
	fmt.Fprintf(out, "%s %s\n", bold.Sprint("group:"), group)
	fmt.Fprintf(out, "%s %s\n", bold.Sprint("pristine:"), st.Pristine)
	fmt.Fprintf(out, "%s %s\n", bold.Sprint("synced:"), st.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "%s %s\n", bold.Sprint("selection:"), st.Selection.Short())
	for _, f := range st.Files {
		mark := faint.Sprint("unchanged")
		if f.Changed {
			mark = written.Sprint("written  ")
		}
		fmt.Fprintf(out, "  %s %s %3d  %s\n", mark, f.Digest.Short(), f.Inserted, f.Path)
	}
	if len(st.Reset) > 0 {
		fmt.Fprintf(out, "%s %d file(s) restored\n", bold.Sprint("reset:"), len(st.Reset))
	}
	return nil
}
