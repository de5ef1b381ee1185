package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"fortrace/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [flags] [dir]",
	Short: "Create a fortrace.toml manifest",
	Long: `Create a commented fortrace.toml in dir (the current directory by default).
Pristine and mirror paths are written relative to the manifest.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().String("pristine", "mesa", "pristine source tree")
	initCmd.Flags().String("mirror", "mesa_print", "instrumented mirror tree")
}

func runInit(cmd *cobra.Command, args []string) error {
	pristine, err := cmd.Flags().GetString("pristine")
	if err != nil {
		return err
	}
	mirrorDir, err := cmd.Flags().GetString("mirror")
	if err != nil {
		return err
	}

	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	if target, err = filepath.Abs(target); err != nil {
		return err
	}
	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	manifestPath := filepath.Join(target, project.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}
	content := project.DefaultManifest(filepath.ToSlash(pristine), filepath.ToSlash(mirrorDir))
	if err := os.WriteFile(manifestPath, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	rel := target
	if wd, err := os.Getwd(); err == nil {
		if r, err := filepath.Rel(wd, target); err == nil {
			rel = r
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized fortrace project in %s\n  - %s\n", rel, project.ManifestName)
	return nil
}
