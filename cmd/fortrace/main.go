// Package main implements the fortrace CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"fortrace/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "fortrace",
	Short: "Fortran call tracing toolkit",
	Long: `fortrace instruments Fortran routines with entry/exit markers, keeps an
instrumented mirror of a source tree in sync and turns the marker output of a
run back into an indented call tree.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupOutput,
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(instrumentCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(reconstructCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error); overrides "+envLogLevelHint)
	rootCmd.PersistentFlags().Int("max-diagnostics", 256, "maximum number of diagnostics to keep per file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
