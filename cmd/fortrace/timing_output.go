package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fortrace/internal/observ"
)

// newTimer returns a timer when --timings is set, nil otherwise. A nil
// timer records nothing.
func newTimer(cmd *cobra.Command) (*observ.Timer, error) {
	show, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if !show {
		return nil, nil
	}
	return observ.NewTimer(), nil
}

func printTimings(out io.Writer, timer *observ.Timer) {
	if out == nil || timer == nil {
		return
	}
	if _, err := io.WriteString(out, timer.Summary()); err != nil {
		panic(err)
	}
}
