package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode selects how sync progress is shown.
type uiMode string

const (
	uiModeAuto uiMode = "auto" // TUI only on an interactive stdout
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off" // plain summary line
)

func readUIMode(value string) (uiMode, error) {
	switch mode := uiMode(strings.TrimSpace(strings.ToLower(value))); mode {
	case "":
		return uiModeAuto, nil
	case uiModeAuto, uiModeOn, uiModeOff:
		return mode, nil
	default:
		return "", fmt.Errorf("sync --ui: unknown mode %q, use auto, on or off", value)
	}
}

// shouldUseTUI reports whether the progress display runs. Auto mode keeps
// redirected output (logs, CI) free of terminal control sequences.
func shouldUseTUI(mode uiMode) bool {
	if mode == uiModeAuto {
		return isTerminal(os.Stdout)
	}
	return mode == uiModeOn
}
