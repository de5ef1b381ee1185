package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"fortrace/internal/diag"
)

var (
	sevErrorColor   = color.New(color.FgRed, color.Bold)
	sevWarningColor = color.New(color.FgYellow, color.Bold)
	sevInfoColor    = color.New(color.FgCyan)
)

// printDiagnostics writes bag items at or above floor, sorted.
func printDiagnostics(out io.Writer, bag *diag.Bag, floor diag.Severity, root string) int {
	if bag == nil {
		return 0
	}
	bag.Sort()
	n := 0
	for _, d := range bag.Items() {
		if !d.Severity.AtLeast(floor) {
			continue
		}
		loc := formatPathForOutput(root, d.Path)
		if d.Line > 0 {
			loc = fmt.Sprintf("%s:%d", loc, d.Line)
		}
		fmt.Fprintf(out, "%s: %s %s: %s\n", loc, severityColor(d.Severity).Sprint(d.Severity), d.Code.ID(), d.Message)
		n++
	}
	return n
}

func severityColor(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return sevErrorColor
	case diag.SevWarning:
		return sevWarningColor
	default:
		return sevInfoColor
	}
}
