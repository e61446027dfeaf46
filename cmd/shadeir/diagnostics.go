package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"shadeir/internal/diag"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	noteColor    = color.New(color.FgBlue)
	codeColor    = color.New(color.Faint)
)

// printDiagnostics writes one line per diagnostic:
// <span> <SEV> <CODE>: <message>, followed by its notes.
func printDiagnostics(w io.Writer, origin string, bag *diag.Bag) {
	if bag == nil {
		return
	}
	for _, d := range bag.Items() {
		prefix := origin
		if !d.Primary.Empty() {
			prefix += ":" + d.Primary.String()
		}
		fmt.Fprintf(w, "%s: %s %s: %s\n", prefix, severityColor(d.Severity).Sprint(d.Severity), codeColor.Sprint(d.Code.ID()), d.Message)
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  %s %s\n", noteColor.Sprint("note:"), n.Msg)
		}
	}
	if int(bag.Cap()) == bag.Len() {
		fmt.Fprintf(w, "%s: diagnostics truncated at %d\n", origin, bag.Len())
	}
}

func severityColor(sev diag.Severity) *color.Color {
	switch {
	case sev.IsError():
		return errorColor
	case sev == diag.SevWarning:
		return warningColor
	default:
		return infoColor
	}
}
