package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
)

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func printStatus(w io.Writer, ok bool, format string, args ...any) {
	if ok {
		_, _ = color.New(color.FgGreen).Fprintf(w, "✓ "+format+"\n", args...)
		return
	}
	_, _ = color.New(color.FgRed).Fprintf(w, "✗ "+format+"\n", args...)
}

func faint(format string, args ...any) string {
	return color.New(color.Faint).Sprintf(format, args...)
}

func formatFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
