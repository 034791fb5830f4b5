package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	// Version colors
	OldVersion = color.New(color.FgRed)
	NewVersion = color.New(color.FgGreen)

	// Message colors
	Success = color.New(color.FgGreen)
	Error   = color.New(color.FgRed)
	Dim     = color.New(color.Faint)

	// Structural colors
	Header  = color.New(color.FgWhite, color.Bold)
	Package = color.New(color.FgBlue, color.Bold)
	Number  = color.New(color.FgMagenta)
)

// NoColor disables color output
func NoColor() {
	color.NoColor = true
}

// ForceColor enables color output even when not a TTY
func ForceColor() {
	color.NoColor = false
}

// IsTerminal returns true if stdout is a terminal
func IsTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// FormatPackage formats a package name with color
func FormatPackage(name string) string {
	return Package.Sprint(name)
}

// FormatVersionChange renders "old -> new" with the old version in red and
// the new one in green.
func FormatVersionChange(oldVersion, newVersion string) string {
	return fmt.Sprintf("%s -> %s", OldVersion.Sprint(oldVersion), NewVersion.Sprint(newVersion))
}

// Outdated is one row of the outdated report.
type Outdated struct {
	Name          string
	LocalVersion  string
	RemoteVersion string
}

// FprintOutdated writes a numbered "name (old -> new)" line per package.
// Numbers match the order the packages are offered for selection.
func FprintOutdated(w io.Writer, rows []Outdated) {
	width := len(fmt.Sprint(len(rows)))
	for i, r := range rows {
		fmt.Fprintf(w, "%s %s (%s)\n",
			Number.Sprintf("%*d", width, i+1),
			FormatPackage(r.Name),
			FormatVersionChange(r.LocalVersion, r.RemoteVersion))
	}
}

// SearchResult is one row of a search listing.
type SearchResult struct {
	Name        string
	Version     string
	Description string
}

// FprintSearchResults lists results with the highest number first, so the
// best match (number 1) ends up next to the prompt.
func FprintSearchResults(w io.Writer, rows []SearchResult) {
	width := len(fmt.Sprint(len(rows)))
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		fmt.Fprintf(w, "%s %s %s\n", Number.Sprintf("%*d", width, i+1), FormatPackage(r.Name), NewVersion.Sprint(r.Version))
		if r.Description != "" {
			fmt.Fprintf(w, "%s %s\n", strings.Repeat(" ", width), Dim.Sprint(r.Description))
		}
	}
}

// Field is a labelled value for FprintFields.
type Field struct {
	Label string
	Value string
}

// FprintFields writes aligned "Label : value" lines, skipping empty values.
func FprintFields(w io.Writer, fields []Field) {
	width := 0
	for _, f := range fields {
		width = max(width, len(f.Label))
	}
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		fmt.Fprintf(w, "%s : %s\n", Header.Sprintf("%-*s", width, f.Label), f.Value)
	}
}
