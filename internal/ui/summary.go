// Package ui renders styled, non-interactive build output.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// FileStatus is one line in the build summary.
type FileStatus struct {
	Path string
	// Status is one of "ok", "error", "cached".
	Status string
	// Detail is extra right-hand text, e.g. "2 errors" or "1.2 KiB".
	Detail string
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	cachedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Summary prints one status line per file followed by a totals line.
func Summary(w io.Writer, title string, files []FileStatus, width int) {
	if width <= 0 {
		width = 80
	}
	fmt.Fprintln(w, titleStyle.Render(title))

	nameWidth := width - 12
	if nameWidth < 20 {
		nameWidth = 20
	}

	okCount, errCount := 0, 0
	for _, f := range files {
		switch f.Status {
		case "error":
			errCount++
		default:
			okCount++
		}
		line := fmt.Sprintf("  %s %s", styleStatus(f.Status).Render(fmt.Sprintf("%8s", f.Status)),
			truncate(f.Path, nameWidth))
		if f.Detail != "" {
			line += " " + dimStyle.Render(f.Detail)
		}
		fmt.Fprintln(w, line)
	}

	totals := fmt.Sprintf("%d ok, %d failed", okCount, errCount)
	if errCount == 0 {
		totals = okStyle.Render(totals)
	} else {
		totals = errorStyle.Render(totals)
	}
	fmt.Fprintf(w, "\n%s\n", totals)
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "ok":
		return okStyle
	case "error":
		return errorStyle
	case "cached":
		return cachedStyle
	default:
		return dimStyle
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}

// FormatSize renders a byte count the way build tools usually do.
func FormatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// Plural appends "s" for counts other than one.
func Plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
