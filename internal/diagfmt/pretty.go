// Package diagfmt renders batched diagnostics for humans and tools.
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"raven/internal/diag"
	"raven/internal/source"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan, color.Bold)
	noteColor = color.New(color.FgBlue)
)

// Pretty renders every diagnostic in the bag. Callers are expected to have
// called bag.Sort() beforehand. Each diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the offending source line with a caret underline, then notes.
func Pretty(w io.Writer, bag *diag.Bag, fileSet *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		writeHeading(w, fileSet, d, opts)
		writeContext(w, fileSet, d.Primary, opts)
		if opts.ShowNotes {
			for _, n := range d.Notes {
				start, _ := fileSet.Resolve(n.Span)
				fmt.Fprintf(w, "  %s: %s:%d:%d: %s\n",
					paint(noteColor, "note", opts.Color),
					formatPath(fileSet, n.Span.File, opts.PathMode),
					start.Line, start.Col, n.Msg)
			}
		}
	}
}

func writeHeading(w io.Writer, fileSet *source.FileSet, d diag.Diagnostic, opts PrettyOpts) {
	start, _ := fileSet.Resolve(d.Primary)
	sev := paint(severityColor(d.Severity), d.Severity.String(), opts.Color)
	fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
		formatPath(fileSet, d.Primary.File, opts.PathMode),
		start.Line, start.Col, sev, d.Code.ID(), d.Message)
}

// writeContext prints the first line of the span with a ^~~~ underline.
func writeContext(w io.Writer, fileSet *source.FileSet, sp source.Span, opts PrettyOpts) {
	start, end := fileSet.Resolve(sp)
	line := fileSet.Get(sp.File).GetLine(start.Line)
	if line == "" {
		return
	}

	fmt.Fprintf(w, "    %s\n", line)

	// Columns are byte offsets into the line; widths account for wide runes.
	startCol := int(start.Col) - 1
	if startCol > len(line) {
		startCol = len(line)
	}
	endCol := len(line)
	if end.Line == start.Line && int(end.Col)-1 < endCol {
		endCol = int(end.Col) - 1
	}
	if endCol <= startCol {
		endCol = startCol + 1
		if endCol > len(line) {
			endCol = len(line)
			startCol = endCol - 1
		}
	}

	pad := runewidth.StringWidth(line[:startCol])
	width := runewidth.StringWidth(line[startCol:endCol])
	if width < 1 {
		width = 1
	}
	underline := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, "    %s%s\n", strings.Repeat(" ", pad),
		paint(severityColor(diag.SevError), underline, opts.Color))
}

func severityColor(s diag.Severity) *color.Color {
	switch s {
	case diag.SevWarning:
		return warnColor
	case diag.SevInfo:
		return infoColor
	default:
		return errColor
	}
}

func paint(c *color.Color, s string, enabled bool) string {
	if !enabled {
		return s
	}
	return c.Sprint(s)
}

func formatPath(fileSet *source.FileSet, id source.FileID, mode PathMode) string {
	f := fileSet.Get(id)
	switch mode {
	case PathModeAbsolute:
		return f.Path
	case PathModeBasename:
		if i := strings.LastIndexByte(f.Path, '/'); i >= 0 {
			return f.Path[i+1:]
		}
		return f.Path
	default:
		return f.FormatPath(fileSet.BaseDir())
	}
}
