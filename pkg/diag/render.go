package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Renderer writes diagnostics in human-readable form: a header line, the
// offending source line with the primary span underlined, and a help line.
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a Renderer writing to out.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// Render writes every diagnostic in the bundle in span order.
func (r *Renderer) Render(bundle *Bundle) {
	for _, d := range bundle.All() {
		r.RenderOne(d)
	}
}

// RenderOne writes a single diagnostic.
func (r *Renderer) RenderOne(d *Diagnostic) {
	header := color.New(color.Bold)

	switch d.Severity {
	case SeverityError:
		color.New(color.FgRed, color.Bold).Fprintf(r.out, "error[%s]", d.Code)
	case SeverityWarning:
		color.New(color.FgYellow, color.Bold).Fprintf(r.out, "warning[%s]", d.Code)
	case SeverityNote:
		color.New(color.FgCyan, color.Bold).Fprintf(r.out, "note[%s]", d.Code)
	}

	header.Fprintf(r.out, ": %s\n", d.Message)

	r.renderLabel(d.Primary, true)

	for _, sec := range d.Secondary {
		r.renderLabel(sec, false)
	}

	if d.Help != "" {
		color.New(color.FgGreen).Fprintf(r.out, "  help: ")
		fmt.Fprintf(r.out, "%s\n", d.Help)
	}

	fmt.Fprintln(r.out)
}

func (r *Renderer) renderLabel(lbl Label, primary bool) {
	if lbl.Src == nil {
		return
	}

	line, col := lbl.Src.Position(lbl.Span.Start)

	color.New(color.FgBlue).Fprintf(r.out, "  --> ")
	fmt.Fprintf(r.out, "%s:%d:%d\n", lbl.Src.Origin(), line, col)

	text := lbl.Src.Line(line)
	if text == "" && lbl.Span.Len() == 0 {
		return
	}

	gutter := fmt.Sprintf("%4d | ", line)
	fmt.Fprintf(r.out, "%s%s\n", gutter, text)

	// Underline the in-line part of the span.
	underlineLen := lbl.Span.Len()

	endLine, _ := lbl.Src.Position(lbl.Span.End)
	if endLine != line {
		underlineLen = len(text) - (col - 1)
	}

	if underlineLen < 1 {
		underlineLen = 1
	}

	marker := "^"
	markerColor := color.New(color.FgRed, color.Bold)

	if !primary {
		marker = "-"
		markerColor = color.New(color.FgBlue)
	}

	pad := strings.Repeat(" ", len(gutter)+col-1)
	markerColor.Fprintf(r.out, "%s%s", pad, strings.Repeat(marker, underlineLen))

	if lbl.Label != "" {
		markerColor.Fprintf(r.out, " %s", lbl.Label)
	}

	fmt.Fprintln(r.out)
}
